package modules

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestTokenA(t *testing.T) {
	t.Parallel()

	mod, err := TokenA()
	require.NoError(t, err)

	assert.Equal(t, TokenAModuleID, mod.ID())
	require.Len(t, mod.Futures(), 1)

	f := mod.Futures()[0]
	assert.Equal(t, "TokenAModule#TokenA", f.ID())
	assert.Equal(t, TokenAContract, f.ContractName())
	assert.Empty(t, f.Args())
	assert.True(t, f.Force())
	assert.Same(t, f, mod.Results()["tokenA"])
}

func TestNewStakingArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		now       time.Time
		env       map[string]string
		wantStart int64
		wantToken string
	}{
		{
			name:      "whole second",
			now:       time.Unix(1_700_000_000, 0),
			env:       map[string]string{TokenAddressEnv: "0xBde71bB4593C4964dad1A685CbE9Cf6a2cDBDca7"},
			wantStart: 1_700_000_000,
			wantToken: "0xBde71bB4593C4964dad1A685CbE9Cf6a2cDBDca7",
		},
		{
			name:      "fraction is floored",
			now:       time.Unix(1_700_000_000, 999_999_999),
			env:       map[string]string{TokenAddressEnv: "0xabc"},
			wantStart: 1_700_000_000,
			wantToken: "0xabc",
		},
		{
			name:      "before the epoch is floored",
			now:       time.Unix(-2, 500_000_000),
			env:       map[string]string{},
			wantStart: -2,
			wantToken: "",
		},
		{
			name:      "value passed without transformation",
			now:       time.Unix(5, 0),
			env:       map[string]string{TokenAddressEnv: "  not an address  "},
			wantStart: 5,
			wantToken: "  not an address  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := NewStakingArgs(Deps{
				Clock:     clockwork.NewFakeClockAt(tt.now),
				LookupEnv: envOf(tt.env),
			})

			assert.Equal(t, tt.wantStart, args.StartTime)
			assert.Equal(t, tt.wantToken, args.TokenAddress)
		})
	}
}

func TestStaking(t *testing.T) {
	t.Parallel()

	deps := Deps{
		Clock:     clockwork.NewFakeClockAt(time.Unix(1_700_000_123, 456)),
		LookupEnv: envOf(map[string]string{TokenAddressEnv: "0x0000000000000000000000000000000000000001"}),
	}

	mod, err := Staking(deps)
	require.NoError(t, err)

	assert.Equal(t, StakingModuleID, mod.ID())
	require.Len(t, mod.Futures(), 1)

	f := mod.Futures()[0]
	assert.Equal(t, "StakingModule#Staking", f.ID())
	assert.Equal(t, StakingContract, f.ContractName())
	assert.Equal(t, []any{int64(1_700_000_123), "0x0000000000000000000000000000000000000001"}, f.Args())
	assert.False(t, f.Force())

	// Same clock and environment give the same arguments.
	again, err := Staking(deps)
	require.NoError(t, err)
	assert.Equal(t, f.Args(), again.Futures()[0].Args())
}

func TestStaking_ReadsClockOnce(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(100, 0))
	deps := Deps{Clock: clock, LookupEnv: envOf(nil)}

	mod, err := Staking(deps)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, int64(100), mod.Futures()[0].Args()[0])
}

func TestDeps_Defaults(t *testing.T) {
	t.Setenv(TokenAddressEnv, "0xfromenv")

	before := time.Now().Unix()
	args := NewStakingArgs(Deps{})
	after := time.Now().Unix()

	assert.Equal(t, "0xfromenv", args.TokenAddress)
	assert.GreaterOrEqual(t, args.StartTime, before)
	assert.LessOrEqual(t, args.StartTime, after)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := Default()
	assert.Equal(t, []string{StakingModuleID, TokenAModuleID}, r.Names())

	mod, err := r.Build(TokenAModuleID, Deps{})
	require.NoError(t, err)
	assert.Equal(t, TokenAModuleID, mod.ID())

	mod, err = r.Build(StakingModuleID, Deps{
		Clock:     clockwork.NewFakeClockAt(time.Unix(1, 0)),
		LookupEnv: envOf(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), ""}, mod.Futures()[0].Args())

	_, err = r.Build("Nope", Deps{})
	require.ErrorIs(t, err, ErrModuleNotFound)
}
