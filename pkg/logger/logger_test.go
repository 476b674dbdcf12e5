package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNamedAndWith(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.InfoLevel)

	child := lggr.Named("deployer").With("module", "StakingModule")
	assert.Equal(t, "deployer", child.Name())

	child.Infow("Deploying contract", "contract", "Staking")
	child.Debugw("dropped below level")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Deploying contract", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "StakingModule", fields["module"])
	assert.Equal(t, "Staking", fields["contract"])
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := Config{Level: zapcore.WarnLevel, Development: true}
	lggr, err := cfg.New()
	require.NoError(t, err)
	require.NotNil(t, lggr)

	Nop().Info("nothing")
}
