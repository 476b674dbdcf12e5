package modules

import (
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/tokenstake/deployments/ignition"
)

const (
	StakingModuleID = "StakingModule"
	StakingContract = "Staking"

	// TokenAddressEnv names the environment variable holding the staked token address.
	TokenAddressEnv = "TOKEN_ADDRESS"
)

// Deps are the ambient inputs a module reads while it is built.
type Deps struct {
	// Clock defaults to the real clock.
	Clock clockwork.Clock
	// LookupEnv defaults to os.Getenv.
	LookupEnv func(key string) string
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.LookupEnv == nil {
		d.LookupEnv = os.Getenv
	}

	return d
}

// StakingArgs are the Staking constructor arguments.
type StakingArgs struct {
	// StartTime is floor(now) in seconds since the Unix epoch.
	StartTime int64
	// TokenAddress is the raw TOKEN_ADDRESS value. It is neither validated nor normalized and is
	// empty when the variable is unset.
	TokenAddress string
}

// NewStakingArgs reads the clock and the environment once.
func NewStakingArgs(deps Deps) StakingArgs {
	deps = deps.withDefaults()

	return StakingArgs{
		StartTime:    unixFloor(deps.Clock),
		TokenAddress: deps.LookupEnv(TokenAddressEnv),
	}
}

// Staking builds StakingModule.
func Staking(deps Deps) (*ignition.Module, error) {
	args := NewStakingArgs(deps)

	return ignition.BuildModule(StakingModuleID, func(m *ignition.ModuleBuilder) map[string]*ignition.ContractFuture {
		staking := m.Contract(StakingContract, []any{args.StartTime, args.TokenAddress})

		return map[string]*ignition.ContractFuture{"staking": staking}
	})
}

// unixFloor returns floor(now) in seconds. time.Time keeps the sub-second part in
// [0, 1e9), so Unix is a floor for times on either side of the epoch.
func unixFloor(c clockwork.Clock) int64 {
	return c.Now().Unix()
}
