package modules

import "github.com/tokenstake/deployments/ignition"

const (
	TokenAModuleID = "TokenAModule"
	TokenAContract = "TokenA"
)

// TokenA builds TokenAModule.
func TokenA() (*ignition.Module, error) {
	return ignition.BuildModule(TokenAModuleID, func(m *ignition.ModuleBuilder) map[string]*ignition.ContractFuture {
		tokenA := m.Contract(TokenAContract, []any{}, ignition.WithForce())

		return map[string]*ignition.ContractFuture{"tokenA": tokenA}
	})
}
