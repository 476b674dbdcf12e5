package ignition

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// ContractFuture is the handle returned by ModuleBuilder.Contract. It describes a contract
// deployment that has not happened yet.
type ContractFuture struct {
	id           string
	localID      string
	moduleID     string
	contractName string
	args         []any
	dependencies []*ContractFuture

	force bool
	value *big.Int
	from  *common.Address
}

// ID returns the future ID, "<ModuleID>#<ContractName>" unless WithID was used.
func (f *ContractFuture) ID() string { return f.id }

// ModuleID returns the ID of the module which registered the future.
func (f *ContractFuture) ModuleID() string { return f.moduleID }

// ContractName returns the name of the contract artifact to deploy.
func (f *ContractFuture) ContractName() string { return f.contractName }

// Args returns a copy of the constructor arguments as registered.
func (f *ContractFuture) Args() []any { return slices.Clone(f.args) }

// Dependencies returns the futures used as constructor arguments.
func (f *ContractFuture) Dependencies() []*ContractFuture { return slices.Clone(f.dependencies) }

// Force reports whether the contract is deployed again even if a deployment is recorded.
func (f *ContractFuture) Force() bool { return f.force }

// Value returns the wei sent with the deployment, or nil.
func (f *ContractFuture) Value() *big.Int {
	if f.value == nil {
		return nil
	}

	return new(big.Int).Set(f.value)
}

// From returns the expected deployer account, or nil when any deployer is accepted.
func (f *ContractFuture) From() *common.Address { return f.from }

// ContractOption configures a contract registration.
type ContractOption func(*ContractFuture)

// WithForce deploys the contract on every execution, replacing the recorded deployment.
func WithForce() ContractOption {
	return func(f *ContractFuture) {
		f.force = true
	}
}

// WithID overrides the local part of the future ID, which allows deploying the same contract
// more than once in a module.
func WithID(id string) ContractOption {
	return func(f *ContractFuture) {
		f.localID = id
	}
}

// WithValue sends wei with the deployment transaction.
func WithValue(wei *big.Int) ContractOption {
	return func(f *ContractFuture) {
		if wei != nil {
			f.value = new(big.Int).Set(wei)
		}
	}
}

// WithFrom pins the account that must send the deployment.
func WithFrom(addr common.Address) ContractOption {
	return func(f *ContractFuture) {
		f.from = &addr
	}
}
