// Package provider creates evm.Chain instances, either backed by go-ethereum's in memory
// simulated backend or by a remote node reached over RPC.
package provider

import (
	"context"

	"github.com/tokenstake/deployments/chain/evm"
)

// Provider initializes an EVM chain. Initialize is idempotent: calling it again returns the
// chain created by the first call.
type Provider interface {
	Initialize(ctx context.Context) (evm.Chain, error)
	Name() string
	// ChainSelector returns the selector of the chain. For providers which discover the chain
	// from the node it is only known after Initialize.
	ChainSelector() uint64
}
