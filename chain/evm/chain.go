// Package evm describes an EVM chain the deployer sends transactions to.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

// ErrTxReverted is returned by a ConfirmFunc when the transaction was mined with a failed
// status.
var ErrTxReverted = errors.New("transaction reverted")

// ConfirmFunc waits for the transaction to be mined and returns its block number. It fails
// when the transaction reverted.
type ConfirmFunc func(tx *types.Transaction) (uint64, error)

// OnchainClient is an EVM chain client. For EVM we can use the geth interfaces to abstract
// the chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Chain represents an EVM chain.
type Chain struct {
	Selector uint64
	ChainID  uint64

	Client OnchainClient
	// DeployerKey signs every deployment transaction.
	DeployerKey *bind.TransactOpts
	Confirm     ConfirmFunc
	// Users are a set of keys that can be used to interact with the chain.
	// These are distinct from the deployer key.
	Users []*bind.TransactOpts
}

// ChainSelector returns the chain selector of the chain
func (c Chain) ChainSelector() uint64 {
	return c.Selector
}

// Name returns the name of the chain, or the chain ID when the selector is unknown.
func (c Chain) Name() string {
	if details, ok := chainsel.ChainBySelector(c.Selector); ok && details.Name != "" {
		return details.Name
	}

	return "evm-" + strconv.FormatUint(c.ChainID, 10)
}

// String returns chain name and selector "<name> (<selector>)"
func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.Name(), c.Selector)
}

// Family returns the family of the chain
func (c Chain) Family() string {
	return chainsel.FamilyEVM
}

// SelectorFromChainID returns the chain selector and name of an EVM chain ID.
func SelectorFromChainID(chainID uint64) (uint64, string, error) {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(chainID, 10), chainsel.FamilyEVM)
	if err != nil {
		return 0, "", fmt.Errorf("unknown evm chain id %d: %w", chainID, err)
	}

	return details.ChainSelector, details.ChainName, nil
}
