package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/tokenstake/deployments/chain/evm"
)

var (
	// simChainID is the chain ID for the simulated EVM chain. This is always 1337, which maps
	// to the geth-testnet selector.
	simChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is 1,000,000 Ether in wei.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

// SimChainProviderConfig holds the configuration to initialize the SimChainProvider.
type SimChainProviderConfig struct {
	// Optional: DeployerKeyGen generates the deployer key. A random key is used when nil.
	DeployerKeyGen TransactorGenerator
	// Optional: NumAdditionalAccounts is the number of additional funded accounts.
	NumAdditionalAccounts uint
	// Optional: BlockTime configures the time between blocks being committed. By default blocks
	// are only committed when a transaction is confirmed.
	BlockTime time.Duration
	// Optional: ConfirmTimeout bounds the wait for a receipt. Defaults to one minute.
	ConfirmTimeout time.Duration
}

var _ Provider = (*SimChainProvider)(nil)

// SimChainProvider manages a simulated EVM chain that is backed by go-ethereum's in memory
// simulated backend. Call Close to release the backend.
type SimChainProvider struct {
	config SimChainProviderConfig

	backend  *simulated.Backend
	stopMine context.CancelFunc
	mined    <-chan struct{}
	once     sync.Once
	chain    *evm.Chain
}

// NewSimChainProvider creates a new SimChainProvider.
func NewSimChainProvider(config SimChainProviderConfig) *SimChainProvider {
	if config.DeployerKeyGen == nil {
		config.DeployerKeyGen = TransactorRandom()
	}
	if config.ConfirmTimeout == 0 {
		config.ConfirmTimeout = time.Minute
	}

	return &SimChainProvider{config: config}
}

// Initialize creates the simulated chain with a deployer account and the configured number of
// additional accounts, each prefunded with 1,000,000 Ether.
func (p *SimChainProvider) Initialize(ctx context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil
	}

	deployer, err := p.config.DeployerKeyGen.Generate(simChainID)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to generate deployer key: %w", err)
	}

	genesis := types.GenesisAlloc{
		deployer.From: {Balance: prefundAmountWei},
	}

	users := make([]*bind.TransactOpts, 0, p.config.NumAdditionalAccounts)
	for range p.config.NumAdditionalAccounts {
		user, uerr := TransactorRandom().Generate(simChainID)
		if uerr != nil {
			return evm.Chain{}, fmt.Errorf("failed to generate user key: %w", uerr)
		}
		users = append(users, user)
		genesis[user.From] = types.Account{Balance: prefundAmountWei}
	}

	p.backend = simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50000000))
	client := NewSimClient(p.backend)
	client.Commit()

	if p.config.BlockTime > 0 {
		mineCtx, cancel := context.WithCancel(context.Background())
		p.stopMine = cancel
		p.mined = startAutoMine(mineCtx, client, p.config.BlockTime)
	}

	selector := p.ChainSelector()
	p.chain = &evm.Chain{
		Selector:    selector,
		ChainID:     simChainID.Uint64(),
		Client:      client,
		DeployerKey: deployer,
		Users:       users,
		Confirm: func(tx *types.Transaction) (uint64, error) {
			if tx == nil {
				return 0, fmt.Errorf("tx was nil, nothing to confirm for selector: %d", selector)
			}

			client.Commit()

			waitCtx, cancel := context.WithTimeout(ctx, p.config.ConfirmTimeout)
			defer cancel()

			receipt, err := bind.WaitMined(waitCtx, client, tx)
			if err != nil {
				return 0, fmt.Errorf("tx %s failed to confirm for selector %d: %w",
					tx.Hash().Hex(), selector, err,
				)
			}

			if receipt.Status == types.ReceiptStatusFailed {
				return 0, revertError(waitCtx, client, deployer.From, tx, receipt, selector)
			}

			return receipt.BlockNumber.Uint64(), nil
		},
	}

	return *p.chain, nil
}

// Name returns the name of the SimChainProvider.
func (*SimChainProvider) Name() string {
	return "Simulated EVM Chain Provider"
}

// ChainSelector returns the geth-testnet selector, which matches the simulated chain ID.
func (*SimChainProvider) ChainSelector() uint64 {
	return chainsel.GETH_TESTNET.Selector
}

// Close stops block production and releases the simulated backend.
func (p *SimChainProvider) Close() error {
	var err error
	p.once.Do(func() {
		if p.stopMine != nil {
			p.stopMine()
			<-p.mined
		}
		if p.backend != nil {
			err = p.backend.Close()
		}
	})

	return err
}

// startAutoMine commits a new block every blockTime until ctx is cancelled. The returned
// channel is closed once the mining goroutine has exited.
func startAutoMine(ctx context.Context, client *SimClient, blockTime time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(blockTime)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				client.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
