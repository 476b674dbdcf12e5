package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tokenstake/deployments/chain/evm"
	"github.com/tokenstake/deployments/pkg/logger"
)

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: URL of the node. http(s) and ws(s) are supported.
	URL string
	// Required: A generator for the deployer key. Use TransactorFromRaw to create a deployer
	// key from a private key.
	DeployerTransactorGen TransactorGenerator
	// Required: ConfirmFunctor generates the confirmation function for transactions.
	// If in doubt, use ConfirmFuncGeth.
	ConfirmFunctor ConfirmFunctor
	// Optional: DialAttempts is the number of attempts to reach the node. Defaults to 3.
	DialAttempts uint
	// Optional: DialDelay is the base delay between dial attempts. Defaults to one second.
	DialDelay time.Duration
	// Optional: Logger defaults to a production logger.
	Logger logger.Logger
}

func (c RPCChainProviderConfig) validate() error {
	if c.URL == "" {
		return errors.New("rpc url is required")
	}
	if c.DeployerTransactorGen == nil {
		return errors.New("deployer transactor generator is required")
	}
	if c.ConfirmFunctor == nil {
		return errors.New("confirm functor is required")
	}

	return nil
}

var _ Provider = (*RPCChainProvider)(nil)

// RPCChainProvider provides a chain that connects to an EVM node via RPC. The chain selector
// is derived from the chain ID reported by the node.
type RPCChainProvider struct {
	config RPCChainProviderConfig

	client *ethclient.Client
	chain  *evm.Chain
}

// NewRPCChainProvider creates a new RPCChainProvider.
func NewRPCChainProvider(config RPCChainProviderConfig) *RPCChainProvider {
	if config.DialAttempts == 0 {
		config.DialAttempts = 3
	}
	if config.DialDelay == 0 {
		config.DialDelay = time.Second
	}

	return &RPCChainProvider{config: config}
}

// Initialize dials the node, reads its chain ID and sets up the deployer key and confirm
// function.
func (p *RPCChainProvider) Initialize(ctx context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}

	if err := p.config.validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("failed to validate provider config: %w", err)
	}

	client, err := retry.DoWithData(func() (*ethclient.Client, error) {
		c, derr := ethclient.DialContext(ctx, p.config.URL)
		if derr != nil {
			return nil, derr
		}
		// Dialing http does not touch the node, so query it before accepting the client.
		if _, derr = c.ChainID(ctx); derr != nil {
			c.Close()
			return nil, derr
		}

		return c, nil
	},
		retry.Context(ctx),
		retry.Attempts(p.config.DialAttempts),
		retry.Delay(p.config.DialDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			p.config.Logger.Warnw("Failed to reach rpc node, retrying", "attempt", attempt, "error", err)
		}),
	)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to connect to rpc node: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to get chain id: %w", err)
	}

	selector, name := identifyChain(p.config.Logger, chainID.Uint64())

	deployerKey, err := p.config.DeployerTransactorGen.Generate(chainID)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to generate deployer key: %w", err)
	}

	confirmFunc, err := p.config.ConfirmFunctor.Generate(ctx, selector, client, deployerKey.From)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to generate confirm function: %w", err)
	}

	p.config.Logger.Infow("Connected to chain",
		"chain", name, "chainID", chainID.Uint64(), "selector", selector, "deployer", deployerKey.From.Hex())

	p.client = client
	p.chain = &evm.Chain{
		Selector:    selector,
		ChainID:     chainID.Uint64(),
		Client:      client,
		DeployerKey: deployerKey,
		Confirm:     confirmFunc,
	}

	return *p.chain, nil
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "EVM RPC Chain Provider"
}

// ChainSelector returns the selector discovered by Initialize, or 0 before it.
func (p *RPCChainProvider) ChainSelector() uint64 {
	if p.chain == nil {
		return 0
	}

	return p.chain.Selector
}

// Close closes the RPC connection.
func (p *RPCChainProvider) Close() error {
	if p.client != nil {
		p.client.Close()
	}

	return nil
}

// identifyChain returns the selector and name of chainID. Chains unknown to chain-selectors get
// a zero selector and are named after their chain ID.
func identifyChain(lggr logger.Logger, chainID uint64) (uint64, string) {
	selector, name, err := evm.SelectorFromChainID(chainID)
	if err != nil {
		name = evm.Chain{ChainID: chainID}.Name()
		lggr.Warnw("Chain has no selector, deployments are recorded by chain ID only",
			"chainID", chainID, "name", name)

		return 0, name
	}

	return selector, name
}
