package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zapcore"

	"github.com/tokenstake/deployments/chain/evm"
	"github.com/tokenstake/deployments/chain/evm/provider"
	"github.com/tokenstake/deployments/engine/config"
	"github.com/tokenstake/deployments/pkg/logger"
)

// ConfigLoaderFunc loads the configuration file.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// DotEnvLoaderFunc loads .env files into the process environment.
type DotEnvLoaderFunc func(paths ...string) error

// ChainLoaderFunc initializes the chain of the given network. The returned close function
// releases the connection.
type ChainLoaderFunc func(
	ctx context.Context, network string, cfg *config.Config, lggr logger.Logger,
) (evm.Chain, func() error, error)

// LoggerFactoryFunc creates the logger from the log configuration.
type LoggerFactoryFunc func(cfg config.LogConfig) (logger.Logger, error)

// Deps holds the injectable dependencies of the commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc
	// Default: config.LoadDotEnv
	DotEnvLoader DotEnvLoaderFunc
	// Default: defaultChainLoader, which supports the rpc and simulated networks.
	ChainLoader ChainLoaderFunc
	// Default: a zap logger at the configured level.
	LoggerFactory LoggerFactoryFunc
	// Clock is read by modules while they are built. Default: the real clock.
	Clock clockwork.Clock
	// LookupEnv is read by modules while they are built. Default: os.Getenv.
	LookupEnv func(key string) string
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.DotEnvLoader == nil {
		d.DotEnvLoader = config.LoadDotEnv
	}
	if d.ChainLoader == nil {
		d.ChainLoader = defaultChainLoader
	}
	if d.LoggerFactory == nil {
		d.LoggerFactory = defaultLoggerFactory
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.LookupEnv == nil {
		d.LookupEnv = os.Getenv
	}
}

func defaultLoggerFactory(cfg config.LogConfig) (logger.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log.level: %w", err)
		}
	}

	lcfg := logger.Config{Level: level, Development: cfg.Development}

	return lcfg.New()
}

func defaultChainLoader(
	ctx context.Context, network string, cfg *config.Config, lggr logger.Logger,
) (evm.Chain, func() error, error) {
	switch network {
	case NetworkSimulated:
		simCfg := provider.SimChainProviderConfig{ConfirmTimeout: cfg.Network.ConfirmTimeout}
		if cfg.Network.DeployerKey != "" {
			simCfg.DeployerKeyGen = provider.TransactorFromRaw(cfg.Network.DeployerKey)
		}

		p := provider.NewSimChainProvider(simCfg)
		chain, err := p.Initialize(ctx)
		if err != nil {
			_ = p.Close()
			return evm.Chain{}, nil, err
		}

		return chain, p.Close, nil

	case NetworkRPC:
		if cfg.Network.RPCURL == "" {
			return evm.Chain{}, nil, errors.New("network.rpc_url is required for the rpc network")
		}
		if cfg.Network.DeployerKey == "" {
			return evm.Chain{}, nil, errors.New("network.deployer_key is required for the rpc network")
		}

		p := provider.NewRPCChainProvider(provider.RPCChainProviderConfig{
			URL:                   cfg.Network.RPCURL,
			DeployerTransactorGen: provider.TransactorFromRaw(cfg.Network.DeployerKey),
			ConfirmFunctor:        provider.ConfirmFuncGeth(cfg.Network.ConfirmTimeout),
			Logger:                lggr,
		})
		chain, err := p.Initialize(ctx)
		if err != nil {
			return evm.Chain{}, nil, err
		}

		return chain, p.Close, nil
	}

	return evm.Chain{}, nil, fmt.Errorf("unknown network %q", network)
}
