// Package deployer executes ignition modules against an EVM chain.
//
// Every future of a module is deployed in registration order. Before deploying, the recorded
// deployment of the future is reconciled with the new constructor arguments:
//
//   - nothing recorded: the contract is deployed;
//   - recorded with identical arguments: the recorded address is reused;
//   - recorded with different arguments: ErrReconciliation, unless the future is forced, in
//     which case the contract is deployed again and the record replaced.
//
// The record of each future is saved as soon as it is deployed, and the operation reports are
// journaled next to it, so an interrupted run resumes where it stopped.
package deployer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenstake/deployments/artifacts"
	"github.com/tokenstake/deployments/chain/evm"
	"github.com/tokenstake/deployments/datastore"
	"github.com/tokenstake/deployments/ignition"
	"github.com/tokenstake/deployments/operations"
	"github.com/tokenstake/deployments/pkg/logger"
)

var (
	// ErrReconciliation is returned when a recorded deployment was made with other constructor
	// arguments and the future is not forced.
	ErrReconciliation   = errors.New("recorded deployment does not match the module")
	ErrUnexpectedSender = errors.New("deployer account does not match the future sender")
)

// Deployer deploys modules to a single chain.
type Deployer struct {
	Chain evm.Chain
	// Artifacts holds the Hardhat artifacts of the contracts.
	Artifacts fs.FS
	// Store records the deployments of Chain.
	Store *datastore.FileStore
	// Reporter journals operation reports. A MemoryReporter is used when nil.
	Reporter operations.Reporter
	Logger   logger.Logger
}

// ContractResult is the outcome of a single future.
type ContractResult struct {
	FutureID     string         `json:"futureId" yaml:"futureId"`
	ContractName string         `json:"contractName" yaml:"contractName"`
	Address      common.Address `json:"address" yaml:"address"`
	TxHash       string         `json:"txHash" yaml:"txHash"`
	BlockNumber  uint64         `json:"blockNumber" yaml:"blockNumber"`
	// Reused is set when the recorded deployment was kept.
	Reused bool `json:"reused" yaml:"reused"`
	Forced bool `json:"forced" yaml:"forced"`
}

// Result of a module deployment.
type Result struct {
	ModuleID      string
	ChainSelector uint64
	// Contracts are the module results keyed by result name.
	Contracts map[string]ContractResult
	// Futures holds every future of the module keyed by future ID.
	Futures map[string]ContractResult
}

type deployConfig struct {
	retry operations.RetryPolicy
}

// Option configures a Deploy call.
type Option func(*deployConfig)

// WithRetryPolicy sets the retry policy of the deployment transactions. Reverts are never
// retried.
func WithRetryPolicy(p operations.RetryPolicy) Option {
	return func(c *deployConfig) {
		c.retry = p
	}
}

func (d *Deployer) validate() error {
	var errs []error
	if d.Chain.Client == nil || d.Chain.DeployerKey == nil || d.Chain.Confirm == nil {
		errs = append(errs, errors.New("chain is not initialized"))
	}
	if d.Artifacts == nil {
		errs = append(errs, errors.New("artifacts are required"))
	}
	if d.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if d.Logger == nil {
		errs = append(errs, errors.New("logger is required"))
	}

	return errors.Join(errs...)
}

// Deploy deploys every future of module which has no matching recorded deployment.
func (d *Deployer) Deploy(ctx context.Context, module *ignition.Module, opts ...Option) (*Result, error) {
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid deployer: %w", err)
	}
	if d.Reporter == nil {
		d.Reporter = operations.NewMemoryReporter()
	}

	cfg := deployConfig{retry: operations.RetryPolicy{MaxAttempts: 3, Delay: time.Second}}
	for _, opt := range opts {
		opt(&cfg)
	}

	lggr := d.Logger.With("module", module.ID())
	bundle := operations.NewBundle(func() context.Context { return ctx }, lggr, d.Reporter)

	lggr.Infow("Deploying module", "chain", d.Chain.String(), "futures", len(module.Futures()))

	res := &Result{
		ModuleID:      module.ID(),
		ChainSelector: d.Chain.Selector,
		Contracts:     make(map[string]ContractResult),
		Futures:       make(map[string]ContractResult),
	}
	deployed := make(map[string]common.Address)

	for _, f := range module.Futures() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr, err := d.deployFuture(bundle, f, deployed, cfg)
		if err != nil {
			lggr.Errorw("Deployment failed", "future", f.ID(), "error", err)
			return nil, err
		}

		deployed[f.ID()] = cr.Address
		res.Futures[f.ID()] = cr
	}

	for name, f := range module.Results() {
		res.Contracts[name] = res.Futures[f.ID()]
	}

	return res, nil
}

func (d *Deployer) deployFuture(
	b operations.Bundle, f *ignition.ContractFuture, deployed map[string]common.Address, cfg deployConfig,
) (ContractResult, error) {
	lggr := b.Logger.With("future", f.ID(), "contract", f.ContractName())

	if from := f.From(); from != nil && *from != d.Chain.DeployerKey.From {
		return ContractResult{}, fmt.Errorf("%s: %w: want %s, have %s",
			f.ID(), ErrUnexpectedSender, from.Hex(), d.Chain.DeployerKey.From.Hex())
	}

	artifact, err := artifacts.Load(d.Artifacts, f.ContractName())
	if err != nil {
		return ContractResult{}, fmt.Errorf("%s: %w", f.ID(), err)
	}
	contractABI, err := artifact.ABI()
	if err != nil {
		return ContractResult{}, fmt.Errorf("%s: %w", f.ID(), err)
	}
	bytecode, err := artifact.Bytecode()
	if err != nil {
		return ContractResult{}, fmt.Errorf("%s: %w", f.ID(), err)
	}

	args, err := resolveArgs(f, deployed)
	if err != nil {
		return ContractResult{}, err
	}
	calldata, err := packConstructor(contractABI, args)
	if err != nil {
		return ContractResult{}, fmt.Errorf("%s: %w", f.ID(), err)
	}
	lggr.Debugw("Encoded constructor arguments", "calldata", hexutil.Encode(calldata))

	key := datastore.NewAddressRefKey(d.Chain.Selector, f.ID())
	recorded, err := d.Store.Get(key)
	switch {
	case errors.Is(err, datastore.ErrAddressRefNotFound):
	case err != nil:
		return ContractResult{}, err
	case f.Force():
		lggr.Warnw("Replacing recorded deployment", "address", recorded.Address)
	case bytes.Equal(recorded.Calldata, calldata):
		lggr.Infow("Reusing recorded deployment", "address", recorded.Address)

		return ContractResult{
			FutureID:     f.ID(),
			ContractName: f.ContractName(),
			Address:      common.HexToAddress(recorded.Address),
			TxHash:       recorded.TxHash,
			BlockNumber:  recorded.BlockNumber,
			Reused:       true,
		}, nil
	default:
		return ContractResult{}, fmt.Errorf("%s: %w: recorded at %s with calldata %s, module encodes %s",
			f.ID(), ErrReconciliation, recorded.Address, recorded.Calldata, hexutil.Bytes(calldata))
	}

	input := DeployInput{
		ChainSelector: d.Chain.Selector,
		FutureID:      f.ID(),
		ContractName:  f.ContractName(),
		Calldata:      calldata,
	}
	if v := f.Value(); v != nil {
		input.Value = v.String()
	}

	execOpts := []operations.ExecuteOption[DeployInput, DeployDeps]{
		operations.WithRetryConfig(operations.RetryConfig[DeployInput, DeployDeps]{
			Enabled: cfg.retry.MaxAttempts > 1,
			Policy:  cfg.retry,
		}),
	}
	if f.Force() {
		execOpts = append(execOpts, operations.WithForceExecution[DeployInput, DeployDeps]())
	}

	report, err := operations.ExecuteOperation(b, DeployContractOp,
		DeployDeps{Chain: d.Chain, Bytecode: bytecode}, input, execOpts...)
	if err != nil {
		return ContractResult{}, err
	}

	deployedAt := time.Now().UTC()
	if report.Timestamp != nil {
		deployedAt = *report.Timestamp
	}

	ref := datastore.AddressRef{
		ChainSelector: d.Chain.Selector,
		FutureID:      f.ID(),
		ModuleID:      f.ModuleID(),
		ContractName:  f.ContractName(),
		Address:       report.Output.Address,
		TxHash:        report.Output.TxHash,
		BlockNumber:   report.Output.BlockNumber,
		Calldata:      calldata,
		Version:       DeployContractOp.Def().Version,
		DeployedAt:    deployedAt,
		Forced:        f.Force(),
	}
	if err = d.Store.Upsert(ref); err != nil {
		return ContractResult{}, fmt.Errorf("%s: failed to record deployment: %w", f.ID(), err)
	}
	if err = d.Store.Save(); err != nil {
		return ContractResult{}, fmt.Errorf("%s: %w", f.ID(), err)
	}

	lggr.Infow("Contract deployed", "address", ref.Address, "tx", ref.TxHash, "block", ref.BlockNumber)

	return ContractResult{
		FutureID:     f.ID(),
		ContractName: f.ContractName(),
		Address:      common.HexToAddress(ref.Address),
		TxHash:       ref.TxHash,
		BlockNumber:  ref.BlockNumber,
		Forced:       f.Force(),
	}, nil
}

// resolveArgs replaces future arguments with the address they were deployed at.
func resolveArgs(f *ignition.ContractFuture, deployed map[string]common.Address) ([]any, error) {
	args := f.Args()
	for i, arg := range args {
		dep, ok := arg.(*ignition.ContractFuture)
		if !ok {
			continue
		}
		addr, ok := deployed[dep.ID()]
		if !ok {
			return nil, fmt.Errorf("%s: %w: argument %d references %s which is not deployed",
				f.ID(), ErrArgumentEncoding, i, dep.ID())
		}
		args[i] = addr
	}

	return args, nil
}

// Reset removes the recorded deployments and the journal of the chain.
func (d *Deployer) Reset() error {
	if d.Store == nil {
		return errors.New("store is required")
	}
	if err := d.Store.Reset(); err != nil {
		return err
	}

	switch r := d.Reporter.(type) {
	case *operations.FileReporter:
		fresh, err := operations.NewFileReporter(r.Path())
		if err != nil {
			return err
		}
		d.Reporter = fresh
	case nil:
	default:
		d.Reporter = operations.NewMemoryReporter()
	}

	return nil
}
