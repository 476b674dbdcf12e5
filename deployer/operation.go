package deployer

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenstake/deployments/chain/evm"
	"github.com/tokenstake/deployments/operations"
)

// ErrDeploymentReverted is returned when the constructor of a contract reverts.
var ErrDeploymentReverted = errors.New("contract deployment reverted")

// DeployInput is the input of DeployContractOp. Its JSON form identifies the deployment in the
// journal, so re-running a deployment with the same input returns the recorded result.
type DeployInput struct {
	ChainSelector uint64 `json:"chainSelector"`
	FutureID      string `json:"futureId"`
	ContractName  string `json:"contractName"`
	// Calldata is the ABI encoded constructor arguments appended to the bytecode.
	Calldata hexutil.Bytes `json:"calldata"`
	// Value is the wei sent with the deployment as a decimal string.
	Value string `json:"value,omitempty"`
}

// DeployOutput describes the deployed contract.
type DeployOutput struct {
	Address     string `json:"address"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

// DeployDeps are the non serializable dependencies of DeployContractOp.
type DeployDeps struct {
	Chain    evm.Chain
	Bytecode []byte
}

// DeployContractOp sends a contract creation transaction and waits for it to be mined.
var DeployContractOp = operations.NewOperation(
	"deploy-contract",
	semver.MustParse("1.0.0"),
	"Deploy a contract from its creation bytecode and encoded constructor arguments",
	deployContract,
)

func deployContract(b operations.Bundle, deps DeployDeps, in DeployInput) (DeployOutput, error) {
	if deps.Chain.DeployerKey == nil || deps.Chain.Client == nil || deps.Chain.Confirm == nil {
		return DeployOutput{}, operations.NewUnrecoverableError(errors.New("chain is not initialized"))
	}

	opts := *deps.Chain.DeployerKey
	opts.Context = b.GetContext()
	if in.Value != "" {
		value, ok := new(big.Int).SetString(in.Value, 10)
		if !ok {
			return DeployOutput{}, operations.NewUnrecoverableError(fmt.Errorf("invalid value %q", in.Value))
		}
		opts.Value = value
	}

	code := append(slices.Clone(deps.Bytecode), in.Calldata...)

	// The arguments are already packed, so the empty ABI only carries the creation code.
	addr, tx, _, err := bind.DeployContract(&opts, abi.ABI{}, code, deps.Chain.Client)
	if err != nil {
		if isRevert(err) {
			return DeployOutput{}, operations.NewUnrecoverableError(
				fmt.Errorf("%s: %w: %w", in.FutureID, ErrDeploymentReverted, err))
		}

		return DeployOutput{}, fmt.Errorf("%s: failed to send deployment: %w", in.FutureID, err)
	}

	b.Logger.Infow("Deployment sent", "future", in.FutureID, "contract", in.ContractName,
		"address", addr.Hex(), "tx", tx.Hash().Hex())

	// Once the transaction is sent a retry could deploy a second instance.
	block, err := deps.Chain.Confirm(tx)
	if err != nil {
		if errors.Is(err, evm.ErrTxReverted) {
			err = fmt.Errorf("%w: %w", ErrDeploymentReverted, err)
		}

		return DeployOutput{}, operations.NewUnrecoverableError(fmt.Errorf("%s: %w", in.FutureID, err))
	}

	return DeployOutput{
		Address:     addr.Hex(),
		TxHash:      tx.Hash().Hex(),
		BlockNumber: block,
	}, nil
}

// isRevert reports whether err comes from gas estimation of a reverting constructor.
func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted")
}
