package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tokenstake/deployments/datastore"
	"github.com/tokenstake/deployments/deployer"
	"github.com/tokenstake/deployments/operations"
)

var (
	deployShort = "Deploy one or more modules"

	deployLong = longDesc(`
		Deploys the given modules in order. Contracts which are already recorded for the chain
		with the same constructor arguments are reused, unless their module forces a new
		deployment. A recorded contract whose arguments changed stops the deployment; use
		--reset to discard the records of the chain first.
	`)

	deployExample = examples(`
		# Deploy TokenA to the configured RPC network
		deployer deploy TokenAModule

		# Deploy Staking for an existing token
		TOKEN_ADDRESS=0x5FbDB2315678afecb367f032d93F642f64180aa3 deployer deploy StakingModule

		# Try both modules on an in memory chain
		deployer deploy TokenAModule StakingModule --network simulated
	`)
)

type deployFlags struct {
	network string
	format  string
	reset   bool
}

func newDeployCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy MODULE...",
		Short:   deployShort,
		Long:    deployLong,
		Example: deployExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := deployFlags{
				network: mustString(cmd.Flags().GetString("network")),
				format:  mustString(cmd.Flags().GetString("format")),
				reset:   mustBool(cmd.Flags().GetBool("reset")),
			}

			return runDeploy(cmd, cfg, f, args)
		},
	}

	networkFlag(cmd)
	formatFlag(cmd)
	cmd.Flags().Bool("reset", false, "Discard the recorded deployments of the chain before deploying")

	return cmd
}

// deployRow is a deployed future as rendered by the deploy command.
type deployRow struct {
	Module   string `yaml:"module"`
	Future   string `yaml:"future"`
	Contract string `yaml:"contract"`
	Address  string `yaml:"address"`
	TxHash   string `yaml:"txHash"`
	Block    uint64 `yaml:"block"`
	Status   string `yaml:"status"`
}

type deployRows []deployRow

func (deployRows) header() []string {
	return []string{"Module", "Future", "Contract", "Address", "Block", "Status"}
}

func (r deployRows) rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, row := range r {
		out = append(out, []string{
			row.Module, row.Future, row.Contract, row.Address, strconv.FormatUint(row.Block, 10), row.Status,
		})
	}

	return out
}

func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags, moduleIDs []string) error {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	env, err := loadEnvironment(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = env.lggr.Sync() }()

	chain, closeChain, err := deps.ChainLoader(ctx, f.network, env.config, env.lggr)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	defer func() { _ = closeChain() }()

	root, cleanup, err := deploymentsRoot(f.network, env.config.Paths.Deployments)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := datastore.OpenFileStore(root, chain.ChainID)
	if err != nil {
		return err
	}
	reporter, err := operations.NewFileReporter(store.JournalPath())
	if err != nil {
		return err
	}

	d := &deployer.Deployer{
		Chain:     chain,
		Artifacts: os.DirFS(env.config.Paths.Artifacts),
		Store:     store,
		Reporter:  reporter,
		Logger:    env.lggr.Named("deployer"),
	}

	if f.reset {
		if err = d.Reset(); err != nil {
			return fmt.Errorf("failed to reset %s: %w", chain, err)
		}
		cmd.PrintErrf("Discarded the recorded deployments of %s\n", chain)
	}

	// --- Execute

	policy := operations.RetryPolicy{
		MaxAttempts: env.config.Deploy.MaxAttempts,
		Delay:       env.config.Deploy.RetryDelay,
	}

	var rows deployRows
	for _, id := range moduleIDs {
		mod, berr := cfg.Modules.Build(id, cfg.moduleDeps())
		if berr != nil {
			return berr
		}

		res, derr := d.Deploy(ctx, mod, deployer.WithRetryPolicy(policy))
		if derr != nil {
			return fmt.Errorf("failed to deploy %s to %s: %w", id, chain, derr)
		}

		rows = append(rows, resultRows(res)...)
	}

	// --- Output

	return render(cmd.OutOrStdout(), f.format, rows, rows)
}

func resultRows(res *deployer.Result) deployRows {
	ids := make([]string, 0, len(res.Futures))
	for id := range res.Futures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make(deployRows, 0, len(ids))
	for _, id := range ids {
		c := res.Futures[id]

		status := "deployed"
		switch {
		case c.Reused:
			status = "reused"
		case c.Forced:
			status = "forced"
		}

		rows = append(rows, deployRow{
			Module:   res.ModuleID,
			Future:   c.FutureID,
			Contract: c.ContractName,
			Address:  c.Address.Hex(),
			TxHash:   c.TxHash,
			Block:    c.BlockNumber,
			Status:   status,
		})
	}

	return rows
}

// deploymentsRoot returns the directory the records of network are kept in. The simulated chain
// is discarded on exit, so its records go to a temporary directory removed by cleanup.
func deploymentsRoot(network, configured string) (string, func(), error) {
	if network != NetworkSimulated {
		return configured, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "deployer-simulated-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create simulated deployments dir: %w", err)
	}

	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
