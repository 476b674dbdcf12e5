package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenstake/deployments/datastore"
)

var (
	statusShort = "Show the recorded deployments of a chain"

	statusLong = longDesc(`
		Shows the deployments recorded for a chain. The chain is identified by --chain-id, or
		by connecting to the selected network when it is not given.
	`)

	statusExample = examples(`
		# Show what was deployed to the configured RPC network
		deployer status

		# Show the Staking deployments of chain 11155111 as YAML
		deployer status --chain-id 11155111 --module StakingModule --format yaml
	`)
)

type statusFlags struct {
	network string
	format  string
	module  string
	chainID uint64
}

func newStatusCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   statusShort,
		Long:    statusLong,
		Example: statusExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chainID, _ := cmd.Flags().GetUint64("chain-id")
			f := statusFlags{
				network: mustString(cmd.Flags().GetString("network")),
				format:  mustString(cmd.Flags().GetString("format")),
				module:  mustString(cmd.Flags().GetString("module")),
				chainID: chainID,
			}

			return runStatus(cmd, cfg, f)
		},
	}

	networkFlag(cmd)
	formatFlag(cmd)
	cmd.Flags().Uint64("chain-id", 0, "Chain ID to show, skips connecting to the network")
	cmd.Flags().StringP("module", "m", "", "Only show the futures of this module")

	return cmd
}

type statusRow struct {
	Future     string    `yaml:"future"`
	Contract   string    `yaml:"contract"`
	Address    string    `yaml:"address"`
	TxHash     string    `yaml:"txHash"`
	Block      uint64    `yaml:"block"`
	DeployedAt time.Time `yaml:"deployedAt"`
	Forced     bool      `yaml:"forced"`
}

type statusRows []statusRow

func (statusRows) header() []string {
	return []string{"Future", "Contract", "Address", "Block", "Deployed at"}
}

func (r statusRows) rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, row := range r {
		out = append(out, []string{
			row.Future, row.Contract, row.Address, strconv.FormatUint(row.Block, 10), row.DeployedAt.Format(time.RFC3339),
		})
	}

	return out
}

func runStatus(cmd *cobra.Command, cfg Config, f statusFlags) error {
	env, err := loadEnvironment(cmd, cfg)
	if err != nil {
		return err
	}

	chainID, err := resolveChainID(cmd, cfg, env, f.network, f.chainID)
	if err != nil {
		return err
	}

	store, err := datastore.OpenFileStore(env.config.Paths.Deployments, chainID)
	if err != nil {
		return err
	}

	var filters []datastore.FilterFunc[datastore.AddressRefKey, datastore.AddressRef]
	if f.module != "" {
		filters = append(filters, datastore.AddressRefByModule(f.module))
	}

	records := store.Filter(filters...)
	sort.Slice(records, func(i, j int) bool { return records[i].FutureID < records[j].FutureID })

	rows := make(statusRows, 0, len(records))
	for _, r := range records {
		rows = append(rows, statusRow{
			Future:     r.FutureID,
			Contract:   r.ContractName,
			Address:    r.Address,
			TxHash:     r.TxHash,
			Block:      r.BlockNumber,
			DeployedAt: r.DeployedAt,
			Forced:     r.Forced,
		})
	}

	if len(rows) == 0 && f.format == FormatText {
		cmd.Printf("No deployments recorded for chain %d\n", chainID)
		return nil
	}

	return render(cmd.OutOrStdout(), f.format, rows, rows)
}

// resolveChainID returns the given chain ID, or the ID of the network when it is zero.
func resolveChainID(cmd *cobra.Command, cfg Config, env *environment, network string, chainID uint64) (uint64, error) {
	if chainID != 0 {
		return chainID, nil
	}
	if network == NetworkSimulated {
		return 0, errors.New("simulated deployments are not recorded, use --chain-id to select a chain")
	}

	chain, closeChain, err := cfg.deps().ChainLoader(cmd.Context(), network, env.config, env.lggr)
	if err != nil {
		return 0, fmt.Errorf("failed to load chain: %w", err)
	}
	_ = closeChain()

	return chain.ChainID, nil
}
