package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tokenstake/deployments/datastore"
)

var (
	resetShort = "Discard the recorded deployments of a chain"

	resetLong = longDesc(`
		Removes the deployment records and the operation journal of a chain. Contracts stay on
		chain; the next deploy run deploys every module again.
	`)

	resetExample = examples(`
		deployer reset --chain-id 31337 --yes
	`)
)

func newResetCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reset",
		Short:   resetShort,
		Long:    resetLong,
		Example: resetExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !mustBool(cmd.Flags().GetBool("yes")) {
				return errors.New("refusing to reset without --yes")
			}
			chainID, _ := cmd.Flags().GetUint64("chain-id")

			return runReset(cmd, cfg, mustString(cmd.Flags().GetString("network")), chainID)
		},
	}

	networkFlag(cmd)
	cmd.Flags().Uint64("chain-id", 0, "Chain ID to reset, skips connecting to the network")
	cmd.Flags().Bool("yes", false, "Confirm the reset")

	return cmd
}

func runReset(cmd *cobra.Command, cfg Config, network string, chainID uint64) error {
	env, err := loadEnvironment(cmd, cfg)
	if err != nil {
		return err
	}

	chainID, err = resolveChainID(cmd, cfg, env, network, chainID)
	if err != nil {
		return err
	}

	store, err := datastore.OpenFileStore(env.config.Paths.Deployments, chainID)
	if err != nil {
		return err
	}
	if err = store.Reset(); err != nil {
		return err
	}

	cmd.Printf("Removed %s\n", store.Dir())

	return nil
}
