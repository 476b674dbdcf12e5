package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// NetworkRPC connects to the node configured in network.rpc_url.
	NetworkRPC = "rpc"
	// NetworkSimulated starts an in memory chain which is discarded on exit.
	NetworkSimulated = "simulated"

	FormatText = "text"
	FormatYAML = "yaml"
)

// mustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func mustString(s string, _ error) string { return s }

// mustBool returns the bool value, ignoring the error.
func mustBool(b bool, _ error) bool { return b }

// choiceValue is a string flag restricted to a set of values.
type choiceValue struct {
	value   string
	choices []string
}

var _ pflag.Value = (*choiceValue)(nil)

func (c *choiceValue) String() string { return c.value }

func (c *choiceValue) Set(s string) error {
	if !slices.Contains(c.choices, s) {
		return fmt.Errorf("must be one of %v", c.choices)
	}
	c.value = s

	return nil
}

func (c *choiceValue) Type() string { return "string" }

// networkFlag adds the --network/-n flag selecting the chain provider.
func networkFlag(cmd *cobra.Command) {
	cmd.Flags().VarP(&choiceValue{value: NetworkRPC, choices: []string{NetworkRPC, NetworkSimulated}},
		"network", "n", "Chain to use: rpc (network.rpc_url) or simulated")
}

// formatFlag adds the --format/-f flag for the output encoding.
func formatFlag(cmd *cobra.Command) {
	cmd.Flags().VarP(&choiceValue{value: FormatText, choices: []string{FormatText, FormatYAML}},
		"format", "f", "Output format: text or yaml")
}

// rootFlags are the persistent flags of the root command.
type rootFlags struct {
	configPath string
	envFiles   []string
}

func readRootFlags(cmd *cobra.Command) rootFlags {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")

	return rootFlags{
		configPath: mustString(cmd.Flags().GetString("config")),
		envFiles:   envFiles,
	}
}
