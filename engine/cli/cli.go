// Package cli provides the commands of the deployer binary.
//
//	cmd, err := cli.NewCommand(cli.Config{Modules: modules.Default()})
//	if err != nil {
//	    return err
//	}
//	return cmd.ExecuteContext(ctx)
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tokenstake/deployments/engine/config"
	"github.com/tokenstake/deployments/modules"
	"github.com/tokenstake/deployments/pkg/logger"
)

var (
	rootShort = "Deploy contract modules to EVM chains"

	rootLong = longDesc(`
		Deploys ignition modules to an EVM chain and records the deployed addresses.

		Configuration is read from the config file and the environment. Variables in the .env
		files are loaded into the environment first, so module inputs such as TOKEN_ADDRESS can
		be kept there too.
	`)
)

// Config holds the configuration of the commands.
type Config struct {
	// Modules are the deployable modules. Required.
	Modules *modules.Registry

	// Logger overrides the logger created from the log configuration.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Modules == nil {
		missing = append(missing, "Modules")
	}

	if len(missing) > 0 {
		return errors.New("cli.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates the root command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:           "deployer",
		Short:         rootShort,
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "Path to the config file")
	cmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Paths of .env files to load")

	cmd.AddCommand(newDeployCmd(cfg))
	cmd.AddCommand(newModulesCmd(cfg))
	cmd.AddCommand(newStatusCmd(cfg))
	cmd.AddCommand(newResetCmd(cfg))

	return cmd, nil
}

// environment is the loaded configuration of a command run.
type environment struct {
	config *config.Config
	lggr   logger.Logger
}

// loadEnvironment loads the .env files and the config, and creates the logger.
func loadEnvironment(cmd *cobra.Command, cfg Config) (*environment, error) {
	deps := cfg.deps()
	rf := readRootFlags(cmd)

	if err := deps.DotEnvLoader(rf.envFiles...); err != nil {
		return nil, err
	}

	c, err := deps.ConfigLoader(rf.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	lggr := cfg.Logger
	if lggr == nil {
		if lggr, err = deps.LoggerFactory(c.Log); err != nil {
			return nil, err
		}
	}

	return &environment{config: c, lggr: lggr}, nil
}

func (c Config) moduleDeps() modules.Deps {
	return modules.Deps{Clock: c.Deps.Clock, LookupEnv: c.Deps.LookupEnv}
}
