package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	modulesShort = "List the deployable modules"

	modulesLong = longDesc(`
		Lists the registered modules and the contracts each of them deploys. Modules are built
		to be listed, so the arguments shown are the ones a deployment run now would use.
	`)
)

func newModulesCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: modulesShort,
		Long:  modulesLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModules(cmd, cfg, mustString(cmd.Flags().GetString("format")))
		},
	}

	formatFlag(cmd)

	return cmd
}

type moduleRow struct {
	Module   string `yaml:"module"`
	Future   string `yaml:"future"`
	Contract string `yaml:"contract"`
	Args     []any  `yaml:"args"`
	Force    bool   `yaml:"force"`
}

type moduleRows []moduleRow

func (moduleRows) header() []string {
	return []string{"Module", "Future", "Contract", "Args", "Force"}
}

func (r moduleRows) rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, row := range r {
		out = append(out, []string{
			row.Module, row.Future, row.Contract, fmt.Sprint(row.Args), strconv.FormatBool(row.Force),
		})
	}

	return out
}

func runModules(cmd *cobra.Command, cfg Config, format string) error {
	rf := readRootFlags(cmd)
	if err := cfg.deps().DotEnvLoader(rf.envFiles...); err != nil {
		return err
	}

	var rows moduleRows
	for _, id := range cfg.Modules.Names() {
		mod, err := cfg.Modules.Build(id, cfg.moduleDeps())
		if err != nil {
			return err
		}

		for _, f := range mod.Futures() {
			args := f.Args()
			for i, a := range args {
				if dep, ok := a.(interface{ ID() string }); ok {
					args[i] = dep.ID()
				}
			}

			rows = append(rows, moduleRow{
				Module:   id,
				Future:   f.ID(),
				Contract: f.ContractName(),
				Args:     args,
				Force:    f.Force(),
			})
		}
	}

	return render(cmd.OutOrStdout(), format, rows, rows)
}
