package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawPlus/healing-server-sub000/internal/config"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/printer"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [module]",
	Short: "Print the field tables used to normalize rows",
	Long: `Print the effective field tables as YAML: the built-in tables overlaid
with field_maps_path from .healing/config.yaml. Pass a module id to print
only that module.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
		only := ""
		if len(args) == 1 {
			id, err := module.Parse(args[0])
			if err != nil {
				return p.Error("Unknown module", err.Error(), fmt.Sprintf("use one of %v", module.All()))
			}
			only = string(id)
		}
		cfg, err := config.Load(projectDir)
		if err != nil {
			return p.Error("Could not load config", err.Error())
		}
		tables, err := cfg.FieldTables()
		if err != nil {
			return p.Error("Could not load field tables", err.Error())
		}
		data, err := tables.Marshal(only)
		if err != nil {
			return p.Error("Could not render field tables", err.Error())
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
