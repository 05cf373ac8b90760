package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workshop config and directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.WriteDefaultConfig()
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config:     %s\n", path)
		fmt.Fprintf(out, "Blueprints: %s\n", cfg.BlueprintsDir)
		fmt.Fprintf(out, "Pieces:     %s\n", cfg.PiecesDir)
		fmt.Fprintln(out, "\nAdd blueprint_<id>.yaml files and pieces, then run 'workshop create <id>'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
