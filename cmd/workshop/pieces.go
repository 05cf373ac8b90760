package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workshop/pkg/pieces"
)

var piecesMatch string

var piecesCmd = &cobra.Command{
	Use:   "pieces",
	Short: "Inspect the pieces directory",
}

var piecesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List piece files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		list, err := pieces.NewCatalog(env.cfg.PiecesDir).List(cmd.Context(), piecesMatch)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintf(out, "No pieces found in %s\n", env.cfg.PiecesDir)
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PIECE\tSIZE\tTYPE")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%d\t%s\n", p.Path, p.Size, p.MIME)
		}
		return w.Flush()
	},
}

func init() {
	piecesListCmd.Flags().StringVarP(&piecesMatch, "match", "m", "", "Only list pieces matching a glob (e.g. '**/*.md')")

	piecesCmd.AddCommand(piecesListCmd)
	rootCmd.AddCommand(piecesCmd)
}
