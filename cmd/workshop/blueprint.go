package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"workshop/pkg/blueprint"
	"workshop/pkg/pieces"
)

var blueprintCmd = &cobra.Command{
	Use:     "blueprint",
	Aliases: []string{"bp"},
	Short:   "Inspect blueprints",
}

var blueprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available blueprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		summaries, err := blueprint.NewDirLoader(env.cfg.BlueprintsDir).List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(summaries) == 0 {
			fmt.Fprintf(out, "No blueprints found in %s\n", env.cfg.BlueprintsDir)
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, s := range summaries {
			if s.Err != nil {
				fmt.Fprintf(w, "%s\t(invalid)\t%v\n", s.ID, s.Err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
		}
		return w.Flush()
	},
}

var blueprintShowCmd = &cobra.Command{
	Use:   "show <blueprint>",
	Short: "Show the tree a blueprint creates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		bp, err := blueprint.NewDirLoader(env.cfg.BlueprintsDir).Load(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Template: %s\n", bp.Name)
		fmt.Fprintf(out, "Description: %s\n", bp.Description)
		if names := bp.OptionNames(); len(names) > 0 {
			fmt.Fprintf(out, "Options: %s\n", strings.Join(names, ", "))
		}
		fmt.Fprintln(out)
		blueprint.Preview(out, bp)
		return nil
	},
}

var blueprintCheckCmd = &cobra.Command{
	Use:   "check <blueprint>",
	Short: "Verify that every piece a blueprint references exists",
	Long: heredoc.Doc(`
		Load a blueprint and look up every piece it references, in the
		default and all optional sections. Exits non-zero when any piece is
		missing.
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		bp, err := blueprint.NewDirLoader(env.cfg.BlueprintsDir).Load(args[0])
		if err != nil {
			return err
		}

		refs := bp.Pieces()
		missing := pieces.NewCatalog(env.cfg.PiecesDir).Missing(refs)

		out := cmd.OutOrStdout()
		for _, ref := range missing {
			fmt.Fprintf(out, "missing: %s\n", ref)
		}
		if len(missing) > 0 {
			return fmt.Errorf("blueprint %q: %d of %d piece(s) missing from %s", bp.ID, len(missing), len(refs), env.cfg.PiecesDir)
		}

		fmt.Fprintf(out, "Blueprint %q OK: %d piece reference(s) resolved\n", bp.ID, len(refs))
		return nil
	},
}

func init() {
	blueprintCmd.AddCommand(blueprintListCmd)
	blueprintCmd.AddCommand(blueprintShowCmd)
	blueprintCmd.AddCommand(blueprintCheckCmd)

	rootCmd.AddCommand(blueprintCmd)
}
