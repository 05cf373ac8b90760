package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"workshop/pkg/blueprint"
	"workshop/pkg/history"
	"workshop/pkg/materialize"
	"workshop/pkg/prompt"
)

// repositoryOption is the optional section enabled by --repository.
const repositoryOption = "repository"

var (
	createInclude    []string
	createRepository bool
	createSkip       bool
	createDryRun     bool
)

var createCmd = &cobra.Command{
	Use:   "create <blueprint> [target]",
	Short: "Create a project directory from a blueprint",
	Long: heredoc.Doc(`
		Create a project directory from blueprint_<blueprint>.yaml.

		The default sections are always created. Each optional section is
		included when named with --include, otherwise you are asked. With
		--skip every question takes its default and every optional section
		is included.

		Missing pieces and failed writes are reported and skipped; the rest
		of the tree is still created.
	`),
	Example: heredoc.Doc(`
		# Ask for the target name and each optional section
		workshop create 001

		# Create ./my-app with the repository section, no questions asked
		workshop create 001 my-app -r

		# Show what would be written
		workshop create 002 --dry-run -s
	`),
	Args: cobra.RangeArgs(1, 2),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringSliceVarP(&createInclude, "include", "i", nil, "Optional section to include without asking (repeatable)")
	createCmd.Flags().BoolVarP(&createRepository, "repository", "r", false, "Include the repository section")
	createCmd.Flags().BoolVarP(&createSkip, "skip", "s", false, "Skip all questions and include every optional section")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Print the planned changes without writing anything")

	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.close()

	bp, err := blueprint.NewDirLoader(env.cfg.BlueprintsDir).Load(args[0])
	if err != nil {
		return err
	}

	var target string
	if len(args) > 1 {
		target = args[1]
	}

	include := append([]string(nil), createInclude...)
	if createRepository {
		include = append(include, repositoryOption)
	}

	out := cmd.OutOrStdout()
	var prompter prompt.Prompter = prompt.NewTerminal(cmd.InOrStdin(), out)
	if createSkip {
		prompter = prompt.Always(true)
	}

	m := materialize.New(materialize.Options{
		Locate:   locateTarget,
		Pieces:   osfs.New(env.cfg.PiecesDir),
		Prompter: prompter,
		Logger:   env.logger,
		Out:      out,
	})

	run := history.NewRun(bp.ID)
	res, err := m.Materialize(cmd.Context(), bp, materialize.Request{
		Target:      target,
		Include:     include,
		SkipConfirm: createSkip,
		DryRun:      createDryRun,
	})
	env.recordRun(run, res, err, createDryRun)

	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, materialize.ErrCancelled):
		fmt.Fprintln(out, "Cancelled")
		return nil
	case err != nil:
		return err
	}

	if len(res.Skipped)+len(res.Failures) > 0 {
		fmt.Fprintf(out, "%d missing piece(s), %d failed write(s)\n", len(res.Skipped), len(res.Failures))
	}
	return nil
}

// locateTarget opens the workspace a target lives in. It serves targets from
// the command line and from the prompt alike.
func locateTarget(target string) (billy.Filesystem, string, error) {
	root, rel, err := splitTarget(target)
	if err != nil {
		return nil, "", err
	}
	return osfs.New(root), rel, nil
}

// splitTarget returns the workspace root and the target relative to it. The
// workspace is the current directory unless the target leaves it, in which
// case the target's parent becomes the root.
func splitTarget(target string) (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("failed to get current directory: %w", err)
	}

	if target == "" || filepath.IsLocal(target) {
		return cwd, target, nil
	}

	abs := target
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, target)
	}
	abs = filepath.Clean(abs)
	return filepath.Dir(abs), filepath.Base(abs), nil
}
