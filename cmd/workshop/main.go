package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

var (
	configPath    string
	blueprintsDir string
	piecesDir     string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "workshop",
	Short: "Create project folders from YAML blueprints",
	Long: heredoc.Doc(`
		Workshop scaffolds directory trees from declarative blueprints.

		A blueprint (blueprint_<id>.yaml in the blueprints directory) names a
		default file tree and optional sections. Every leaf is a path into the
		pieces directory; pieces are copied byte for byte into the target.
	`),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.workshop/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&blueprintsDir, "blueprints-dir", "", "Directory containing blueprint_<id>.yaml files")
	rootCmd.PersistentFlags().StringVar(&piecesDir, "pieces-dir", "", "Directory containing piece files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	setContext(rootCmd, ctx)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return exitCode(err, rootCmd.ErrOrStderr())
}

// setContext hands ctx to the whole tree. Cobra only fills a subcommand's
// context while it is nil, so a second execution would otherwise keep the
// first one's.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "\nCancelled by user")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
