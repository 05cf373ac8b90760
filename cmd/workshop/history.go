package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	pruneDays    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent create runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		db, err := env.openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.Recent(historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tBLUEPRINT\tTARGET\tSTATUS\tFILES\tOPTIONS")
		for _, r := range runs {
			status := string(r.Status)
			if r.DryRun {
				status += " (dry run)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Blueprint,
				r.Target,
				status,
				r.Files,
				strings.Join(r.Options, ","),
			)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run counts per blueprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		db, err := env.openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No runs recorded yet")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BLUEPRINT\tRUNS\tCOMPLETED\tLAST RUN")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Blueprint, s.Runs, s.Completed, s.LastRun.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than --days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		db, err := env.openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := db.Prune(time.Now().AddDate(0, 0, -pruneDays))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s) older than %d day(s)\n", removed, pruneDays)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	historyPruneCmd.Flags().IntVar(&pruneDays, "days", 30, "Keep runs newer than this many days")

	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
