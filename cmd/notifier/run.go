package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"lockedin/internal/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one notification pass over all due saved searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("dry-run", false, "report what would be sent without writing or delivering anything")
	runCmd.Flags().String("search-id", "", "only process this saved search")
	runCmd.Flags().String("now", "", "evaluate schedules as of this RFC3339 instant instead of the current time")

	_ = viper.BindPFlag("dry-run", runCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("search-id", runCmd.Flags().Lookup("search-id"))
	_ = viper.BindPFlag("now", runCmd.Flags().Lookup("now"))
}

func runOptions() (usecase.RunOptions, error) {
	opts := usecase.RunOptions{DryRun: viper.GetBool("dry-run")}

	if raw := viper.GetString("search-id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, fmt.Errorf("--search-id: %w", err)
		}
		opts.SearchID = &id
	}
	if raw := viper.GetString("now"); raw != "" {
		now, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, fmt.Errorf("--now: %w", err)
		}
		opts.Now = now.UTC()
	}
	return opts, nil
}

func run(cmd *cobra.Command) error {
	opts, err := runOptions()
	if err != nil {
		return err
	}

	c, lg, err := setup(!opts.DryRun)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := c.Scheduler.RunAllDue(ctx, opts)
	if err != nil {
		lg.Error("notification run failed", zap.Error(err))
		return err
	}

	printReport(cmd.OutOrStdout(), rep)

	if n := rep.Count(usecase.OutcomeFailed); n > 0 {
		return fmt.Errorf("%d saved search(es) failed", n)
	}
	return nil
}

func printReport(w io.Writer, rep usecase.RunReport) {
	mode := "live"
	if rep.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "run at %s (%s): %d saved search(es)\n", rep.StartedAt.Format(time.RFC3339), mode, len(rep.Searches))
	for _, s := range rep.Searches {
		line := fmt.Sprintf("  %s %-10s new=%d pending=%d delivered=%d", s.SearchID, s.Outcome, s.NewMatches, s.Pending, s.Delivered)
		if rep.DryRun {
			line += fmt.Sprintf(" would_notify=%t", s.WouldNotify)
		}
		if s.Err != nil {
			line += " error=" + s.Err.Error()
		}
		fmt.Fprintf(w, "%s  %q\n", line, s.Name)
	}
}
