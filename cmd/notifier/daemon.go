package main

import (
	"context"
	"os/signal"
	"syscall"

	"lockedin/internal/scheduler"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the notifier on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return daemon()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().String("cron", "", "cron spec (default NOTIFIER_CRON)")
	_ = viper.BindPFlag("cron", daemonCmd.Flags().Lookup("cron"))
}

func daemon() error {
	c, lg, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	defer func() { _ = lg.Sync() }()

	spec := c.Config.Notifier.CronSpec
	if s := viper.GetString("cron"); s != "" {
		spec = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := scheduler.New(spec, c.Scheduler, lg)
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	lg.Info("shutting down", zap.String("reason", ctx.Err().Error()))
	s.Stop()
	return nil
}
