package main

import (
	"errors"
	"fmt"

	"lockedin/internal/app"
	"lockedin/internal/config"
	"lockedin/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appName = "notifier"

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "notifier evaluates saved searches and notifies recruiters about new candidate matches",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Int("workers", 0, "saved searches processed in parallel (default NOTIFIER_WORKERS)")
	rootCmd.PersistentFlags().Bool("log-only", false, "log notifications instead of publishing them; matches are consumed")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("log-only", rootCmd.PersistentFlags().Lookup("log-only"))
	_ = viper.BindEnv("debug", "LOG_DEBUG")
	_ = viper.BindEnv("json", "LOG_JSON")
	_ = viper.BindEnv("workers", "NOTIFIER_WORKERS")
	_ = viper.BindEnv("log-only", "NOTIFIER_LOG_ONLY")
}

var errNoTransport = errors.New("no notification transport: redis is unreachable and --log-only is not set")

// setup loads the environment config, applies flag overrides and builds the
// container shared with the HTTP server. With requireTransport it refuses to
// start when deliveries could not reach anyone.
func setup(requireTransport bool) (*app.Container, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.App.LogJSON = viper.GetBool("json")
	cfg.App.LogDebug = viper.GetBool("debug")
	if w := viper.GetInt("workers"); w > 0 {
		cfg.Notifier.Workers = w
	}
	if viper.GetBool("log-only") {
		cfg.Notifier.LogOnly = true
	}

	lg, err := logger.New(cfg.App.LogJSON, cfg.App.LogDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	lg = lg.Named(appName)

	c, err := app.NewContainer(cfg, lg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting: %w", err)
	}
	if requireTransport && !c.HasTransport() {
		_ = c.Close()
		return nil, nil, errNoTransport
	}
	return c, lg, nil
}
