package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/logging"
)

const (
	appName = "creditscore"
	version = "v1.0.0"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg(appName + " failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Score wallets by lending-protocol behaviour",
		Version: version,
		Long: `creditscore assigns every wallet in a transaction dump a credit score.

Wallet features (per-action sums, activity days, net position) are min-max
scaled and clustered with k-means. Clusters are ranked by a financial health
metric and each rank maps to a fixed score band.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (console|json)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newImportCmd(opts),
		newMigrateCmd(opts),
		newExplainCmd(opts),
	)
	return rootCmd
}

// loadConfig reads config and builds the logger. Flag overrides are applied
// by the caller before Validate.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}
