package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/storage/migrations"
	pgstore "wallet-credit-score/internal/storage/postgres"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded wallet_transactions schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			var applied []string
			switch target {
			case config.SourcePostgres:
				if cfg.Input.PostgresDSN == "" {
					return fmt.Errorf("postgres dsn is required (input.postgres_dsn or %sPOSTGRES_DSN)", config.EnvPrefix)
				}
				pool, err := pgstore.NewPool(ctx, cfg.Input.PostgresDSN)
				if err != nil {
					return fmt.Errorf("connect postgres: %w", err)
				}
				defer pool.Close()

				applied, err = migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					return err
				}

			case config.SourceClickhouse:
				if cfg.Input.ClickhouseDSN == "" {
					return fmt.Errorf("clickhouse dsn is required (input.clickhouse_dsn or %sCLICKHOUSE_DSN)", config.EnvPrefix)
				}
				conn, files, err := migrations.RunClickhouseMigrations(ctx, cfg.Input.ClickhouseDSN)
				if err != nil {
					return err
				}
				defer conn.Close()
				applied = files

			default:
				return fmt.Errorf("unknown migrate target %q", target)
			}

			logger.Info().Str("target", target).Strs("applied", applied).Msg("migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", config.SourcePostgres, "Target database (postgres|clickhouse)")

	return cmd
}
