package main

import (
	"errors"

	"github.com/spf13/cobra"

	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/ingestion"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		target string
		input  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a transactions JSON file into a Postgres or ClickHouse table",
		Long: `import appends every record of the JSON file to the wallet_transactions
table of the target database. Apply the schema with "creditscore migrate" first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				cfg.Input.Path = input
			}
			if target == config.SourceFile {
				return errors.New("import target must be postgres or clickhouse")
			}

			ctx := cmd.Context()
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(ctx, target, cfg.Input)
			if err != nil {
				return err
			}
			defer closeStore()

			loader := ingestion.NewLoader(ingestion.LoaderOptions{
				Store:     store,
				BatchSize: cfg.Input.BatchSize,
				Logger:    logger,
			})
			res, err := loader.LoadFile(ctx, cfg.Input.Path)
			if err != nil {
				return err
			}

			logger.Info().
				Str("target", target).
				Int("transactions", res.Quality.Transactions).
				Int("wallets", res.Quality.Wallets).
				Int("batches", res.Batches).
				Msg("import complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", config.SourcePostgres, "Target database (postgres|clickhouse)")
	cmd.Flags().StringVar(&input, "input", "user-wallet-transactions.json", "Transactions JSON file")

	return cmd
}
