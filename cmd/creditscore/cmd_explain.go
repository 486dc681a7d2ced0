package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/features"
	"wallet-credit-score/internal/pipeline"
	"wallet-credit-score/internal/reporting"
)

func newExplainCmd(root *rootOptions) *cobra.Command {
	var (
		wallet string
		source string
		input  string
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show one wallet's transactions and the features derived from them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wallet == "" {
				return errors.New("--wallet is required")
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("source") {
				cfg.Input.Source = source
			}
			if cmd.Flags().Changed("input") {
				cfg.Input.Path = input
			}

			ctx := cmd.Context()
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(ctx, cfg.Input.Source, cfg.Input)
			if err != nil {
				return err
			}
			defer closeStore()

			p := pipeline.NewScorePipeline(store, reporting.DefaultOutput()).
				WithLogger(logger).
				WithSource(cfg.Input.Source)
			if cfg.Input.Source == config.SourceFile {
				p = p.WithFileInput(cfg.Input.Path, cfg.Input.BatchSize)
			}

			h, err := p.Explain(ctx, wallet)
			if err != nil {
				return err
			}
			printWalletHistory(cmd, h)
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet id to explain")
	cmd.Flags().StringVar(&source, "source", config.SourceFile, "Transaction source (file|postgres|clickhouse)")
	cmd.Flags().StringVar(&input, "input", "user-wallet-transactions.json", "Transactions JSON file for the file source")

	return cmd
}

func printWalletHistory(cmd *cobra.Command, h *pipeline.WalletHistory) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Wallet %s: %d transactions\n\n", h.WalletID, len(h.Transactions))
	for _, t := range h.Transactions {
		when := "-"
		if !t.TimestampMissing {
			when = time.Unix(t.Timestamp, 0).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-20s  %-16s  %s\n", when, t.Action, t.Amount.String())
	}

	f := h.Features
	fmt.Fprintf(out, "\nFeatures\n")
	for _, a := range features.Actions([]*domain.WalletFeatures{f}) {
		fmt.Fprintf(out, "  %-16s %.6f\n", a, f.ActionSums[a])
	}
	fmt.Fprintf(out, "  %-16s %.6f\n", "net_position", f.NetPosition)
	fmt.Fprintf(out, "  %-16s %d\n", "tx_count", f.TxCount)
	fmt.Fprintf(out, "  %-16s %d\n", "active_days", f.ActiveDays)
	fmt.Fprintf(out, "  %-16s %.4f\n", "avg_tx_per_day", f.AvgTxPerDay)
}
