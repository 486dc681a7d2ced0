package main

import (
	"github.com/spf13/cobra"

	"wallet-credit-score/internal/clustering"
	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/observability"
	"wallet-credit-score/internal/pipeline"
	"wallet-credit-score/internal/reporting"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		source    string
		input     string
		outputDir string
		seed      int64
		clusters  int
		workers   int
		textfile  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score every wallet and write the CSV, charts and report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("source") {
				cfg.Input.Source = source
			}
			if flags.Changed("input") {
				cfg.Input.Path = input
			}
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("seed") {
				cfg.Clustering.Seed = seed
			}
			if flags.Changed("clusters") {
				cfg.Clustering.Clusters = clusters
			}
			if flags.Changed("workers") {
				cfg.Clustering.Workers = workers
			}
			if flags.Changed("metrics-textfile") {
				cfg.Metrics.Textfile = textfile
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			return runScore(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&source, "source", config.SourceFile, "Transaction source (file|postgres|clickhouse)")
	cmd.Flags().StringVar(&input, "input", "user-wallet-transactions.json", "Transactions JSON file for the file source")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "Directory for output files")
	cmd.Flags().Int64Var(&seed, "seed", clustering.DefaultSeed, "k-means random seed")
	cmd.Flags().IntVar(&clusters, "clusters", clustering.DefaultK, "Number of clusters, must match the score bands")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent k-means restarts")
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	return cmd
}

func runScore(cmd *cobra.Command, cfg *config.Config) error {
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

	km := &clustering.KMeans{
		K:             cfg.Clustering.Clusters,
		Seed:          cfg.Clustering.Seed,
		Restarts:      cfg.Clustering.Restarts,
		MaxIterations: cfg.Clustering.MaxIterations,
		Tolerance:     cfg.Clustering.Tolerance,
		Workers:       cfg.Clustering.Workers,
	}

	metrics := observability.NewMetrics("")

	p := pipeline.NewScorePipeline(store, reporting.Output{
		Dir:               cfg.Output.Dir,
		ScoresFile:        cfg.Output.ScoresFile,
		DistributionChart: cfg.Output.DistributionChart,
		FeatureMeansChart: cfg.Output.FeatureMeansChart,
		SummaryFile:       cfg.Output.SummaryFile,
		ChartDPI:          cfg.Output.ChartDPI,
	}).
		WithLogger(logger).
		WithKMeans(km).
		WithScoreTable(domain.NewScoreTable(cfg.Scoring.Bands)).
		WithHeadRows(cfg.Output.HeadRows).
		WithMetrics(metrics).
		WithSource(cfg.Input.Source)

	if cfg.Input.Source == config.SourceFile {
		p = p.WithFileInput(cfg.Input.Path, cfg.Input.BatchSize)
	}

	res, runErr := p.Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("write metrics textfile")
		}
	}
	if runErr != nil {
		return runErr
	}

	for _, b := range res.Report.Bands {
		logger.Info().Int("score", b.Score).Int("wallets", b.Wallets).Msg("score band")
	}
	logger.Info().
		Str("scores", res.Artifacts.Scores).
		Str("distribution_chart", res.Artifacts.DistributionChart).
		Str("feature_means_chart", res.Artifacts.FeatureMeansChart).
		Str("summary", res.Artifacts.Summary).
		Msg("outputs written")
	return nil
}
