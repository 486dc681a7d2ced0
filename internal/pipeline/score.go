// Package pipeline wires loading, feature extraction, clustering, scoring
// and reporting into one batch run.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"wallet-credit-score/internal/clustering"
	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/features"
	"wallet-credit-score/internal/ingestion"
	"wallet-credit-score/internal/observability"
	"wallet-credit-score/internal/reporting"
	"wallet-credit-score/internal/scoring"
	"wallet-credit-score/internal/storage"
)

var (
	// ErrNoTransactions is returned when the store holds nothing to score.
	ErrNoTransactions = errors.New("pipeline: no transactions to score")

	// ErrUnknownWallet is returned by Explain for a wallet with no transactions.
	ErrUnknownWallet = errors.New("pipeline: wallet has no transactions")
)

// ScorePipeline orchestrates a full scoring run over a TransactionStore.
type ScorePipeline struct {
	store     storage.TransactionStore
	inputPath string // optional, loaded into store before scoring
	batchSize int
	source    string
	kmeans    *clustering.KMeans
	table     domain.ScoreTable
	reportGen *reporting.Generator
	metrics   *observability.Metrics // optional
	logger    zerolog.Logger
	base      zerolog.Logger // untagged, handed to the loader
	clock     func() time.Time
}

// Result holds everything a run produced.
type Result struct {
	DataVersion string
	Quality     ingestion.Quality
	Features    []*domain.WalletFeatures
	Clustering  *clustering.Result
	Summaries   []domain.ClusterSummary
	Scores      []domain.WalletScore
	Report      *reporting.Report
	Artifacts   *reporting.Artifacts
}

// WalletHistory is one wallet's stored transactions and the features
// derived from them alone.
type WalletHistory struct {
	WalletID     string
	Transactions []*domain.Transaction
	Features     *domain.WalletFeatures
}

// NewScorePipeline creates a pipeline reading from store and writing to output.
// Without WithFileInput the store must already hold the transactions.
func NewScorePipeline(store storage.TransactionStore, output reporting.Output) *ScorePipeline {
	return &ScorePipeline{
		store:     store,
		source:    "store",
		kmeans:    clustering.NewKMeans(),
		table:     domain.DefaultScoreTable,
		reportGen: reporting.NewGenerator(output),
		logger:    zerolog.Nop(),
		base:      zerolog.Nop(),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithFileInput loads the JSON file at path into the store before scoring.
func (p *ScorePipeline) WithFileInput(path string, batchSize int) *ScorePipeline {
	p.inputPath = path
	p.batchSize = batchSize
	p.source = "file"
	return p
}

// WithSource names the input source in the report.
func (p *ScorePipeline) WithSource(source string) *ScorePipeline {
	p.source = source
	return p
}

// WithKMeans replaces the clusterer settings.
func (p *ScorePipeline) WithKMeans(km *clustering.KMeans) *ScorePipeline {
	p.kmeans = km
	return p
}

// WithScoreTable sets the rank to score lookup.
func (p *ScorePipeline) WithScoreTable(table domain.ScoreTable) *ScorePipeline {
	p.table = table
	return p
}

// WithMetrics records run metrics into m.
func (p *ScorePipeline) WithMetrics(m *observability.Metrics) *ScorePipeline {
	p.metrics = m
	return p
}

// WithLogger sets the logger.
func (p *ScorePipeline) WithLogger(logger zerolog.Logger) *ScorePipeline {
	p.base = logger
	p.logger = logger.With().Str("component", "pipeline").Logger()
	return p
}

// WithHeadRows sets how many score rows the summary report echoes.
func (p *ScorePipeline) WithHeadRows(n int) *ScorePipeline {
	p.reportGen = p.reportGen.WithHeadRows(n)
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ScorePipeline) WithClock(clock func() time.Time) *ScorePipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// Run executes all stages and writes:
// - wallet_credit_scores.csv
// - credit_score_distribution.png
// - cluster_feature_means.png
// - SCORE_REPORT.md
func (p *ScorePipeline) Run(ctx context.Context) (res *Result, err error) {
	if p.metrics != nil {
		defer func() { p.metrics.RecordRun(err, p.clock()) }()
	}

	res = &Result{}

	// 1. Load
	stageStart := time.Now()
	txs, quality, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	res.Quality = quality
	res.DataVersion = computeDataVersion(txs)
	p.observeStage(observability.StageLoad, stageStart)
	if p.metrics != nil {
		p.metrics.RecordLoad(quality.Transactions, quality.MissingAmounts, quality.MalformedAmounts, quality.NonHexWallets)
		p.metrics.RecordRecordIssues(quality.SkippedRecords, quality.MissingTimestamps)
	}

	// 2. Features
	stageStart = time.Now()
	res.Features = features.Extract(txs)
	p.observeStage(observability.StageFeatures, stageStart)
	p.logger.Info().Int("wallets", len(res.Features)).Msg("features extracted")

	// 3. Cluster
	stageStart = time.Now()
	var scaler clustering.MinMaxScaler
	scaled, err := scaler.FitTransform(features.ClusteringMatrix(res.Features))
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	res.Clustering, err = p.kmeans.Fit(ctx, scaled)
	if err != nil {
		return nil, fmt.Errorf("cluster wallets: %w", err)
	}
	p.observeStage(observability.StageCluster, stageStart)
	if p.metrics != nil {
		p.metrics.RecordClustering(res.Clustering.Inertia, res.Clustering.Iterations)
	}
	p.logger.Info().
		Int("clusters", p.kmeans.K).
		Int("restart", res.Clustering.Restart).
		Int("iterations", res.Clustering.Iterations).
		Float64("inertia", res.Clustering.Inertia).
		Msg("wallets clustered")

	// 4. Score
	stageStart = time.Now()
	res.Summaries, res.Scores, err = scoring.Rank(res.Features, res.Clustering.Labels, p.table)
	if err != nil {
		return nil, fmt.Errorf("rank clusters: %w", err)
	}
	p.observeStage(observability.StageScore, stageStart)
	if p.metrics != nil {
		p.metrics.RecordScores(scoring.BandCounts(res.Scores))
	}
	for _, s := range res.Summaries {
		p.logger.Debug().
			Int("cluster", s.Cluster).
			Int("wallets", s.WalletCount).
			Float64("score_metric", s.ScoreMetric).
			Int("rank", s.Rank).
			Int("score", s.Score).
			Msg("cluster ranked")
	}

	// 5. Report
	stageStart = time.Now()
	res.Report, err = p.reportGen.Generate(reporting.Input{
		DataVersion: res.DataVersion,
		Run: reporting.RunInfo{
			Source:      p.source,
			Clusters:    p.kmeans.K,
			Seed:        p.kmeans.Seed,
			Restarts:    p.kmeans.Restarts,
			BestRestart: res.Clustering.Restart,
			Iterations:  res.Clustering.Iterations,
			Inertia:     res.Clustering.Inertia,
		},
		Quality:   res.Quality,
		Features:  res.Features,
		Summaries: res.Summaries,
		Scores:    res.Scores,
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	res.Artifacts, err = p.reportGen.Write(ctx, res.Report, res.Features, res.Scores)
	if err != nil {
		return nil, fmt.Errorf("write outputs: %w", err)
	}
	p.observeStage(observability.StageReport, stageStart)

	p.logger.Info().
		Int("wallets", len(res.Scores)).
		Str("scores", res.Artifacts.Scores).
		Str("data_version", res.DataVersion).
		Msg("scoring run complete")

	return res, nil
}

// Explain loads the input like Run and returns walletID's transactions in
// timestamp order with its features. Pivot columns beyond the known actions
// are limited to the wallet's own actions.
func (p *ScorePipeline) Explain(ctx context.Context, walletID string) (*WalletHistory, error) {
	if _, err := p.loadFile(ctx); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	txs, err := p.store.GetByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWallet, walletID)
	}

	return &WalletHistory{
		WalletID:     walletID,
		Transactions: txs,
		Features:     features.Extract(txs)[0],
	}, nil
}

// load fills the store from the input file when configured and reads every
// transaction back in (wallet, timestamp) order.
func (p *ScorePipeline) load(ctx context.Context) ([]*domain.Transaction, ingestion.Quality, error) {
	loaded, err := p.loadFile(ctx)
	if err != nil {
		return nil, ingestion.Quality{}, err
	}

	txs, err := p.store.GetAll(ctx)
	if err != nil {
		return nil, ingestion.Quality{}, err
	}

	quality := ingestion.Summarize(txs)
	if loaded != nil {
		quality.SkippedRecords = loaded.Quality.SkippedRecords
		quality.MissingAmounts = loaded.Quality.MissingAmounts
		quality.MalformedAmounts = loaded.Quality.MalformedAmounts
	}
	return txs, quality, nil
}

// loadFile appends the input file to the store. It returns nil without a
// configured file.
func (p *ScorePipeline) loadFile(ctx context.Context) (*ingestion.LoadResult, error) {
	if p.inputPath == "" {
		return nil, nil
	}
	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		Store:     p.store,
		BatchSize: p.batchSize,
		Logger:    p.base,
	})
	return loader.LoadFile(ctx, p.inputPath)
}

func (p *ScorePipeline) observeStage(stage string, start time.Time) {
	d := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordStage(stage, d)
	}
	p.logger.Debug().Str("stage", stage).Dur("duration", d).Msg("stage finished")
}

// computeDataVersion hashes the ordered transactions so two runs over the
// same data report the same version.
func computeDataVersion(txs []*domain.Transaction) string {
	h := sha256.New()
	for _, t := range txs {
		ts := strconv.FormatInt(t.Timestamp, 10)
		if t.TimestampMissing {
			ts = "-"
		}
		fmt.Fprintf(h, "%s|%s|%s|%s\n", t.WalletID, ts, t.Action, t.Amount.String())
	}
	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}
