package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/features"
	"wallet-credit-score/internal/ingestion"
	"wallet-credit-score/internal/scoring"
)

// DefaultHeadRows is the number of score rows echoed into the report.
const DefaultHeadRows = 10

// Output names the files written by a Generator.
type Output struct {
	Dir               string
	ScoresFile        string
	DistributionChart string
	FeatureMeansChart string
	SummaryFile       string
	ChartDPI          float64
}

// DefaultOutput returns the standard artifact names in the working directory.
func DefaultOutput() Output {
	return Output{
		Dir:               ".",
		ScoresFile:        "wallet_credit_scores.csv",
		DistributionChart: "credit_score_distribution.png",
		FeatureMeansChart: "cluster_feature_means.png",
		SummaryFile:       "SCORE_REPORT.md",
		ChartDPI:          DefaultDPI,
	}
}

// Artifacts lists the paths written by Write.
type Artifacts struct {
	Scores            string
	DistributionChart string
	FeatureMeansChart string
	Summary           string
}

// Input is everything a report is built from. Features, Labels and Scores
// are aligned by index.
type Input struct {
	DataVersion string
	Run         RunInfo
	Quality     ingestion.Quality
	Features    []*domain.WalletFeatures
	Summaries   []domain.ClusterSummary
	Scores      []domain.WalletScore
}

// Generator produces reports and output files from a scored population.
type Generator struct {
	output   Output
	headRows int
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(output Output) *Generator {
	return &Generator{
		output:   output,
		headRows: DefaultHeadRows,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithHeadRows sets how many score rows the report echoes.
func (g *Generator) WithHeadRows(n int) *Generator {
	g.headRows = n
	return g
}

// Generate builds the run report.
func (g *Generator) Generate(in Input) (*Report, error) {
	if len(in.Features) != len(in.Scores) {
		return nil, fmt.Errorf("features and scores differ: %d vs %d", len(in.Features), len(in.Scores))
	}

	means, err := FeatureMeans(in.Features, in.Scores)
	if err != nil {
		return nil, err
	}

	head := make([]ScoreRow, 0, g.headRows)
	for i := 0; i < len(in.Scores) && i < g.headRows; i++ {
		s := in.Scores[i]
		head = append(head, ScoreRow{WalletID: s.WalletID, CreditScore: s.CreditScore, Cluster: s.Cluster})
	}

	return &Report{
		GeneratedAt:   g.now(),
		DataVersion:   in.DataVersion,
		Run:           in.Run,
		DataSummary:   dataSummary(in.Quality, in.Features),
		Clusters:      clusterRows(in.Summaries),
		Bands:         bandRows(in.Scores),
		ClusterScores: clusterScoreRows(in.Scores),
		FeatureMeans:  means,
		Head:          head,
	}, nil
}

// Write renders the score CSV, both charts and the markdown summary into
// the output directory.
func (g *Generator) Write(ctx context.Context, r *Report, wallets []*domain.WalletFeatures, scores []domain.WalletScore) (*Artifacts, error) {
	if err := os.MkdirAll(g.output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	a := &Artifacts{
		Scores:            filepath.Join(g.output.Dir, g.output.ScoresFile),
		DistributionChart: filepath.Join(g.output.Dir, g.output.DistributionChart),
		FeatureMeansChart: filepath.Join(g.output.Dir, g.output.FeatureMeansChart),
		Summary:           filepath.Join(g.output.Dir, g.output.SummaryFile),
	}

	if err := os.WriteFile(a.Scores, []byte(RenderScoresCSV(scores)), 0o644); err != nil {
		return nil, fmt.Errorf("write scores: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := RenderScoreDistributionChart(scores, a.DistributionChart, g.output.ChartDPI); err != nil {
		return nil, fmt.Errorf("render distribution chart: %w", err)
	}
	if err := RenderFeatureMeansChart(wallets, scores, a.FeatureMeansChart, g.output.ChartDPI); err != nil {
		return nil, fmt.Errorf("render feature means chart: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.WriteFile(a.Summary, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	return a, nil
}

// FeatureMeans groups wallets by credit score and averages the charted
// features. Rows are ordered by score ascending.
func FeatureMeans(wallets []*domain.WalletFeatures, scores []domain.WalletScore) ([]FeatureMeansRow, error) {
	if len(wallets) != len(scores) {
		return nil, fmt.Errorf("features and scores differ: %d vs %d", len(wallets), len(scores))
	}

	type columns struct {
		borrow, deposit, repay, net, tx []float64
	}
	groups := make(map[int]*columns)
	for i, f := range wallets {
		c := groups[scores[i].CreditScore]
		if c == nil {
			c = &columns{}
			groups[scores[i].CreditScore] = c
		}
		c.borrow = append(c.borrow, f.Borrow)
		c.deposit = append(c.deposit, f.Deposit)
		c.repay = append(c.repay, f.Repay)
		c.net = append(c.net, f.NetPosition)
		c.tx = append(c.tx, float64(f.TxCount))
	}

	rows := make([]FeatureMeansRow, 0, len(groups))
	for score, c := range groups {
		rows = append(rows, FeatureMeansRow{
			Score:       score,
			Wallets:     len(c.tx),
			Borrow:      stat.Mean(c.borrow, nil),
			Deposit:     stat.Mean(c.deposit, nil),
			Repay:       stat.Mean(c.repay, nil),
			NetPosition: stat.Mean(c.net, nil),
			TxCount:     stat.Mean(c.tx, nil),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Score < rows[j].Score
	})
	return rows, nil
}

// dataSummary lists every pivot column, including known actions that never
// occur, with its transaction count and population total.
func dataSummary(q ingestion.Quality, wallets []*domain.WalletFeatures) DataSummary {
	names := make(map[string]struct{}, len(q.ActionCounts))
	for a := range q.ActionCounts {
		names[a] = struct{}{}
	}
	for _, a := range features.Actions(wallets) {
		names[a] = struct{}{}
	}

	actions := make([]ActionCountRow, 0, len(names))
	for a := range names {
		row := ActionCountRow{Action: a, Count: q.ActionCounts[a]}
		for _, f := range wallets {
			row.Total += f.ActionSums[a]
		}
		actions = append(actions, row)
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Action < actions[j].Action
	})

	return DataSummary{
		Transactions:      q.Transactions,
		Wallets:           q.Wallets,
		NonHexWallets:     q.NonHexWallets,
		SkippedRecords:    q.SkippedRecords,
		MissingTimestamps: q.MissingTimestamps,
		ZeroAmounts:       q.ZeroAmounts,
		MissingAmounts:    q.MissingAmounts,
		MalformedAmounts:  q.MalformedAmounts,
		FirstTimestamp:    q.FirstTimestamp,
		LastTimestamp:     q.LastTimestamp,
		ActionCounts:      actions,
	}
}

func clusterRows(summaries []domain.ClusterSummary) []ClusterRow {
	rows := make([]ClusterRow, len(summaries))
	for i, s := range summaries {
		rows[i] = ClusterRow{
			Cluster:         s.Cluster,
			Wallets:         s.WalletCount,
			Deposit:         s.Deposit,
			Repay:           s.Repay,
			Borrow:          s.Borrow,
			LiquidationCall: s.LiquidationCall,
			NetPosition:     s.NetPosition,
			ScoreMetric:     s.ScoreMetric,
			Rank:            s.Rank,
			Score:           s.Score,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Cluster < rows[j].Cluster
	})
	return rows
}

func bandRows(scores []domain.WalletScore) []BandRow {
	counts := scoring.BandCounts(scores)
	rows := make([]BandRow, 0, len(counts))
	for score, n := range counts {
		rows = append(rows, BandRow{Score: score, Wallets: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	return rows
}

func clusterScoreRows(scores []domain.WalletScore) []ClusterScoreRow {
	type key struct{ cluster, score int }
	counts := make(map[key]int)
	for _, s := range scores {
		counts[key{s.Cluster, s.CreditScore}]++
	}

	rows := make([]ClusterScoreRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, ClusterScoreRow{Cluster: k.cluster, Score: k.score, Wallets: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Cluster != rows[j].Cluster {
			return rows[i].Cluster < rows[j].Cluster
		}
		return rows[i].Score < rows[j].Score
	})
	return rows
}
