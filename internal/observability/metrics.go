// Package observability provides Prometheus metrics for scoring runs.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "wallet_credit_score"

// Pipeline stage labels.
const (
	StageLoad     = "load"
	StageFeatures = "features"
	StageCluster  = "cluster"
	StageScore    = "score"
	StageReport   = "report"
)

// Metrics holds all Prometheus metrics for a scoring run. Metrics live on
// their own registry so tests and repeated runs never collide.
type Metrics struct {
	Registry *prometheus.Registry

	// Ingestion metrics
	TransactionsLoaded prometheus.Counter
	AmountIssues       *prometheus.CounterVec
	RecordIssues       *prometheus.CounterVec
	NonHexWallets      prometheus.Gauge

	// Clustering metrics
	ClusteringInertia    prometheus.Gauge
	ClusteringIterations prometheus.Gauge

	// Scoring metrics
	WalletsScored prometheus.Gauge
	WalletsByBand *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// Ingestion metrics
		TransactionsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_loaded_total",
			Help:      "Total number of transactions loaded",
		}),
		AmountIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "amount_issues_total",
			Help:      "Transactions whose amount defaulted to zero, by reason",
		}, []string{"reason"}),
		RecordIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "record_issues_total",
			Help:      "Records skipped or kept undated, by reason",
		}, []string{"reason"}),
		NonHexWallets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "non_hex_wallets",
			Help:      "Number of wallet ids that are not 20-byte hex addresses",
		}),

		// Clustering metrics
		ClusteringInertia: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "inertia",
			Help:      "Within-cluster sum of squared distances of the selected restart",
		}),
		ClusteringIterations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "iterations",
			Help:      "Lloyd iterations of the selected restart",
		}),

		// Scoring metrics
		WalletsScored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_scored",
			Help:      "Number of wallets scored in the last run",
		}),
		WalletsByBand: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_by_score",
			Help:      "Number of wallets per credit score in the last run",
		}, []string{"score"}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// RecordLoad records ingestion counters.
func (m *Metrics) RecordLoad(transactions, missingAmounts, malformedAmounts, nonHexWallets int) {
	m.TransactionsLoaded.Add(float64(transactions))
	m.AmountIssues.WithLabelValues("missing").Add(float64(missingAmounts))
	m.AmountIssues.WithLabelValues("malformed").Add(float64(malformedAmounts))
	m.NonHexWallets.Set(float64(nonHexWallets))
}

// RecordRecordIssues counts records dropped for lacking a wallet id and
// records kept without a usable timestamp.
func (m *Metrics) RecordRecordIssues(skipped, undated int) {
	m.RecordIssues.WithLabelValues("no_wallet").Add(float64(skipped))
	m.RecordIssues.WithLabelValues("no_timestamp").Add(float64(undated))
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordClustering records the selected k-means restart.
func (m *Metrics) RecordClustering(inertia float64, iterations int) {
	m.ClusteringInertia.Set(inertia)
	m.ClusteringIterations.Set(float64(iterations))
}

// RecordScores records the per-score wallet counts.
func (m *Metrics) RecordScores(bands map[int]int) {
	total := 0
	m.WalletsByBand.Reset()
	for score, n := range bands {
		m.WalletsByBand.WithLabelValues(strconv.Itoa(score)).Set(float64(n))
		total += n
	}
	m.WalletsScored.Set(float64(total))
}

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(err error, finishedAt time.Time) {
	if err != nil {
		m.PipelineRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.PipelineRunsTotal.WithLabelValues("success").Inc()
	m.LastSuccessfulRun.Set(float64(finishedAt.Unix()))
}

// WriteTextfile writes the registry in text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
