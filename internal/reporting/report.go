package reporting

import "time"

// Report represents the scoring run summary.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	DataVersion string // sha256 of the loaded transactions
	Run         RunInfo

	DataSummary DataSummary

	// Sorted by cluster id
	Clusters []ClusterRow

	// Sorted by score descending
	Bands []BandRow

	// Sorted by (cluster, score)
	ClusterScores []ClusterScoreRow

	// Sorted by score ascending, same grouping as the feature means chart
	FeatureMeans []FeatureMeansRow

	// First rows of the score table, wallet order
	Head []ScoreRow
}

// RunInfo holds the clustering parameters and outcome.
type RunInfo struct {
	Source      string
	Clusters    int
	Seed        int64
	Restarts    int
	BestRestart int
	Iterations  int
	Inertia     float64
}

// DataSummary describes the loaded population.
type DataSummary struct {
	Transactions      int
	Wallets           int
	NonHexWallets     int
	SkippedRecords    int
	MissingTimestamps int
	ZeroAmounts       int
	MissingAmounts    int
	MalformedAmounts  int
	FirstTimestamp    int64 // Unix s
	LastTimestamp     int64 // Unix s
	ActionCounts      []ActionCountRow
}

// ActionCountRow is one pivot column: its transactions and summed amount.
type ActionCountRow struct {
	Action string
	Count  int
	Total  float64
}

// ClusterRow is one cluster's raw totals, metric, rank and score.
type ClusterRow struct {
	Cluster         int
	Wallets         int
	Deposit         float64
	Repay           float64
	Borrow          float64
	LiquidationCall float64
	NetPosition     float64
	ScoreMetric     float64
	Rank            int
	Score           int
}

// BandRow is the number of wallets holding one credit score.
type BandRow struct {
	Score   int
	Wallets int
}

// ClusterScoreRow is the number of wallets per (cluster, score) pair.
type ClusterScoreRow struct {
	Cluster int
	Score   int
	Wallets int
}

// FeatureMeansRow holds mean raw features for wallets with one credit score.
type FeatureMeansRow struct {
	Score       int
	Wallets     int
	Borrow      float64
	Deposit     float64
	Repay       float64
	NetPosition float64
	TxCount     float64
}

// ScoreRow is one line of the score table.
type ScoreRow struct {
	WalletID    string
	CreditScore int
	Cluster     int
}
