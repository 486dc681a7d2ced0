package domain

// WalletFeatures holds per-wallet aggregates derived from transactions.
type WalletFeatures struct {
	WalletID string

	// ActionSums holds the summed scaled amount per action type.
	// Every action seen in the population is present, zero-filled.
	ActionSums map[string]float64

	// Shortcuts into ActionSums for the actions used downstream.
	Deposit          float64
	Borrow           float64
	Repay            float64
	RedeemUnderlying float64
	LiquidationCall  float64

	FirstTx     int64   // earliest timestamp (s)
	LastTx      int64   // latest timestamp (s)
	TxCount     int     // number of dated transactions of any action
	ActiveDays  int     // distinct UTC calendar dates with activity
	AvgTxPerDay float64 // TxCount / ActiveDays, 0 when ActiveDays == 0

	// NetPosition = deposit + repay - borrow - redeemUnderlying
	NetPosition float64
}

// ClusterSummary aggregates raw feature totals for one cluster.
type ClusterSummary struct {
	Cluster         int
	WalletCount     int
	Deposit         float64
	Repay           float64
	Borrow          float64
	LiquidationCall float64
	NetPosition     float64
	ScoreMetric     float64 // rounded to 2 decimals
	Rank            int     // 1 = best
	Score           int     // credit score mapped from Rank
}

// WalletScore is the final assignment of a wallet.
type WalletScore struct {
	WalletID    string
	CreditScore int
	Cluster     int
}
