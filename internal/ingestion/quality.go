package ingestion

import (
	"github.com/ethereum/go-ethereum/common"

	"wallet-credit-score/internal/domain"
)

// Quality summarizes a transaction population. Nothing here rejects records.
type Quality struct {
	Transactions      int
	Wallets           int
	NonHexWallets     int // wallet ids that are not 20-byte hex addresses
	ZeroAmounts       int
	MissingTimestamps int
	ActionCounts      map[string]int
	FirstTimestamp    int64 // over records with a timestamp
	LastTimestamp     int64
	SkippedRecords    int // records without a wallet id; only known for file sources
	MissingAmounts    int // only known for file sources
	MalformedAmounts  int // only known for file sources
}

// Summarize computes population-level data quality counters.
func Summarize(txs []*domain.Transaction) Quality {
	q := Quality{
		Transactions: len(txs),
		ActionCounts: make(map[string]int),
	}

	wallets := make(map[string]bool)
	dated := false
	for _, t := range txs {
		if _, seen := wallets[t.WalletID]; !seen {
			wallets[t.WalletID] = common.IsHexAddress(t.WalletID)
		}
		if t.Amount.IsZero() {
			q.ZeroAmounts++
		}
		q.ActionCounts[t.Action]++

		if t.TimestampMissing {
			q.MissingTimestamps++
			continue
		}
		if !dated || t.Timestamp < q.FirstTimestamp {
			q.FirstTimestamp = t.Timestamp
		}
		if !dated || t.Timestamp > q.LastTimestamp {
			q.LastTimestamp = t.Timestamp
		}
		dated = true
	}

	q.Wallets = len(wallets)
	for _, isHex := range wallets {
		if !isHex {
			q.NonHexWallets++
		}
	}

	return q
}
