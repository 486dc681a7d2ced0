// Package features derives per-wallet behavioral aggregates from transactions.
package features

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"wallet-credit-score/internal/domain"
)

// ClusteringColumns names the feature subset fed to the clusterer, in order.
var ClusteringColumns = []string{
	domain.ActionDeposit,
	domain.ActionRepay,
	domain.ActionBorrow,
	domain.ActionLiquidationCall,
	"net_position",
	"active_days",
	"avg_tx_per_day",
}

// walletAccumulator collects running aggregates for one wallet.
type walletAccumulator struct {
	sums    map[string]decimal.Decimal
	first   int64
	last    int64
	count   int
	days    map[dayKey]struct{}
	started bool
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// Extract computes one WalletFeatures per distinct wallet, sorted by wallet id.
// Every action seen in txs, plus domain.KnownActions, gets a zero-filled sum.
// Time features (first/last tx, tx count, active days) use dated records only.
func Extract(txs []*domain.Transaction) []*domain.WalletFeatures {
	actions := make(map[string]struct{})
	for _, a := range domain.KnownActions {
		actions[a] = struct{}{}
	}

	acc := make(map[string]*walletAccumulator)
	for _, t := range txs {
		actions[t.Action] = struct{}{}

		w := acc[t.WalletID]
		if w == nil {
			w = &walletAccumulator{
				sums: make(map[string]decimal.Decimal),
				days: make(map[dayKey]struct{}),
			}
			acc[t.WalletID] = w
		}
		w.add(t)
	}

	wallets := make([]string, 0, len(acc))
	for id := range acc {
		wallets = append(wallets, id)
	}
	sort.Strings(wallets)

	out := make([]*domain.WalletFeatures, len(wallets))
	for i, id := range wallets {
		out[i] = acc[id].finish(id, actions)
	}
	return out
}

// add folds t into the wallet. An undated record only contributes its amount.
func (w *walletAccumulator) add(t *domain.Transaction) {
	w.sums[t.Action] = w.sums[t.Action].Add(t.Amount)
	if t.TimestampMissing {
		return
	}

	if !w.started || t.Timestamp < w.first {
		w.first = t.Timestamp
	}
	if !w.started || t.Timestamp > w.last {
		w.last = t.Timestamp
	}
	w.started = true
	w.count++

	y, m, d := time.Unix(t.Timestamp, 0).UTC().Date()
	w.days[dayKey{year: y, month: m, day: d}] = struct{}{}
}

func (w *walletAccumulator) finish(walletID string, actions map[string]struct{}) *domain.WalletFeatures {
	f := &domain.WalletFeatures{
		WalletID:   walletID,
		ActionSums: make(map[string]float64, len(actions)),
		FirstTx:    w.first,
		LastTx:     w.last,
		TxCount:    w.count,
		ActiveDays: len(w.days),
	}

	for a := range actions {
		f.ActionSums[a] = w.sums[a].InexactFloat64()
	}

	f.Deposit = f.ActionSums[domain.ActionDeposit]
	f.Borrow = f.ActionSums[domain.ActionBorrow]
	f.Repay = f.ActionSums[domain.ActionRepay]
	f.RedeemUnderlying = f.ActionSums[domain.ActionRedeemUnderlying]
	f.LiquidationCall = f.ActionSums[domain.ActionLiquidationCall]

	f.AvgTxPerDay = avgPerDay(f.TxCount, f.ActiveDays)
	f.NetPosition = NetPosition(f)

	return f
}

// NetPosition = deposit + repay - borrow - redeemUnderlying.
func NetPosition(f *domain.WalletFeatures) float64 {
	return f.Deposit + f.Repay - f.Borrow - f.RedeemUnderlying
}

// avgPerDay returns 0 for a wallet with no active days.
func avgPerDay(count, days int) float64 {
	if days == 0 {
		return 0
	}
	return float64(count) / float64(days)
}

// Actions returns the sorted action columns present in features.
func Actions(features []*domain.WalletFeatures) []string {
	if len(features) == 0 {
		return nil
	}
	out := make([]string, 0, len(features[0].ActionSums))
	for a := range features[0].ActionSums {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ClusteringMatrix returns the ClusteringColumns of each wallet as a row.
func ClusteringMatrix(features []*domain.WalletFeatures) [][]float64 {
	rows := make([][]float64, len(features))
	for i, f := range features {
		rows[i] = []float64{
			f.Deposit,
			f.Repay,
			f.Borrow,
			f.LiquidationCall,
			f.NetPosition,
			float64(f.ActiveDays),
			f.AvgTxPerDay,
		}
	}
	return rows
}
