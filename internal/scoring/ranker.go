// Package scoring ranks clusters by financial health and maps ranks to
// credit scores.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"wallet-credit-score/internal/domain"
)

var (
	// ErrUnmappedRank is returned when a cluster rank has no score in the table.
	ErrUnmappedRank = errors.New("scoring: rank has no score")

	// ErrLabelMismatch is returned when labels and features differ in length.
	ErrLabelMismatch = errors.New("scoring: labels do not match features")
)

// ScoreMetric combines raw cluster totals into the health metric used for
// ranking, rounded half-to-even on v*100 to 2 decimals. NetPosition already
// contains deposit and repay, so healthy supply is weighted twice.
func ScoreMetric(deposit, repay, borrow, liquidationCall, netPosition float64) float64 {
	v := deposit + repay - borrow - liquidationCall + netPosition
	return math.RoundToEven(v*100) / 100
}

// Rank summarizes each cluster present in labels, ranks clusters by
// descending ScoreMetric with ties sharing the lowest rank, and assigns every
// wallet the score of its cluster's rank. labels[i] belongs to features[i].
// Summaries are ordered by cluster id, scores follow features order.
func Rank(features []*domain.WalletFeatures, labels []int, table domain.ScoreTable) ([]domain.ClusterSummary, []domain.WalletScore, error) {
	if len(features) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d features, %d labels", ErrLabelMismatch, len(features), len(labels))
	}

	byCluster := make(map[int]*domain.ClusterSummary)
	for i, f := range features {
		s := byCluster[labels[i]]
		if s == nil {
			s = &domain.ClusterSummary{Cluster: labels[i]}
			byCluster[labels[i]] = s
		}
		s.WalletCount++
		s.Deposit += f.Deposit
		s.Repay += f.Repay
		s.Borrow += f.Borrow
		s.LiquidationCall += f.LiquidationCall
		s.NetPosition += f.NetPosition
	}

	summaries := make([]domain.ClusterSummary, 0, len(byCluster))
	for _, s := range byCluster {
		s.ScoreMetric = ScoreMetric(s.Deposit, s.Repay, s.Borrow, s.LiquidationCall, s.NetPosition)
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Cluster < summaries[j].Cluster
	})

	scoreOf := make(map[int]int, len(summaries))
	for i := range summaries {
		rank := minRank(summaries, summaries[i].ScoreMetric)
		score, ok := table[rank]
		if !ok {
			return nil, nil, fmt.Errorf("%w: cluster %d rank %d", ErrUnmappedRank, summaries[i].Cluster, rank)
		}
		summaries[i].Rank = rank
		summaries[i].Score = score
		scoreOf[summaries[i].Cluster] = score
	}

	scores := make([]domain.WalletScore, len(features))
	for i, f := range features {
		scores[i] = domain.WalletScore{
			WalletID:    f.WalletID,
			CreditScore: scoreOf[labels[i]],
			Cluster:     labels[i],
		}
	}
	return summaries, scores, nil
}

// minRank is 1 plus the number of clusters with a strictly higher metric.
func minRank(summaries []domain.ClusterSummary, metric float64) int {
	rank := 1
	for _, s := range summaries {
		if s.ScoreMetric > metric {
			rank++
		}
	}
	return rank
}

// BandCounts returns the number of wallets per credit score.
func BandCounts(scores []domain.WalletScore) map[int]int {
	out := make(map[int]int)
	for _, s := range scores {
		out[s.CreditScore]++
	}
	return out
}
