package reporting

import (
	"fmt"
	"strings"

	"wallet-credit-score/internal/domain"
)

// ScoresCSVHeader is the header line of the wallet score file.
const ScoresCSVHeader = "userWallet,credit_score_kmeans,cluster"

// RenderScoresCSV renders wallet scores as CSV string, rows in input order.
func RenderScoresCSV(scores []domain.WalletScore) string {
	var sb strings.Builder

	sb.WriteString(ScoresCSVHeader)
	sb.WriteString("\n")

	for _, s := range scores {
		sb.WriteString(fmt.Sprintf("%s,%d,%d\n", csvField(s.WalletID), s.CreditScore, s.Cluster))
	}

	return sb.String()
}

// csvField quotes values containing separators or quotes.
func csvField(v string) string {
	if !strings.ContainsAny(v, ",\"\r\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
