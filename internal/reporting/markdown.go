package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Credit Score Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.DataVersion != "" {
		sb.WriteString(fmt.Sprintf("Data version: `%s`\n\n", r.DataVersion))
	}

	// Run
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	if r.Run.Source != "" {
		sb.WriteString(fmt.Sprintf("| Source | %s |\n", r.Run.Source))
	}
	sb.WriteString(fmt.Sprintf("| Clusters | %d |\n", r.Run.Clusters))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Run.Seed))
	sb.WriteString(fmt.Sprintf("| Restarts | %d |\n", r.Run.Restarts))
	sb.WriteString(fmt.Sprintf("| Best Restart | %d |\n", r.Run.BestRestart))
	sb.WriteString(fmt.Sprintf("| Iterations | %d |\n", r.Run.Iterations))
	sb.WriteString(fmt.Sprintf("| Inertia | %.6f |\n", r.Run.Inertia))
	sb.WriteString("\n")

	// Data Summary
	d := r.DataSummary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", d.Transactions))
	sb.WriteString(fmt.Sprintf("| Wallets | %d |\n", d.Wallets))
	sb.WriteString(fmt.Sprintf("| Non-hex Wallet IDs | %d |\n", d.NonHexWallets))
	sb.WriteString(fmt.Sprintf("| Skipped Records (no wallet) | %d |\n", d.SkippedRecords))
	sb.WriteString(fmt.Sprintf("| Missing Timestamps | %d |\n", d.MissingTimestamps))
	sb.WriteString(fmt.Sprintf("| Zero Amounts | %d |\n", d.ZeroAmounts))
	sb.WriteString(fmt.Sprintf("| Missing Amounts | %d |\n", d.MissingAmounts))
	sb.WriteString(fmt.Sprintf("| Malformed Amounts | %d |\n", d.MalformedAmounts))
	sb.WriteString(fmt.Sprintf("| First Timestamp (s) | %d |\n", d.FirstTimestamp))
	sb.WriteString(fmt.Sprintf("| Last Timestamp (s) | %d |\n", d.LastTimestamp))
	sb.WriteString("\n")

	if len(d.ActionCounts) > 0 {
		sb.WriteString("| Action | Transactions | Total Amount |\n")
		sb.WriteString("|--------|--------------|--------------|\n")
		for _, a := range d.ActionCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f |\n", a.Action, a.Count, a.Total))
		}
		sb.WriteString("\n")
	}

	// Clusters
	sb.WriteString("## Cluster Summary\n\n")
	if len(r.Clusters) > 0 {
		sb.WriteString("| Cluster | Wallets | Deposit | Repay | Borrow | Liquidation | NetPosition | ScoreMetric | Rank | Score |\n")
		sb.WriteString("|---------|---------|---------|-------|--------|-------------|-------------|-------------|------|-------|\n")
		for _, c := range r.Clusters {
			sb.WriteString(fmt.Sprintf("| %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.2f | %d | %d |\n",
				c.Cluster, c.Wallets, c.Deposit, c.Repay, c.Borrow, c.LiquidationCall,
				c.NetPosition, c.ScoreMetric, c.Rank, c.Score))
		}
	} else {
		sb.WriteString("No clusters.\n")
	}
	sb.WriteString("\n")

	// Score bands
	sb.WriteString("## Score Distribution\n\n")
	if len(r.Bands) > 0 {
		sb.WriteString("| Score | Wallets |\n")
		sb.WriteString("|-------|---------|\n")
		for _, b := range r.Bands {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", b.Score, b.Wallets))
		}
	} else {
		sb.WriteString("No scores.\n")
	}
	sb.WriteString("\n")

	// Cluster to score
	sb.WriteString("## Cluster to Score\n\n")
	if len(r.ClusterScores) > 0 {
		sb.WriteString("| Cluster | Score | Wallets |\n")
		sb.WriteString("|---------|-------|---------|\n")
		for _, c := range r.ClusterScores {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d |\n", c.Cluster, c.Score, c.Wallets))
		}
	} else {
		sb.WriteString("No scores.\n")
	}
	sb.WriteString("\n")

	// Feature means
	sb.WriteString("## Mean Features by Score\n\n")
	if len(r.FeatureMeans) > 0 {
		sb.WriteString("| Score | Wallets | Borrow | Deposit | Repay | NetPosition | TxCount |\n")
		sb.WriteString("|-------|---------|--------|---------|-------|-------------|---------|\n")
		for _, m := range r.FeatureMeans {
			sb.WriteString(fmt.Sprintf("| %d | %d | %.4f | %.4f | %.4f | %.4f | %.2f |\n",
				m.Score, m.Wallets, m.Borrow, m.Deposit, m.Repay, m.NetPosition, m.TxCount))
		}
	} else {
		sb.WriteString("No scores.\n")
	}
	sb.WriteString("\n")

	// Head
	sb.WriteString("## Sample Scores\n\n")
	if len(r.Head) > 0 {
		sb.WriteString("| Wallet | Score | Cluster |\n")
		sb.WriteString("|--------|-------|---------|\n")
		for _, h := range r.Head {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", h.WalletID, h.CreditScore, h.Cluster))
		}
	} else {
		sb.WriteString("No scores.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
