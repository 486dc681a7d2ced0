package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"wallet-credit-score/internal/domain"
)

// rawRecord mirrors one element of user-wallet-transactions.json.
type rawRecord struct {
	UserWallet  string          `json:"userWallet"`
	Network     string          `json:"network"`
	Protocol    string          `json:"protocol"`
	TxHash      string          `json:"txHash"`
	BlockNumber json.RawMessage `json:"blockNumber"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Action      string          `json:"action"`
	ActionData  json.RawMessage `json:"actionData"`
}

// ParseStats counts record outcomes while parsing.
type ParseStats struct {
	Records           int // records returned
	SkippedRecords    int // records without a userWallet, dropped
	MissingTimestamps int
	MissingAmounts    int
	MalformedAmounts  int
}

// ParseTransactions streams a JSON array of wallet transaction records.
// Records are returned in file order. Records without a wallet id are
// skipped; an absent or unparseable timestamp is kept as missing.
func ParseTransactions(r io.Reader) ([]*domain.Transaction, ParseStats, error) {
	var stats ParseStats

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, stats, fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, stats, fmt.Errorf("expected JSON array, got %v", tok)
	}

	var txs []*domain.Transaction
	for i := 0; dec.More(); i++ {
		var rec rawRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, stats, fmt.Errorf("decode record %d: %w", i, err)
		}
		if rec.UserWallet == "" {
			stats.SkippedRecords++
			continue
		}

		t, status := rec.toTransaction()
		if t.TimestampMissing {
			stats.MissingTimestamps++
		}
		switch status {
		case amountMissing:
			stats.MissingAmounts++
		case amountMalformed:
			stats.MalformedAmounts++
		}

		txs = append(txs, t)
		stats.Records++
	}

	if _, err := dec.Token(); err != nil {
		return nil, stats, fmt.Errorf("read closing token: %w", err)
	}

	return txs, stats, nil
}

func (rec *rawRecord) toTransaction() (*domain.Transaction, amountStatus) {
	ts, ok := parseEpochSeconds(rec.Timestamp)
	amount, symbol, status := parseActionData(rec.ActionData)

	// blockNumber is informational only
	block, _ := parseEpochSeconds(rec.BlockNumber)

	return &domain.Transaction{
		WalletID:         rec.UserWallet,
		TxHash:           rec.TxHash,
		Network:          rec.Network,
		Protocol:         rec.Protocol,
		BlockNumber:      block,
		Timestamp:        ts,
		TimestampMissing: !ok,
		Action:           rec.Action,
		AssetSymbol:      symbol,
		Amount:           amount,
	}, status
}

// parseEpochSeconds accepts a JSON number or numeric string, including float
// spellings like 1.6e9. ok is false for null, absent or non-numeric values.
func parseEpochSeconds(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	}

	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
