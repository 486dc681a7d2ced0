package ingestion

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"wallet-credit-score/internal/domain"
)

// actionPayload is the subset of actionData the scorer reads.
type actionPayload struct {
	Amount      json.RawMessage `json:"amount"`
	AssetSymbol string          `json:"assetSymbol"`
}

// amountStatus classifies how an amount was obtained.
type amountStatus int

const (
	amountOK        amountStatus = iota
	amountMissing                // no actionData object or no amount field
	amountMalformed              // amount present but not numeric
)

// ScaleAmount converts a base-unit amount to human scale (÷ 10^18).
func ScaleAmount(base decimal.Decimal) decimal.Decimal {
	return base.Shift(-domain.AmountDecimals)
}

// parseActionData extracts the scaled amount and asset symbol.
// Anything that is not an object with a numeric amount yields zero.
func parseActionData(raw json.RawMessage) (decimal.Decimal, string, amountStatus) {
	if len(raw) == 0 || raw[0] != '{' {
		return decimal.Zero, "", amountMissing
	}

	var p actionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return decimal.Zero, "", amountMissing
	}

	amount, status := parseAmount(p.Amount)
	return amount, p.AssetSymbol, status
}

// parseAmount accepts a JSON number or a numeric string in base units.
func parseAmount(raw json.RawMessage) (decimal.Decimal, amountStatus) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, amountMissing
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, amountMalformed
		}
	}

	base, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, amountMalformed
	}
	return ScaleAmount(base), amountOK
}
