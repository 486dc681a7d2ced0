package domain

import "github.com/shopspring/decimal"

// Transaction represents a single lending-protocol action by a wallet.
// Corresponds to wallet_transactions table in PostgreSQL and ClickHouse.
type Transaction struct {
	WalletID    string          // userWallet
	TxHash      string          // transaction hash, empty if unknown
	Network     string          // e.g. "polygon"
	Protocol    string          // e.g. "aave_v2"
	BlockNumber int64           // block height, 0 if unknown
	Timestamp   int64           // Unix timestamp in seconds, 0 when TimestampMissing
	Action      string          // action type (see Action* constants)
	AssetSymbol string          // actionData.assetSymbol, empty if absent
	Amount      decimal.Decimal // actionData.amount divided by 10^AmountDecimals

	// TimestampMissing marks a record whose timestamp was absent or
	// unparseable. Its amount still counts; it has no date.
	TimestampMissing bool
}

// Action types emitted by the lending protocol.
const (
	ActionDeposit          = "deposit"
	ActionBorrow           = "borrow"
	ActionRepay            = "repay"
	ActionRedeemUnderlying = "redeemUnderlying"
	ActionLiquidationCall  = "liquidationcall"
)

// KnownActions lists the actions that always get a feature column,
// whether or not they occur in the input.
var KnownActions = []string{
	ActionBorrow,
	ActionDeposit,
	ActionLiquidationCall,
	ActionRedeemUnderlying,
	ActionRepay,
}

// AmountDecimals is the fixed base-unit exponent of actionData.amount.
const AmountDecimals = 18
