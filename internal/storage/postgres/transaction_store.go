package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

var transactionColumns = []string{
	"wallet_id", "tx_hash", "network", "protocol", "block_number",
	"ts", "ts_missing", "action", "asset_symbol", "amount",
}

// InsertBulk appends multiple transactions atomically using COPY.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([][]any, len(txs))
	for i, t := range txs {
		if t == nil || t.WalletID == "" {
			return storage.ErrInvalidInput
		}
		rows[i] = []any{
			t.WalletID, t.TxHash, t.Network, t.Protocol, t.BlockNumber,
			t.Timestamp, t.TimestampMissing, t.Action, t.AssetSymbol, toNumeric(t.Amount),
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"wallet_transactions"}, transactionColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy wallet transactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all transactions ordered by (wallet_id, ts) ASC.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT wallet_id, tx_hash, network, protocol, block_number,
			ts, ts_missing, action, asset_symbol, amount
		FROM wallet_transactions
		ORDER BY wallet_id ASC, ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all wallet transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByWallet retrieves all transactions for a wallet, ordered by ts ASC.
func (s *TransactionStore) GetByWallet(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	query := `
		SELECT wallet_id, tx_hash, network, protocol, block_number,
			ts, ts_missing, action, asset_symbol, amount
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wallet transactions: %w", err)
	}
	return int(n), nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var (
			t      domain.Transaction
			amount pgtype.Numeric
		)

		err := rows.Scan(
			&t.WalletID, &t.TxHash, &t.Network, &t.Protocol, &t.BlockNumber,
			&t.Timestamp, &t.TimestampMissing, &t.Action, &t.AssetSymbol, &amount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet transaction row: %w", err)
		}
		t.Amount = fromNumeric(amount)

		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet transaction rows: %w", err)
	}

	return txs, nil
}

// toNumeric converts a decimal into the pgx NUMERIC representation.
func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// fromNumeric converts NUMERIC back to a decimal. NULL and NaN read as zero.
func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
