package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
)

// TransactionStore implements storage.TransactionStore using ClickHouse.
// Rows carry an insertion sequence so reads are stable for equal timestamps.
type TransactionStore struct {
	conn *Conn
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(conn *Conn) *TransactionStore {
	return &TransactionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk appends multiple transactions in a single native batch.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, t := range txs {
		if t == nil || t.WalletID == "" {
			return storage.ErrInvalidInput
		}
	}

	base, err := s.Count(ctx)
	if err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO wallet_transactions (
			wallet_id, tx_hash, network, protocol, block_number,
			ts, ts_missing, action, asset_symbol, amount, inserted_seq
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, t := range txs {
		err := batch.Append(
			t.WalletID, t.TxHash, t.Network, t.Protocol, t.BlockNumber,
			t.Timestamp, t.TimestampMissing, t.Action, t.AssetSymbol, t.Amount, uint64(base+i),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all transactions ordered by (wallet_id, ts) ASC.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT wallet_id, tx_hash, network, protocol, block_number,
			ts, ts_missing, action, asset_symbol, amount
		FROM wallet_transactions
		ORDER BY wallet_id ASC, ts ASC, inserted_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all wallet transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByWallet retrieves all transactions for a wallet, ordered by ts ASC.
func (s *TransactionStore) GetByWallet(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT wallet_id, tx_hash, network, protocol, block_number,
			ts, ts_missing, action, asset_symbol, amount
		FROM wallet_transactions
		WHERE wallet_id = ?
		ORDER BY ts ASC, inserted_seq ASC
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(ctx context.Context) (int, error) {
	var n uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM wallet_transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wallet transactions: %w", err)
	}
	return int(n), nil
}

func scanTransactions(rows driver.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.WalletID, &t.TxHash, &t.Network, &t.Protocol, &t.BlockNumber,
			&t.Timestamp, &t.TimestampMissing, &t.Action, &t.AssetSymbol, &t.Amount,
		); err != nil {
			return nil, fmt.Errorf("scan wallet transaction row: %w", err)
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet transaction rows: %w", err)
	}
	return txs, nil
}
