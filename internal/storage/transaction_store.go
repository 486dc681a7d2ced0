package storage

import (
	"context"

	"wallet-credit-score/internal/domain"
)

// TransactionStore provides access to wallet_transactions storage.
type TransactionStore interface {
	// InsertBulk appends multiple transactions atomically.
	// Returns ErrInvalidInput if any record has an empty wallet id.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetAll retrieves all transactions ordered by (wallet_id, timestamp) ASC.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByWallet retrieves all transactions for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, walletID string) ([]*domain.Transaction, error)

	// Count returns the number of stored transactions.
	Count(ctx context.Context) (int, error)
}
