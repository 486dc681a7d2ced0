package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu       sync.RWMutex
	data     []*domain.Transaction
	byWallet map[string][]int // wallet_id -> indexes into data
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byWallet: make(map[string][]int),
	}
}

// InsertBulk appends multiple transactions atomically.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	// Validate the whole batch before touching state
	for _, t := range txs {
		if t == nil || t.WalletID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range txs {
		copy := *t
		s.byWallet[t.WalletID] = append(s.byWallet[t.WalletID], len(s.data))
		s.data = append(s.data, &copy)
	}

	return nil
}

// GetAll retrieves all transactions ordered by (wallet_id, timestamp) ASC.
// Insertion order breaks ties so repeated reads are identical.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, len(s.data))
	for i, t := range s.data {
		copy := *t
		result[i] = &copy
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].WalletID != result[j].WalletID {
			return result[i].WalletID < result[j].WalletID
		}
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// GetByWallet retrieves all transactions for a wallet, ordered by timestamp ASC.
func (s *TransactionStore) GetByWallet(_ context.Context, walletID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byWallet[walletID]
	result := make([]*domain.Transaction, 0, len(idx))
	for _, i := range idx {
		copy := *s.data[i]
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
