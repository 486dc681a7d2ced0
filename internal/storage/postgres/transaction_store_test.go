package postgres_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
	"wallet-credit-score/internal/storage/postgres"
)

func createTestTransaction(wallet string, ts int64, action, amount string) *domain.Transaction {
	return &domain.Transaction{
		WalletID:    wallet,
		TxHash:      "0xhash",
		Network:     "polygon",
		Protocol:    "aave_v2",
		BlockNumber: 17000000,
		Timestamp:   ts,
		Action:      action,
		AssetSymbol: "WMATIC",
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestTransactionStore_InsertBulkAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTransactionStore(pool)

	txs := []*domain.Transaction{
		createTestTransaction("0xbbb", 300, domain.ActionBorrow, "2.5"),
		createTestTransaction("0xaaa", 200, domain.ActionRepay, "0.000000000000000001"),
		createTestTransaction("0xaaa", 100, domain.ActionDeposit, "1234.5"),
	}
	require.NoError(t, store.InsertBulk(ctx, txs))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "0xaaa", got[0].WalletID)
	assert.Equal(t, int64(100), got[0].Timestamp)
	assert.True(t, decimal.RequireFromString("1234.5").Equal(got[0].Amount))
	assert.Equal(t, "polygon", got[0].Network)
	assert.Equal(t, "aave_v2", got[0].Protocol)
	assert.Equal(t, int64(17000000), got[0].BlockNumber)
	assert.Equal(t, "WMATIC", got[0].AssetSymbol)

	assert.True(t, decimal.RequireFromString("0.000000000000000001").Equal(got[1].Amount),
		"NUMERIC round trip keeps 18 decimals")
	assert.Equal(t, "0xbbb", got[2].WalletID)
}

func TestTransactionStore_GetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTransactionStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		createTestTransaction("0xaaa", 20, domain.ActionRepay, "1"),
		createTestTransaction("0xbbb", 10, domain.ActionDeposit, "1"),
		createTestTransaction("0xaaa", 10, domain.ActionDeposit, "1"),
	}))

	got, err := store.GetByWallet(ctx, "0xaaa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ActionDeposit, got[0].Action)
	assert.Equal(t, domain.ActionRepay, got[1].Action)

	none, err := store.GetByWallet(ctx, "0xccc")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactionStore_InvalidInputRejectsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTransactionStore(pool)

	err := store.InsertBulk(ctx, []*domain.Transaction{
		createTestTransaction("0xaaa", 1, domain.ActionDeposit, "1"),
		{WalletID: ""},
	})
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactionStore_KeepsUndatedRecords(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTransactionStore(pool)

	undated := createTestTransaction("0xaaa", 0, domain.ActionDeposit, "3")
	undated.TimestampMissing = true
	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		createTestTransaction("0xaaa", 100, domain.ActionRepay, "1"),
		undated,
	}))

	got, err := store.GetByWallet(ctx, "0xaaa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].TimestampMissing)
	assert.True(t, decimal.NewFromInt(3).Equal(got[0].Amount))
	assert.False(t, got[1].TimestampMissing)
}
