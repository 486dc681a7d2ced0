package clickhouse_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
	chstore "wallet-credit-score/internal/storage/clickhouse"
)

func TestTransactionStore_InsertBulkAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewTransactionStore(conn)

	txs := []*domain.Transaction{
		{WalletID: "0xbbb", TxHash: "0x02", Network: "polygon", Protocol: "aave_v2", Timestamp: 200, Action: domain.ActionBorrow, Amount: decimal.RequireFromString("0.5")},
		{WalletID: "0xaaa", TxHash: "0x01", Network: "polygon", Protocol: "aave_v2", Timestamp: 100, Action: domain.ActionDeposit, AssetSymbol: "USDC", Amount: decimal.RequireFromString("1.000000000000000001")},
		{WalletID: "0xaaa", TxHash: "0x03", Network: "polygon", Protocol: "aave_v2", Timestamp: 100, Action: domain.ActionRepay, Amount: decimal.Zero},
	}
	require.NoError(t, store.InsertBulk(ctx, txs))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "0xaaa", got[0].WalletID)
	assert.Equal(t, domain.ActionDeposit, got[0].Action, "insertion order breaks timestamp ties")
	assert.Equal(t, "USDC", got[0].AssetSymbol)
	assert.True(t, decimal.RequireFromString("1.000000000000000001").Equal(got[0].Amount))
	assert.Equal(t, domain.ActionRepay, got[1].Action)
	assert.Equal(t, "0xbbb", got[2].WalletID)
}

func TestTransactionStore_GetByWallet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewTransactionStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{WalletID: "0xaaa", Timestamp: 30, Action: domain.ActionRepay},
		{WalletID: "0xbbb", Timestamp: 10, Action: domain.ActionDeposit},
		{WalletID: "0xaaa", Timestamp: 20, Action: domain.ActionDeposit},
	}))

	got, err := store.GetByWallet(ctx, "0xaaa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(20), got[0].Timestamp)
	assert.Equal(t, int64(30), got[1].Timestamp)
}

func TestTransactionStore_RejectsEmptyWallet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTransactionStore(conn)
	err := store.InsertBulk(context.Background(), []*domain.Transaction{{WalletID: ""}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestTransactionStore_KeepsUndatedRecords(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewTransactionStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{WalletID: "0xaaa", Timestamp: 100, Action: domain.ActionRepay, Amount: decimal.NewFromInt(1)},
		{WalletID: "0xaaa", TimestampMissing: true, Action: domain.ActionDeposit, Amount: decimal.NewFromInt(3)},
	}))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].TimestampMissing)
	assert.True(t, decimal.NewFromInt(3).Equal(got[0].Amount))
	assert.False(t, got[1].TimestampMissing)
}
