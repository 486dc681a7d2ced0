package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wallet-credit-score/internal/domain"
	"wallet-credit-score/internal/storage"
)

func TestTransactionStore_InsertAndGetAll(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []*domain.Transaction{
		{WalletID: "0xbbb", Timestamp: 300, Action: domain.ActionDeposit, Amount: decimal.NewFromInt(1)},
		{WalletID: "0xaaa", Timestamp: 200, Action: domain.ActionBorrow, Amount: decimal.NewFromInt(2)},
		{WalletID: "0xaaa", Timestamp: 100, Action: domain.ActionDeposit, Amount: decimal.NewFromInt(3)},
	}

	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}

	// Ordered by wallet, then timestamp
	if got[0].WalletID != "0xaaa" || got[0].Timestamp != 100 {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].WalletID != "0xaaa" || got[1].Timestamp != 200 {
		t.Errorf("unexpected second row: %+v", got[1])
	}
	if got[2].WalletID != "0xbbb" {
		t.Errorf("unexpected third row: %+v", got[2])
	}
}

func TestTransactionStore_GetByWallet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.Transaction{
		{WalletID: "0xaaa", Timestamp: 20},
		{WalletID: "0xbbb", Timestamp: 5},
		{WalletID: "0xaaa", Timestamp: 10},
	})

	got, err := store.GetByWallet(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].Timestamp != 10 || got[1].Timestamp != 20 {
		t.Errorf("expected timestamp order 10,20; got %d,%d", got[0].Timestamp, got[1].Timestamp)
	}

	none, err := store.GetByWallet(ctx, "0xccc")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no transactions, got %d", len(none))
	}
}

func TestTransactionStore_InvalidInputRejectsBatch(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Transaction{
		{WalletID: "0xaaa"},
		{WalletID: ""},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	n, _ := store.Count(ctx)
	if n != 0 {
		t.Errorf("expected empty store after rejected batch, got %d", n)
	}
}

func TestTransactionStore_ReturnsCopies(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	orig := &domain.Transaction{WalletID: "0xaaa", Action: domain.ActionDeposit}
	_ = store.InsertBulk(ctx, []*domain.Transaction{orig})
	orig.Action = domain.ActionBorrow

	got, _ := store.GetAll(ctx)
	got[0].WalletID = "mutated"

	again, _ := store.GetAll(ctx)
	if again[0].Action != domain.ActionDeposit {
		t.Errorf("store aliased caller's record: %s", again[0].Action)
	}
	if again[0].WalletID != "0xaaa" {
		t.Errorf("store aliased returned record: %s", again[0].WalletID)
	}
}
