package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/store"
)

func TestCreateTransaction_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")

	txn := makeTestTransaction(t, s, "user-1", "Coffee at Café", "-3.10", 5)
	if txn.Seq == 0 {
		t.Error("expected Seq to be assigned")
	}

	got, err := s.GetTransaction(ctx, "user-1", txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Description != "Coffee at Café" {
		t.Errorf("Description: got %q", got.Description)
	}
	if !got.Value.Equal(decimal.RequireFromString("-3.10")) {
		t.Errorf("Value: got %s", got.Value)
	}
	if !got.Date.Equal(time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date: got %v", got.Date)
	}
	if got.Seq != txn.Seq {
		t.Errorf("Seq: got %d, want %d", got.Seq, txn.Seq)
	}
}

func TestCreateTransaction_UnknownOwner(t *testing.T) {
	s := newTestStore(t)

	txn := &domain.Transaction{
		Record:      domain.Record{ID: "txn-orphan"},
		UserID:      "ghost",
		Description: "x",
		Value:       decimal.NewFromInt(1),
		Date:        time.Now(),
	}
	txn.InitTimestamps()
	err := s.CreateTransaction(context.Background(), txn)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetTransaction_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "user-1")
	makeTestUser(t, s, "user-2")
	txn := makeTestTransaction(t, s, "user-1", "rent", "-900", 1)

	_, err := s.GetTransaction(context.Background(), "user-2", txn.ID)
	if !errors.Is(err, store.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")
	txn := makeTestTransaction(t, s, "user-1", "rent", "-900", 1)

	txn.Description = "rent (january)"
	txn.Value = decimal.RequireFromString("-950.00")
	txn.Touch()
	if err := s.UpdateTransaction(ctx, txn); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	got, err := s.GetTransaction(ctx, "user-1", txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Description != "rent (january)" || !got.Value.Equal(decimal.NewFromInt(-950)) {
		t.Errorf("update not persisted: %+v", got)
	}

	txn.UserID = "user-2"
	if err := s.UpdateTransaction(ctx, txn); !errors.Is(err, store.ErrTransactionNotFound) {
		t.Errorf("foreign owner update: expected ErrTransactionNotFound, got %v", err)
	}
}

func TestDeleteTransaction_BlockedByLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")
	txn := makeTestTransaction(t, s, "user-1", "groceries", "-40", 2)
	tag := makeTestTag(t, s, "user-1", "tag-food", "food")
	mustLink(t, s, tag.ID, txn.ID)

	if err := s.DeleteTransaction(ctx, "user-1", txn.ID); err == nil {
		t.Fatal("expected delete to fail while a link remains")
	}

	n, err := s.DeleteLinksForTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("DeleteLinksForTransaction: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 link removed, got %d", n)
	}

	if err := s.DeleteTransaction(ctx, "user-1", txn.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "user-1", txn.ID); !errors.Is(err, store.ErrTransactionNotFound) {
		t.Errorf("second delete: expected ErrTransactionNotFound, got %v", err)
	}
}

func TestLatestTransactionDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")

	_, ok, err := s.LatestTransactionDate(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestTransactionDate: %v", err)
	}
	if ok {
		t.Error("expected no latest date for an empty ledger")
	}

	makeTestTransaction(t, s, "user-1", "a", "1", 3)
	makeTestTransaction(t, s, "user-1", "b", "1", 20)
	makeTestTransaction(t, s, "user-1", "c", "1", 9)

	latest, ok, err := s.LatestTransactionDate(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestTransactionDate: %v", err)
	}
	if !ok || latest.Day() != 20 {
		t.Errorf("expected day 20, got %v (ok=%v)", latest, ok)
	}
}

func TestListTransactionsByDate(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "user-1")
	makeTestTransaction(t, s, "user-1", "late", "1", 28)
	makeTestTransaction(t, s, "user-1", "early", "1", 2)
	makeTestTransaction(t, s, "user-1", "middle", "1", 14)

	txns, err := s.ListTransactionsByDate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListTransactionsByDate: %v", err)
	}
	var got []string
	for _, txn := range txns {
		got = append(got, txn.Description)
	}
	want := []string{"early", "middle", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
