package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestUser(t *testing.T, s *Store, id string) *domain.User {
	t.Helper()
	u := &domain.User{Record: domain.Record{ID: id}, Email: id + "@example.com", PasswordHash: "x"}
	u.InitTimestamps()
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

var txnCounter int

// makeTestTransaction inserts a transaction dated 2018-01-<day>.
func makeTestTransaction(t *testing.T, s *Store, ownerID, desc, value string, day int) *domain.Transaction {
	t.Helper()
	txnCounter++
	txn := &domain.Transaction{
		Record:      domain.Record{ID: fmt.Sprintf("txn-%d", txnCounter)},
		UserID:      ownerID,
		Description: desc,
		Value:       decimal.RequireFromString(value),
		Date:        time.Date(2018, time.January, day, 0, 0, 0, 0, time.UTC),
	}
	txn.InitTimestamps()
	if err := s.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return txn
}

func makeTestTag(t *testing.T, s *Store, ownerID, id, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Record: domain.Record{ID: id}, UserID: ownerID, Name: name}
	tag.InitTimestamps()
	if err := s.CreateTag(context.Background(), tag); err != nil {
		t.Fatalf("CreateTag(%s): %v", name, err)
	}
	return tag
}

func mustLink(t *testing.T, s *Store, tagID, txnID string) {
	t.Helper()
	if _, err := s.CreateLink(context.Background(), tagID, txnID); err != nil {
		t.Fatalf("CreateLink(%s, %s): %v", tagID, txnID, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Check several pooled connections, not just the first.
	ctx := context.Background()
	for i := range 3 {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		defer conn.Close()
		var fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("query foreign_keys: %v", err)
		}
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys=1, got %d", i, fk)
		}
	}

	for _, table := range []string{"users", "transactions", "tags", "tag_transactions", "schema_migrations"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	makeTestUser(t, s, "user-1")
	s.Close()

	s, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	if _, err := s.GetUser(context.Background(), "user-1"); err != nil {
		t.Errorf("user lost across reopen: %v", err)
	}
}

func TestRunInTx_Commit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")

	err := s.RunInTx(ctx, func(r store.Repository) error {
		tag := &domain.Tag{Record: domain.Record{ID: "tag-1"}, UserID: "user-1", Name: "food"}
		tag.InitTimestamps()
		return r.CreateTag(ctx, tag)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	if _, err := s.GetTag(ctx, "user-1", "tag-1"); err != nil {
		t.Errorf("committed tag missing: %v", err)
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(r store.Repository) error {
		tag := &domain.Tag{Record: domain.Record{ID: "tag-1"}, UserID: "user-1", Name: "food"}
		tag.InitTimestamps()
		if err := r.CreateTag(ctx, tag); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := s.GetTag(ctx, "user-1", "tag-1"); !errors.Is(err, store.ErrTagNotFound) {
		t.Errorf("expected rollback, got %v", err)
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = s.RunInTx(ctx, func(r store.Repository) error {
			tag := &domain.Tag{Record: domain.Record{ID: "tag-1"}, UserID: "user-1", Name: "food"}
			tag.InitTimestamps()
			_ = r.CreateTag(ctx, tag)
			panic("mid-transaction")
		})
	}()

	if _, err := s.GetTag(ctx, "user-1", "tag-1"); !errors.Is(err, store.ErrTagNotFound) {
		t.Errorf("expected rollback after panic, got %v", err)
	}
}

func TestRunInReadTx_DoesNotWaitForWriter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1")
	makeTestTransaction(t, s, "user-1", "committed", "1.00", 1)

	held := make(chan struct{})
	release := make(chan struct{})
	writeDone := make(chan error, 1)
	go func() {
		writeDone <- s.RunInTx(ctx, func(r store.Repository) error {
			tag := &domain.Tag{Record: domain.Record{ID: "tag-1"}, UserID: "user-1", Name: "food"}
			tag.InitTimestamps()
			if err := r.CreateTag(ctx, tag); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()

	select {
	case <-held:
	case err := <-writeDone:
		t.Fatalf("write tx ended early: %v", err)
	}

	// Well under busy_timeout, so a read queued behind the write lock fails.
	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	readDone := make(chan error, 1)
	go func() {
		readDone <- s.RunInReadTx(readCtx, func(r store.Repository) error {
			txns, err := r.ListTransactionsByDate(readCtx, "user-1")
			if err != nil {
				return err
			}
			if len(txns) != 1 {
				return fmt.Errorf("expected 1 committed transaction, got %d", len(txns))
			}
			if _, err := r.GetTag(readCtx, "user-1", "tag-1"); !errors.Is(err, store.ErrTagNotFound) {
				return fmt.Errorf("uncommitted tag visible: %v", err)
			}
			return nil
		})
	}()

	select {
	case err := <-readDone:
		if err != nil {
			t.Errorf("read tx: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("read tx blocked behind open write tx")
	}

	close(release)
	if err := <-writeDone; err != nil {
		t.Fatalf("write tx: %v", err)
	}
	if _, err := s.GetTag(ctx, "user-1", "tag-1"); err != nil {
		t.Errorf("expected committed tag, got %v", err)
	}
}

func TestRunInReadTx_ReturnsError(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.RunInReadTx(context.Background(), func(r store.Repository) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestTimeLayoutSortsLexicographically(t *testing.T) {
	whole := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	frac := whole.Add(500 * time.Millisecond)

	if !(formatTime(whole) < formatTime(frac)) {
		t.Errorf("%s should sort before %s", formatTime(whole), formatTime(frac))
	}

	back, err := parseTime(formatTime(frac))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !back.Equal(frac) {
		t.Errorf("round trip: got %v, want %v", back, frac)
	}
}
