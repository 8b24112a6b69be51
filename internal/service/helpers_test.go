package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yabaapp/yaba-server/internal/auth"
	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/store/sqlite"
	"github.com/yabaapp/yaba-server/internal/validation"
)

type testEnv struct {
	store        *sqlite.Store
	tags         *TagService
	transactions *TransactionService
	ledger       *LedgerService
	auth         *AuthService
	tokens       *auth.TokenService
}

func cheapHasher() *auth.Hasher {
	return auth.NewHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

// setupServices wires every service against a fresh database.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	v := validation.New()
	tags := NewTagService(s, v, logger)
	engine := query.NewEngine(query.Limits{Default: query.DefaultLimit, Max: 500}, logger)

	return &testEnv{
		store:        s,
		tags:         tags,
		transactions: NewTransactionService(s, engine, v, logger),
		ledger:       NewLedgerService(s, tags, logger),
		auth:         NewAuthService(s, tokens, cheapHasher(), v, logger),
		tokens:       tokens,
	}
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{Email: email, Password: "correct horse"})
	require.NoError(t, err)
	return u
}

func (e *testEnv) txn(t *testing.T, ownerID, desc, value, date string) *domain.Transaction {
	t.Helper()
	txn, err := e.transactions.Create(context.Background(), ownerID, CreateTransactionRequest{
		Description: desc,
		Value:       value,
		Date:        date,
	})
	require.NoError(t, err)
	return txn
}

func (e *testEnv) tag(t *testing.T, ownerID, txnID, name string) *domain.Tag {
	t.Helper()
	tag, err := e.tags.AddTagToTransaction(context.Background(), ownerID, txnID, name)
	require.NoError(t, err)
	return tag
}

func (e *testEnv) tagExists(t *testing.T, ownerID, tagID string) bool {
	t.Helper()
	_, err := e.store.GetTag(context.Background(), ownerID, tagID)
	return err == nil
}

func (e *testEnv) linkCount(t *testing.T, tagID string) int {
	t.Helper()
	n, err := e.store.CountLinksForTag(context.Background(), tagID)
	require.NoError(t, err)
	return n
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
