// Package store defines the persistence contract for users, transactions,
// tags and the links between them.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/query"
)

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Transactions persists transactions. Every lookup is scoped to an owner.
type Transactions interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	LatestTransactionDate(ctx context.Context, ownerID string) (time.Time, bool, error)
	ListTransactionsByDate(ctx context.Context, ownerID string) ([]*domain.Transaction, error)
}

// Tags persists tags. Name lookups are case-insensitive.
type Tags interface {
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, ownerID, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, ownerID, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, ownerID string) ([]*domain.Tag, error)
	RenameTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, ownerID, id string) error
	// ResolveTagIDs maps the TagKey of each name that exists to its tag ID.
	ResolveTagIDs(ctx context.Context, ownerID string, names []string) (map[string]string, error)
}

// Links persists tag-transaction associations.
type Links interface {
	// CreateLink is idempotent; created is false when the pair already existed.
	CreateLink(ctx context.Context, tagID, txnID string) (created bool, err error)
	DeleteLink(ctx context.Context, tagID, txnID string) (deleted bool, err error)
	LinkExists(ctx context.Context, tagID, txnID string) (bool, error)
	CountLinksForTag(ctx context.Context, tagID string) (int, error)
	LinksForTags(ctx context.Context, tagIDs []string) ([]domain.Link, error)
	LinksForTransaction(ctx context.Context, txnID string) ([]domain.Link, error)
	DeleteLinksForTransaction(ctx context.Context, txnID string) (int, error)
	TagsForTransaction(ctx context.Context, txnID string) ([]*domain.Tag, error)
	TagsForTransactions(ctx context.Context, txnIDs []string) (map[string][]*domain.Tag, error)
}

// Fetcher runs the row-level steps of a transaction fetch.
type Fetcher interface {
	FilterTransactionIDs(ctx context.Context, c query.Criteria) ([]string, error)
	AggregateTransactions(ctx context.Context, ids []string) (int, decimal.Decimal, error)
	PageTransactions(ctx context.Context, ids []string, w query.Window) ([]*domain.Transaction, error)
}

// Repository is the full set of operations, usable inside or outside a transaction.
type Repository interface {
	Users
	Transactions
	Tags
	Links
	Fetcher
}

// Store is a Repository that can run atomic units of work.
type Store interface {
	Repository

	// RunInTx runs fn against a transactional Repository. It commits when fn
	// returns nil and rolls back on error or panic; a panic is re-raised.
	RunInTx(ctx context.Context, fn func(Repository) error) error
	// RunInReadTx is RunInTx for work that only reads. It does not take the
	// write lock, so it never queues behind a running write.
	RunInReadTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

var _ query.Source = Repository(nil)
