package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/id"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/store"
	"github.com/yabaapp/yaba-server/internal/validation"
)

// Field rules shared by create and update.
const (
	descriptionRules = "notblank,max=1024"
	valueRules       = "required,money"
	dateRules        = "required,ledgerdate"
)

// CreateTransactionRequest carries the raw strings a transaction is built from.
type CreateTransactionRequest struct {
	Description string `json:"description" validate:"notblank,max=1024"`
	Value       string `json:"value" validate:"required,money"`
	Date        string `json:"date" validate:"required,ledgerdate"`
}

// UpdateTransactionRequest changes any subset of the fields. Nil means unchanged.
type UpdateTransactionRequest struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Value       *string `json:"value,omitempty"`
	Date        *string `json:"date,omitempty"`
}

// TransactionService owns transaction CRUD, orphan-tag cleanup, and fetches.
type TransactionService struct {
	store    store.Store
	engine   *query.Engine
	validate *validation.Validator
	logger   *slog.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store store.Store, engine *query.Engine, validate *validation.Validator, logger *slog.Logger) *TransactionService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{store: store, engine: engine, validate: validate, logger: logger}
}

// Build validates req and returns an unsaved transaction for ownerID.
// Unparseable values and dates are rejected rather than coerced.
func (s *TransactionService) Build(ownerID string, req CreateTransactionRequest) (*domain.Transaction, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	// Validation guarantees both parse.
	value, err := domain.ParseValue(req.Value)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"value": "must be a number"})
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"date": "must be a recognised date"})
	}

	txnID, err := id.Transaction()
	if err != nil {
		return nil, fmt.Errorf("generate transaction ID: %w", err)
	}

	txn := &domain.Transaction{
		Record:      domain.Record{ID: txnID},
		UserID:      ownerID,
		Description: strings.TrimSpace(req.Description),
		Value:       value,
		Date:        date,
		Tags:        []*domain.Tag{},
	}
	txn.InitTimestamps()
	return txn, nil
}

// Create builds and persists a transaction.
func (s *TransactionService) Create(ctx context.Context, ownerID string, req CreateTransactionRequest) (*domain.Transaction, error) {
	txn, err := s.Build(ownerID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("transaction created",
		"user_id", ownerID,
		"transaction_id", txn.ID,
	)
	return txn, nil
}

// Get returns the owner's transaction with its tags sorted by name.
func (s *TransactionService) Get(ctx context.Context, ownerID, txnID string) (*domain.Transaction, error) {
	txn, err := loadWithTags(ctx, s.store, ownerID, txnID)
	return txn, translateStoreError(err)
}

// Update applies the provided fields. Every provided field is validated and
// all failures are reported together; nothing is written unless all pass.
func (s *TransactionService) Update(ctx context.Context, ownerID string, req UpdateTransactionRequest) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		var err error
		txn, err = loadWithTags(ctx, r, ownerID, req.ID)
		if err != nil {
			return err
		}

		fieldErrs := map[string]string{}
		s.check(fieldErrs, "description", req.Description, descriptionRules)
		s.check(fieldErrs, "value", req.Value, valueRules)
		s.check(fieldErrs, "date", req.Date, dateRules)
		if len(fieldErrs) > 0 {
			return domainerrors.ValidationWithDetails("validation failed", fieldErrs)
		}

		if req.Description != nil {
			txn.Description = strings.TrimSpace(*req.Description)
		}
		if req.Value != nil {
			txn.Value, _ = domain.ParseValue(*req.Value)
		}
		if req.Date != nil {
			txn.Date, _ = domain.ParseDate(*req.Date)
		}
		txn.Touch()

		return r.UpdateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("transaction updated", "user_id", ownerID, "transaction_id", txn.ID)
	return txn, nil
}

// check validates an optional field and records its failure message.
func (s *TransactionService) check(fieldErrs map[string]string, field string, value *string, rules string) {
	if value == nil {
		return
	}
	err := s.validate.Var(field, *value, rules)
	var de *domainerrors.Error
	if errors.As(err, &de) {
		if details, ok := de.Details.(map[string]string); ok {
			maps.Copy(fieldErrs, details)
		}
	}
}

// DestroyWithTags deletes the owner's transaction, its links, and every tag
// that was linked to it alone, atomically. It returns the transaction as it
// was before deletion.
func (s *TransactionService) DestroyWithTags(ctx context.Context, ownerID, txnID string) (*domain.Transaction, error) {
	var (
		snapshot    *domain.Transaction
		deletedTags []string
	)
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		// 1. Snapshot the transaction and its links.
		txn, err := r.GetTransaction(ctx, ownerID, txnID)
		if err != nil {
			return err
		}
		links, err := r.LinksForTransaction(ctx, txnID)
		if err != nil {
			return err
		}

		// 2. Every link must point at one of the owner's tags.
		txn.Tags = make([]*domain.Tag, 0, len(links))
		for _, l := range links {
			tag, err := r.GetTag(ctx, ownerID, l.TagID)
			if errors.Is(err, store.ErrTagNotFound) {
				return domainerrors.Consistencyf("transaction %s links missing tag %s", txnID, l.TagID)
			}
			if err != nil {
				return err
			}
			txn.Tags = append(txn.Tags, tag)
		}
		txn.SortTags()

		// 3. Delete tags used only here. The link goes first so the
		// foreign key does not block the tag delete.
		for _, tag := range txn.Tags {
			count, err := r.CountLinksForTag(ctx, tag.ID)
			if err != nil {
				return err
			}
			if count != 1 {
				continue
			}
			if _, err := r.DeleteLink(ctx, tag.ID, txnID); err != nil {
				return err
			}
			if err := r.DeleteTag(ctx, ownerID, tag.ID); err != nil {
				return err
			}
			deletedTags = append(deletedTags, tag.ID)
		}

		// 4. Remaining links, then the transaction.
		if _, err := r.DeleteLinksForTransaction(ctx, txnID); err != nil {
			return err
		}
		if err := r.DeleteTransaction(ctx, ownerID, txnID); err != nil {
			return err
		}

		snapshot = txn
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConsistency) {
			s.logger.Error("consistency violation on delete",
				"user_id", ownerID,
				"transaction_id", txnID,
				"error", err,
			)
		}
		return nil, translateStoreError(err)
	}

	s.logger.Info("transaction deleted",
		"user_id", ownerID,
		"transaction_id", txnID,
		"orphan_tags_deleted", len(deletedTags),
	)
	return snapshot, nil
}

// Fetch runs f against a consistent snapshot of the owner's data.
func (s *TransactionService) Fetch(ctx context.Context, ownerID string, f query.Filter) (*query.Result, error) {
	var result *query.Result
	err := s.store.RunInReadTx(ctx, func(r store.Repository) error {
		var err error
		result, err = s.engine.Fetch(ctx, r, ownerID, f)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return result, nil
}

func loadWithTags(ctx context.Context, r store.Repository, ownerID, txnID string) (*domain.Transaction, error) {
	txn, err := r.GetTransaction(ctx, ownerID, txnID)
	if err != nil {
		return nil, err
	}
	txn.Tags, err = r.TagsForTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	txn.SortTags()
	return txn, nil
}
