package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/yabaapp/yaba-server/internal/csvio"
	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/id"
	"github.com/yabaapp/yaba-server/internal/store"
)

var hashtagPattern = regexp.MustCompile(`#(\S*)`)

// ImportSummary describes one completed CSV import.
type ImportSummary struct {
	BatchID     string `json:"batch_id"`
	Rows        int    `json:"rows"`
	TagsCreated int    `json:"tags_created"`
	Links       int    `json:"links"`
}

// ParityMismatch is a transaction whose tags and description hashtags disagree.
type ParityMismatch struct {
	TransactionID string   `json:"transaction_id"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Hashtags      []string `json:"hashtags"`
}

// LedgerService moves a user's ledger in and out of CSV files and keeps
// descriptions and tags in step.
type LedgerService struct {
	store  store.Store
	tags   *TagService
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store store.Store, tags *TagService, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{store: store, tags: tags, logger: logger}
}

// Export writes every owner transaction, oldest first, as CSV.
func (s *LedgerService) Export(ctx context.Context, ownerID string, w io.Writer) (int, error) {
	txns, err := s.readAll(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	cw := csvio.NewWriter(w)
	for _, txn := range txns {
		if err := cw.Write(csvio.Row{
			Date:        txn.Date,
			Description: txn.Description,
			Value:       txn.Value,
			Tags:        txn.TagNames(),
		}); err != nil {
			return 0, fmt.Errorf("write csv: %w", err)
		}
	}
	if err := cw.Flush(); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(txns), nil
}

// Import reads a ledger CSV and creates a transaction per row, attaching its
// tags by find-or-create. The file is parsed in full first and all rows are
// written in one store transaction, so a bad row imports nothing.
func (s *LedgerService) Import(ctx context.Context, ownerID string, r io.Reader) (*ImportSummary, error) {
	rows, err := csvio.NewReader(r).ReadAll()
	if err != nil {
		var re *csvio.RowError
		if errors.As(err, &re) {
			return nil, domainerrors.Validation(re.Error())
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}

	summary := &ImportSummary{BatchID: uuid.NewString()}
	log := s.logger.With("user_id", ownerID, "batch_id", summary.BatchID)

	err = s.store.RunInTx(ctx, func(repo store.Repository) error {
		for i, row := range rows {
			txnID, err := id.Transaction()
			if err != nil {
				return fmt.Errorf("generate transaction ID: %w", err)
			}
			txn := &domain.Transaction{
				Record:      domain.Record{ID: txnID},
				UserID:      ownerID,
				Description: csvio.WithHashtags(row.Description, row.Tags),
				Value:       row.Value,
				Date:        row.Date,
			}
			txn.InitTimestamps()
			if err := repo.CreateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}

			for _, name := range row.Tags {
				tag, created, err := s.tags.findOrCreate(ctx, repo, ownerID, name)
				if err != nil {
					return fmt.Errorf("row %d: tag %q: %w", i+1, name, err)
				}
				if created {
					summary.TagsCreated++
				}
				linked, err := repo.CreateLink(ctx, tag.ID, txn.ID)
				if err != nil {
					return fmt.Errorf("row %d: link %q: %w", i+1, name, err)
				}
				if linked {
					summary.Links++
				}
			}
			summary.Rows++
		}
		return nil
	})
	if err != nil {
		log.Error("csv import failed", "error", err)
		return nil, translateStoreError(err)
	}

	log.Info("csv import complete",
		"rows", summary.Rows,
		"tags_created", summary.TagsCreated,
		"links", summary.Links,
	)
	return summary, nil
}

// CheckParity returns the transactions whose lower-cased, sorted tag names
// differ from the hashtags in their description.
func (s *LedgerService) CheckParity(ctx context.Context, ownerID string) ([]ParityMismatch, error) {
	txns, err := s.readAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	mismatches := []ParityMismatch{}
	for _, txn := range txns {
		tags := make([]string, len(txn.Tags))
		for i, t := range txn.Tags {
			tags[i] = strings.ToLower(t.Name)
		}
		slices.Sort(tags)

		hashtags := Hashtags(txn.Description)
		if !slices.Equal(tags, hashtags) {
			mismatches = append(mismatches, ParityMismatch{
				TransactionID: txn.ID,
				Description:   txn.Description,
				Tags:          tags,
				Hashtags:      hashtags,
			})
		}
	}
	return mismatches, nil
}

// AppendHashtags appends " #name" for each attached tag to every tagged
// transaction's description. It returns how many transactions changed.
func (s *LedgerService) AppendHashtags(ctx context.Context, ownerID string) (int, error) {
	updated := 0
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		txns, err := s.listWithTags(ctx, r, ownerID)
		if err != nil {
			return err
		}
		for _, txn := range txns {
			if len(txn.Tags) == 0 {
				continue
			}
			var b strings.Builder
			b.WriteString(txn.Description)
			for _, t := range txn.Tags {
				b.WriteString(" #")
				b.WriteString(t.Name)
			}
			txn.Description = b.String()
			txn.Touch()
			if err := r.UpdateTransaction(ctx, txn); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, translateStoreError(err)
	}

	s.logger.Info("hashtags appended", "user_id", ownerID, "updated", updated)
	return updated, nil
}

// Hashtags returns the lower-cased, sorted #words in desc.
func Hashtags(desc string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(desc, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToLower(m[1]))
	}
	slices.Sort(out)
	return out
}

// readAll lists the owner's transactions with tags from one read snapshot.
func (s *LedgerService) readAll(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	err := s.store.RunInReadTx(ctx, func(r store.Repository) error {
		var err error
		txns, err = s.listWithTags(ctx, r, ownerID)
		return err
	})
	return txns, err
}

func (s *LedgerService) listWithTags(ctx context.Context, r store.Repository, ownerID string) ([]*domain.Transaction, error) {
	txns, err := r.ListTransactionsByDate(ctx, ownerID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	tags, err := r.TagsForTransactions(ctx, ids)
	if err != nil {
		return nil, translateStoreError(err)
	}
	for _, t := range txns {
		t.Tags = tags[t.ID]
		if t.Tags == nil {
			t.Tags = []*domain.Tag{}
		}
		t.SortTags()
	}
	return txns, nil
}
