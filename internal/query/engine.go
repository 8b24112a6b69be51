package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
)

// Criteria are the row predicates applied in storage after tag resolution.
type Criteria struct {
	OwnerID string
	// Restrict limits rows to Candidates. When false Candidates is ignored.
	Restrict    bool
	Candidates  []string
	From        time.Time
	To          time.Time
	Description string
}

// Window orders and slices a set of transaction IDs.
type Window struct {
	Sort   domain.SortAttribute
	Order  domain.SortOrder
	Limit  int
	Offset int
}

// Source is the storage the engine reads from. The SQLite store satisfies it,
// both directly and inside a transaction.
type Source interface {
	ResolveTagIDs(ctx context.Context, ownerID string, names []string) (map[string]string, error)
	LinksForTags(ctx context.Context, tagIDs []string) ([]domain.Link, error)
	LatestTransactionDate(ctx context.Context, ownerID string) (time.Time, bool, error)
	FilterTransactionIDs(ctx context.Context, c Criteria) ([]string, error)
	AggregateTransactions(ctx context.Context, ids []string) (int, decimal.Decimal, error)
	PageTransactions(ctx context.Context, ids []string, w Window) ([]*domain.Transaction, error)
	TagsForTransactions(ctx context.Context, txnIDs []string) (map[string][]*domain.Tag, error)
}

// Engine runs fetches. It holds no per-request state.
type Engine struct {
	limits Limits
	now    func() time.Time
	logger *slog.Logger
}

// NewEngine creates an engine with the given page limits.
func NewEngine(limits Limits, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{limits: limits, now: time.Now, logger: logger}
}

// Fetch returns the page of ownerID's transactions selected by f along with
// the count and sum of the whole filtered set.
//
// The pipeline is: normalise, resolve tags to a candidate ID set, apply the
// date and description predicates, aggregate over the de-duplicated IDs,
// then sort, slice, and load the page with its tags.
func (e *Engine) Fetch(ctx context.Context, src Source, ownerID string, f Filter) (*Result, error) {
	plan, err := Normalize(f, e.limits)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TotalAmount:  decimal.Zero,
		Transactions: []*domain.Transaction{},
		Page:         plan.Page,
		Limit:        plan.Limit,
	}

	sel, err := e.selectTags(ctx, src, ownerID, plan)
	if err != nil {
		return nil, err
	}
	if sel.Empty {
		return result, nil
	}

	var candidates []string
	if sel.Restrict {
		links, err := src.LinksForTags(ctx, sel.TagIDs)
		if err != nil {
			return nil, fmt.Errorf("load links: %w", err)
		}
		if plan.MatchAll {
			candidates = MatchAll(links, sel.TagIDs)
		} else {
			candidates = MatchAny(links, sel.TagIDs)
		}
		if len(candidates) == 0 {
			return result, nil
		}
	}

	latest, hasAny, err := src.LatestTransactionDate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("latest transaction date: %w", err)
	}
	from, to := plan.DateRange(latest, hasAny, e.now())

	ids, err := src.FilterTransactionIDs(ctx, Criteria{
		OwnerID:     ownerID,
		Restrict:    sel.Restrict,
		Candidates:  candidates,
		From:        from,
		To:          to,
		Description: plan.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	if len(ids) == 0 {
		return result, nil
	}

	count, total, err := src.AggregateTransactions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("aggregate transactions: %w", err)
	}
	result.Count = count
	result.TotalAmount = total

	page, err := src.PageTransactions(ctx, ids, Window{
		Sort:   plan.Sort,
		Order:  plan.Order,
		Limit:  plan.Limit,
		Offset: plan.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("page transactions: %w", err)
	}
	if len(page) == 0 {
		return result, nil
	}

	pageIDs := make([]string, len(page))
	for i, t := range page {
		pageIDs[i] = t.ID
	}
	tags, err := src.TagsForTransactions(ctx, pageIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	for _, t := range page {
		t.Tags = tags[t.ID]
		if t.Tags == nil {
			t.Tags = []*domain.Tag{}
		}
		t.SortTags()
	}
	result.Transactions = page

	e.logger.Debug("fetched transactions",
		"user_id", ownerID,
		"count", result.Count,
		"page", plan.Page,
		"returned", len(page),
	)
	return result, nil
}

func (e *Engine) selectTags(ctx context.Context, src Source, ownerID string, plan Plan) (Selection, error) {
	if len(plan.TagNames) == 0 {
		return Selection{}, nil
	}
	resolved, err := src.ResolveTagIDs(ctx, ownerID, plan.TagNames)
	if err != nil {
		return Selection{}, fmt.Errorf("resolve tags: %w", err)
	}
	return TagSelection(plan.TagNames, resolved, plan.MatchAll), nil
}
