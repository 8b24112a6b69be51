package sqlite

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/query"
)

// FilterTransactionIDs returns the IDs of the owner's transactions dated
// within [c.From, c.To], restricted to c.Candidates when c.Restrict is set,
// whose description contains c.Description ignoring case. Each ID appears once.
func (q *queries) FilterTransactionIDs(ctx context.Context, c query.Criteria) ([]string, error) {
	if c.Restrict && len(c.Candidates) == 0 {
		return []string{}, nil
	}

	stmt := `SELECT id, description FROM transactions WHERE user_id = ? AND date >= ? AND date <= ?`
	args := []any{c.OwnerID, formatTime(c.From), formatTime(c.To)}
	if c.Restrict {
		stmt += ` AND id IN (SELECT value FROM json_each(?))`
		args = append(args, jsonList(c.Candidates))
	}

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id, desc string
		if err := rows.Scan(&id, &desc); err != nil {
			return nil, err
		}
		// SQLite's lower() only folds ASCII, so matching happens here.
		if c.Description != "" && !domain.ContainsFold(desc, c.Description) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AggregateTransactions counts ids and sums their values exactly.
func (q *queries) AggregateTransactions(ctx context.Context, ids []string) (int, decimal.Decimal, error) {
	total := decimal.Zero
	if len(ids) == 0 {
		return 0, total, nil
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT value FROM transactions WHERE id IN (SELECT DISTINCT value FROM json_each(?))`, jsonList(ids))
	if err != nil {
		return 0, total, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, total, err
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, total, fmt.Errorf("corrupt value %q: %w", raw, err)
		}
		total = total.Add(v)
		count++
	}
	return count, total, rows.Err()
}

// PageTransactions orders ids by w and returns one page of rows without tags.
// Ties on the sort column fall back to newest created first, then newest
// inserted, so pages never overlap or skip rows.
//
// Ordering happens here rather than in SQL: values compare as exact decimals
// and descriptions by Unicode case folding, neither of which SQLite offers.
func (q *queries) PageTransactions(ctx context.Context, ids []string, w query.Window) ([]*domain.Transaction, error) {
	if len(ids) == 0 {
		return []*domain.Transaction{}, nil
	}

	keys, err := q.sortKeys(ctx, ids)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(keys, compareBy(w))

	start := min(max(w.Offset, 0), len(keys))
	end := min(start+max(w.Limit, 0), len(keys))
	if start == end {
		return []*domain.Transaction{}, nil
	}
	page := make([]string, 0, end-start)
	for _, k := range keys[start:end] {
		page = append(page, k.id)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE id IN (SELECT value FROM json_each(?))`,
		jsonList(page))
	if err != nil {
		return nil, err
	}
	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Transaction, len(txns))
	for _, t := range txns {
		byID[t.ID] = t
	}
	out := make([]*domain.Transaction, 0, len(page))
	for _, id := range page {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// sortKey carries the columns a page is ordered by.
type sortKey struct {
	id          string
	description string // case folded
	value       decimal.Decimal
	date        string
	createdAt   string
	seq         int64
}

func (q *queries) sortKeys(ctx context.Context, ids []string) ([]sortKey, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, description, value, date, created_at, seq FROM transactions
		WHERE id IN (SELECT DISTINCT value FROM json_each(?))`,
		jsonList(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]sortKey, 0, len(ids))
	for rows.Next() {
		var (
			k   sortKey
			raw string
		)
		if err := rows.Scan(&k.id, &k.description, &raw, &k.date, &k.createdAt, &k.seq); err != nil {
			return nil, err
		}
		if k.value, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("transaction %s: corrupt value %q: %w", k.id, raw, err)
		}
		k.description = domain.Fold(k.description)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// compareBy orders by w's attribute and direction, then created_at DESC,
// then seq DESC. Stored timestamps are fixed width so they compare as text.
func compareBy(w query.Window) func(a, b sortKey) int {
	return func(a, b sortKey) int {
		var c int
		switch w.Sort {
		case domain.SortByDescription:
			c = strings.Compare(a.description, b.description)
		case domain.SortByValue:
			c = a.value.Cmp(b.value)
		default:
			c = strings.Compare(a.date, b.date)
		}
		if w.Order != domain.SortAsc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = strings.Compare(b.createdAt, a.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	}
}

// jsonList encodes ids for a json_each parameter.
func jsonList(ids []string) string {
	b, err := json.Marshal(ids)
	if err != nil {
		// Marshalling a []string cannot fail.
		panic(err)
	}
	return string(b)
}
