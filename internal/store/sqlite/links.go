package sqlite

import (
	"context"
	"time"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/store"
)

// CreateLink attaches tagID to txnID. Attaching an existing pair is a no-op.
func (q *queries) CreateLink(ctx context.Context, tagID, txnID string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO tag_transactions (tag_id, transaction_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tag_id, transaction_id) DO NOTHING`,
		tagID, txnID, formatTime(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, store.ErrNotFound
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteLink detaches tagID from txnID. Detaching an absent pair is a no-op.
func (q *queries) DeleteLink(ctx context.Context, tagID, txnID string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM tag_transactions WHERE tag_id = ? AND transaction_id = ?`, tagID, txnID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// LinkExists reports whether tagID is attached to txnID.
func (q *queries) LinkExists(ctx context.Context, tagID, txnID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM tag_transactions WHERE tag_id = ? AND transaction_id = ?)`,
		tagID, txnID).Scan(&exists)
	return exists, err
}

// CountLinksForTag returns how many transactions carry tagID.
func (q *queries) CountLinksForTag(ctx context.Context, tagID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tag_transactions WHERE tag_id = ?`, tagID).Scan(&n)
	return n, err
}

// LinksForTags returns every link touching one of tagIDs, ordered by
// transaction then tag.
func (q *queries) LinksForTags(ctx context.Context, tagIDs []string) ([]domain.Link, error) {
	if len(tagIDs) == 0 {
		return []domain.Link{}, nil
	}
	return q.queryLinks(ctx, `
		SELECT tag_id, transaction_id, created_at FROM tag_transactions
		WHERE tag_id IN (SELECT value FROM json_each(?))
		ORDER BY transaction_id ASC, tag_id ASC`, jsonList(tagIDs))
}

// LinksForTransaction returns the links of one transaction.
func (q *queries) LinksForTransaction(ctx context.Context, txnID string) ([]domain.Link, error) {
	return q.queryLinks(ctx, `
		SELECT tag_id, transaction_id, created_at FROM tag_transactions
		WHERE transaction_id = ?
		ORDER BY tag_id ASC`, txnID)
}

// DeleteLinksForTransaction removes every link of txnID and returns how many went.
func (q *queries) DeleteLinksForTransaction(ctx context.Context, txnID string) (int, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tag_transactions WHERE transaction_id = ?`, txnID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// TagsForTransaction returns the tags attached to txnID ordered by name.
func (q *queries) TagsForTransaction(ctx context.Context, txnID string) ([]*domain.Tag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.created_at, t.updated_at
		FROM tags t
		JOIN tag_transactions tt ON tt.tag_id = t.id
		WHERE tt.transaction_id = ?
		ORDER BY t.name_key ASC, t.name ASC`, txnID)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// TagsForTransactions loads the tags of many transactions in one query.
func (q *queries) TagsForTransactions(ctx context.Context, txnIDs []string) (map[string][]*domain.Tag, error) {
	out := make(map[string][]*domain.Tag, len(txnIDs))
	if len(txnIDs) == 0 {
		return out, nil
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT tt.transaction_id, t.id, t.user_id, t.name, t.created_at, t.updated_at
		FROM tag_transactions tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.transaction_id IN (SELECT value FROM json_each(?))
		ORDER BY t.name_key ASC, t.name ASC`, jsonList(txnIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			txnID     string
			t         domain.Tag
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&txnID, &t.ID, &t.UserID, &t.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out[txnID] = append(out[txnID], &t)
	}
	return out, rows.Err()
}

func (q *queries) queryLinks(ctx context.Context, query string, args ...any) ([]domain.Link, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		var (
			l         domain.Link
			createdAt string
		)
		if err := rows.Scan(&l.TagID, &l.TransactionID, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
