package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/store"
)

// transactionColumns must match the scan order in scanTransaction.
const transactionColumns = `seq, id, user_id, description, value, date, created_at, updated_at`

func scanTransaction(scanner interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var (
		t         domain.Transaction
		value     string
		date      string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&t.Seq, &t.ID, &t.UserID, &t.Description, &value, &date, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if t.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("transaction %s: corrupt value %q: %w", t.ID, value, err)
	}
	if t.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTransaction inserts t and records its assigned sequence number.
func (q *queries) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, description, value, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Description,
		t.Value.String(),
		formatTime(t.Date),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return err
	}
	if seq, err := res.LastInsertId(); err == nil {
		t.Seq = seq
	}
	return nil
}

// GetTransaction returns the owner's transaction without tags.
// Returns store.ErrTransactionNotFound if absent or owned by someone else.
func (q *queries) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTransactionNotFound
	}
	return t, err
}

// UpdateTransaction writes description, value, date and updated_at.
func (q *queries) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, value = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Description,
		t.Value.String(),
		formatTime(t.Date),
		formatTime(t.UpdatedAt),
		t.ID,
		t.UserID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrTransactionNotFound)
}

// DeleteTransaction removes the row. Links must already be gone; a surviving
// link makes the foreign key check fail.
func (q *queries) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrTransactionNotFound)
}

// LatestTransactionDate returns the owner's latest transaction date, and
// false when the owner has none.
func (q *queries) LatestTransactionDate(ctx context.Context, ownerID string) (time.Time, bool, error) {
	var latest sql.NullString
	err := q.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM transactions WHERE user_id = ?`, ownerID).Scan(&latest)
	if err != nil {
		return time.Time{}, false, err
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	t, err := parseTime(latest.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ListTransactionsByDate returns every owner transaction, oldest first, without tags.
func (q *queries) ListTransactionsByDate(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC, seq ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	txns := []*domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
