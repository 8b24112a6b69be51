package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, user_id, name, created_at, updated_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&t.ID, &t.UserID, &t.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a tag. Returns store.ErrTagExists when the owner already
// has a tag whose name differs only in case.
func (q *queries) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, name_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Name,
		t.Key(),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrTagExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrUserNotFound
	}
	return err
}

// GetTag returns store.ErrTagNotFound when the owner has no tag with the ID.
func (q *queries) GetTag(ctx context.Context, ownerID, id string) (*domain.Tag, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	return t, err
}

// GetTagByName finds the owner's tag whose name matches ignoring case.
func (q *queries) GetTagByName(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name_key = ?`, ownerID, domain.TagKey(name))
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	return t, err
}

// ListTags returns the owner's tags ordered by name.
func (q *queries) ListTags(ctx context.Context, ownerID string) ([]*domain.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name_key ASC, name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// RenameTag updates name, name_key and updated_at.
func (q *queries) RenameTag(ctx context.Context, t *domain.Tag) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, name_key = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Name,
		t.Key(),
		formatTime(t.UpdatedAt),
		t.ID,
		t.UserID,
	)
	if isUniqueViolation(err) {
		return store.ErrTagExists
	}
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrTagNotFound)
}

// DeleteTag removes the tag. Remaining links make the foreign key check fail.
func (q *queries) DeleteTag(ctx context.Context, ownerID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrTagNotFound)
}

// ResolveTagIDs maps TagKey(name) to tag ID for each name the owner has.
// Names with no tag are absent from the result.
func (q *queries) ResolveTagIDs(ctx context.Context, ownerID string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = domain.TagKey(n)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT name_key, id FROM tags
		WHERE user_id = ? AND name_key IN (SELECT value FROM json_each(?))`,
		ownerID, jsonList(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return nil, err
		}
		out[key] = id
	}
	return out, rows.Err()
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
