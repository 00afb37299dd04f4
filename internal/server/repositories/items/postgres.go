package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/google/uuid"
)

const itemColumns = `id, space_id, text, created_by_id, created_at, completed_by, deleted_by,
	recurrence_type, recurrence_interval, recurrence_weekdays, last_completed, next_reset, completion_history`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

// Create inserts a new item. An empty ID is replaced with a fresh UUID.
func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	args, err := mutableArgs(item)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO items (id, text, completed_by, deleted_by, recurrence_type, recurrence_interval,
			recurrence_weekdays, last_completed, next_reset, completion_history, space_id, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	args = append(args, item.SpaceID, item.CreatedByID, item.CreatedAt)

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// Get returns the item with the given id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Item, error) {
	return r.get(ctx, id, `SELECT `+itemColumns+` FROM items WHERE id = $1`)
}

// GetForUpdate is Get with a row lock held until the surrounding
// transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return r.get(ctx, id, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`)
}

func (r *PostgresRepository) get(ctx context.Context, id string, query string) (*models.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// Save writes every mutable field of item in one statement.
func (r *PostgresRepository) Save(ctx context.Context, item *models.Item) error {
	args, err := mutableArgs(item)
	if err != nil {
		return err
	}

	query := `
		UPDATE items SET
			text = $2,
			completed_by = $3,
			deleted_by = $4,
			recurrence_type = $5,
			recurrence_interval = $6,
			recurrence_weekdays = $7,
			last_completed = $8,
			next_reset = $9,
			completion_history = $10
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// Delete removes the item permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// ListBySpace returns the items of a space, newest first.
func (r *PostgresRepository) ListBySpace(ctx context.Context, spaceID string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE space_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, spaceID)
}

// ListDueForReset returns completed recurring items of a space whose
// next reset is before now.
func (r *PostgresRepository) ListDueForReset(ctx context.Context, spaceID string, now time.Time) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE space_id = $1 AND completed AND recurrence_type <> 'once' AND next_reset < $2`
	return r.list(ctx, query, spaceID, now)
}

// ListSpacesDueForReset returns the ids of spaces holding at least one item
// that ListDueForReset would return.
func (r *PostgresRepository) ListSpacesDueForReset(ctx context.Context, now time.Time) ([]string, error) {
	query := `SELECT DISTINCT space_id FROM items
		WHERE completed AND recurrence_type <> 'once' AND next_reset < $1`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to select spaces: %w", err)
	}
	defer rows.Close()

	var spaces []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		spaces = append(spaces, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item                                   models.Item
		recType                                string
		completedBy, deletedBy, weekdays, hist []byte
		lastCompleted, nextReset               sql.NullTime
	)

	err := row.Scan(
		&item.ID, &item.SpaceID, &item.Text, &item.CreatedByID, &item.CreatedAt,
		&completedBy, &deletedBy,
		&recType, &item.Recurrence.Interval, &weekdays, &lastCompleted, &nextReset,
		&hist,
	)
	if err != nil {
		return nil, err
	}

	item.Recurrence.Type = models.RecurrenceType(recType)
	if lastCompleted.Valid {
		t := lastCompleted.Time
		item.Recurrence.LastCompleted = &t
	}
	if nextReset.Valid {
		t := nextReset.Time
		item.Recurrence.NextReset = &t
	}

	if err := decodeJSON(completedBy, &item.CompletedBy); err != nil {
		return nil, fmt.Errorf("completed_by: %w", err)
	}
	if err := decodeJSON(deletedBy, &item.DeletedBy); err != nil {
		return nil, fmt.Errorf("deleted_by: %w", err)
	}
	if err := decodeJSON(weekdays, &item.Recurrence.Weekdays); err != nil {
		return nil, fmt.Errorf("recurrence_weekdays: %w", err)
	}
	if err := decodeJSON(hist, &item.CompletionHistory); err != nil {
		return nil, fmt.Errorf("completion_history: %w", err)
	}
	if len(item.Recurrence.Weekdays) == 0 {
		item.Recurrence.Weekdays = nil
	}

	return &item, nil
}

// mutableArgs returns $1..$10 of Save: id followed by every field that may
// change after creation.
func mutableArgs(item *models.Item) ([]any, error) {
	completedBy, err := encodeJSON(item.CompletedBy, "[]")
	if err != nil {
		return nil, err
	}
	deletedBy, err := encodeJSON(item.DeletedBy, "[]")
	if err != nil {
		return nil, err
	}
	weekdays, err := encodeJSON(item.Recurrence.Weekdays, "[]")
	if err != nil {
		return nil, err
	}
	hist, err := encodeJSON(item.CompletionHistory, "{}")
	if err != nil {
		return nil, err
	}

	return []any{
		item.ID,
		item.Text,
		completedBy,
		deletedBy,
		string(item.Recurrence.Type),
		item.Recurrence.Interval,
		weekdays,
		nullTime(item.Recurrence.LastCompleted),
		nullTime(item.Recurrence.NextReset),
		hist,
	}, nil
}

func encodeJSON[T any](v T, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func decodeJSON(b []byte, dst any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
