package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ItemStore defines the interface for practice item storage operations.
type ItemStore interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, item *Item) (*Item, error)
	Update(ctx context.Context, id int64, item *Item) (*Item, error)
	Delete(ctx context.Context, id int64) error
	// UpdateOrder rewrites order_col for the given items, in the order the
	// IDs are listed (drag-and-drop support).
	UpdateOrder(ctx context.Context, orderedIDs []int64) error
	GetNotes(ctx context.Context, id int64) (string, error)
	SaveNotes(ctx context.Context, id int64, notes string) error
	Count(ctx context.Context) (int, error)
}

// ItemRepo provides methods for item operations.
// It implements the ItemStore interface.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo creates a new ItemRepo.
func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func scanItem(scan func(dest ...any) error) (*Item, error) {
	var (
		item                   Item
		createdAt, updatedAt string
	)
	if err := scan(&item.ID, &item.Title, &item.Notes, &item.Duration, &item.Description,
		&item.Order, &item.Tuning, &item.Songbook, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	item.CreatedAt = parseSQLiteTime(createdAt)
	item.UpdatedAt = parseSQLiteTime(updatedAt)
	return &item, nil
}

// parseSQLiteTime parses the DATETIME formats SQLite emits. A zero time is
// returned for unparseable values rather than an error; timestamps are
// informational here.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

const itemColumns = `id, title, notes, duration, description, order_col, tuning, songbook, created_at, updated_at`

// List returns all items ordered by their order column.
func (r *ItemRepo) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY order_col, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", err)
	}
	return items, nil
}

// Get returns one item. Returns ErrNotFound if missing.
func (r *ItemRepo) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item %d: %w", id, err)
	}
	return item, nil
}

// Create inserts a new item and returns it with its assigned ID.
func (r *ItemRepo) Create(ctx context.Context, item *Item) (*Item, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO items (title, notes, duration, description, order_col, tuning, songbook)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Notes, item.Duration, item.Description, item.Order, item.Tuning, item.Songbook)
	if err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted item id: %w", err)
	}
	return r.Get(ctx, id)
}

// Update replaces the mutable fields of an item.
func (r *ItemRepo) Update(ctx context.Context, id int64, item *Item) (*Item, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET title = ?, notes = ?, duration = ?, description = ?,
		 order_col = ?, tuning = ?, songbook = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		item.Title, item.Notes, item.Duration, item.Description, item.Order, item.Tuning, item.Songbook, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes an item.
func (r *ItemRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrder rewrites order_col for the given items in listed order.
func (r *ItemRepo) UpdateOrder(ctx context.Context, orderedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `UPDATE items SET order_col = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("failed to update order of item %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item order update: %w", err)
	}
	return nil
}

// GetNotes returns the markdown practice notes of an item.
func (r *ItemRepo) GetNotes(ctx context.Context, id int64) (string, error) {
	var notes string
	err := r.db.QueryRowContext(ctx, `SELECT notes FROM items WHERE id = ?`, id).Scan(&notes)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query notes for item %d: %w", id, err)
	}
	return notes, nil
}

// SaveNotes replaces the markdown practice notes of an item.
func (r *ItemRepo) SaveNotes(ctx context.Context, id int64, notes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("failed to save notes for item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of items.
func (r *ItemRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}
