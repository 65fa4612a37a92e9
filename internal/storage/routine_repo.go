package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RoutineStore defines the interface for routine storage operations,
// including routine membership, completion tracking and the single active
// routine.
type RoutineStore interface {
	List(ctx context.Context) ([]Routine, error)
	Get(ctx context.Context, id int64) (*Routine, error)
	Create(ctx context.Context, name string) (*Routine, error)
	Rename(ctx context.Context, id int64, name string) (*Routine, error)
	Delete(ctx context.Context, id int64) error

	AddItem(ctx context.Context, routineID, itemID int64) (*RoutineEntry, error)
	RemoveItem(ctx context.Context, routineID, itemID int64) error
	ListEntries(ctx context.Context, routineID int64) ([]RoutineEntry, error)
	UpdateEntryOrder(ctx context.Context, routineID int64, orderedEntryIDs []int64) error
	SetCompleted(ctx context.Context, routineID, itemID int64, completed bool) error
	// Reset clears the completed flag on every entry of a routine.
	Reset(ctx context.Context, routineID int64) error

	SetActive(ctx context.Context, routineID int64) error
	// GetActive returns the active routine, or ErrNotFound when none is set.
	GetActive(ctx context.Context) (*Routine, error)
	ClearActive(ctx context.Context) error
}

// RoutineRepo provides methods for routine operations.
// It implements the RoutineStore interface.
type RoutineRepo struct {
	db *sql.DB
}

// NewRoutineRepo creates a new RoutineRepo.
func NewRoutineRepo(db *sql.DB) *RoutineRepo {
	return &RoutineRepo{db: db}
}

// List returns all routines ordered by their order column.
func (r *RoutineRepo) List(ctx context.Context) ([]Routine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, order_col, created_at FROM routines ORDER BY order_col, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var routines []Routine
	for rows.Next() {
		var (
			routine   Routine
			createdAt string
		)
		if err := rows.Scan(&routine.ID, &routine.Name, &routine.Order, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan routine row: %w", err)
		}
		routine.CreatedAt = parseSQLiteTime(createdAt)
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routine rows: %w", err)
	}
	return routines, nil
}

// Get returns one routine. Returns ErrNotFound if missing.
func (r *RoutineRepo) Get(ctx context.Context, id int64) (*Routine, error) {
	var (
		routine   Routine
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, order_col, created_at FROM routines WHERE id = ?`, id,
	).Scan(&routine.ID, &routine.Name, &routine.Order, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query routine %d: %w", id, err)
	}
	routine.CreatedAt = parseSQLiteTime(createdAt)
	return &routine, nil
}

// Create inserts a new routine at the end of the list.
func (r *RoutineRepo) Create(ctx context.Context, name string) (*Routine, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO routines (name, order_col)
		 VALUES (?, (SELECT COALESCE(MAX(order_col), -1) + 1 FROM routines))`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert routine: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted routine id: %w", err)
	}
	return r.Get(ctx, id)
}

// Rename updates a routine's name.
func (r *RoutineRepo) Rename(ctx context.Context, id int64, name string) (*Routine, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE routines SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to rename routine %d: %w", id, err)
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

// Delete removes a routine; its entries cascade.
func (r *RoutineRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete routine %d: %w", id, err)
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

// AddItem appends an item to a routine.
func (r *RoutineRepo) AddItem(ctx context.Context, routineID, itemID int64) (*RoutineEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO routine_items (routine_id, item_id, order_col)
		 VALUES (?, ?, (SELECT COALESCE(MAX(order_col), -1) + 1 FROM routine_items WHERE routine_id = ?))`,
		routineID, itemID, routineID)
	if err != nil {
		return nil, fmt.Errorf("failed to add item %d to routine %d: %w", itemID, routineID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted entry id: %w", err)
	}

	var entry RoutineEntry
	var completed int
	err = r.db.QueryRowContext(ctx,
		`SELECT ri.id, ri.routine_id, ri.item_id, i.title, ri.order_col, ri.completed
		 FROM routine_items ri JOIN items i ON i.id = ri.item_id WHERE ri.id = ?`, id,
	).Scan(&entry.ID, &entry.RoutineID, &entry.ItemID, &entry.ItemTitle, &entry.Order, &completed)
	if err != nil {
		return nil, fmt.Errorf("failed to query routine entry %d: %w", id, err)
	}
	entry.Completed = completed != 0
	return &entry, nil
}

// RemoveItem removes an item from a routine.
func (r *RoutineRepo) RemoveItem(ctx context.Context, routineID, itemID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM routine_items WHERE routine_id = ? AND item_id = ?`, routineID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove item %d from routine %d: %w", itemID, routineID, err)
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

// ListEntries returns a routine's entries with item titles, ordered.
func (r *RoutineRepo) ListEntries(ctx context.Context, routineID int64) ([]RoutineEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ri.id, ri.routine_id, ri.item_id, i.title, ri.order_col, ri.completed
		 FROM routine_items ri JOIN items i ON i.id = ri.item_id
		 WHERE ri.routine_id = ? ORDER BY ri.order_col, ri.id`, routineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for routine %d: %w", routineID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []RoutineEntry
	for rows.Next() {
		var (
			entry     RoutineEntry
			completed int
		)
		if err := rows.Scan(&entry.ID, &entry.RoutineID, &entry.ItemID, &entry.ItemTitle, &entry.Order, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan routine entry row: %w", err)
		}
		entry.Completed = completed != 0
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routine entry rows: %w", err)
	}
	return entries, nil
}

// UpdateEntryOrder rewrites order_col for a routine's entries in listed
// order.
func (r *RoutineRepo) UpdateEntryOrder(ctx context.Context, routineID int64, orderedEntryIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, id := range orderedEntryIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE routine_items SET order_col = ? WHERE id = ? AND routine_id = ?`, i, id, routineID); err != nil {
			return fmt.Errorf("failed to update order of entry %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry order update: %w", err)
	}
	return nil
}

// SetCompleted sets the completion flag of one routine entry.
func (r *RoutineRepo) SetCompleted(ctx context.Context, routineID, itemID int64, completed bool) error {
	val := 0
	if completed {
		val = 1
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE routine_items SET completed = ? WHERE routine_id = ? AND item_id = ?`, val, routineID, itemID)
	if err != nil {
		return fmt.Errorf("failed to set completion for item %d in routine %d: %w", itemID, routineID, err)
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

// Reset clears the completed flag on every entry of a routine.
func (r *RoutineRepo) Reset(ctx context.Context, routineID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE routine_items SET completed = 0 WHERE routine_id = ?`, routineID); err != nil {
		return fmt.Errorf("failed to reset routine %d: %w", routineID, err)
	}
	return nil
}

// SetActive marks a routine as the single active one.
func (r *RoutineRepo) SetActive(ctx context.Context, routineID int64) error {
	if _, err := r.Get(ctx, routineID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO active_routine (id, routine_id) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET routine_id = excluded.routine_id, updated_at = CURRENT_TIMESTAMP`,
		routineID)
	if err != nil {
		return fmt.Errorf("failed to set active routine: %w", err)
	}
	return nil
}

// GetActive returns the active routine, or ErrNotFound when none is set.
func (r *RoutineRepo) GetActive(ctx context.Context) (*Routine, error) {
	var routineID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT routine_id FROM active_routine WHERE id = 1`).Scan(&routineID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active routine: %w", err)
	}
	if !routineID.Valid {
		return nil, ErrNotFound
	}
	return r.Get(ctx, routineID.Int64)
}

// ClearActive unsets the active routine.
func (r *RoutineRepo) ClearActive(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE active_routine SET routine_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear active routine: %w", err)
	}
	return nil
}
