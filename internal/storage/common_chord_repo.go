package storage

import (
	"context"
	"database/sql"
	"fmt"

	"practicepad/internal/chart"
)

// CommonChordStore is the read-only reference collaborator mapping
// (chord name, tuning) to canonical geometry. The table holds tens of
// thousands of precomputed rows and is never mutated by the application.
type CommonChordStore interface {
	// Lookup finds the canonical geometry for a chord name in a tuning.
	// Returns ErrNotFound when no entry matches.
	Lookup(ctx context.Context, name, tuning string) (*chart.Chart, error)
	// Search finds chords by name, exact matches first, then partial.
	Search(ctx context.Context, name string, limit int) ([]chart.Chart, error)
	// Count returns the number of reference chords available.
	Count(ctx context.Context) (int, error)
}

// CommonChordRepo implements CommonChordStore over the common_chords table.
type CommonChordRepo struct {
	db *sql.DB
}

// NewCommonChordRepo creates a new CommonChordRepo.
func NewCommonChordRepo(db *sql.DB) *CommonChordRepo {
	return &CommonChordRepo{db: db}
}

func (r *CommonChordRepo) queryChords(ctx context.Context, query string, args ...any) ([]chart.Chart, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query common chords: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []chart.Chart
	for rows.Next() {
		var (
			id          int64
			name, data  string
			order       int
		)
		if err := rows.Scan(&id, &name, &data, &order); err != nil {
			return nil, fmt.Errorf("failed to scan common chord row: %w", err)
		}
		c, err := scanChart(id, "", name, data, order)
		if err != nil {
			// Malformed reference rows are skipped, not fatal; the table
			// is bulk imported and a single bad row should not break
			// lookups.
			continue
		}
		c.ItemIDs = nil
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate common chord rows: %w", err)
	}
	return out, nil
}

// Lookup finds the canonical geometry for (name, tuning). Name matching is
// case-insensitive; tuning must match exactly (rows without a tuning are
// treated as standard EADGBE).
func (r *CommonChordRepo) Lookup(ctx context.Context, name, tuning string) (*chart.Chart, error) {
	if tuning == "" {
		tuning = chart.DefaultTuning
	}
	chords, err := r.queryChords(ctx,
		`SELECT id, name, chord_data, order_col FROM common_chords
		 WHERE LOWER(name) = LOWER(?) ORDER BY order_col, id`, name)
	if err != nil {
		return nil, err
	}
	for _, c := range chords {
		if c.Tuning == tuning {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Search finds chords by name: exact matches first, then partial matches
// when nothing matched exactly.
func (r *CommonChordRepo) Search(ctx context.Context, name string, limit int) ([]chart.Chart, error) {
	if limit <= 0 {
		limit = 10
	}
	exact, err := r.queryChords(ctx,
		`SELECT id, name, chord_data, order_col FROM common_chords
		 WHERE LOWER(name) = LOWER(?) ORDER BY order_col, id LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}
	return r.queryChords(ctx,
		`SELECT id, name, chord_data, order_col FROM common_chords
		 WHERE name LIKE ? COLLATE NOCASE ORDER BY order_col, id LIMIT ?`, "%"+name+"%", limit)
}

// Count returns the number of reference chords available.
func (r *CommonChordRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM common_chords`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count common chords: %w", err)
	}
	return n, nil
}
