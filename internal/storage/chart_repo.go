package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chart_store.go -package=mocks practicepad/internal/storage ChartStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"practicepad/internal/chart"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ChartStore defines the interface for chord chart storage operations.
// Charts can be shared across items; the item_id column holds a
// comma-separated list of item identifiers.
type ChartStore interface {
	// GetForItem returns all charts belonging to an item, ordered by the
	// order column.
	GetForItem(ctx context.Context, itemID string) ([]chart.Chart, error)
	// GetByID returns one chart. Returns ErrNotFound if missing.
	GetByID(ctx context.Context, id int64) (*chart.Chart, error)
	// BatchCreate inserts charts for an item in one transaction and
	// returns them with assigned IDs.
	BatchCreate(ctx context.Context, itemID string, charts []chart.Chart) ([]chart.Chart, error)
	// Update replaces title, geometry and section metadata of one chart.
	Update(ctx context.Context, id int64, c chart.Chart) (*chart.Chart, error)
	// Delete removes one chart row regardless of sharing.
	Delete(ctx context.Context, id int64) error
	// DeleteFromItem detaches a chart from one item: the row is deleted
	// when the item was its only owner, otherwise the item is removed from
	// the shared list.
	DeleteFromItem(ctx context.Context, itemID string, id int64) error
	// DeleteAllForItem detaches every chart from an item (shared charts
	// keep their other owners). Returns the number of charts affected.
	DeleteAllForItem(ctx context.Context, itemID string) (int64, error)
	// UpdateOrder rewrites the order column for the given charts of an
	// item, in the order the IDs are listed.
	UpdateOrder(ctx context.Context, itemID string, orderedIDs []int64) error
	// MaxOrder returns the highest order value among an item's charts, or
	// -1 when the item has none.
	MaxOrder(ctx context.Context, itemID string) (int, error)
	// CopyToItems shares the source item's charts with the target items,
	// removing any charts the targets had before. Source wins.
	CopyToItems(ctx context.Context, sourceItemID string, targetItemIDs []string) (updated, removed int, err error)
}

// chartPayload is the JSON shape stored in the chord_data column:
// SVGuitar-style geometry plus section metadata.
type chartPayload struct {
	Fingers            []chart.Finger `json:"fingers"`
	Barres             []chart.Barre  `json:"barres"`
	Tuning             string         `json:"tuning"`
	Capo               int            `json:"capo"`
	StartingFret       int            `json:"startingFret"`
	NumFrets           int            `json:"numFrets"`
	NumStrings         int            `json:"numStrings"`
	OpenStrings        []int          `json:"openStrings"`
	MutedStrings       []int          `json:"mutedStrings"`
	SectionID          string         `json:"sectionId,omitempty"`
	SectionLabel       string         `json:"sectionLabel,omitempty"`
	SectionRepeatCount string         `json:"sectionRepeatCount,omitempty"`
	HasLineBreakAfter  bool           `json:"hasLineBreakAfter"`
}

// ChartRepo provides methods for chord chart operations.
// It implements the ChartStore interface.
type ChartRepo struct {
	db *sql.DB
}

// NewChartRepo creates a new ChartRepo.
func NewChartRepo(db *sql.DB) *ChartRepo {
	return &ChartRepo{db: db}
}

// joinItemIDs renders an item-id list the way the item_id column stores
// it: comma plus space separated ("92, 100").
func joinItemIDs(ids []string) string {
	return strings.Join(ids, ", ")
}

// splitItemIDs parses the item_id column back into individual IDs.
func splitItemIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// itemMatchClause matches rows whose item_id list contains the given item:
// exact ("92"), leading ("92, 100"), trailing ("100, 92") or middle
// ("100, 92, 45").
const itemMatchClause = `(item_id = ? OR item_id LIKE ? OR item_id LIKE ? OR item_id LIKE ?)`

func itemMatchArgs(itemID string) []any {
	return []any{itemID, itemID + ",%", "%, " + itemID, "%, " + itemID + ",%"}
}

func marshalPayload(c chart.Chart) (string, error) {
	p := chartPayload{
		Fingers:            c.Fingers,
		Barres:             c.Barres,
		Tuning:             c.Tuning,
		Capo:               c.Capo,
		StartingFret:       c.StartingFret,
		NumFrets:           c.NumFrets,
		NumStrings:         c.NumStrings,
		OpenStrings:        c.OpenStrings,
		MutedStrings:       c.MutedStrings,
		SectionID:          c.SectionID,
		SectionLabel:       c.SectionLabel,
		SectionRepeatCount: c.SectionRepeatCount,
		HasLineBreakAfter:  c.HasLineBreakAfter,
	}
	if p.Fingers == nil {
		p.Fingers = []chart.Finger{}
	}
	if p.Barres == nil {
		p.Barres = []chart.Barre{}
	}
	if p.OpenStrings == nil {
		p.OpenStrings = []int{}
	}
	if p.MutedStrings == nil {
		p.MutedStrings = []int{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chord data: %w", err)
	}
	return string(data), nil
}

func scanChart(id int64, itemIDs, title, data string, order int) (chart.Chart, error) {
	var p chartPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return chart.Chart{}, fmt.Errorf("failed to unmarshal chord data for chart %d: %w", id, err)
	}
	c := chart.Chart{
		ID:                 id,
		ItemIDs:            splitItemIDs(itemIDs),
		Title:              title,
		Fingers:            p.Fingers,
		Barres:             p.Barres,
		Tuning:             p.Tuning,
		Capo:               p.Capo,
		StartingFret:       p.StartingFret,
		NumFrets:           p.NumFrets,
		NumStrings:         p.NumStrings,
		OpenStrings:        p.OpenStrings,
		MutedStrings:       p.MutedStrings,
		SectionID:          p.SectionID,
		SectionLabel:       p.SectionLabel,
		SectionRepeatCount: p.SectionRepeatCount,
		HasLineBreakAfter:  p.HasLineBreakAfter,
		Order:              order,
	}
	if c.Tuning == "" {
		c.Tuning = chart.DefaultTuning
	}
	if c.StartingFret == 0 {
		c.StartingFret = 1
	}
	if c.NumFrets == 0 {
		c.NumFrets = chart.DefaultNumFrets
	}
	if c.NumStrings == 0 {
		c.NumStrings = chart.DefaultNumStrings
	}
	return c, nil
}

// GetForItem returns all charts belonging to an item, ordered by order_col.
func (r *ChartRepo) GetForItem(ctx context.Context, itemID string) ([]chart.Chart, error) {
	query := `SELECT chord_id, item_id, title, chord_data, order_col FROM chord_charts WHERE ` +
		itemMatchClause + ` ORDER BY order_col, chord_id`
	rows, err := r.db.QueryContext(ctx, query, itemMatchArgs(itemID)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query charts for item %s: %w", itemID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var charts []chart.Chart
	for rows.Next() {
		var (
			id          int64
			itemIDs     string
			title, data string
			order       int
		)
		if err := rows.Scan(&id, &itemIDs, &title, &data, &order); err != nil {
			return nil, fmt.Errorf("failed to scan chart row: %w", err)
		}
		c, err := scanChart(id, itemIDs, title, data, order)
		if err != nil {
			return nil, err
		}
		charts = append(charts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chart rows: %w", err)
	}
	return charts, nil
}

// GetByID returns one chart by its ID.
func (r *ChartRepo) GetByID(ctx context.Context, id int64) (*chart.Chart, error) {
	var (
		itemIDs     string
		title, data string
		order       int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT item_id, title, chord_data, order_col FROM chord_charts WHERE chord_id = ?`, id,
	).Scan(&itemIDs, &title, &data, &order)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chart %d: %w", id, err)
	}
	c, err := scanChart(id, itemIDs, title, data, order)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// BatchCreate inserts charts for an item in one transaction. The Order
// field of each chart is written as given, never resequenced.
func (r *ChartRepo) BatchCreate(ctx context.Context, itemID string, charts []chart.Chart) ([]chart.Chart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	created := make([]chart.Chart, 0, len(charts))
	for _, c := range charts {
		owners := c.ItemIDs
		if len(owners) == 0 {
			owners = []string{itemID}
		}
		data, err := marshalPayload(c)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chord_charts (item_id, title, chord_data, order_col) VALUES (?, ?, ?, ?)`,
			joinItemIDs(owners), c.Title, data, c.Order,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chart %q: %w", c.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read inserted chart id: %w", err)
		}
		c.ID = id
		c.ItemIDs = owners
		created = append(created, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chart batch: %w", err)
	}
	return created, nil
}

// Update replaces title, geometry and section metadata of one chart.
func (r *ChartRepo) Update(ctx context.Context, id int64, c chart.Chart) (*chart.Chart, error) {
	data, err := marshalPayload(c)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE chord_charts SET title = ?, chord_data = ?, order_col = ? WHERE chord_id = ?`,
		c.Title, data, c.Order, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update chart %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes one chart row regardless of sharing.
func (r *ChartRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chord_charts WHERE chord_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chart %d: %w", id, err)
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

// DeleteFromItem detaches a chart from one item, deleting the row only
// when the item was its sole owner.
func (r *ChartRepo) DeleteFromItem(ctx context.Context, itemID string, id int64) error {
	var itemIDs string
	err := r.db.QueryRowContext(ctx,
		`SELECT item_id FROM chord_charts WHERE chord_id = ?`, id,
	).Scan(&itemIDs)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query chart %d: %w", id, err)
	}

	owners := splitItemIDs(itemIDs)
	idx := -1
	for i, owner := range owners {
		if owner == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("item %s is not associated with chart %d: %w", itemID, id, ErrNotFound)
	}

	if len(owners) == 1 {
		_, err = r.db.ExecContext(ctx, `DELETE FROM chord_charts WHERE chord_id = ?`, id)
	} else {
		owners = append(owners[:idx], owners[idx+1:]...)
		_, err = r.db.ExecContext(ctx,
			`UPDATE chord_charts SET item_id = ? WHERE chord_id = ?`, joinItemIDs(owners), id)
	}
	if err != nil {
		return fmt.Errorf("failed to detach chart %d from item %s: %w", id, itemID, err)
	}
	return nil
}

// DeleteAllForItem detaches every chart from an item in one transaction.
// Exclusively owned charts are deleted; shared charts keep their other
// owners.
func (r *ChartRepo) DeleteAllForItem(ctx context.Context, itemID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT chord_id, item_id FROM chord_charts WHERE ` + itemMatchClause
	rows, err := tx.QueryContext(ctx, query, itemMatchArgs(itemID)...)
	if err != nil {
		return 0, fmt.Errorf("failed to query charts for item %s: %w", itemID, err)
	}

	type row struct {
		id      int64
		itemIDs string
	}
	var found []row
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.id, &rec.itemIDs); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan chart row: %w", err)
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("failed to iterate chart rows: %w", err)
	}
	_ = rows.Close()

	var affected int64
	for _, rec := range found {
		owners := splitItemIDs(rec.itemIDs)
		remaining := owners[:0]
		owned := false
		for _, owner := range owners {
			if owner == itemID {
				owned = true
				continue
			}
			remaining = append(remaining, owner)
		}
		if !owned {
			continue
		}
		if len(remaining) == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM chord_charts WHERE chord_id = ?`, rec.id); err != nil {
				return 0, fmt.Errorf("failed to delete chart %d: %w", rec.id, err)
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`UPDATE chord_charts SET item_id = ? WHERE chord_id = ?`, joinItemIDs(remaining), rec.id); err != nil {
				return 0, fmt.Errorf("failed to detach chart %d: %w", rec.id, err)
			}
		}
		affected++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete for item %s: %w", itemID, err)
	}
	return affected, nil
}

// UpdateOrder rewrites order_col for the given charts of an item, in the
// order the IDs are listed.
func (r *ChartRepo) UpdateOrder(ctx context.Context, itemID string, orderedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, id := range orderedIDs {
		query := `UPDATE chord_charts SET order_col = ? WHERE chord_id = ? AND ` + itemMatchClause
		args := append([]any{i, id}, itemMatchArgs(itemID)...)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update order of chart %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order update: %w", err)
	}
	return nil
}

// MaxOrder returns the highest order value among an item's charts, or -1
// when the item has none.
func (r *ChartRepo) MaxOrder(ctx context.Context, itemID string) (int, error) {
	query := `SELECT COALESCE(MAX(order_col), -1) FROM chord_charts WHERE ` + itemMatchClause
	var max int
	if err := r.db.QueryRowContext(ctx, query, itemMatchArgs(itemID)...).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to query max order for item %s: %w", itemID, err)
	}
	return max, nil
}

// CopyToItems shares the source item's charts with the target items. Any
// charts the targets held before are detached first (source wins), then
// each source chart gains the target IDs in its owner list.
func (r *ChartRepo) CopyToItems(ctx context.Context, sourceItemID string, targetItemIDs []string) (int, int, error) {
	var removed int
	for _, target := range targetItemIDs {
		n, err := r.DeleteAllForItem(ctx, target)
		if err != nil {
			return 0, 0, err
		}
		removed += int(n)
	}

	source, err := r.GetForItem(ctx, sourceItemID)
	if err != nil {
		return 0, 0, err
	}

	var updated int
	for _, c := range source {
		owners := c.ItemIDs
		for _, target := range targetItemIDs {
			present := false
			for _, owner := range owners {
				if owner == target {
					present = true
					break
				}
			}
			if !present {
				owners = append(owners, target)
			}
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE chord_charts SET item_id = ? WHERE chord_id = ?`, joinItemIDs(owners), c.ID); err != nil {
			return 0, 0, fmt.Errorf("failed to share chart %d: %w", c.ID, err)
		}
		updated++
	}
	return updated, removed, nil
}
