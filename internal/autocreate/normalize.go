package autocreate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"practicepad/internal/chart"
	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// Persister normalizes strategy output and writes it to the chart
// store: section IDs are minted, section metadata is denormalized onto
// each chart, and order values are assigned as a contiguous run.
type Persister struct {
	charts storage.ChartStore
}

// NewPersister creates a Persister over the given chart store.
func NewPersister(charts storage.ChartStore) *Persister {
	return &Persister{charts: charts}
}

// normalize mints section IDs, stamps section metadata and ownership
// onto every chart, and assigns orders starting at start.
func normalize(sections chart.SectionList, itemID string, start int) chart.SectionList {
	order := start
	for si := range sections {
		s := &sections[si]
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		for ci := range s.Charts {
			c := &s.Charts[ci]
			c.ID = 0
			c.ItemIDs = []string{itemID}
			c.SectionID = s.ID
			c.SectionLabel = s.Label
			c.SectionRepeatCount = s.RepeatCount
			c.Order = order
			order++
		}
	}
	return sections
}

// Persist writes the sections to the store under the given intent and
// returns the sections plus the item's complete refreshed chart list.
//
// A replace-all run is two separately atomic steps: the delete commits
// before the insert starts. An insert failure after a committed delete
// is reported as ErrPersistencePartialFailure and leaves the item with
// no charts.
func (p *Persister) Persist(ctx context.Context, itemID string, sections chart.SectionList, intent Intent) (*Result, error) {
	start := 0
	if intent == IntentAppend {
		max, err := p.charts.MaxOrder(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to read max order for item %s: %w", itemID, err)
		}
		start = max + 1
	}
	sections = normalize(sections, itemID, start)

	if intent == IntentReplaceAll {
		if _, err := p.charts.DeleteAllForItem(ctx, itemID); err != nil {
			return nil, fmt.Errorf("failed to clear charts for item %s: %w", itemID, err)
		}
	}

	if _, err := p.charts.BatchCreate(ctx, itemID, sections.Charts()); err != nil {
		if intent == IntentReplaceAll {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "replace-all insert failed after delete committed",
				slog.String("item_id", itemID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("%w: item %s: %v", ErrPersistencePartialFailure, itemID, err)
		}
		return nil, fmt.Errorf("failed to insert charts for item %s: %w", itemID, err)
	}

	refreshed, err := p.charts.GetForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload charts for item %s: %w", itemID, err)
	}
	return &Result{Sections: sections, Charts: refreshed}, nil
}
