package autocreate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"practicepad/internal/chart"
	"practicepad/internal/storage"
)

func testChartRepo(t *testing.T) *storage.ChartRepo {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return storage.NewChartRepo(db)
}

func twoSections() chart.SectionList {
	return chart.SectionList{
		{Label: "Verse", Charts: []chart.Chart{chart.New("C"), chart.New("G")}},
		{Label: "Chorus", RepeatCount: "x2", Charts: []chart.Chart{chart.New("F")}},
	}
}

func TestPersistNormalizes(t *testing.T) {
	repo := testChartRepo(t)
	p := NewPersister(repo)

	result, err := p.Persist(context.Background(), "7", twoSections(), IntentReplaceAll)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	if len(result.Charts) != 3 {
		t.Fatalf("charts = %d, want 3", len(result.Charts))
	}
	for i, c := range result.Charts {
		if c.Order != i {
			t.Errorf("chart %d order = %d", i, c.Order)
		}
		if c.SectionID == "" {
			t.Errorf("chart %d has no section ID", i)
		}
		if len(c.ItemIDs) != 1 || c.ItemIDs[0] != "7" {
			t.Errorf("chart %d items = %v", i, c.ItemIDs)
		}
	}
	if result.Charts[0].SectionID != result.Charts[1].SectionID {
		t.Error("Verse charts should share a section ID")
	}
	if result.Charts[2].SectionLabel != "Chorus" || result.Charts[2].SectionRepeatCount != "x2" {
		t.Errorf("chorus chart section = %q %q", result.Charts[2].SectionLabel, result.Charts[2].SectionRepeatCount)
	}
}

func TestPersistAppendStartsAfterMaxOrder(t *testing.T) {
	repo := testChartRepo(t)
	p := NewPersister(repo)
	ctx := context.Background()

	seed := chart.New("D")
	seed.Order = 4
	if _, err := repo.BatchCreate(ctx, "7", []chart.Chart{seed}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	result, err := p.Persist(ctx, "7", twoSections(), IntentAppend)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if len(result.Charts) != 4 {
		t.Fatalf("charts = %d, want 4", len(result.Charts))
	}
	if result.Charts[1].Order != 5 {
		t.Errorf("first appended order = %d, want 5", result.Charts[1].Order)
	}
}

// insertFailingStore lets the delete half of a replace-all succeed and
// then fails the insert half.
type insertFailingStore struct {
	*storage.ChartRepo
}

func (s *insertFailingStore) BatchCreate(_ context.Context, _ string, _ []chart.Chart) ([]chart.Chart, error) {
	return nil, errors.New("disk full")
}

func TestPersistReplaceAllPartialFailure(t *testing.T) {
	repo := testChartRepo(t)
	ctx := context.Background()

	if _, err := repo.BatchCreate(ctx, "7", []chart.Chart{chart.New("Old")}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	p := NewPersister(&insertFailingStore{ChartRepo: repo})
	_, err := p.Persist(ctx, "7", twoSections(), IntentReplaceAll)
	if !errors.Is(err, ErrPersistencePartialFailure) {
		t.Fatalf("Persist() error = %v, want ErrPersistencePartialFailure", err)
	}

	// The delete committed before the insert failed: the item ends up
	// with no charts at all, and the caller knows it from the error.
	charts, err := repo.GetForItem(ctx, "7")
	if err != nil {
		t.Fatalf("GetForItem() error = %v", err)
	}
	if len(charts) != 0 {
		t.Errorf("charts = %d, want 0 after partial failure", len(charts))
	}
}

func TestPersistAppendFailureIsNotPartial(t *testing.T) {
	repo := testChartRepo(t)
	ctx := context.Background()

	if _, err := repo.BatchCreate(ctx, "7", []chart.Chart{chart.New("Old")}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	p := NewPersister(&insertFailingStore{ChartRepo: repo})
	_, err := p.Persist(ctx, "7", twoSections(), IntentAppend)
	if err == nil || errors.Is(err, ErrPersistencePartialFailure) {
		t.Fatalf("Persist() error = %v, want a plain failure", err)
	}

	charts, err := repo.GetForItem(ctx, "7")
	if err != nil || len(charts) != 1 {
		t.Errorf("existing charts must survive a failed append, got %d", len(charts))
	}
}
