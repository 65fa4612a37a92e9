package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func itemTestDB(t *testing.T) (*sql.DB, *ItemRepo) {
	t.Helper()
	db, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db, NewItemRepo(db)
}

func TestItemRepo_CRUD(t *testing.T) {
	_, repo := itemTestDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &Item{Title: "Blackbird", Tuning: "EADGBE", Duration: "10 min"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Blackbird" || got.Duration != "10 min" {
		t.Errorf("Get() = %+v, want Blackbird/10 min", got)
	}

	got.Title = "Blackbird (capo 3)"
	updated, err := repo.Update(ctx, created.ID, got)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Blackbird (capo 3)" {
		t.Errorf("Update().Title = %q", updated.Title)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestItemRepo_ListOrdering(t *testing.T) {
	_, repo := itemTestDB(t)
	ctx := context.Background()

	a, _ := repo.Create(ctx, &Item{Title: "A", Order: 0})
	b, _ := repo.Create(ctx, &Item{Title: "B", Order: 1})
	c, _ := repo.Create(ctx, &Item{Title: "C", Order: 2})

	if err := repo.UpdateOrder(ctx, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantTitles := []string{"C", "A", "B"}
	if len(items) != len(wantTitles) {
		t.Fatalf("List() returned %d items, want %d", len(items), len(wantTitles))
	}
	for i, want := range wantTitles {
		if items[i].Title != want {
			t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, want)
		}
	}
}

func TestItemRepo_Notes(t *testing.T) {
	_, repo := itemTestDB(t)
	ctx := context.Background()

	item, err := repo.Create(ctx, &Item{Title: "Etude"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.SaveNotes(ctx, item.ID, "# Focus\nslow tempo"); err != nil {
		t.Fatalf("SaveNotes() error = %v", err)
	}
	notes, err := repo.GetNotes(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetNotes() error = %v", err)
	}
	if notes != "# Focus\nslow tempo" {
		t.Errorf("GetNotes() = %q", notes)
	}

	if err := repo.SaveNotes(ctx, 9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveNotes(missing) error = %v, want ErrNotFound", err)
	}
}
