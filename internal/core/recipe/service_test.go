package recipe

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meals.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func ftsRowCount(t *testing.T, db *sql.DB, id int64) int {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM recipes_fts WHERE rowid = ?`, id).Scan(&count); err != nil {
		t.Fatal(err)
	}
	return count
}

func TestCreateDerivesFieldsAndIndexes(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	id, err := Create(ctx, db, Input{
		Title:        "Morning Pancakes",
		Description:  "weekend breakfast",
		Ingredients:  []string{"2 cups flour", "1 cup milk", "2 eggs"},
		Instructions: []string{"mix", "fry"},
		MealType:     "breakfast",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r, err := Get(ctx, db, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.SourceDataset == nil || *r.SourceDataset != "user" {
		t.Fatalf("source_dataset = %v, want user", r.SourceDataset)
	}
	wantFlags := map[string]bool{"wheat": true, "gluten": true, "dairy": true, "egg": true}
	for _, flag := range r.AllergenFlags {
		delete(wantFlags, flag)
	}
	if len(wantFlags) != 0 {
		t.Fatalf("allergen flags %v missing %v", r.AllergenFlags, wantFlags)
	}
	if len(r.NormalizedIngredients) != 3 {
		t.Fatalf("normalized = %v, want 3 names", r.NormalizedIngredients)
	}
	if len(r.IngredientsParsed) != 3 {
		t.Fatalf("parsed = %d entries, want 3", len(r.IngredientsParsed))
	}

	if ftsRowCount(t, db, id) != 1 {
		t.Fatal("create did not index the recipe")
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	_, err := Create(context.Background(), db, Input{Title: "   "})
	if !common.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRecomputesAndReindexes(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	id, err := Create(ctx, db, Input{
		Title:       "Simple Toast",
		Ingredients: []string{"2 slices bread"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = Update(ctx, db, id, Input{
		Title:       "Shrimp Toast",
		Ingredients: []string{"2 slices bread", "1 cup shrimp"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	r, err := Get(ctx, db, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	found := false
	for _, flag := range r.AllergenFlags {
		if flag == "shellfish" {
			found = true
		}
	}
	if !found {
		t.Fatalf("update did not recompute allergen flags: %v", r.AllergenFlags)
	}

	// Index entry replaced, not duplicated, and searchable by new text.
	if ftsRowCount(t, db, id) != 1 {
		t.Fatal("index entry count wrong after update")
	}
	var title string
	if err := db.QueryRow(`SELECT title FROM recipes_fts WHERE rowid = ?`, id).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Shrimp Toast" {
		t.Fatalf("indexed title = %q after update", title)
	}
}

func TestUpdateImportedRecipeNotFound(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.Exec(`
INSERT INTO recipes (title, source_dataset) VALUES ('Imported Dish', 'food.com')`)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := res.LastInsertId()

	err = Update(ctx, db, id, Input{Title: "Hijacked"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not-found for imported recipe, got %v", err)
	}
}

func TestDeleteRemovesRowAndIndex(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	id, err := Create(ctx, db, Input{Title: "Doomed Dish", Ingredients: []string{"1 cup water"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Delete(ctx, db, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := Get(ctx, db, id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	if ftsRowCount(t, db, id) != 0 {
		t.Fatal("delete left the index entry behind")
	}

	if err := Delete(ctx, db, id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("second delete should report not-found, got %v", err)
	}
}
