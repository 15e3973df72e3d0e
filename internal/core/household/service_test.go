package household

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

func TestCreateAndResolveForUser(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	h, err := Create(ctx, db, "The Smiths", "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID == "" {
		t.Fatal("expected generated household id")
	}

	resolved, err := ForUser(ctx, db, "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != h.ID {
		t.Fatalf("resolved %q, want %q", resolved, h.ID)
	}

	if _, err := ForUser(ctx, db, "stranger"); !errors.Is(err, common.ErrNoHousehold) {
		t.Fatalf("expected no-household error, got %v", err)
	}
}

func TestSetAllergenUpsertsAndValidates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	h, err := Create(ctx, db, "test", "u1")
	if err != nil {
		t.Fatal(err)
	}

	first, err := SetAllergen(ctx, db, h.ID, "Peanut", SeverityExclude, true)
	if err != nil {
		t.Fatalf("set allergen: %v", err)
	}
	if first.AllergenKey != "peanut" {
		t.Fatalf("key = %q, want lowercased peanut", first.AllergenKey)
	}

	// Second write for the same key updates in place.
	second, err := SetAllergen(ctx, db, h.ID, "peanut", SeverityWarn, false)
	if err != nil {
		t.Fatalf("update allergen: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a new row: %q vs %q", second.ID, first.ID)
	}

	configs, err := ListAllergens(ctx, db, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 1 || configs[0].Severity != SeverityWarn || configs[0].IsActive {
		t.Fatalf("configs = %+v", configs)
	}

	if _, err := SetAllergen(ctx, db, h.ID, "pollen", SeverityExclude, true); !common.IsValidationError(err) {
		t.Fatalf("unknown key should fail validation, got %v", err)
	}
	if _, err := SetAllergen(ctx, db, h.ID, "peanut", "maybe", true); !common.IsValidationError(err) {
		t.Fatalf("bad severity should fail validation, got %v", err)
	}
}

func TestActiveExclusionsAndSplit(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	h, err := Create(ctx, db, "test", "u1")
	if err != nil {
		t.Fatal(err)
	}
	mustSet := func(key, severity string, active bool) {
		t.Helper()
		if _, err := SetAllergen(ctx, db, h.ID, key, severity, active); err != nil {
			t.Fatal(err)
		}
	}
	mustSet("peanut", SeverityExclude, true)
	mustSet("dairy", SeverityWarn, true)
	mustSet("soy", SeverityExclude, false)

	exclusions, err := ActiveExclusions(ctx, db, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(exclusions) != 2 {
		t.Fatalf("active exclusions = %d, want 2 (inactive soy dropped)", len(exclusions))
	}

	exclude, warn := SplitSeverity(exclusions)
	if len(exclude) != 1 || exclude[0] != "peanut" {
		t.Fatalf("exclude = %v", exclude)
	}
	if len(warn) != 1 || warn[0] != "dairy" {
		t.Fatalf("warn = %v", warn)
	}
}

func TestPantryAddListRemove(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	h, err := Create(ctx, db, "test", "u1")
	if err != nil {
		t.Fatal(err)
	}

	expiry := "2026-09-01"
	item, err := AddPantryItem(ctx, db, PantryItem{
		HouseholdID:    h.ID,
		IngredientName: "whole milk",
		ExpiryDate:     &expiry,
	})
	if err != nil {
		t.Fatalf("add pantry item: %v", err)
	}

	if _, err := AddPantryItem(ctx, db, PantryItem{HouseholdID: h.ID, IngredientName: "  "}); !common.IsValidationError(err) {
		t.Fatalf("blank name should fail validation, got %v", err)
	}

	items, err := ListPantry(ctx, db, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].IngredientName != "whole milk" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].ExpiryDate == nil || *items[0].ExpiryDate != expiry {
		t.Fatalf("expiry = %v", items[0].ExpiryDate)
	}

	if err := RemovePantryItem(ctx, db, h.ID, item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemovePantryItem(ctx, db, h.ID, item.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("second remove should report not-found, got %v", err)
	}
}

func TestFavoritesIdempotentAdd(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	h, err := Create(ctx, db, "test", "u1")
	if err != nil {
		t.Fatal(err)
	}
	res, err := db.Exec(`INSERT INTO recipes (title, source_dataset) VALUES ('Pie', 'food.com')`)
	if err != nil {
		t.Fatal(err)
	}
	recipeID, _ := res.LastInsertId()

	first, err := AddFavorite(ctx, db, h.ID, "u1", recipeID)
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	second, err := AddFavorite(ctx, db, h.ID, "u1", recipeID)
	if err != nil {
		t.Fatalf("repeat add favorite: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("repeated add created a duplicate favorite")
	}

	ids, err := FavoriteRecipeIDs(ctx, db, h.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != recipeID {
		t.Fatalf("favorite ids = %v", ids)
	}

	if err := RemoveFavorite(ctx, db, "u1", recipeID); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	ids, err = FavoriteRecipeIDs(ctx, db, h.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("favorites not removed: %v", ids)
	}
}
