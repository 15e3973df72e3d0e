package search

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"meal-planner/internal/core/household"
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

type seedRecipe struct {
	title       string
	description string
	normalized  []string
	flags       []string
	cuisine     string
	source      string
	rating      float64
}

func insertRecipe(t *testing.T, db *sql.DB, s seedRecipe) int64 {
	t.Helper()
	if s.source == "" {
		s.source = "food.com"
	}
	var rating interface{}
	if s.rating > 0 {
		rating = s.rating
	}
	var cuisine interface{}
	if s.cuisine != "" {
		cuisine = s.cuisine
	}
	res, err := db.Exec(`
INSERT INTO recipes (title, description, normalized_ingredients, allergen_flags, cuisine, rating, source_dataset)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.title, s.description, mustJSON(t, s.normalized), mustJSON(t, s.flags), cuisine, rating, s.source)
	if err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	if err := IndexRecipe(db, id, s.title, strings.Join(s.normalized, " "), s.description); err != nil {
		t.Fatalf("index recipe: %v", err)
	}
	return id
}

func mustJSON(t *testing.T, v []string) string {
	t.Helper()
	if v == nil {
		v = []string{}
	}
	s, err := common.ToJSON(v)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newHousehold(t *testing.T, db *sql.DB, userID string) string {
	t.Helper()
	h, err := household.Create(context.Background(), db, "test household", userID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h.ID
}

func TestSearchExcludeAllergenFiltersBothPaths(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u1")
	if _, err := household.SetAllergen(ctx, db, hh, "peanut", household.SeverityExclude, true); err != nil {
		t.Fatalf("set allergen: %v", err)
	}

	insertRecipe(t, db, seedRecipe{title: "Peanut Chicken Curry", normalized: []string{"peanut", "chicken"}, flags: []string{"peanut"}})
	safe := insertRecipe(t, db, seedRecipe{title: "Plain Chicken Curry", normalized: []string{"chicken"}, flags: nil})

	// Structured path.
	result, err := Search(ctx, db, hh, "u1", Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Recipes) != 1 || result.Recipes[0].ID != safe {
		t.Fatalf("structured path returned %+v, want only safe recipe", result.Recipes)
	}

	// Text path applies the same predicate.
	result, err = Search(ctx, db, hh, "u1", Params{Query: "chicken curry"})
	if err != nil {
		t.Fatalf("text search: %v", err)
	}
	for _, r := range result.Recipes {
		for _, flag := range r.AllergenFlags {
			if flag == "peanut" {
				t.Fatalf("text path leaked excluded recipe %q", r.Title)
			}
		}
	}
	if len(result.Recipes) != 1 {
		t.Fatalf("text path returned %d recipes, want 1", len(result.Recipes))
	}
}

func TestSearchWarnAnnotatesWithoutFiltering(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u2")
	if _, err := household.SetAllergen(ctx, db, hh, "dairy", household.SeverityWarn, true); err != nil {
		t.Fatalf("set allergen: %v", err)
	}

	insertRecipe(t, db, seedRecipe{title: "Cheese Pizza", normalized: []string{"cheese", "dough"}, flags: []string{"dairy", "wheat", "gluten"}})
	insertRecipe(t, db, seedRecipe{title: "Fruit Salad", normalized: []string{"apple", "orange"}, flags: nil})

	result, err := Search(ctx, db, hh, "u2", Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Recipes) != 2 {
		t.Fatalf("warn severity must not reduce results, got %d", len(result.Recipes))
	}
	for _, r := range result.Recipes {
		switch r.Title {
		case "Cheese Pizza":
			if len(r.Warnings) != 1 || r.Warnings[0] != "dairy" {
				t.Fatalf("warnings = %v, want [dairy]", r.Warnings)
			}
		case "Fruit Salad":
			if len(r.Warnings) != 0 {
				t.Fatalf("unexpected warnings on safe recipe: %v", r.Warnings)
			}
		}
	}
}

func TestSearchInactiveAllergenIgnored(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u3")
	if _, err := household.SetAllergen(ctx, db, hh, "peanut", household.SeverityExclude, false); err != nil {
		t.Fatalf("set allergen: %v", err)
	}

	insertRecipe(t, db, seedRecipe{title: "Peanut Noodles", normalized: []string{"peanut"}, flags: []string{"peanut"}})

	result, err := Search(ctx, db, hh, "u3", Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Recipes) != 1 {
		t.Fatalf("inactive exclusion must not filter, got %d recipes", len(result.Recipes))
	}
}

func TestSearchPinningDisjointAndFirstPageOnly(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u4")

	mine := insertRecipe(t, db, seedRecipe{title: "Zucchini Bake", source: "user"})
	faved := insertRecipe(t, db, seedRecipe{title: "Apple Pie"})
	insertRecipe(t, db, seedRecipe{title: "Beef Stew"})
	if _, err := household.AddFavorite(ctx, db, hh, "u4", faved); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	result, err := Search(ctx, db, hh, "u4", Params{Page: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(result.Pinned) != 2 {
		t.Fatalf("pinned = %d, want 2 (user-authored + favorite)", len(result.Pinned))
	}
	// Alphabetical by title.
	if result.Pinned[0].ID != faved || result.Pinned[1].ID != mine {
		t.Fatalf("pinned order = %v, want [Apple Pie, Zucchini Bake]", []int64{result.Pinned[0].ID, result.Pinned[1].ID})
	}

	pinnedIDs := map[int64]bool{}
	for _, r := range result.Pinned {
		pinnedIDs[r.ID] = true
	}
	for _, r := range result.Recipes {
		if pinnedIDs[r.ID] {
			t.Fatalf("recipe %d present in both pinned and main sets", r.ID)
		}
	}

	// Page 2: no pinned set, no exclusion.
	result, err = Search(ctx, db, hh, "u4", Params{Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if len(result.Pinned) != 0 {
		t.Fatalf("page 2 pinned = %d, want 0", len(result.Pinned))
	}

	// Imported-only source filter disables pinning.
	result, err = Search(ctx, db, hh, "u4", Params{Source: SourceImported})
	if err != nil {
		t.Fatalf("search imported: %v", err)
	}
	if len(result.Pinned) != 0 {
		t.Fatalf("imported-only pinned = %d, want 0", len(result.Pinned))
	}
	for _, r := range result.Recipes {
		if r.ID == mine {
			t.Fatal("imported-only results must not contain user-authored recipes")
		}
	}
}

func TestSearchPageSizeClampAndPagination(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		insertRecipe(t, db, seedRecipe{title: "Recipe " + string(rune('A'+i)), rating: float64(i + 1)})
	}

	result, err := Search(ctx, db, "", "", Params{PageSize: 500})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.PageSize != MaxPageSize {
		t.Fatalf("pageSize = %d, want clamped to %d", result.PageSize, MaxPageSize)
	}

	// Rating sort: descending, highest first.
	if len(result.Recipes) != 3 || result.Recipes[0].Title != "Recipe C" {
		t.Fatalf("rating order wrong: %+v", result.Recipes)
	}

	paged, err := Search(ctx, db, "", "", Params{Page: 2, PageSize: 2, Source: SourceImported})
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if len(paged.Recipes) != 1 {
		t.Fatalf("page 2 of 3 rows with size 2 = %d recipes, want 1", len(paged.Recipes))
	}
}

func TestSearchTextPathMatchesIndexedFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	want := insertRecipe(t, db, seedRecipe{
		title:       "Grandma's Lasagna",
		description: "layered pasta bake",
		normalized:  []string{"pasta", "tomato", "cheese"},
	})
	insertRecipe(t, db, seedRecipe{title: "Green Salad", normalized: []string{"lettuce"}})

	for _, q := range []string{"lasagna", "tomato", "layered"} {
		result, err := Search(ctx, db, "", "", Params{Query: q})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		found := false
		for _, r := range append(result.Pinned, result.Recipes...) {
			if r.ID == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("query %q did not match indexed recipe", q)
		}
	}
}

func TestRandomClampsCount(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		insertRecipe(t, db, seedRecipe{title: "Recipe " + string(rune('a'+i))})
	}

	picks, err := Random(ctx, db, "", RandomParams{Count: 50})
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(picks) > MaxRandomCount {
		t.Fatalf("got %d picks, want at most %d", len(picks), MaxRandomCount)
	}
}

func TestRebuildIndexIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	insertRecipe(t, db, seedRecipe{title: "Tomato Soup", normalized: []string{"tomato"}})
	insertRecipe(t, db, seedRecipe{title: "Lentil Soup", normalized: []string{"lentil"}})

	for i := 0; i < 2; i++ {
		count, err := RebuildIndex(db)
		if err != nil {
			t.Fatalf("rebuild %d: %v", i, err)
		}
		if count != 2 {
			t.Fatalf("rebuild %d indexed %d, want 2", i, count)
		}
		var rows int
		if err := db.QueryRow(`SELECT COUNT(1) FROM recipes_fts`).Scan(&rows); err != nil {
			t.Fatal(err)
		}
		if rows != 2 {
			t.Fatalf("fts rows = %d after rebuild, want 2", rows)
		}
	}

	result, err := Search(ctx, db, "", "", Params{Query: "tomato"})
	if err != nil {
		t.Fatalf("search after rebuild: %v", err)
	}
	if len(result.Recipes)+len(result.Pinned) == 0 {
		t.Fatal("search found nothing after rebuild")
	}
}

func TestSuggestFromPantryCoverage(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u5")
	for _, name := range []string{"eggs", "whole milk"} {
		if _, err := household.AddPantryItem(ctx, db, household.PantryItem{
			HouseholdID:    hh,
			IngredientName: name,
		}); err != nil {
			t.Fatalf("add pantry item: %v", err)
		}
	}

	insertRecipe(t, db, seedRecipe{title: "Pancakes", normalized: []string{"egg", "milk", "flour"}})

	suggestions, err := SuggestFromPantry(ctx, db, hh, ModePantry, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	s := suggestions[0]
	if s.PantryMatchCount != 2 {
		t.Fatalf("matchCount = %d, want 2", s.PantryMatchCount)
	}
	if s.PantryCoverage != 67 {
		t.Fatalf("coverage = %d, want 67", s.PantryCoverage)
	}
}

func TestSuggestEmptyPantryShortCircuits(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	hh := newHousehold(t, db, "u6")
	insertRecipe(t, db, seedRecipe{title: "Anything", normalized: []string{"salt"}})

	suggestions, err := SuggestFromPantry(ctx, db, hh, ModePantry, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("empty pantry returned %d suggestions", len(suggestions))
	}
}

func TestPantryNamesExpiringMode(t *testing.T) {
	t.Parallel()

	later := "2026-09-15"
	sooner := "2026-09-01"
	items := []household.PantryItem{
		{IngredientName: "Rice"},
		{IngredientName: "Milk", ExpiryDate: &later},
		{IngredientName: "Spinach", ExpiryDate: &sooner},
	}

	names := pantryNames(items, ModeExpiring)
	if len(names) != 2 {
		t.Fatalf("expiring mode kept %d names, want 2 (no-expiry item dropped)", len(names))
	}
	if names[0] != "spinach" || names[1] != "milk" {
		t.Fatalf("expiring order = %v, want soonest first", names)
	}

	all := pantryNames(items, ModePantry)
	if len(all) != 3 {
		t.Fatalf("pantry mode kept %d names, want 3", len(all))
	}
}
