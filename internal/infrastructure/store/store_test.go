package store

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "meals.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "meals.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := ApplyMigrations(db); err != nil {
			t.Fatalf("apply migrations run %d: %v", i, err)
		}
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != len(migrations) {
		t.Fatalf("applied %d migrations, want %d", applied, len(migrations))
	}

	// The core tables exist and are usable.
	for _, table := range []string{"recipes", "households", "household_allergens", "pantry_items", "favorites"} {
		var count int
		if err := db.QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
	}
	if _, err := db.Exec(`INSERT INTO recipes_fts(rowid, title, normalized_ingredients, description) VALUES (1, 'a', 'b', 'c')`); err != nil {
		t.Fatalf("fts table unusable: %v", err)
	}
}
