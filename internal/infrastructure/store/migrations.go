package store

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS recipes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT,
  ingredients_raw TEXT NOT NULL DEFAULT '[]',
  ingredients_parsed TEXT,
  instructions TEXT NOT NULL DEFAULT '[]',
  cuisine TEXT,
  meal_type TEXT,
  total_time_minutes INTEGER,
  difficulty TEXT CHECK(difficulty IN ('easy','medium','hard') OR difficulty IS NULL),
  dietary_tags TEXT NOT NULL DEFAULT '[]',
  allergen_flags TEXT NOT NULL DEFAULT '[]',
  normalized_ingredients TEXT NOT NULL DEFAULT '[]',
  source_url TEXT,
  source_dataset TEXT,
  rating REAL,
  rating_count INTEGER,
  imported_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_recipes_cuisine ON recipes(cuisine);
CREATE INDEX IF NOT EXISTS idx_recipes_meal_type ON recipes(meal_type);
CREATE INDEX IF NOT EXISTS idx_recipes_difficulty ON recipes(difficulty);
CREATE INDEX IF NOT EXISTS idx_recipes_total_time ON recipes(total_time_minutes);
CREATE INDEX IF NOT EXISTS idx_recipes_rating ON recipes(rating);
CREATE INDEX IF NOT EXISTS idx_recipes_source_dataset ON recipes(source_dataset);

CREATE TABLE IF NOT EXISTS households (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS household_members (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL REFERENCES households(id),
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member' CHECK(role IN ('admin','member'))
);

CREATE INDEX IF NOT EXISTS idx_household_members_household ON household_members(household_id);
CREATE INDEX IF NOT EXISTS idx_household_members_user ON household_members(user_id);

CREATE TABLE IF NOT EXISTS household_allergens (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL REFERENCES households(id),
  allergen_key TEXT NOT NULL,
  severity TEXT NOT NULL DEFAULT 'exclude' CHECK(severity IN ('exclude','warn')),
  is_active INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_household_allergens_household ON household_allergens(household_id);

CREATE TABLE IF NOT EXISTS pantry_items (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL REFERENCES households(id),
  ingredient_name TEXT NOT NULL,
  quantity REAL,
  unit TEXT,
  expiry_date TEXT,
  category TEXT,
  added_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pantry_household ON pantry_items(household_id);
CREATE INDEX IF NOT EXISTS idx_pantry_expiry ON pantry_items(expiry_date);

CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY,
  recipe_id INTEGER NOT NULL REFERENCES recipes(id),
  user_id TEXT,
  household_id TEXT REFERENCES households(id),
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
CREATE INDEX IF NOT EXISTS idx_favorites_recipe ON favorites(recipe_id);
`,
	},
	{
		version: 2,
		name:    "recipes_fts",
		// Standalone FTS5 table keyed by recipe id. Kept in sync by the
		// search package's explicit index operations, not triggers.
		sql: `
CREATE VIRTUAL TABLE IF NOT EXISTS recipes_fts USING fts5(
  title,
  normalized_ingredients,
  description,
  tokenize='porter unicode61'
);
`,
	},
}

// ApplyMigrations brings the schema up to the latest version. Safe to run
// on every startup.
func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if exists > 0 {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
