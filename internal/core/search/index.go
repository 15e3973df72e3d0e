// Package search owns the recipe full-text index and the read paths
// built on it: allergen-safe ranked search and pantry-match
// recommendations.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// IndexRecipe inserts the search index row for a recipe. Callers run it
// inside the same transaction as the recipe row insert so the index is
// never stale relative to a committed write.
func IndexRecipe(exec store.Execer, id int64, title, normalizedText, description string) error {
	_, err := exec.Exec(`
INSERT INTO recipes_fts(rowid, title, normalized_ingredients, description)
VALUES (?, ?, ?, ?)`, id, title, normalizedText, description)
	if err != nil {
		return fmt.Errorf("index recipe %d: %w", id, err)
	}
	return nil
}

// ReindexRecipe fully replaces a recipe's index entry. The FTS table
// needs whole-row re-derivation for token regeneration, so this is
// delete-then-reinsert, not a patch.
func ReindexRecipe(exec store.Execer, id int64, title, normalizedText, description string) error {
	if err := RemoveFromIndex(exec, id); err != nil {
		return err
	}
	return IndexRecipe(exec, id, title, normalizedText, description)
}

// RemoveFromIndex drops a recipe's index entry.
func RemoveFromIndex(exec store.Execer, id int64) error {
	_, err := exec.Exec(`DELETE FROM recipes_fts WHERE rowid = ?`, id)
	if err != nil {
		return fmt.Errorf("remove recipe %d from index: %w", id, err)
	}
	return nil
}

// RebuildIndex regenerates the whole index from the authoritative
// recipes table. Idempotent and safe to run at any time, e.g. after a
// bulk import or to repair a detected inconsistency.
func RebuildIndex(db *sql.DB) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin index rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recipes_fts`); err != nil {
		return 0, fmt.Errorf("clear index: %w", err)
	}

	rows, err := tx.Query(`
SELECT id, title, COALESCE(normalized_ingredients, '[]'), COALESCE(description, '')
FROM recipes`)
	if err != nil {
		return 0, fmt.Errorf("load recipes for rebuild: %w", err)
	}
	defer rows.Close()

	type entry struct {
		id             int64
		title          string
		normalizedText string
		description    string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		var normalizedJSON string
		if err := rows.Scan(&e.id, &e.title, &normalizedJSON, &e.description); err != nil {
			return 0, fmt.Errorf("scan recipe for rebuild: %w", err)
		}
		e.normalizedText = strings.Join(common.StringList(normalizedJSON), " ")
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate recipes for rebuild: %w", err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO recipes_fts(rowid, title, normalized_ingredients, description)
VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare rebuild insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.id, e.title, e.normalizedText, e.description); err != nil {
			return 0, fmt.Errorf("reindex recipe %d: %w", e.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit index rebuild: %w", err)
	}

	common.LogInfo("search index rebuilt", zap.Int("recipes", len(entries)))
	return len(entries), nil
}
