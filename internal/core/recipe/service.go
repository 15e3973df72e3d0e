package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/core/allergen"
	"meal-planner/internal/core/ingredient"
	"meal-planner/internal/core/search"
	"meal-planner/internal/pkg/common"
)

const sourceUser = "user"

// derived holds the fields recomputed from a recipe's ingredient list.
type derived struct {
	parsedJSON     string
	normalizedJSON string
	normalizedText string
	flagsJSON      string
}

func deriveFromIngredients(ingredients []string) derived {
	parsed, normalized := ingredient.ParseList(ingredients)
	flags := allergen.Detect(ingredients)
	return derived{
		parsedJSON:     mustJSON(parsed),
		normalizedJSON: mustJSON(normalized),
		normalizedText: strings.Join(normalized, " "),
		flagsJSON:      mustJSON(flags),
	}
}

func mustJSON(v interface{}) string {
	s, err := common.ToJSON(v)
	if err != nil {
		return "[]"
	}
	return s
}

// Create inserts a user-authored recipe. Derived fields (parsed
// ingredients, normalized names, allergen flags) and the search index
// row are written in the same transaction as the recipe row.
func Create(ctx context.Context, db *sql.DB, in Input) (int64, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return 0, common.NewValidationError("title is required")
	}
	if err := validateDifficulty(in.Difficulty); err != nil {
		return 0, err
	}

	d := deriveFromIngredients(in.Ingredients)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create recipe: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
INSERT INTO recipes (
  title, description, ingredients_raw, ingredients_parsed, instructions,
  cuisine, meal_type, total_time_minutes, difficulty,
  dietary_tags, allergen_flags, normalized_ingredients,
  source_dataset, imported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?, ?, ?)`,
		title, nullIfEmpty(in.Description),
		mustJSON(nonNil(in.Ingredients)), d.parsedJSON, mustJSON(nonNil(in.Instructions)),
		nullIfEmpty(in.Cuisine), nullIfEmpty(in.MealType),
		nullIfZero(in.TotalTimeMinutes), nullIfEmpty(in.Difficulty),
		d.flagsJSON, d.normalizedJSON,
		sourceUser, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recipe insert id: %w", err)
	}

	if err := search.IndexRecipe(tx, id, title, d.normalizedText, in.Description); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create recipe: %w", err)
	}
	return id, nil
}

// Get loads a full recipe by id.
func Get(ctx context.Context, db *sql.DB, id int64) (Recipe, error) {
	var r Recipe
	var description, cuisine, mealType, difficulty, sourceURL, sourceDataset, importedAt sql.NullString
	var totalTime, ratingCount sql.NullInt64
	var rating sql.NullFloat64
	var rawJSON, parsedJSON, instructionsJSON, tagsJSON, flagsJSON, normalizedJSON string

	err := db.QueryRowContext(ctx, `
SELECT id, title, description, ingredients_raw, COALESCE(ingredients_parsed, '[]'),
  instructions, cuisine, meal_type, total_time_minutes, difficulty,
  dietary_tags, allergen_flags, normalized_ingredients,
  source_url, source_dataset, rating, rating_count, imported_at
FROM recipes WHERE id = ?`, id).Scan(
		&r.ID, &r.Title, &description, &rawJSON, &parsedJSON,
		&instructionsJSON, &cuisine, &mealType, &totalTime, &difficulty,
		&tagsJSON, &flagsJSON, &normalizedJSON,
		&sourceURL, &sourceDataset, &rating, &ratingCount, &importedAt)
	if err == sql.ErrNoRows {
		return Recipe{}, common.ErrNotFound
	}
	if err != nil {
		return Recipe{}, fmt.Errorf("load recipe: %w", err)
	}

	r.IngredientsRaw = common.StringList(rawJSON)
	r.Instructions = common.StringList(instructionsJSON)
	r.DietaryTags = common.StringList(tagsJSON)
	r.AllergenFlags = common.StringList(flagsJSON)
	r.NormalizedIngredients = common.StringList(normalizedJSON)
	if err := common.ParseJSON(parsedJSON, &r.IngredientsParsed); err != nil {
		r.IngredientsParsed = []ingredient.Parsed{}
	}
	if description.Valid {
		r.Description = &description.String
	}
	if cuisine.Valid {
		r.Cuisine = &cuisine.String
	}
	if mealType.Valid {
		r.MealType = &mealType.String
	}
	if totalTime.Valid {
		r.TotalTimeMinutes = &totalTime.Int64
	}
	if difficulty.Valid {
		r.Difficulty = &difficulty.String
	}
	if sourceURL.Valid {
		r.SourceURL = &sourceURL.String
	}
	if sourceDataset.Valid {
		r.SourceDataset = &sourceDataset.String
	}
	if rating.Valid {
		r.Rating = &rating.Float64
	}
	if ratingCount.Valid {
		r.RatingCount = &ratingCount.Int64
	}
	if importedAt.Valid {
		r.ImportedAt = &importedAt.String
	}
	return r, nil
}

// Update rewrites a recipe from the input, recomputing derived fields
// and replacing the index entry in the same transaction. Only
// user-authored recipes may be updated.
func Update(ctx context.Context, db *sql.DB, id int64, in Input) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return common.NewValidationError("title is required")
	}
	if err := validateDifficulty(in.Difficulty); err != nil {
		return err
	}

	d := deriveFromIngredients(in.Ingredients)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update recipe: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
UPDATE recipes SET
  title = ?, description = ?, ingredients_raw = ?, ingredients_parsed = ?,
  instructions = ?, cuisine = ?, meal_type = ?, total_time_minutes = ?,
  difficulty = ?, allergen_flags = ?, normalized_ingredients = ?
WHERE id = ? AND source_dataset = ?`,
		title, nullIfEmpty(in.Description),
		mustJSON(nonNil(in.Ingredients)), d.parsedJSON, mustJSON(nonNil(in.Instructions)),
		nullIfEmpty(in.Cuisine), nullIfEmpty(in.MealType),
		nullIfZero(in.TotalTimeMinutes), nullIfEmpty(in.Difficulty),
		d.flagsJSON, d.normalizedJSON,
		id, sourceUser)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}

	if err := search.ReindexRecipe(tx, id, title, d.normalizedText, in.Description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update recipe: %w", err)
	}
	return nil
}

// Delete removes a user-authored recipe and its index entry in one
// transaction.
func Delete(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recipe: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM favorites WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe favorites: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM recipes WHERE id = ? AND source_dataset = ?`, id, sourceUser)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}

	if err := search.RemoveFromIndex(tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete recipe: %w", err)
	}
	return nil
}

func validateDifficulty(d string) error {
	switch d {
	case "", "easy", "medium", "hard":
		return nil
	}
	return common.NewValidationError(fmt.Sprintf("invalid difficulty %q", d))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullIfZero(n int) sql.NullInt64 {
	if n <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
