// Package importer streams the Food.com bulk dataset into the store:
// a recipes pass that parses, classifies and batch-inserts rows, and an
// interactions pass that aggregates external ratings back onto them.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meal-planner/internal/core/allergen"
	"meal-planner/internal/core/ingredient"
	"meal-planner/internal/core/search"
	"meal-planner/internal/core/tags"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultBatchSize is the number of recipe rows per insert transaction.
	DefaultBatchSize = 10000
	// DefaultRatingsBatchSize is the number of rating updates per transaction.
	DefaultRatingsBatchSize = 50000

	sourceDataset   = "food.com"
	sourceURLFormat = "https://www.food.com/recipe/%s"
)

var recipeURLPattern = regexp.MustCompile(`/recipe/(\d+)`)

// SourceURL derives the canonical recipe URL from a dataset-native id.
func SourceURL(externalID string) string {
	return fmt.Sprintf(sourceURLFormat, externalID)
}

// ExternalIDFromURL extracts the dataset-native id back out of a source
// URL generated by SourceURL. Returns "" when the URL does not match.
func ExternalIDFromURL(url string) string {
	m := recipeURLPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Options controls a recipe import run.
type Options struct {
	// BatchSize is the number of rows per transaction; 0 means
	// DefaultBatchSize.
	BatchSize int
	// Limit stops reading input after this many rows; 0 means no limit.
	Limit int
}

type recipeRow struct {
	title          string
	description    sql.NullString
	ingredientsRaw string
	parsed         string
	instructions   string
	cuisine        sql.NullString
	mealType       sql.NullString
	totalMinutes   sql.NullInt64
	difficulty     sql.NullString
	dietaryTags    string
	allergenFlags  string
	normalized     string
	normalizedText string
	sourceURL      sql.NullString
	importedAt     string
}

// ImportRecipes streams the recipe CSV at path into db in transactional
// batches, returning the number of imported rows. The file is read row
// by row; an Options.Limit stops consumption early rather than
// filtering. A missing file is a precondition failure reported before
// any streaming starts; malformed rows degrade to best-effort values
// and never abort the stream.
func ImportRecipes(ctx context.Context, db *sql.DB, path string, opts Options) (int, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open recipes dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read recipes header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"name", "id", "ingredients"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("recipes dataset missing column %q", required)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	batch := make([]recipeRow, 0, batchSize)
	count := 0

	for {
		if opts.Limit > 0 && count >= opts.Limit {
			break
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate malformed rows; the stream continues.
			common.LogWarn("skipping malformed recipe row", zap.Error(err))
			continue
		}

		batch = append(batch, buildRecipeRow(record, col, now))
		count++

		if len(batch) >= batchSize {
			if err := flushRecipeBatch(ctx, db, batch); err != nil {
				return count - len(batch), err
			}
			common.LogInfo("imported recipe batch", zap.Int("total", count))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := flushRecipeBatch(ctx, db, batch); err != nil {
			return count - len(batch), err
		}
	}

	common.LogInfo("recipe import complete", zap.Int("count", count))
	return count, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return col
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func buildRecipeRow(record []string, col map[string]int, importedAt string) recipeRow {
	ingredients := ParsePythonList(field(record, col, "ingredients"))
	steps := ParsePythonList(field(record, col, "steps"))
	tagList := ParsePythonList(field(record, col, "tags"))

	parsed, normalized := ingredient.ParseList(ingredients)
	flags := allergen.Detect(ingredients)
	class := tags.Classify(tagList)

	row := recipeRow{
		title:          field(record, col, "name"),
		ingredientsRaw: mustJSON(ingredients),
		parsed:         mustJSON(parsed),
		instructions:   mustJSON(steps),
		dietaryTags:    mustJSON(class.DietaryTags),
		allergenFlags:  mustJSON(flags),
		normalized:     mustJSON(normalized),
		normalizedText: strings.Join(normalized, " "),
		importedAt:     importedAt,
	}
	if row.title == "" {
		row.title = "Untitled Recipe"
	}
	if desc := field(record, col, "description"); desc != "" {
		row.description = sql.NullString{String: desc, Valid: true}
	}
	if minutes, err := strconv.Atoi(strings.TrimSpace(field(record, col, "minutes"))); err == nil && minutes > 0 {
		row.totalMinutes = sql.NullInt64{Int64: int64(minutes), Valid: true}
	}
	if class.Cuisine != "" {
		row.cuisine = sql.NullString{String: class.Cuisine, Valid: true}
	}
	if class.MealType != "" {
		row.mealType = sql.NullString{String: class.MealType, Valid: true}
	}
	if class.Difficulty != "" {
		row.difficulty = sql.NullString{String: class.Difficulty, Valid: true}
	}
	if id := strings.TrimSpace(field(record, col, "id")); id != "" {
		row.sourceURL = sql.NullString{String: SourceURL(id), Valid: true}
	}
	return row
}

func mustJSON(v interface{}) string {
	s, err := common.ToJSON(v)
	if err != nil {
		return "[]"
	}
	return s
}

// flushRecipeBatch writes one batch of rows and their search index
// entries in a single transaction, so a crash leaves the store at the
// last committed batch boundary.
func flushRecipeBatch(ctx context.Context, db *sql.DB, batch []recipeRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO recipes (
  title, description, ingredients_raw, ingredients_parsed, instructions,
  cuisine, meal_type, total_time_minutes, difficulty,
  dietary_tags, allergen_flags, normalized_ingredients,
  source_url, source_dataset, rating, rating_count, imported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)`)
	if err != nil {
		return fmt.Errorf("prepare recipe insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range batch {
		res, err := stmt.Exec(
			row.title, row.description, row.ingredientsRaw, row.parsed, row.instructions,
			row.cuisine, row.mealType, row.totalMinutes, row.difficulty,
			row.dietaryTags, row.allergenFlags, row.normalized,
			row.sourceURL, sourceDataset, row.importedAt,
		)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("recipe insert id: %w", err)
		}
		desc := ""
		if row.description.Valid {
			desc = row.description.String
		}
		if err := search.IndexRecipe(tx, id, row.title, row.normalizedText, desc); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import batch: %w", err)
	}
	return nil
}
