package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

type ratingAgg struct {
	sum   float64
	count int
}

// RatingsResult reports the outcome of a ratings import pass.
type RatingsResult struct {
	// Updated is the number of recipes whose rating was written.
	Updated int
	// Skipped counts aggregated external ids with no stored recipe.
	Skipped int
}

// ImportRatings streams the interactions CSV at path, aggregates
// (sum, count) per external recipe id in memory (one entry per unique
// recipe id, not per interaction row) and applies the mean rating back
// onto stored recipes via their source URLs, in transactional batches.
// A rating of 0 means "not rated" in the dataset and is excluded from
// aggregation. External ids with no stored recipe are counted as
// skipped, never fatal.
func ImportRatings(ctx context.Context, db *sql.DB, path string, batchSize int) (RatingsResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultRatingsBatchSize
	}

	f, err := os.Open(path)
	if err != nil {
		return RatingsResult{}, fmt.Errorf("open interactions dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return RatingsResult{}, fmt.Errorf("read interactions header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"recipe_id", "rating"} {
		if _, ok := col[required]; !ok {
			return RatingsResult{}, fmt.Errorf("interactions dataset missing column %q", required)
		}
	}

	aggregates := make(map[string]*ratingAgg)
	rowCount := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			common.LogWarn("skipping malformed interaction row", zap.Error(err))
			continue
		}
		rowCount++

		rating, err := strconv.ParseFloat(strings.TrimSpace(field(record, col, "rating")), 64)
		if err != nil || rating == 0 {
			continue
		}
		recipeID := strings.TrimSpace(field(record, col, "recipe_id"))
		if recipeID == "" {
			continue
		}
		if agg, ok := aggregates[recipeID]; ok {
			agg.sum += rating
			agg.count++
		} else {
			aggregates[recipeID] = &ratingAgg{sum: rating, count: 1}
		}
	}

	common.LogInfo("interactions aggregated",
		zap.Int("rows", rowCount),
		zap.Int("recipes", len(aggregates)),
	)

	lookup, err := buildExternalIDLookup(ctx, db)
	if err != nil {
		return RatingsResult{}, err
	}

	var result RatingsResult
	type update struct {
		rating float64
		count  int
		id     int64
	}
	batch := make([]update, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin ratings batch: %w", err)
		}
		defer tx.Rollback()
		stmt, err := tx.Prepare(`UPDATE recipes SET rating = ?, rating_count = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare rating update: %w", err)
		}
		defer stmt.Close()
		for _, u := range batch {
			if _, err := stmt.Exec(u.rating, u.count, u.id); err != nil {
				return fmt.Errorf("update rating: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit ratings batch: %w", err)
		}
		result.Updated += len(batch)
		batch = batch[:0]
		return nil
	}

	for externalID, agg := range aggregates {
		dbID, ok := lookup[externalID]
		if !ok {
			result.Skipped++
			continue
		}
		mean := math.Round(agg.sum/float64(agg.count)*10) / 10
		batch = append(batch, update{rating: mean, count: agg.count, id: dbID})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	common.LogInfo("ratings import complete",
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// buildExternalIDLookup maps dataset-native recipe ids, re-extracted
// from stored source URLs, back to internal row ids.
func buildExternalIDLookup(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, source_url FROM recipes
WHERE source_dataset = ? AND source_url IS NOT NULL`, sourceDataset)
	if err != nil {
		return nil, fmt.Errorf("load source urls: %w", err)
	}
	defer rows.Close()

	lookup := make(map[string]int64)
	for rows.Next() {
		var id int64
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("scan source url: %w", err)
		}
		if externalID := ExternalIDFromURL(url); externalID != "" {
			lookup[externalID] = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source urls: %w", err)
	}
	return lookup, nil
}
