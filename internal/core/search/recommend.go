package search

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"

	"meal-planner/internal/core/household"
	"meal-planner/internal/pkg/common"
)

const (
	// MaxSuggestions caps a suggestion request.
	MaxSuggestions = 20
	// MaxSuggestionLimit caps a caller-supplied limit.
	MaxSuggestionLimit = 50
	// maxPantryTerms bounds the FTS query width.
	maxPantryTerms = 20
)

// Suggestion modes.
const (
	ModePantry   = "pantry"
	ModeExpiring = "expiring"
)

// Suggestion is a recipe scored against the household pantry.
type Suggestion struct {
	RecipeSummary
	NormalizedIngredients []string `json:"normalized_ingredients"`
	PantryMatchCount      int      `json:"pantry_match_count"`
	PantryCoverage        int      `json:"pantry_coverage"`
}

// SuggestFromPantry recommends recipes cookable from a household's
// pantry. Candidates come from an FTS query over up to the first 20
// pantry names; scoring is a bidirectional substring match between
// pantry names and each recipe's normalized ingredients, with coverage
// as the rounded percentage of ingredients matched. Expiring mode
// prioritizes soon-to-expire items by reordering the pantry names;
// items without an expiry date drop out of that ordering only. An
// empty pantry yields an empty result without querying the index.
func SuggestFromPantry(ctx context.Context, db *sql.DB, householdID, mode string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = MaxSuggestions
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}

	pantry, err := household.ListPantry(ctx, db, householdID)
	if err != nil {
		return nil, err
	}
	if len(pantry) == 0 {
		return []Suggestion{}, nil
	}

	names := pantryNames(pantry, mode)
	if len(names) == 0 {
		return []Suggestion{}, nil
	}

	terms := names
	if len(terms) > maxPantryTerms {
		terms = terms[:maxPantryTerms]
	}
	quoted := make([]string, 0, len(terms))
	for _, name := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(name, `"`, "")+`"`)
	}
	matchExpr := strings.Join(quoted, " OR ")

	rows, err := db.QueryContext(ctx, `
SELECT `+summaryColumns+`, r.normalized_ingredients
FROM recipes_fts
JOIN recipes r ON r.id = recipes_fts.rowid
WHERE recipes_fts MATCH ?
ORDER BY recipes_fts.rank
LIMIT ?`, matchExpr, limit)
	if err != nil {
		return nil, err
	}
	candidates, err := scanSuggestions(rows)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		scorePantryMatch(&candidates[i], names)
	}

	// Stable keeps index-rank order among equal coverages.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PantryCoverage > candidates[j].PantryCoverage
	})
	return candidates, nil
}

// pantryNames lowercases pantry ingredient names, ordered per mode.
func pantryNames(pantry []household.PantryItem, mode string) []string {
	if mode != ModeExpiring {
		names := make([]string, 0, len(pantry))
		for _, item := range pantry {
			names = append(names, strings.ToLower(item.IngredientName))
		}
		return names
	}

	dated := make([]household.PantryItem, 0, len(pantry))
	for _, item := range pantry {
		if item.ExpiryDate != nil && *item.ExpiryDate != "" {
			dated = append(dated, item)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return *dated[i].ExpiryDate < *dated[j].ExpiryDate
	})
	names := make([]string, 0, len(dated))
	for _, item := range dated {
		names = append(names, strings.ToLower(item.IngredientName))
	}
	return names
}

// scorePantryMatch counts a recipe ingredient as matched when it
// contains a pantry name or a pantry name contains it.
func scorePantryMatch(s *Suggestion, pantryNames []string) {
	matched := 0
	for _, ingredient := range s.NormalizedIngredients {
		for _, pantry := range pantryNames {
			if strings.Contains(ingredient, pantry) || strings.Contains(pantry, ingredient) {
				matched++
				break
			}
		}
	}
	s.PantryMatchCount = matched
	if len(s.NormalizedIngredients) > 0 {
		s.PantryCoverage = int(math.Round(float64(matched) / float64(len(s.NormalizedIngredients)) * 100))
	}
}

func scanSuggestions(rows *sql.Rows) ([]Suggestion, error) {
	defer rows.Close()

	out := []Suggestion{}
	for rows.Next() {
		var s Suggestion
		var description, cuisine, mealType, difficulty sql.NullString
		var totalTime, ratingCount sql.NullInt64
		var rating sql.NullFloat64
		var flagsJSON, tagsJSON, normalizedJSON string
		if err := rows.Scan(&s.ID, &s.Title, &description, &cuisine, &mealType,
			&totalTime, &difficulty, &rating, &ratingCount,
			&flagsJSON, &tagsJSON, &normalizedJSON); err != nil {
			return nil, err
		}
		if description.Valid {
			s.Description = &description.String
		}
		if cuisine.Valid {
			s.Cuisine = &cuisine.String
		}
		if mealType.Valid {
			s.MealType = &mealType.String
		}
		if totalTime.Valid {
			s.TotalTimeMinutes = &totalTime.Int64
		}
		if difficulty.Valid {
			s.Difficulty = &difficulty.String
		}
		if rating.Valid {
			s.Rating = &rating.Float64
		}
		if ratingCount.Valid {
			s.RatingCount = &ratingCount.Int64
		}
		s.AllergenFlags = common.StringList(flagsJSON)
		s.DietaryTags = common.StringList(tagsJSON)
		s.NormalizedIngredients = common.StringList(normalizedJSON)
		out = append(out, s)
	}
	return out, rows.Err()
}
