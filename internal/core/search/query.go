package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"meal-planner/internal/core/household"
	"meal-planner/internal/pkg/common"
)

const (
	// MaxPageSize caps a caller-supplied page size.
	MaxPageSize = 100
	// DefaultPageSize is used when the caller supplies none.
	DefaultPageSize = 24
	// MaxPinned caps the pinned set on the first page.
	MaxPinned = 50
	// MaxRandomCount caps a random-picks request.
	MaxRandomCount = 10
)

// Sort selections for the structured path.
const (
	SortRating = "rating"
	SortRandom = "random"
)

// Source filter values.
const (
	SourceUser     = "user"
	SourceImported = "imported"
)

// Params are the caller-facing search knobs. Zero values mean "no
// filter" except Page and PageSize, which are normalized.
type Params struct {
	Query      string
	Cuisine    string
	MealType   string
	MaxTime    int
	Difficulty string
	MinRating  float64
	Dietary    string
	Source     string
	Sort       string
	Page       int
	PageSize   int
}

func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Sort != SortRandom {
		p.Sort = SortRating
	}
}

// RecipeSummary is the search projection of a recipe row. Warnings
// carries the household's warn-severity allergens present in the
// recipe's flags; it never affects inclusion.
type RecipeSummary struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      *string  `json:"description"`
	Cuisine          *string  `json:"cuisine"`
	MealType         *string  `json:"meal_type"`
	TotalTimeMinutes *int64   `json:"total_time_minutes"`
	Difficulty       *string  `json:"difficulty"`
	Rating           *float64 `json:"rating"`
	RatingCount      *int64   `json:"rating_count"`
	AllergenFlags    []string `json:"allergen_flags"`
	DietaryTags      []string `json:"dietary_tags"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Result is a paginated search response. Pinned is populated on page 1
// only and is always id-disjoint from Recipes.
type Result struct {
	Pinned   []RecipeSummary `json:"pinned"`
	Recipes  []RecipeSummary `json:"recipes"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

const summaryColumns = `
r.id, r.title, r.description, r.cuisine, r.meal_type,
r.total_time_minutes, r.difficulty, r.rating, r.rating_count,
r.allergen_flags, r.dietary_tags`

// filterSet is the shared structured predicate. Both query paths apply
// it identically, allergen exclusion included, so safety never depends
// on which path served a request.
type filterSet struct {
	conditions []string
	args       []interface{}
}

func newFilterSet(p Params, excludeKeys []string) *filterSet {
	f := &filterSet{}
	if p.Cuisine != "" {
		f.add("r.cuisine = ?", p.Cuisine)
	}
	if p.MealType != "" {
		f.add("r.meal_type = ?", p.MealType)
	}
	if p.MaxTime > 0 {
		f.add("r.total_time_minutes <= ?", p.MaxTime)
	}
	if p.Difficulty != "" {
		f.add("r.difficulty = ?", p.Difficulty)
	}
	if p.MinRating > 0 {
		f.add("r.rating >= ?", p.MinRating)
	}
	if p.Dietary != "" {
		f.add("r.dietary_tags LIKE ?", `%"`+p.Dietary+`"%`)
	}
	switch p.Source {
	case SourceUser:
		f.add("r.source_dataset = 'user'")
	case SourceImported:
		f.add("r.source_dataset != 'user'")
	}
	for _, key := range excludeKeys {
		f.add("r.allergen_flags NOT LIKE ?", `%"`+key+`"%`)
	}
	return f
}

func (f *filterSet) add(cond string, args ...interface{}) {
	f.conditions = append(f.conditions, cond)
	f.args = append(f.args, args...)
}

// clause renders the conditions prefixed by joiner ("WHERE" or "AND"),
// or "" when empty.
func (f *filterSet) clause(joiner string) string {
	if len(f.conditions) == 0 {
		return ""
	}
	return joiner + " " + strings.Join(f.conditions, " AND ")
}

// recipeQuerier is the single logical query capability with two
// implementations, selected by presence of a non-empty text query.
type recipeQuerier interface {
	// pinned fetches the user-authored-or-favorited set under the same
	// filters, title-ordered, capped at MaxPinned.
	pinned(ctx context.Context, db *sql.DB, f *filterSet, favIDs []int64) ([]RecipeSummary, error)
	// main fetches one page of ranked results, excluding excludeIDs.
	main(ctx context.Context, db *sql.DB, f *filterSet, excludeIDs []int64, limit, offset int) ([]RecipeSummary, error)
}

// Search runs an allergen-safe recipe search for a household. Warn keys
// annotate matching results; exclude keys remove them on both paths.
func Search(ctx context.Context, db *sql.DB, householdID, userID string, p Params) (Result, error) {
	p.normalize()

	exclusions, err := household.ActiveExclusions(ctx, db, householdID)
	if err != nil {
		return Result{}, err
	}
	excludeKeys, warnKeys := household.SplitSeverity(exclusions)

	favIDs, err := household.FavoriteRecipeIDs(ctx, db, householdID, userID)
	if err != nil {
		return Result{}, err
	}

	filters := newFilterSet(p, excludeKeys)

	var q recipeQuerier
	if text := strings.TrimSpace(p.Query); text != "" {
		q = &textPath{matchExpr: ftsMatchExpr(text)}
	} else {
		q = &structuredPath{sort: p.Sort}
	}

	result := Result{
		Pinned:   []RecipeSummary{},
		Recipes:  []RecipeSummary{},
		Page:     p.Page,
		PageSize: p.PageSize,
	}

	var pinnedIDs []int64
	if p.Page == 1 && p.Source != SourceImported {
		pinned, err := q.pinned(ctx, db, filters, favIDs)
		if err != nil {
			return Result{}, err
		}
		result.Pinned = pinned
		for _, r := range pinned {
			pinnedIDs = append(pinnedIDs, r.ID)
		}
	}

	offset := (p.Page - 1) * p.PageSize
	main, err := q.main(ctx, db, filters, pinnedIDs, p.PageSize, offset)
	if err != nil {
		return Result{}, err
	}
	result.Recipes = main

	annotateWarnings(result.Pinned, warnKeys)
	annotateWarnings(result.Recipes, warnKeys)
	return result, nil
}

// RandomParams narrow the random-pick filters.
type RandomParams struct {
	Cuisine  string
	MealType string
	MaxTime  int
	Count    int
}

// Random returns up to Count allergen-safe random picks for a
// household. Count is clamped to MaxRandomCount.
func Random(ctx context.Context, db *sql.DB, householdID string, p RandomParams) ([]RecipeSummary, error) {
	if p.Count < 1 {
		p.Count = 1
	}
	if p.Count > MaxRandomCount {
		p.Count = MaxRandomCount
	}

	exclusions, err := household.ActiveExclusions(ctx, db, householdID)
	if err != nil {
		return nil, err
	}
	excludeKeys, warnKeys := household.SplitSeverity(exclusions)

	filters := newFilterSet(Params{
		Cuisine:  p.Cuisine,
		MealType: p.MealType,
		MaxTime:  p.MaxTime,
	}, excludeKeys)

	query := `SELECT ` + summaryColumns + `
FROM recipes r ` + filters.clause("WHERE") + `
ORDER BY RANDOM() LIMIT ?`
	args := append(append([]interface{}{}, filters.args...), p.Count)

	picks, err := querySummaries(ctx, db, query, args...)
	if err != nil {
		return nil, err
	}
	annotateWarnings(picks, warnKeys)
	return picks, nil
}

// ftsMatchExpr tokenizes free text into quoted OR'd FTS terms.
func ftsMatchExpr(text string) string {
	words := strings.Fields(text)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+strings.ReplaceAll(w, `"`, "")+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// textPath serves queries with free text through the FTS index,
// relevance-ranked.
type textPath struct {
	matchExpr string
}

func (t *textPath) pinned(ctx context.Context, db *sql.DB, f *filterSet, favIDs []int64) ([]RecipeSummary, error) {
	query := `SELECT ` + summaryColumns + `
FROM recipes_fts
JOIN recipes r ON r.id = recipes_fts.rowid
WHERE recipes_fts MATCH ? ` + f.clause("AND") + `
AND (` + pinnedPredicate(favIDs) + `)
ORDER BY r.title COLLATE NOCASE ASC
LIMIT ?`
	args := append([]interface{}{t.matchExpr}, f.args...)
	args = append(args, idArgs(favIDs)...)
	args = append(args, MaxPinned)
	return querySummaries(ctx, db, query, args...)
}

func (t *textPath) main(ctx context.Context, db *sql.DB, f *filterSet, excludeIDs []int64, limit, offset int) ([]RecipeSummary, error) {
	query := `SELECT ` + summaryColumns + `
FROM recipes_fts
JOIN recipes r ON r.id = recipes_fts.rowid
WHERE recipes_fts MATCH ? ` + f.clause("AND") + excludeClause(excludeIDs) + `
ORDER BY recipes_fts.rank
LIMIT ? OFFSET ?`
	args := append([]interface{}{t.matchExpr}, f.args...)
	args = append(args, idArgs(excludeIDs)...)
	args = append(args, limit, offset)
	return querySummaries(ctx, db, query, args...)
}

// structuredPath serves filter-only queries straight off recipe rows.
type structuredPath struct {
	sort string
}

func (s *structuredPath) pinned(ctx context.Context, db *sql.DB, f *filterSet, favIDs []int64) ([]RecipeSummary, error) {
	query := `SELECT ` + summaryColumns + `
FROM recipes r ` + f.clause("WHERE")
	if len(f.conditions) == 0 {
		query += " WHERE (" + pinnedPredicate(favIDs) + ")"
	} else {
		query += " AND (" + pinnedPredicate(favIDs) + ")"
	}
	query += `
ORDER BY r.title COLLATE NOCASE ASC
LIMIT ?`
	args := append(append([]interface{}{}, f.args...), idArgs(favIDs)...)
	args = append(args, MaxPinned)
	return querySummaries(ctx, db, query, args...)
}

func (s *structuredPath) main(ctx context.Context, db *sql.DB, f *filterSet, excludeIDs []int64, limit, offset int) ([]RecipeSummary, error) {
	order := "ORDER BY (r.rating IS NULL), r.rating DESC"
	if s.sort == SortRandom {
		order = "ORDER BY RANDOM()"
	}
	query := `SELECT ` + summaryColumns + `
FROM recipes r ` + f.clause("WHERE")
	if clause := excludeClause(excludeIDs); clause != "" {
		if len(f.conditions) == 0 {
			query += " WHERE 1=1" + clause
		} else {
			query += clause
		}
	}
	query += "\n" + order + "\nLIMIT ? OFFSET ?"
	args := append(append([]interface{}{}, f.args...), idArgs(excludeIDs)...)
	args = append(args, limit, offset)
	return querySummaries(ctx, db, query, args...)
}

// pinnedPredicate matches user-authored recipes, plus the caller's
// favorites when any exist.
func pinnedPredicate(favIDs []int64) string {
	if len(favIDs) == 0 {
		return "r.source_dataset = 'user'"
	}
	return "r.source_dataset = 'user' OR r.id IN (" + placeholders(len(favIDs)) + ")"
}

func excludeClause(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	return " AND r.id NOT IN (" + placeholders(len(ids)) + ")"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func querySummaries(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]RecipeSummary, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	out := []RecipeSummary{}
	for rows.Next() {
		var r RecipeSummary
		var description, cuisine, mealType, difficulty sql.NullString
		var totalTime, ratingCount sql.NullInt64
		var rating sql.NullFloat64
		var flagsJSON, tagsJSON string
		if err := rows.Scan(&r.ID, &r.Title, &description, &cuisine, &mealType,
			&totalTime, &difficulty, &rating, &ratingCount,
			&flagsJSON, &tagsJSON); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
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
		if rating.Valid {
			r.Rating = &rating.Float64
		}
		if ratingCount.Valid {
			r.RatingCount = &ratingCount.Int64
		}
		r.AllergenFlags = common.StringList(flagsJSON)
		r.DietaryTags = common.StringList(tagsJSON)
		out = append(out, r)
	}
	return out, rows.Err()
}

// annotateWarnings sets each summary's Warnings to the intersection of
// its allergen flags with the household's warn keys.
func annotateWarnings(recipes []RecipeSummary, warnKeys []string) {
	if len(warnKeys) == 0 {
		return
	}
	for i := range recipes {
		var warnings []string
		for _, key := range warnKeys {
			for _, flag := range recipes[i].AllergenFlags {
				if flag == key {
					warnings = append(warnings, key)
					break
				}
			}
		}
		recipes[i].Warnings = warnings
	}
}
