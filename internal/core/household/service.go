// Package household manages the per-household state the query paths
// consume: allergen configuration, pantry inventory and favorites.
package household

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/core/allergen"
	"meal-planner/internal/pkg/common"
)

// Severity levels for a household allergen entry.
const (
	SeverityExclude = "exclude"
	SeverityWarn    = "warn"
)

// Household is the top-level grouping for members, pantry and config.
type Household struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// AllergenConfig is one household allergen entry.
type AllergenConfig struct {
	ID          string `json:"id"`
	HouseholdID string `json:"household_id"`
	AllergenKey string `json:"allergen_key"`
	Severity    string `json:"severity"`
	IsActive    bool   `json:"is_active"`
}

// Exclusion is the query-facing projection of an active allergen entry.
type Exclusion struct {
	Key      string
	Severity string
}

// PantryItem is one ingredient currently held by a household.
type PantryItem struct {
	ID             string   `json:"id"`
	HouseholdID    string   `json:"household_id"`
	IngredientName string   `json:"ingredient_name"`
	Quantity       *float64 `json:"quantity,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	ExpiryDate     *string  `json:"expiry_date,omitempty"`
	Category       *string  `json:"category,omitempty"`
	AddedAt        string   `json:"added_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// Favorite marks a recipe saved by a user within a household.
type Favorite struct {
	ID          string `json:"id"`
	RecipeID    int64  `json:"recipe_id"`
	UserID      string `json:"user_id"`
	HouseholdID string `json:"household_id"`
	CreatedAt   string `json:"created_at"`
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Create inserts a new household and enrolls the creating user as admin.
func Create(ctx context.Context, db *sql.DB, name, userID string) (Household, error) {
	h := Household{
		ID:        common.GenerateUUID(),
		Name:      name,
		CreatedAt: nowString(),
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Household{}, fmt.Errorf("begin create household: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO households(id, name, created_at) VALUES(?, ?, ?)`,
		h.ID, h.Name, h.CreatedAt); err != nil {
		return Household{}, fmt.Errorf("insert household: %w", err)
	}
	if userID != "" {
		if _, err := tx.Exec(`
INSERT INTO household_members(id, household_id, user_id, role) VALUES(?, ?, ?, 'admin')`,
			common.GenerateUUID(), h.ID, userID); err != nil {
			return Household{}, fmt.Errorf("insert household member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Household{}, fmt.Errorf("commit create household: %w", err)
	}
	return h, nil
}

// Get loads one household by id.
func Get(ctx context.Context, db *sql.DB, id string) (Household, error) {
	var h Household
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM households WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return Household{}, common.ErrNotFound
	}
	if err != nil {
		return Household{}, fmt.Errorf("load household: %w", err)
	}
	return h, nil
}

// ForUser resolves the household a user belongs to via membership.
// Returns common.ErrNoHousehold when the user has none.
func ForUser(ctx context.Context, db *sql.DB, userID string) (string, error) {
	var householdID string
	err := db.QueryRowContext(ctx,
		`SELECT household_id FROM household_members WHERE user_id = ? LIMIT 1`, userID).
		Scan(&householdID)
	if err == sql.ErrNoRows {
		return "", common.ErrNoHousehold
	}
	if err != nil {
		return "", fmt.Errorf("resolve household for user: %w", err)
	}
	return householdID, nil
}

// ActiveExclusions returns the household's active allergen entries of
// both severities. The query engine filters on exclude keys and
// annotates on warn keys.
func ActiveExclusions(ctx context.Context, db *sql.DB, householdID string) ([]Exclusion, error) {
	if householdID == "" {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
SELECT allergen_key, severity FROM household_allergens
WHERE household_id = ? AND is_active = 1
ORDER BY allergen_key`, householdID)
	if err != nil {
		return nil, fmt.Errorf("load active allergens: %w", err)
	}
	defer rows.Close()

	var out []Exclusion
	for rows.Next() {
		var e Exclusion
		if err := rows.Scan(&e.Key, &e.Severity); err != nil {
			return nil, fmt.Errorf("scan allergen entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SplitSeverity partitions exclusions into exclude keys and warn keys.
func SplitSeverity(exclusions []Exclusion) (exclude, warn []string) {
	for _, e := range exclusions {
		switch e.Severity {
		case SeverityWarn:
			warn = append(warn, e.Key)
		default:
			exclude = append(exclude, e.Key)
		}
	}
	return exclude, warn
}

// ListAllergens returns every allergen entry for a household, active or
// not.
func ListAllergens(ctx context.Context, db *sql.DB, householdID string) ([]AllergenConfig, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, household_id, allergen_key, severity, is_active
FROM household_allergens WHERE household_id = ?
ORDER BY allergen_key`, householdID)
	if err != nil {
		return nil, fmt.Errorf("load allergens: %w", err)
	}
	defer rows.Close()

	var out []AllergenConfig
	for rows.Next() {
		var a AllergenConfig
		if err := rows.Scan(&a.ID, &a.HouseholdID, &a.AllergenKey, &a.Severity, &a.IsActive); err != nil {
			return nil, fmt.Errorf("scan allergen config: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAllergen upserts a household's entry for one allergen key. The key
// must belong to the closed detector set.
func SetAllergen(ctx context.Context, db *sql.DB, householdID, key, severity string, active bool) (AllergenConfig, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !validAllergenKey(key) {
		return AllergenConfig{}, common.NewValidationError(fmt.Sprintf("unknown allergen key %q", key))
	}
	if severity != SeverityExclude && severity != SeverityWarn {
		return AllergenConfig{}, common.NewValidationError(fmt.Sprintf("invalid severity %q", severity))
	}

	a := AllergenConfig{
		HouseholdID: householdID,
		AllergenKey: key,
		Severity:    severity,
		IsActive:    active,
	}
	err := db.QueryRowContext(ctx, `
SELECT id FROM household_allergens WHERE household_id = ? AND allergen_key = ?`,
		householdID, key).Scan(&a.ID)
	switch {
	case err == sql.ErrNoRows:
		a.ID = common.GenerateUUID()
		_, err = db.ExecContext(ctx, `
INSERT INTO household_allergens(id, household_id, allergen_key, severity, is_active)
VALUES(?, ?, ?, ?, ?)`, a.ID, householdID, key, severity, boolInt(active))
		if err != nil {
			return AllergenConfig{}, fmt.Errorf("insert allergen config: %w", err)
		}
	case err != nil:
		return AllergenConfig{}, fmt.Errorf("lookup allergen config: %w", err)
	default:
		_, err = db.ExecContext(ctx, `
UPDATE household_allergens SET severity = ?, is_active = ? WHERE id = ?`,
			severity, boolInt(active), a.ID)
		if err != nil {
			return AllergenConfig{}, fmt.Errorf("update allergen config: %w", err)
		}
	}
	return a, nil
}

func validAllergenKey(key string) bool {
	for _, k := range allergen.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ListPantry returns a household's pantry items, name-ordered.
func ListPantry(ctx context.Context, db *sql.DB, householdID string) ([]PantryItem, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, household_id, ingredient_name, quantity, unit, expiry_date, category, added_at, updated_at
FROM pantry_items WHERE household_id = ?
ORDER BY ingredient_name`, householdID)
	if err != nil {
		return nil, fmt.Errorf("load pantry: %w", err)
	}
	defer rows.Close()

	var out []PantryItem
	for rows.Next() {
		var item PantryItem
		var qty sql.NullFloat64
		var unit, expiry, category sql.NullString
		if err := rows.Scan(&item.ID, &item.HouseholdID, &item.IngredientName,
			&qty, &unit, &expiry, &category, &item.AddedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pantry item: %w", err)
		}
		if qty.Valid {
			item.Quantity = &qty.Float64
		}
		if unit.Valid {
			item.Unit = &unit.String
		}
		if expiry.Valid {
			item.ExpiryDate = &expiry.String
		}
		if category.Valid {
			item.Category = &category.String
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// AddPantryItem inserts a pantry item with a generated id.
func AddPantryItem(ctx context.Context, db *sql.DB, item PantryItem) (PantryItem, error) {
	item.IngredientName = strings.TrimSpace(item.IngredientName)
	if item.IngredientName == "" {
		return PantryItem{}, common.NewValidationError("ingredient_name is required")
	}
	item.ID = common.GenerateUUID()
	item.AddedAt = nowString()
	item.UpdatedAt = item.AddedAt

	_, err := db.ExecContext(ctx, `
INSERT INTO pantry_items(id, household_id, ingredient_name, quantity, unit, expiry_date, category, added_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.HouseholdID, item.IngredientName,
		nullFloat(item.Quantity), nullString(item.Unit),
		nullString(item.ExpiryDate), nullString(item.Category),
		item.AddedAt, item.UpdatedAt)
	if err != nil {
		return PantryItem{}, fmt.Errorf("insert pantry item: %w", err)
	}
	return item, nil
}

// RemovePantryItem deletes a pantry item scoped to its household.
func RemovePantryItem(ctx context.Context, db *sql.DB, householdID, itemID string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM pantry_items WHERE id = ? AND household_id = ?`, itemID, householdID)
	if err != nil {
		return fmt.Errorf("delete pantry item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FavoriteRecipeIDs returns the recipe ids favorited by a user or by
// anyone in the household when userID is empty.
func FavoriteRecipeIDs(ctx context.Context, db *sql.DB, householdID, userID string) ([]int64, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userID != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT recipe_id FROM favorites WHERE user_id = ?`, userID)
	} else if householdID != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT recipe_id FROM favorites WHERE household_id = ?`, householdID)
	} else {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFavorites returns favorite rows for a user.
func ListFavorites(ctx context.Context, db *sql.DB, userID string) ([]Favorite, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, recipe_id, COALESCE(user_id, ''), COALESCE(household_id, ''), created_at
FROM favorites WHERE user_id = ?
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.RecipeID, &f.UserID, &f.HouseholdID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// AddFavorite saves a recipe for a user; saving twice is a no-op that
// returns the existing row.
func AddFavorite(ctx context.Context, db *sql.DB, householdID, userID string, recipeID int64) (Favorite, error) {
	var existing Favorite
	err := db.QueryRowContext(ctx, `
SELECT id, recipe_id, COALESCE(user_id, ''), COALESCE(household_id, ''), created_at
FROM favorites WHERE user_id = ? AND recipe_id = ?`, userID, recipeID).
		Scan(&existing.ID, &existing.RecipeID, &existing.UserID, &existing.HouseholdID, &existing.CreatedAt)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return Favorite{}, fmt.Errorf("lookup favorite: %w", err)
	}

	f := Favorite{
		ID:          common.GenerateUUID(),
		RecipeID:    recipeID,
		UserID:      userID,
		HouseholdID: householdID,
		CreatedAt:   nowString(),
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO favorites(id, recipe_id, user_id, household_id, created_at)
VALUES(?, ?, ?, ?, ?)`,
		f.ID, f.RecipeID, nullIfEmpty(f.UserID), nullIfEmpty(f.HouseholdID), f.CreatedAt)
	if err != nil {
		return Favorite{}, fmt.Errorf("insert favorite: %w", err)
	}
	return f, nil
}

// RemoveFavorite unsaves a recipe for a user.
func RemoveFavorite(ctx context.Context, db *sql.DB, userID string, recipeID int64) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullIfEmpty(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
