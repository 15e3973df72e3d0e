// Package recipe owns recipe CRUD for user-authored recipes, keeping
// derived fields and the search index consistent with every mutation.
package recipe

import "meal-planner/internal/core/ingredient"

// Recipe is the full stored recipe model.
type Recipe struct {
	ID                    int64              `json:"id"`
	Title                 string             `json:"title"`
	Description           *string            `json:"description"`
	IngredientsRaw        []string           `json:"ingredients_raw"`
	IngredientsParsed     []ingredient.Parsed `json:"ingredients_parsed"`
	Instructions          []string           `json:"instructions"`
	Cuisine               *string            `json:"cuisine"`
	MealType              *string            `json:"meal_type"`
	TotalTimeMinutes      *int64             `json:"total_time_minutes"`
	Difficulty            *string            `json:"difficulty"`
	DietaryTags           []string           `json:"dietary_tags"`
	AllergenFlags         []string           `json:"allergen_flags"`
	NormalizedIngredients []string           `json:"normalized_ingredients"`
	SourceURL             *string            `json:"source_url"`
	SourceDataset         *string            `json:"source_dataset"`
	Rating                *float64           `json:"rating"`
	RatingCount           *int64             `json:"rating_count"`
	ImportedAt            *string            `json:"imported_at"`
}

// Input is the caller-supplied recipe payload for create and update.
type Input struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Ingredients      []string `json:"ingredients"`
	Instructions     []string `json:"instructions"`
	Cuisine          string   `json:"cuisine"`
	MealType         string   `json:"meal_type"`
	TotalTimeMinutes int      `json:"total_time_minutes"`
	Difficulty       string   `json:"difficulty"`
}
