// Package tags maps a recipe's free-text tag set to cuisine, meal type,
// dietary tags and difficulty using fixed lookup tables.
package tags

import "strings"

// Classification is the result of classifying one recipe's tag set.
type Classification struct {
	Cuisine     string   `json:"cuisine"`
	MealType    string   `json:"mealType"`
	DietaryTags []string `json:"dietaryTags"`
	Difficulty  string   `json:"difficulty"`
}

var cuisineTable = map[string]string{
	"italian": "italian", "mexican": "mexican", "chinese": "chinese",
	"japanese": "japanese", "indian": "indian", "thai": "thai",
	"french": "french", "greek": "greek", "korean": "korean",
	"vietnamese": "vietnamese", "mediterranean": "mediterranean",
	"middle-eastern": "middle-eastern", "caribbean": "caribbean",
	"african": "african", "american": "american", "southern": "southern",
	"cajun": "cajun", "tex-mex": "tex-mex", "spanish": "spanish",
	"german": "german", "british": "british",
}

var mealTypeTable = map[string]string{
	"breakfast": "breakfast", "brunch": "breakfast",
	"lunch": "lunch", "dinner": "dinner", "main-dish": "dinner",
	"snack": "snack", "appetizer": "snack", "dessert": "dessert",
	"side-dish": "side",
}

var dietaryKeys = map[string]struct{}{
	"vegetarian": {}, "vegan": {}, "gluten-free": {}, "dairy-free": {},
	"low-carb": {}, "keto": {}, "paleo": {}, "whole30": {}, "low-fat": {},
	"low-sodium": {}, "sugar-free": {}, "nut-free": {},
}

// Classify resolves cuisine, meal type, dietary tags and difficulty from
// a recipe's tag list. Tags are case-folded and deduplicated, then
// visited in first-occurrence order: cuisine and meal type are assigned
// on first match and never overwritten, dietary tags collect every
// match, and difficulty is overwritten by later matches. Reimports must
// classify identically, so the first-wins/last-wins asymmetry is part
// of the contract.
func Classify(tagList []string) Classification {
	seen := make(map[string]struct{}, len(tagList))
	ordered := make([]string, 0, len(tagList))
	for _, t := range tagList {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		ordered = append(ordered, t)
	}

	var c Classification
	c.DietaryTags = make([]string, 0, 2)

	for _, tag := range ordered {
		if c.Cuisine == "" {
			if v, ok := cuisineTable[tag]; ok {
				c.Cuisine = v
			}
		}
		if c.MealType == "" {
			if v, ok := mealTypeTable[tag]; ok {
				c.MealType = v
			}
		}
		if _, ok := dietaryKeys[tag]; ok {
			c.DietaryTags = append(c.DietaryTags, tag)
		}
		switch tag {
		case "easy", "beginner-cook":
			c.Difficulty = "easy"
		case "intermediate":
			c.Difficulty = "medium"
		case "advanced", "difficult":
			c.Difficulty = "hard"
		}
	}

	return c
}
