package tags

import (
	"reflect"
	"testing"
)

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	in := []string{"easy", "italian", "vegetarian", "vegan"}
	first := Classify(in)

	if first.Cuisine != "italian" {
		t.Fatalf("cuisine = %q, want italian", first.Cuisine)
	}
	if first.Difficulty != "easy" {
		t.Fatalf("difficulty = %q, want easy", first.Difficulty)
	}
	if !reflect.DeepEqual(first.DietaryTags, []string{"vegetarian", "vegan"}) {
		t.Fatalf("dietary = %v", first.DietaryTags)
	}

	for i := 0; i < 10; i++ {
		if got := Classify(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classify not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestClassifyFirstWinsCuisineAndMealType(t *testing.T) {
	t.Parallel()

	c := Classify([]string{"mexican", "italian", "dinner", "breakfast"})
	if c.Cuisine != "mexican" {
		t.Fatalf("cuisine = %q, want first match mexican", c.Cuisine)
	}
	if c.MealType != "dinner" {
		t.Fatalf("mealType = %q, want first match dinner", c.MealType)
	}
}

func TestClassifyLastWinsDifficulty(t *testing.T) {
	t.Parallel()

	c := Classify([]string{"easy", "intermediate", "advanced"})
	if c.Difficulty != "hard" {
		t.Fatalf("difficulty = %q, want last match hard", c.Difficulty)
	}
}

func TestClassifyMealTypeAliases(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"brunch":    "breakfast",
		"main-dish": "dinner",
		"appetizer": "snack",
		"side-dish": "side",
	}
	for tag, want := range tests {
		if c := Classify([]string{tag}); c.MealType != want {
			t.Fatalf("Classify(%q).MealType = %q, want %q", tag, c.MealType, want)
		}
	}
}

func TestClassifyCaseFoldsAndDeduplicates(t *testing.T) {
	t.Parallel()

	c := Classify([]string{"Vegan", " VEGAN ", "vegan"})
	if !reflect.DeepEqual(c.DietaryTags, []string{"vegan"}) {
		t.Fatalf("dietary = %v, want single vegan", c.DietaryTags)
	}
}

func TestClassifyUnknownTags(t *testing.T) {
	t.Parallel()

	c := Classify([]string{"weeknight", "60-minutes-or-less", "comfort-food"})
	if c.Cuisine != "" || c.MealType != "" || c.Difficulty != "" || len(c.DietaryTags) != 0 {
		t.Fatalf("unknown tags should classify to nothing, got %+v", c)
	}
}
