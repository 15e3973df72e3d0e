package allergen

import (
	"reflect"
	"testing"
)

// One known positive ingredient per key.
var positives = map[string]string{
	"peanut":    "creamy peanut butter",
	"treenut":   "chopped almonds",
	"dairy":     "whole milk",
	"egg":       "2 large eggs",
	"wheat":     "all-purpose flour",
	"gluten":    "pearl barley",
	"soy":       "firm tofu",
	"fish":      "salmon fillet",
	"shellfish": "jumbo shrimp",
	"sesame":    "tahini paste",
}

func TestDetectPositives(t *testing.T) {
	t.Parallel()

	for key, ingredient := range positives {
		key, ingredient := key, ingredient
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			flags := Detect([]string{ingredient})
			if !contains(flags, key) {
				t.Fatalf("Detect(%q) = %v, expected %q flagged", ingredient, flags, key)
			}
		})
	}
}

func TestDetectNegatives(t *testing.T) {
	t.Parallel()

	flags := Detect([]string{"carrots", "olive oil", "sea salt", "black pepper"})
	if len(flags) != 0 {
		t.Fatalf("expected no flags for plain vegetables, got %v", flags)
	}
}

func TestDetectWheatImpliesGluten(t *testing.T) {
	t.Parallel()

	flags := Detect([]string{"2 cups wheat flour"})
	if !contains(flags, "wheat") || !contains(flags, "gluten") {
		t.Fatalf("wheat flour should flag both wheat and gluten, got %v", flags)
	}
}

func TestDetectSortedDeduplicatedAndPure(t *testing.T) {
	t.Parallel()

	in := []string{"milk", "cheddar cheese", "butter", "shrimp"}
	first := Detect(in)
	for i := 1; i < len(first); i++ {
		if first[i-1] >= first[i] {
			t.Fatalf("flags not sorted unique: %v", first)
		}
	}
	for i := 0; i < 5; i++ {
		if got := Detect(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Detect not stable: %v vs %v", got, first)
		}
	}
}

func TestDetectWordBoundaries(t *testing.T) {
	t.Parallel()

	// "coconut" embeds "nut" but no nut pattern may fire on the
	// substring.
	flags := Detect([]string{"coconut oil"})
	if contains(flags, "treenut") || contains(flags, "peanut") {
		t.Fatalf("coconut must not flag nut keys, got %v", flags)
	}
}

func TestKeysClosedSet(t *testing.T) {
	t.Parallel()

	want := []string{"dairy", "egg", "fish", "gluten", "peanut", "sesame", "shellfish", "soy", "treenut", "wheat"}
	if got := Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
