package ingredient

import (
	"reflect"
	"testing"
)

func TestParseLineQuantityUnitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		qty  float64
		unit string
		want string
		prep string
	}{
		{"whole number", "2 cups all-purpose flour", 2, "cup", "all-purpose flour", ""},
		{"decimal", "1.5 lbs ground beef", 1.5, "pound", "ground beef", ""},
		{"ascii fraction", "1/2 tsp salt", 0.5, "teaspoon", "salt", ""},
		{"mixed number", "1 1/2 cups sugar", 1.5, "cup", "sugar", ""},
		{"vulgar fraction", "½ cup butter", 0.5, "cup", "butter", ""},
		{"attached vulgar", "1½ cups milk", 1.5, "cup", "milk", ""},
		{"range takes first bound", "1-2 cloves garlic", 1, "clove", "garlic", ""},
		{"prep after comma", "2 cups flour, sifted", 2, "cup", "flour", "sifted"},
		{"no unit", "3 eggs", 3, "", "eggs", ""},
		{"abbreviated unit", "2 tbsp olive oil", 2, "tablespoon", "olive oil", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := ParseLine(tt.in)
			if p.Quantity == nil || *p.Quantity != tt.qty {
				t.Fatalf("quantity = %v, want %v", p.Quantity, tt.qty)
			}
			if tt.unit == "" {
				if p.Unit != nil {
					t.Fatalf("unit = %q, want none", *p.Unit)
				}
			} else if p.Unit == nil || *p.Unit != tt.unit {
				t.Fatalf("unit = %v, want %q", p.Unit, tt.unit)
			}
			if p.Name != tt.want {
				t.Fatalf("name = %q, want %q", p.Name, tt.want)
			}
			if tt.prep == "" {
				if p.Prep != nil {
					t.Fatalf("prep = %q, want none", *p.Prep)
				}
			} else if p.Prep == nil || *p.Prep != tt.prep {
				t.Fatalf("prep = %v, want %q", p.Prep, tt.prep)
			}
		})
	}
}

func TestParseLineFallback(t *testing.T) {
	t.Parallel()

	// No leading quantity: the whole line, lowercased, becomes the name.
	p := ParseLine("Salt and Pepper to taste")
	if p.Quantity != nil || p.Unit != nil {
		t.Fatalf("expected no quantity or unit, got %+v", p)
	}
	if p.Name != "salt and pepper to taste" {
		t.Fatalf("name = %q", p.Name)
	}

}

func TestParseLineQuantityOnly(t *testing.T) {
	t.Parallel()

	// A line that is all quantity/unit keeps those fields; the name
	// stays empty rather than absorbing the measurement text.
	p := ParseLine("2 cups")
	if p.Quantity == nil || *p.Quantity != 2 {
		t.Fatalf("quantity = %v, want 2", p.Quantity)
	}
	if p.Unit == nil || *p.Unit != "cup" {
		t.Fatalf("unit = %v, want %q", p.Unit, "cup")
	}
	if p.Name != "" {
		t.Fatalf("name = %q, want empty", p.Name)
	}

	p = ParseLine("2")
	if p.Quantity == nil || *p.Quantity != 2 || p.Unit != nil || p.Name != "" {
		t.Fatalf("bare quantity should keep the quantity with empty name, got %+v", p)
	}
}

func TestParseLineStripsParentheticals(t *testing.T) {
	t.Parallel()

	p := ParseLine("1 can (14 oz) diced tomatoes")
	if p.Name != "diced tomatoes" {
		t.Fatalf("name = %q, want %q", p.Name, "diced tomatoes")
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Whole Milk",
		"diced tomatoes (canned), drained",
		"  all-purpose   flour ",
		"butter, softened",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		twice := NormalizeName(once)
		if once != twice {
			t.Fatalf("NormalizeName not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}

	if got := NormalizeName("Diced Tomatoes (canned), drained"); got != "diced tomatoes" {
		t.Fatalf("normalized = %q", got)
	}
}

func TestParseListDeduplicatesNormalized(t *testing.T) {
	t.Parallel()

	parsed, normalized := ParseList([]string{
		"2 cups flour",
		"1 cup Flour",
		"3 eggs",
		"",
	})
	if len(parsed) != 4 {
		t.Fatalf("parsed count = %d, want 4", len(parsed))
	}
	want := []string{"flour", "eggs"}
	if !reflect.DeepEqual(normalized, want) {
		t.Fatalf("normalized = %v, want %v", normalized, want)
	}
}
