package ingredient

import (
	"strconv"
	"strings"
)

// Known measurement units, keyed by their canonical form. Plural and
// abbreviated spellings map onto the same canonical unit.
var unitAliases = map[string]string{
	"cup": "cup", "cups": "cup", "c": "cup",
	"tablespoon": "tablespoon", "tablespoons": "tablespoon", "tbsp": "tablespoon", "tbs": "tablespoon", "tb": "tablespoon",
	"teaspoon": "teaspoon", "teaspoons": "teaspoon", "tsp": "teaspoon",
	"ounce": "ounce", "ounces": "ounce", "oz": "ounce",
	"pound": "pound", "pounds": "pound", "lb": "pound", "lbs": "pound",
	"gram": "gram", "grams": "gram", "g": "gram",
	"kilogram": "kilogram", "kilograms": "kilogram", "kg": "kilogram",
	"milliliter": "milliliter", "milliliters": "milliliter", "ml": "milliliter",
	"liter": "liter", "liters": "liter", "litre": "liter", "litres": "liter", "l": "liter",
	"quart": "quart", "quarts": "quart", "qt": "quart",
	"pint": "pint", "pints": "pint", "pt": "pint",
	"gallon": "gallon", "gallons": "gallon",
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"package": "package", "packages": "package", "pkg": "package",
	"slice": "slice", "slices": "slice",
	"stick": "stick", "sticks": "stick",
	"bunch": "bunch", "bunches": "bunch",
	"pinch": "pinch", "pinches": "pinch",
	"dash": "dash", "dashes": "dash",
	"head": "head", "heads": "head",
	"stalk": "stalk", "stalks": "stalk",
	"sprig": "sprig", "sprigs": "sprig",
}

// Unicode vulgar fractions seen in scraped recipe text.
var vulgarFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75,
	'⅓': 1.0 / 3.0, '⅔': 2.0 / 3.0,
	'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
	'⅕': 0.2, '⅖': 0.4, '⅗': 0.6, '⅘': 0.8,
	'⅙': 1.0 / 6.0, '⅚': 5.0 / 6.0,
}

// extractQuantityUnit is the best-effort quantity/unit/name split. It
// handles integers, decimals, ASCII fractions ("1/2"), mixed numbers
// ("1 1/2"), unicode vulgar fractions ("½") and ranges ("1-2", first
// bound wins), optionally followed by a known unit. Returns ok=false
// when the line does not start with a recognizable quantity, in which
// case the caller falls back to treating the whole line as a name.
func extractQuantityUnit(line string) (qty *float64, unit string, rest string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, "", "", false
	}

	value, consumed := parseQuantityToken(fields[0])
	if consumed == 0 {
		return nil, "", "", false
	}
	idx := 1

	// Mixed number: "1 1/2 cups".
	if idx < len(fields) {
		if frac, n := parseFractionToken(fields[idx]); n > 0 {
			value += frac
			idx++
		}
	}

	if idx < len(fields) {
		if canonical, isUnit := unitAliases[normalizeUnitToken(fields[idx])]; isUnit {
			unit = canonical
			idx++
		}
	}

	rest = strings.Join(fields[idx:], " ")
	return &value, unit, rest, true
}

// parseQuantityToken parses the leading token of an ingredient line as a
// number. Returns the parsed value and 1 on success, 0 on failure.
func parseQuantityToken(tok string) (float64, int) {
	// Range: "1-2" takes the first bound.
	if dash := strings.IndexAny(tok, "-–"); dash > 0 {
		if v, n := parseQuantityToken(tok[:dash]); n > 0 {
			return v, 1
		}
	}

	if v, n := parseFractionToken(tok); n > 0 {
		return v, 1
	}

	// Leading digits with a trailing vulgar fraction: "1½".
	runes := []rune(tok)
	if len(runes) > 1 {
		if frac, isVulgar := vulgarFractions[runes[len(runes)-1]]; isVulgar {
			if whole, err := strconv.ParseFloat(string(runes[:len(runes)-1]), 64); err == nil {
				return whole + frac, 1
			}
		}
	}

	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return v, 1
	}
	return 0, 0
}

// parseFractionToken parses "1/2" or a single vulgar fraction rune.
func parseFractionToken(tok string) (float64, int) {
	if slash := strings.Index(tok, "/"); slash > 0 {
		num, errN := strconv.ParseFloat(tok[:slash], 64)
		den, errD := strconv.ParseFloat(tok[slash+1:], 64)
		if errN == nil && errD == nil && den != 0 {
			return num / den, 1
		}
		return 0, 0
	}
	runes := []rune(tok)
	if len(runes) == 1 {
		if v, isVulgar := vulgarFractions[runes[0]]; isVulgar {
			return v, 1
		}
	}
	return 0, 0
}

func normalizeUnitToken(tok string) string {
	return strings.Trim(strings.ToLower(tok), ".,")
}
