// Package ingredient turns free-text ingredient lines into structured
// quantity/unit/name/prep records and canonical names for matching.
package ingredient

import (
	"regexp"
	"strings"
)

// Parsed is the structured form of one ingredient line.
type Parsed struct {
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Name     string   `json:"name"`
	Prep     *string  `json:"prep"`
}

var parenPattern = regexp.MustCompile(`\(.*?\)`)

// ParseLine parses a single free-text ingredient line, e.g.
// "2 cups all-purpose flour, sifted". Quantity/unit extraction is
// best-effort; when it fails the whole trimmed, lowercased line becomes
// the name. A line that is nothing but quantity and unit keeps those
// fields and yields an empty name.
func ParseLine(raw string) Parsed {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return Parsed{Name: ""}
	}

	qty, unit, rest, ok := extractQuantityUnit(cleaned)
	if !ok {
		// Manual fallback: just lowercase the whole string as the name.
		return Parsed{Name: strings.ToLower(cleaned)}
	}

	name := strings.ToLower(strings.TrimSpace(rest))
	var prep *string

	// Everything after the first comma is a prep note.
	if idx := strings.Index(name, ","); idx > 0 {
		p := strings.TrimSpace(name[idx+1:])
		prep = &p
		name = strings.TrimSpace(name[:idx])
	}

	// Strip parenthetical notes.
	name = strings.TrimSpace(parenPattern.ReplaceAllString(name, ""))
	name = strings.Join(strings.Fields(name), " ")

	out := Parsed{Quantity: qty, Name: name, Prep: prep}
	if unit != "" {
		u := unit
		out.Unit = &u
	}
	return out
}

// NormalizeName canonicalizes an ingredient name for matching: lowercase,
// parentheticals stripped, truncated at the first comma, whitespace
// collapsed. Idempotent.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = parenPattern.ReplaceAllString(s, "")
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[:idx]
	}
	return strings.Join(strings.Fields(s), " ")
}

// ParseList parses every line and derives the normalized name set:
// non-empty normalized names in first-occurrence order, duplicates
// removed.
func ParseList(rawLines []string) (parsed []Parsed, normalized []string) {
	parsed = make([]Parsed, 0, len(rawLines))
	normalized = make([]string, 0, len(rawLines))
	seen := make(map[string]struct{}, len(rawLines))
	for _, line := range rawLines {
		p := ParseLine(line)
		parsed = append(parsed, p)
		n := NormalizeName(p.Name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	return parsed, normalized
}
