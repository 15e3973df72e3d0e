package importer

import (
	"encoding/json"
	"strings"
)

// ParsePythonList parses the dataset's Python-style list strings, e.g.
// "['winter squash', 'mexican seasoning']". First attempt: substitute
// quotes and parse as JSON. Fallback: strip brackets, split on commas,
// strip quotes. Never fails; malformed input degrades to a best-effort
// (possibly empty) slice.
func ParsePythonList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []string{}
	}

	if items, ok := parseQuoteSubstituted(raw); ok {
		return items
	}

	// Fallback tokenizer.
	trimmed := strings.TrimPrefix(raw, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.Split(trimmed, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), `'"`))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseQuoteSubstituted(raw string) ([]string, bool) {
	jsonStr := strings.ReplaceAll(raw, "'", `"`)
	var items []string
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, false
	}
	return items, true
}
