// Package allergen implements conservative pattern-based allergen
// detection over ingredient text. False positives are preferred over
// false negatives: patterns are deliberately broad.
package allergen

import (
	"regexp"
	"sort"
	"strings"
)

// allergenPatterns maps each allergen key to its ordered detection
// patterns. The key is flagged as soon as any one pattern matches.
var allergenPatterns = map[string][]*regexp.Regexp{
	"peanut": compileAll(
		`\bpeanut`,
		`\bgroundnut`,
		`\barachis`,
		`\bsatay\s+sauce`,
		`\bkung\s+pao`,
		`\bgado\s+gado`,
		`\bmixed\s+nuts`,
		`\bnut\s+butter`,
		`\bnut\s+mix`,
	),
	"treenut": compileAll(
		`\balmond`,
		`\bcashew`,
		`\bwalnut`,
		`\bpecan`,
		`\bpistachio`,
		`\bmacadamia`,
		`\bhazelnut`,
		`\bfilbert`,
		`\bbrazil\s+nut`,
		`\bchestnut`,
		`\bpine\s*nut`,
		`\bpraline`,
		`\bmarzipan`,
		`\bfrangipane`,
		`\bnougat`,
		`\bmixed\s+nuts`,
		`\bnut\s+butter`,
		`\bnut\s+mix`,
		`\bnut\s+meal`,
		`\bnut\s+flour`,
	),
	"dairy": compileAll(
		`\bmilk\b`,
		`\bcream\b`,
		`\bcheese`,
		`\bbutter\b`,
		`\byogurt`,
		`\byoghurt`,
		`\bwhey\b`,
		`\bcasein`,
		`\blactose`,
		`\bghee\b`,
		`\bkefir`,
		`\bricotta`,
		`\bparmesan`,
		`\bmozzarella`,
		`\bcheddar`,
		`\bgouda`,
		`\bbrie\b`,
		`\bcurd`,
		`\bhalf\s*and\s*half`,
		`\bsour\s+cream`,
		`\bcream\s+cheese`,
		`\bice\s+cream`,
		`\bcondensed\s+milk`,
		`\bevaporated\s+milk`,
		`\bbuttermilk`,
	),
	"egg": compileAll(
		`\begg`,
		`\bmeringue`,
		`\bmayonnaise`,
		`\bmayo\b`,
		`\baioli`,
		`\bcustard`,
		`\bhollandaise`,
	),
	"wheat": compileAll(
		`\bwheat`,
		`\bflour\b`,
		`\bbread`,
		`\bpasta\b`,
		`\bnoodle`,
		`\bcouscous`,
		`\bbulgur`,
		`\bseitan`,
		`\bsemolina`,
		`\bfarina`,
		`\bspelt`,
		`\bkamut`,
		`\bdurum`,
		`\btortilla`,
		`\bpita`,
		`\bcracker`,
		`\bbreadcrumb`,
		`\bpanko`,
		`\bcroissant`,
		`\bcrouton`,
	),
	// Wheat patterns are deliberately a subset condition of gluten; both
	// keys may be flagged for the same ingredient.
	"gluten": compileAll(
		`\bwheat`,
		`\bbarley`,
		`\brye\b`,
		`\boat`,
		`\bgluten`,
		`\bseitan`,
		`\bflour\b`,
		`\bsoy\s+sauce`,
		`\bmalt`,
		`\bbeer\b`,
	),
	"soy": compileAll(
		`\bsoy\b`,
		`\bsoya`,
		`\bedamame`,
		`\btofu`,
		`\btempeh`,
		`\bmiso\b`,
		`\btamari`,
		`\bsoy\s+sauce`,
		`\bsoy\s+milk`,
		`\bsoybean`,
	),
	"fish": compileAll(
		`\bfish\b`,
		`\bsalmon`,
		`\btuna`,
		`\bcod\b`,
		`\btilapia`,
		`\bhalibut`,
		`\banchov`,
		`\bsardine`,
		`\btrout`,
		`\bswordfish`,
		`\bbass\b`,
		`\bmahi`,
		`\bfish\s+sauce`,
		`\bworcestershire`,
	),
	"shellfish": compileAll(
		`\bshrimp`,
		`\bprawn`,
		`\bcrab\b`,
		`\blobster`,
		`\bcrawfish`,
		`\bcrayfish`,
		`\bclam`,
		`\bmussel`,
		`\boyster`,
		`\bscallop`,
		`\bsquid`,
		`\bcalamari`,
		`\boctopus`,
		`\bshellfish`,
	),
	"sesame": compileAll(
		`\bsesame`,
		`\btahini`,
		`\bhalva`,
		`\bhummus`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Detect returns the sorted, deduplicated set of allergen keys flagged
// for the given ingredient strings. Pure function: same input, same
// output.
func Detect(ingredients []string) []string {
	blob := strings.Join(ingredients, " ")

	detected := make([]string, 0, 4)
	for key, patterns := range allergenPatterns {
		for _, pattern := range patterns {
			if pattern.MatchString(blob) {
				detected = append(detected, key)
				break
			}
		}
	}

	sort.Strings(detected)
	return detected
}

// Keys returns the closed set of allergen keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(allergenPatterns))
	for k := range allergenPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
