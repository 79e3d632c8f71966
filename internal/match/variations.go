package match

import "strings"

// fillerSuffixes are trim/ABS style tokens that sites drop or add at will.
var fillerSuffixes = map[string]struct{}{
	"SX":  {},
	"GS":  {},
	"X":   {},
	"SE":  {},
	"ABS": {},
}

// Variations expands a "Brand Model" search term into alternate phrasings to
// try against a site's own search box, most specific first. The original
// term is always the first element. Results are deduplicated
// case-insensitively in generation order, and a term with no model portion
// comes back unchanged as a singleton: there is no safe rewrite without a
// separable brand.
func Variations(searchTerm string) []string {
	variations := []string{searchTerm}

	parts := strings.Fields(searchTerm)
	if len(parts) < 2 {
		return variations
	}

	brand := parts[0]
	modelParts := parts[1:]
	modelStr := strings.Join(modelParts, " ")

	add := func(model string) {
		variations = append(variations, brand+" "+model)
	}

	// Hyphen removal: V-STROM and VSTROM index differently everywhere.
	if noHyphens := strings.ReplaceAll(modelStr, "-", ""); noHyphens != modelStr {
		add(noHyphens)
	}

	// Truncation to the first model word.
	if len(modelParts) > 1 {
		add(modelParts[0])
	}

	// First model word carrying a digit, for sites that index on displacement.
	for _, p := range modelParts {
		if containsDigit(p) {
			add(p)
			break
		}
	}

	// Filler suffixes stripped out. A model made entirely of fillers would
	// leave an empty string; never emit a bare brand for that.
	kept := make([]string, 0, len(modelParts))
	for _, p := range modelParts {
		if _, filler := fillerSuffixes[strings.ToUpper(p)]; !filler {
			kept = append(kept, p)
		}
	}
	if trimmed := strings.Join(kept, " "); trimmed != "" && trimmed != modelStr {
		add(trimmed)
	}

	// Spaced number collapsed into the name: "G 310" also sells as "G310".
	if len(modelParts) >= 2 {
		numeric := false
		for _, p := range modelParts {
			if isNumeric(p) {
				numeric = true
				break
			}
		}
		if combined := strings.Join(modelParts, ""); numeric && combined != modelStr {
			add(combined)
		}
	}

	seen := make(map[string]struct{}, len(variations))
	unique := variations[:0]
	for _, v := range variations {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}
