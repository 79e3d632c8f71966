package match

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	modelNumRe   = regexp.MustCompile(`\b\d{2,4}\b`)
	digitRunRe   = regexp.MustCompile(`\d+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips everything that is not a word character
// or whitespace, and collapses whitespace runs to single spaces. Scraped
// titles often carry non-breaking spaces; those are treated as ordinary
// spaces so "12 345" stays two tokens apart from its unit.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// WordTokens normalizes text and returns its words as a set, dropping
// single-character tokens (year digits survive, stray letters do not).
func WordTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(text)) {
		if len(w) > 1 {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

// ModelNumbers extracts standalone 2-4 digit numbers ("250", "1090") from
// normalized text. Longer runs like VIN fragments are ignored.
func ModelNumbers(text string) map[string]struct{} {
	nums := make(map[string]struct{})
	for _, n := range modelNumRe.FindAllString(Normalize(text), -1) {
		nums[n] = struct{}{}
	}
	return nums
}

// digitRuns extracts every maximal run of digits from text.
func digitRuns(text string) map[string]struct{} {
	runs := make(map[string]struct{})
	for _, n := range digitRunRe.FindAllString(text, -1) {
		runs[n] = struct{}{}
	}
	return runs
}

// intersects reports whether two string sets share at least one element.
func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// isNumeric reports whether s is non-empty and consists only of digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// containsDigit reports whether s contains at least one digit.
func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
