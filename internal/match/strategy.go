package match

import (
	"fmt"
	"strings"
)

// Candidate is the slice of a scraped listing the relevance decision sees.
// Make and Model are only populated by sources that expose them as
// structured fields; Title is always present.
type Candidate struct {
	Title string
	Make  string
	Model string
}

// Strategy decides whether a candidate listing is relevant to a search
// term. Each listing source gets the variant matching its title
// conventions, all sharing the same normalization and gate primitives, so
// thresholds cannot drift between near-duplicate implementations.
type Strategy interface {
	// Relevant reports whether the candidate refers to the vehicle named
	// by searchTerm.
	Relevant(searchTerm string, c Candidate) bool
	// Threshold returns the configured cutoff this strategy applies.
	Threshold() float64
}

// SubstringAndRatioStrategy is the general-purpose fuzzy matcher: the full
// Score pipeline (substring short-circuit, brand and number gates, blended
// ratio) against the candidate title.
type SubstringAndRatioStrategy struct {
	MatchThreshold float64
}

// Relevant implements Strategy.
func (s SubstringAndRatioStrategy) Relevant(searchTerm string, c Candidate) bool {
	return IsRelevant(searchTerm, c.Title, s.MatchThreshold)
}

// Threshold implements Strategy.
func (s SubstringAndRatioStrategy) Threshold() float64 { return s.MatchThreshold }

// BrandScopedModelStrategy validates only the model portion of the search
// term. It belongs to sources queried by brand-specific URLs, where every
// returned listing already carries the right brand.
type BrandScopedModelStrategy struct {
	MatchThreshold float64
}

// Relevant implements Strategy.
func (s BrandScopedModelStrategy) Relevant(searchTerm string, c Candidate) bool {
	return IsRelevantBrandScoped(c.Title, searchTerm, s.MatchThreshold)
}

// Threshold implements Strategy.
func (s BrandScopedModelStrategy) Threshold() float64 { return s.MatchThreshold }

// MakeModelPrefilterStrategy guards the fuzzy title match with a word
// coverage check against the source's structured make+model fields. It
// exists for cache-backed sources where every stored listing is compared
// against every search term, so cheap early rejection matters and the
// structured fields are trustworthy.
type MakeModelPrefilterStrategy struct {
	MatchThreshold float64
	// MinWordCoverage is the fraction of search term words that must appear
	// in the make+model string before the title is even scored.
	MinWordCoverage float64
}

// Relevant implements Strategy.
func (s MakeModelPrefilterStrategy) Relevant(searchTerm string, c Candidate) bool {
	searchParts := strings.Fields(strings.ToLower(searchTerm))
	if len(searchParts) > 0 {
		fullName := strings.ToLower(strings.TrimSpace(c.Make + " " + c.Model))
		matching := 0
		for _, part := range searchParts {
			if strings.Contains(fullName, part) {
				matching++
			}
		}
		if float64(matching)/float64(len(searchParts)) < s.MinWordCoverage {
			return false
		}
	}
	return IsRelevant(searchTerm, c.Title, s.MatchThreshold)
}

// Threshold implements Strategy.
func (s MakeModelPrefilterStrategy) Threshold() float64 { return s.MatchThreshold }

// DefaultMinWordCoverage is the make+model coverage the prefilter demands;
// below it, "BMW G 310" would start matching "BMW C 400" stock.
const DefaultMinWordCoverage = 0.6

// ForSource returns the relevance strategy for a listing source, using the
// source's configured threshold.
func ForSource(source string, thresholds map[string]float64) (Strategy, error) {
	threshold, ok := thresholds[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("no match threshold configured for source %q", source)
	}
	switch strings.ToLower(source) {
	case "autotrader":
		return BrandScopedModelStrategy{MatchThreshold: threshold}, nil
	case "webuycars":
		return MakeModelPrefilterStrategy{
			MatchThreshold:  threshold,
			MinWordCoverage: DefaultMinWordCoverage,
		}, nil
	default:
		return SubstringAndRatioStrategy{MatchThreshold: threshold}, nil
	}
}
