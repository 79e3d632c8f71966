// Package match decides whether a scraped listing title refers to the
// vehicle named by a "Brand Model" search term. It exposes a continuous
// fuzzy score with hard brand/model gates, a brand-scoped variant for
// sources that already filter by brand, and a generator of alternate
// search phrasings. Everything in this package is a pure function over
// its inputs: no I/O, no logging, safe to call from any goroutine.
package match

import "strings"

// Sentinel scores returned by the categorical gates. They are deliberately
// distinct so a tuning run can tell the rejection reasons apart, and all of
// them sit well below any workable threshold, so no configured threshold can
// ever classify a gated pair as relevant.
const (
	// ScoreBrandMismatch is returned when the search term's brand token
	// does not appear in the title at all.
	ScoreBrandMismatch = 0.1
	// ScoreNumberMismatch is returned when the search term names a model
	// number (250, 1090) and the title's numbers share none of them.
	ScoreNumberMismatch = 0.15
	// ScoreModelMismatch is returned when none of the search term's model
	// words relate to any title word ("Ninja" against "KFX"). Shared brand
	// and displacement alone must not make two distinct model lines match.
	ScoreModelMismatch = 0.2

	// Weights for the blended score once every gate has passed.
	jaccardWeight  = 0.6
	sequenceWeight = 0.4
)

// Score computes a fuzzy match score in [0.0, 1.0] between a search term
// and a listing title. 1.0 means one normalized string contains the other;
// the sentinel constants mark categorical mismatches; anything else is a
// blend of token-set overlap and character-level similarity.
func Score(searchTerm, title string) float64 {
	searchNorm := Normalize(searchTerm)
	titleNorm := Normalize(title)

	if searchNorm != "" && titleNorm != "" &&
		(strings.Contains(titleNorm, searchNorm) || strings.Contains(searchNorm, titleNorm)) {
		return 1.0
	}

	searchWords := WordTokens(searchTerm)
	titleWords := WordTokens(title)
	if len(searchWords) == 0 {
		return 0.0
	}

	brand := brandToken(searchTerm)
	if brand == "" {
		return ScoreBrandMismatch
	}
	if _, ok := titleWords[brand]; !ok {
		return ScoreBrandMismatch
	}

	searchNums := ModelNumbers(searchTerm)
	if len(searchNums) > 0 && !intersects(searchNums, ModelNumbers(title)) {
		return ScoreNumberMismatch
	}

	if !modelWordsRelate(searchNorm, titleWords) {
		return ScoreModelMismatch
	}

	union := len(searchWords)
	inter := 0
	for w := range titleWords {
		if _, ok := searchWords[w]; ok {
			inter++
		} else {
			union++
		}
	}
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	return jaccardWeight*jaccard + sequenceWeight*SequenceRatio(searchNorm, titleNorm)
}

// IsRelevant reports whether title plausibly denotes the vehicle named by
// searchTerm, at the given source-specific threshold.
func IsRelevant(searchTerm, title string, threshold float64) bool {
	return Score(searchTerm, title) >= threshold
}

// brandToken returns the normalized first whitespace token of the search
// term. Real listing titles essentially never name the brand anywhere but
// up front, so the leading token is taken as the brand without ceremony.
func brandToken(searchTerm string) string {
	fields := strings.Fields(searchTerm)
	if len(fields) == 0 {
		return ""
	}
	return Normalize(fields[0])
}

// modelWordsRelate reports whether any alphabetic model word of the
// normalized search term appears in (or overlaps with) some title token.
// Purely numeric words are excluded: displacement is the number gate's
// business. A single shared word like "street" is enough; the blended
// score still has to clear the threshold afterwards.
func modelWordsRelate(searchNorm string, titleWords map[string]struct{}) bool {
	fields := strings.Fields(searchNorm)
	if len(fields) < 2 {
		return true
	}
	checked := false
	for _, w := range fields[1:] {
		if len(w) < 2 || isNumeric(w) {
			continue
		}
		checked = true
		for t := range titleWords {
			if strings.Contains(t, w) || strings.Contains(w, t) {
				return true
			}
		}
	}
	return !checked
}

// IsRelevantBrandScoped validates only the model portion of searchTerm
// against title. It exists for sources whose query is already scoped to a
// brand, so repeating the brand check would be pointless. Argument order
// follows the call sites: the scraped title comes first.
func IsRelevantBrandScoped(title, searchTerm string, threshold float64) bool {
	parts := strings.SplitN(strings.TrimSpace(searchTerm), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		// Brand-only search term: nothing to validate.
		return true
	}

	model := strings.ToLower(strings.TrimSpace(parts[1]))
	modelWords := strings.Fields(model)
	titleLower := strings.ToLower(title)
	titleNorm := Normalize(title)
	titleTokens := strings.Fields(titleNorm)

	// Models that carry a number must share one with the title. "Street 750"
	// must never ride along with "Street Glide" on the word overlap below.
	hasNumber := false
	for _, w := range modelWords {
		if isNumeric(strings.NewReplacer(",", "", ".", "").Replace(w)) {
			hasNumber = true
			break
		}
	}
	if hasNumber {
		modelNums := digitRuns(model)
		if len(modelNums) > 0 && !intersects(modelNums, digitRuns(titleLower)) {
			return false
		}
	}

	matching := 0
	for _, w := range modelWords {
		wn := Normalize(w)
		if len(wn) == 1 && !isNumeric(wn) {
			// Single-letter model codes collide with longer ones ("G" is a
			// substring of "GS"), so they only count against a standalone
			// title token, or one fused with digits ("G310"). A miss here is
			// a hard reject: the letter IS the model line.
			if !singleLetterMatches(wn, titleTokens) {
				return false
			}
			matching++
			continue
		}
		if wn != "" && strings.Contains(titleNorm, wn) {
			matching++
		} else if strings.Contains(titleLower, w) {
			matching++
		}
	}

	ratio := 1.0
	if len(modelWords) > 0 {
		ratio = float64(matching) / float64(len(modelWords))
	}
	return ratio >= threshold
}

// singleLetterMatches reports whether the one-letter model code w matches a
// title token exactly or fused with digits on either side.
func singleLetterMatches(w string, titleTokens []string) bool {
	for _, t := range titleTokens {
		if t == w {
			return true
		}
		if strings.HasPrefix(t, w) && isNumeric(t[len(w):]) {
			return true
		}
		if strings.HasSuffix(t, w) && isNumeric(t[:len(t)-len(w)]) {
			return true
		}
	}
	return false
}
