package match

// SequenceRatio computes a character-level similarity ratio between two
// strings as 2*M / T, where M is the length of their longest common
// subsequence and T the total length of both strings. The result is in
// [0.0, 1.0], symmetric, and 1.0 when the strings are equal. Callers are
// expected to pass already-normalized text.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(lcsLength(ra, rb)) / float64(total)
}

// lcsLength is the classic two-row LCS dynamic program. Titles are short
// (tens of characters), so the quadratic cost is irrelevant here.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
