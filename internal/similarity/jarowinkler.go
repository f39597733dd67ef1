// Package similarity implements the overlap-detection core: a deterministic
// Jaro-Winkler metric, a cost-bounded hybrid lexical/semantic scorer, and a
// checker that cross-products candidate chunks against source documents.
package similarity

// JaroWinkler returns the character-level similarity of a and b in [0,1].
// Identical strings score 1, an empty operand scores 0. The matching window
// scan takes the first unmatched equal rune left to right; this order fixes
// the transposition count and must not change.
func JaroWinkler(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := max(len(ra), len(rb))/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(ra))
	bMatched := make([]bool, len(rb))
	matches := 0
	for i := range ra {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(rb) {
			hi = len(rb)
		}
		for j := lo; j < hi; j++ {
			if !bMatched[j] && rb[j] == ra[i] {
				aMatched[i] = true
				bMatched[j] = true
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0
	}

	// Count transpositions between the matched subsequences.
	transpositions := 0
	j := 0
	for i := range ra {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	jaro := (m/float64(len(ra)) + m/float64(len(rb)) + (m-float64(transpositions)/2)/m) / 3

	// Winkler boost for a shared prefix, capped at 4 runes.
	prefix := 0
	for i := 0; i < len(ra) && i < len(rb) && i < 4; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}
	return jaro + 0.1*float64(prefix)*(1-jaro)
}
