// Package fuzzy implements sequence-matcher similarity for short names.
// Box-name resolution depends on specific ratio cutoffs (0.8, relaxed to 0.5
// for single-letter box sets), so the ratio here follows the classic
// 2*matches/total formula over longest matching blocks.
package fuzzy

// longestMatch finds the longest matching block of a[alo:ahi] and b[blo:bhi].
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}
	besti, bestj, bestsize = alo, blo, 0
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

func countMatches(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + countMatches(a, b, alo, i, blo, j) + countMatches(a, b, i+k, ahi, j+k, bhi)
}

// Ratio returns a similarity measure in [0,1] between the two strings.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matches := countMatches(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(matches) / float64(total)
}

// ClosestMatch returns the candidate with the highest Ratio to word, provided
// it clears the cutoff. Earlier candidates win ties.
func ClosestMatch(word string, candidates []string, cutoff float64) (string, bool) {
	best := ""
	bestScore := 0.0
	found := false
	for _, cand := range candidates {
		score := Ratio(word, cand)
		if score >= cutoff && score > bestScore {
			best, bestScore, found = cand, score, true
		}
	}
	return best, found
}
