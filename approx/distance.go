package approx

// substringDistance returns the minimum edit distance between pattern and
// any substring of text (Sellers' algorithm). An empty text costs
// len(pattern) edits.
func substringDistance(pattern, text []rune) int {
	m := len(pattern)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for i := range prev {
		prev[i] = i
	}

	best := prev[m]
	for _, c := range text {
		cur[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == c {
				cost = 0
			}
			cur[i] = min(prev[i-1]+cost, prev[i]+1, cur[i-1]+1)
		}
		if cur[m] < best {
			best = cur[m]
		}
		prev, cur = cur, prev
	}
	return best
}
