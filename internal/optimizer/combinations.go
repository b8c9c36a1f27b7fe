package optimizer

import "math"

// CountCandidates returns sum C(n, k) for k = 0..maxSize, saturating at
// math.MaxInt. It is the number of subsets Optimize enumerates before
// cost and exclusion filtering.
func CountCandidates(n, maxSize int) int {
	if n < 0 || maxSize < 0 {
		return 0
	}
	maxSize = min(maxSize, n)
	total := 0
	c := 1 // C(n, 0)
	for k := 0; k <= maxSize; k++ {
		if k > 0 {
			num := n - k + 1
			if c > math.MaxInt/num {
				return math.MaxInt
			}
			c = c * num / k
		}
		if total > math.MaxInt-c {
			return math.MaxInt
		}
		total += c
	}
	return total
}

// forEachSubset calls fn with the index set of every subset of {0..n-1} of
// size 0..maxSize: sizes ascending, lexicographic within a size. idx is reused
// between calls. Returning false stops the walk.
func forEachSubset(n, maxSize int, fn func(idx []int) bool) {
	maxSize = min(maxSize, n)
	idx := make([]int, 0, max(maxSize, 0))
	for k := 0; k <= maxSize; k++ {
		idx = idx[:k]
		for i := range idx {
			idx[i] = i
		}
		for {
			if !fn(idx) {
				return
			}
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}
