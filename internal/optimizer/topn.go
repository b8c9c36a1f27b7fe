package optimizer

import (
	"container/heap"
	"sort"
)

// better orders builds by total damage, then fewer modifiers, then
// enumeration order. Sequence numbers are unique, so this is a strict total
// order and the ranking does not depend on insertion order.
func better(a, b Ranked) bool {
	if a.Result.Total != b.Result.Total {
		return a.Result.Total > b.Result.Total
	}
	if len(a.Candidate.Mods) != len(b.Candidate.Mods) {
		return len(a.Candidate.Mods) < len(b.Candidate.Mods)
	}
	return a.Candidate.Seq < b.Candidate.Seq
}

// rankHeap keeps the worst kept build at the root.
type rankHeap []Ranked

func (h rankHeap) Len() int           { return len(h) }
func (h rankHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h rankHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rankHeap) Push(x any)        { *h = append(*h, x.(Ranked)) }
func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topN is a bounded collection of the best builds seen so far.
type topN struct {
	limit int
	h     rankHeap
}

func newTopN(limit int) *topN {
	return &topN{limit: limit, h: make(rankHeap, 0, min(limit, 64))}
}

func (t *topN) offer(r Ranked) {
	if len(t.h) < t.limit {
		heap.Push(&t.h, r)
		return
	}
	if better(r, t.h[0]) {
		t.h[0] = r
		heap.Fix(&t.h, 0)
	}
}

func (t *topN) merge(other *topN) {
	for _, r := range other.h {
		t.offer(r)
	}
}

// sorted returns the kept builds, best first.
func (t *topN) sorted() []Ranked {
	out := make([]Ranked, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
