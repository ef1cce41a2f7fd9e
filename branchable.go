package bramble

import "container/heap"

// branchSet holds the completed, unblocked segments that may still take a
// child and have recovery tries left. It is a heap whose top is the first
// stall recovery candidate: childless segments before branched ones, then
// the one reaching furthest along the primary axis.
type branchSet struct {
	idx  []int
	segs *[]Segment
	axis Vec2
}

func (b *branchSet) Len() int { return len(b.idx) }

func (b *branchSet) Less(i, j int) bool {
	s := *b.segs
	x, y := &s[b.idx[i]], &s[b.idx[j]]
	if (x.BranchCount == 0) != (y.BranchCount == 0) {
		return x.BranchCount == 0
	}
	return x.End.Dot(b.axis) > y.End.Dot(b.axis)
}

func (b *branchSet) Swap(i, j int) {
	b.idx[i], b.idx[j] = b.idx[j], b.idx[i]
	s := *b.segs
	s[b.idx[i]].branchPos = i
	s[b.idx[j]].branchPos = j
}

func (b *branchSet) Push(x any) {
	i := x.(int)
	(*b.segs)[i].branchPos = len(b.idx)
	b.idx = append(b.idx, i)
}

func (b *branchSet) Pop() any {
	n := len(b.idx) - 1
	i := b.idx[n]
	b.idx = b.idx[:n]
	(*b.segs)[i].branchPos = -1
	return i
}

func (b *branchSet) reset() { b.idx = b.idx[:0] }

// addBranchable offers segment i to stall recovery when it qualifies.
func (t *Tree) addBranchable(i int) {
	s := &t.segments[i]
	if s.branchPos >= 0 || s.Growing() || s.Blocked() ||
		s.BranchCount >= t.profile.MaxBranches || s.misses >= t.profile.RecoveryMissLimit {
		return
	}
	heap.Push(&t.branchable, i)
}

func (t *Tree) removeBranchable(i int) {
	if pos := t.segments[i].branchPos; pos >= 0 {
		heap.Remove(&t.branchable, pos)
	}
}

// branched updates the set after segment i gained a child.
func (t *Tree) branched(i int) {
	s := &t.segments[i]
	switch {
	case s.branchPos < 0:
	case s.BranchCount >= t.profile.MaxBranches:
		t.removeBranchable(i)
	case s.BranchCount == 1:
		heap.Fix(&t.branchable, s.branchPos)
	}
}

// missed records a failed recovery try on segment i.
func (t *Tree) missed(i int) {
	s := t.Segment(i)
	if s == nil {
		return
	}
	s.misses++
	if s.misses >= t.profile.RecoveryMissLimit {
		t.removeBranchable(i)
	}
}

// Branchable returns the indices of the segments stall recovery may still
// branch from. The order is unspecified.
func (t *Tree) Branchable() []int { return t.branchable.idx }

// pickDistinct returns the i-th element of a lazily shuffled [0, n). Calls
// with i = 0, 1, ... after clearing t.swapped yield distinct values, so a
// sample of k costs O(k) whatever n is.
func (t *Tree) pickDistinct(i, n int) int {
	j := i + t.rng.IntN(n-i)
	at := func(k int) int {
		if v, ok := t.swapped[k]; ok {
			return v
		}
		return k
	}
	vi, vj := at(i), at(j)
	t.swapped[j] = vi
	t.swapped[i] = vj
	return vj
}
