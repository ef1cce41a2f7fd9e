package bramble

import (
	"math"
	"math/rand/v2"
)

// TreeParams are the per-tree parameters rolled on every Reset. They are what
// makes trees in neighbouring slots look distinct.
type TreeParams struct {
	Speed        float64
	BranchChance float64
	Bias         float64
	Thickness    float64
}

// TickStats counts the work done by one Tree.Update call. Drained, Advanced,
// BranchAttempts and the random-pass share of BranchRolls are bounded by the
// profile caps regardless of tree size.
type TickStats struct {
	Drained        int // pending entries popped
	Advanced       int // active segments advanced
	BranchAttempts int // child requests queued by branching
	BranchRolls    int // branching dice rolled
	Created        int // segments appended
	Dropped        int // drained requests that created nothing
	Completed      int // segments that finished growing
	Blocked        int // segments halted by a collision
	Recovered      int // requests queued by stall recovery
	Bursts         int // bursts started
}

// Add accumulates o into s.
func (s *TickStats) Add(o TickStats) {
	s.Drained += o.Drained
	s.Advanced += o.Advanced
	s.BranchAttempts += o.BranchAttempts
	s.BranchRolls += o.BranchRolls
	s.Created += o.Created
	s.Dropped += o.Dropped
	s.Completed += o.Completed
	s.Blocked += o.Blocked
	s.Recovered += o.Recovered
	s.Bursts += o.Bursts
}

// Tree is one independently growing branching structure. Segments live in an
// append-only arena; the active frontier, terminal set, branchable set and
// pending queue hold indices into it.
//
// A Tree is not safe for concurrent use. It only reads its Obstacles.
type Tree struct {
	// Index is the tree's slot in the driver's layout.
	Index int

	profile   *Profile
	obstacles Obstacles
	rng       *rand.Rand

	root   Vec2
	params TreeParams

	segments   []Segment
	active     []int
	activeHead int
	terminal   []int
	branchable branchSet

	pending     []int
	pendingHead int
	// rescue holds stall recovery requests. They drain before pending.
	rescue []int

	grid  *endpointGrid
	burst burst

	dormant bool

	// scratch
	candBuf []Direction
	fresh   []int
	swapped map[int]int
}

// NewTree creates an empty tree. Call SetRoot and Reset before Update.
// A nil obstacles value means nothing blocks growth; a nil rng uses a
// randomly seeded source.
func NewTree(index int, profile *Profile, obstacles Obstacles, rng *rand.Rand) *Tree {
	if obstacles == nil {
		obstacles = NoObstacles
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	cell := profile.BranchDensityRadius
	if profile.LengthDensityRadius > cell {
		cell = profile.LengthDensityRadius
	}
	t := &Tree{
		Index:     index,
		profile:   profile,
		obstacles: obstacles,
		rng:       rng,
		grid:      newEndpointGrid(cell),
		swapped:   make(map[int]int),
	}
	t.branchable = branchSet{segs: &t.segments, axis: profile.Primary.Vec()}
	return t
}

// SetRoot moves the root anchor. It takes effect on the next Reset.
func (t *Tree) SetRoot(p Vec2) { t.root = p }

// Root returns the root anchor.
func (t *Tree) Root() Vec2 { return t.root }

// SetObstacles replaces the obstacle view used for new segments.
func (t *Tree) SetObstacles(o Obstacles) {
	if o == nil {
		o = NoObstacles
	}
	t.obstacles = o
}

// Params returns the parameters rolled by the last Reset.
func (t *Tree) Params() TreeParams { return t.params }

// Segments returns the segment arena. The slice must not be modified and is
// invalidated by Update and Reset.
func (t *Tree) Segments() []Segment { return t.segments }

// Len returns the number of segments.
func (t *Tree) Len() int { return len(t.segments) }

// Segment returns a pointer to segment i, or nil when i is out of range.
func (t *Tree) Segment(i int) *Segment {
	if i < 0 || i >= len(t.segments) {
		return nil
	}
	return &t.segments[i]
}

// Active returns the indices of the active frontier in processing order.
func (t *Tree) Active() []int { return t.active[t.activeHead:] }

func (t *Tree) activeLen() int { return len(t.active) - t.activeHead }

// Terminal returns the indices of completed or blocked childless segments.
// The order is unspecified.
func (t *Tree) Terminal() []int { return t.terminal }

// InTerminal reports whether segment i is in the terminal set.
func (t *Tree) InTerminal(i int) bool {
	s := t.Segment(i)
	return s != nil && s.termPos >= 0
}

// PendingLen returns the number of queued child requests.
func (t *Tree) PendingLen() int { return len(t.pending) - t.pendingHead + len(t.rescue) }

// InBurst reports whether the tree is in a growth burst.
func (t *Tree) InBurst() bool { return t.burst.active }

// Dormant reports whether the tree has given up growing. Only Reset clears it.
func (t *Tree) Dormant() bool { return t.dormant }

// Reset discards all segments, rolls new parameters and plants a fresh root.
func (t *Tree) Reset() {
	p := t.profile
	t.segments = t.segments[:0]
	t.active = t.active[:0]
	t.activeHead = 0
	t.terminal = t.terminal[:0]
	t.branchable.reset()
	t.pending = t.pending[:0]
	t.pendingHead = 0
	t.rescue = t.rescue[:0]
	t.grid.reset()
	t.burst.stop()
	t.dormant = false

	t.params = TreeParams{
		Speed:        p.Speed.Random(t.rng),
		BranchChance: p.BranchChance.Random(t.rng),
		Bias:         p.Bias.Random(t.rng),
		Thickness:    p.Thickness.Random(t.rng),
	}
	t.plantRoot()
}

// plantRoot creates segment 0 along the primary axis, falling back to the
// lateral directions when the primary endpoint is blocked. A root with no
// clear direction is created blocked and the tree goes dormant at once.
func (t *Tree) plantRoot() {
	p := t.profile
	length := p.RootLength.Random(t.rng)
	side := p.Primary.Perp()
	for _, d := range [...]Direction{p.Primary, side, side.Reverse()} {
		end := t.root.Add(d.Vec().Scale(length))
		if t.obstacles.Collides(end.X, end.Y) {
			continue
		}
		t.appendSegment(Segment{
			Start:     t.root,
			End:       end,
			Dir:       d,
			Length:    length,
			Thickness: t.params.Thickness,
			Parent:    NoParent,
		})
		for i := 0; i < p.ExtraRoots; i++ {
			t.Enqueue(0)
		}
		return
	}

	idx := t.appendSegment(Segment{
		Start:     t.root,
		End:       t.root,
		Dir:       p.Primary,
		Thickness: t.params.Thickness,
		Parent:    NoParent,
		State:     StateBlocked,
	})
	t.addTerminal(idx)
	t.dormant = true
}

// appendSegment stores s, indexes it and puts it on the active frontier
// unless it is already blocked.
func (t *Tree) appendSegment(s Segment) int {
	idx := len(t.segments)
	s.ID = idx
	s.NearTarget = NoTarget
	s.termPos = -1
	s.branchPos = -1
	t.segments = append(t.segments, s)
	t.grid.insert(idx, &t.segments[idx])
	if s.State != StateBlocked {
		t.active = append(t.active, idx)
	}
	return idx
}

// Enqueue requests a child of parent on a later tick. Duplicates are allowed.
func (t *Tree) Enqueue(parent int) {
	t.pending = append(t.pending, parent)
}

// enqueueRecovery requests a child of parent that tries every direction.
func (t *Tree) enqueueRecovery(parent int) {
	t.rescue = append(t.rescue, parent)
}

// dequeue pops the next request, recovery requests first.
func (t *Tree) dequeue() (parent int, recovery, ok bool) {
	if len(t.rescue) > 0 {
		parent = t.rescue[0]
		t.rescue = t.rescue[:copy(t.rescue, t.rescue[1:])]
		return parent, true, true
	}
	if t.pendingHead >= len(t.pending) {
		return 0, false, false
	}
	v := t.pending[t.pendingHead]
	t.pendingHead++
	if t.pendingHead == len(t.pending) {
		t.pending = t.pending[:0]
		t.pendingHead = 0
	} else if t.pendingHead > 64 && t.pendingHead*2 > len(t.pending) {
		n := copy(t.pending, t.pending[t.pendingHead:])
		t.pending = t.pending[:n]
		t.pendingHead = 0
	}
	return v, false, true
}

func (t *Tree) addTerminal(i int) {
	s := &t.segments[i]
	if s.termPos >= 0 {
		return
	}
	s.termPos = len(t.terminal)
	t.terminal = append(t.terminal, i)
}

func (t *Tree) removeTerminal(i int) {
	s := &t.segments[i]
	pos := s.termPos
	if pos < 0 {
		return
	}
	last := len(t.terminal) - 1
	moved := t.terminal[last]
	t.terminal[pos] = moved
	t.segments[moved].termPos = pos
	t.terminal = t.terminal[:last]
	s.termPos = -1
}

// AddSegment grows a child from the end of segment parent and returns its
// index. It returns NoSegment, leaving the tree untouched, when the parent is
// missing or blocked, its branch cap is exhausted, no direction is available,
// or the child's endpoint lies inside an obstacle.
func (t *Tree) AddSegment(parent int) int {
	return t.addChild(parent, false)
}

// addChild implements AddSegment. With exhaustive set it tries every allowed
// direction instead of rolling one, and refuses crowded endpoints.
func (t *Tree) addChild(parent int, exhaustive bool) int {
	p := t.profile
	par := t.Segment(parent)
	if par == nil || par.Blocked() || par.BranchCount >= p.MaxBranches {
		return NoSegment
	}

	depth := par.Depth + 1
	start := par.End
	var (
		dir    Direction
		length float64
		end    Vec2
	)
	if exhaustive {
		dir, length, end = t.openDirection(par, depth)
		if dir.IsZero() {
			return NoSegment
		}
	} else {
		dir = t.chooseDirection(par)
		if dir.IsZero() {
			return NoSegment
		}
		length = t.segmentLength(depth, dir, start)
		end = start.Add(dir.Vec().Scale(length))
		if t.obstacles.Collides(end.X, end.Y) {
			return NoSegment
		}
	}

	factor := math.Max(0.3, 1-float64(depth)*t.rng.Float64()*0.04)
	idx := t.appendSegment(Segment{
		Start:     start,
		End:       end,
		Dir:       dir,
		Length:    length,
		Depth:     depth,
		Thickness: t.params.Thickness * factor,
		Parent:    parent,
	})

	// The append may have moved the arena.
	par = &t.segments[parent]
	par.BranchCount++
	if par.BranchCount == 1 {
		t.removeTerminal(parent)
	}
	t.branched(parent)
	return idx
}

// Update runs one simulation tick: drain pending requests, advance the
// active frontier, branch from fresh completions and terminal nodes, and
// recover from stalls. Every phase is capped by the profile.
func (t *Tree) Update() TickStats {
	var st TickStats
	if t.dormant {
		return st
	}
	p := t.profile

	// 1. Drain.
	for st.Drained < p.MaxDrainPerTick {
		parent, recovery, ok := t.dequeue()
		if !ok {
			break
		}
		st.Drained++
		if t.addChild(parent, recovery) == NoSegment {
			st.Dropped++
			if recovery {
				t.missed(parent)
			}
		} else {
			st.Created++
		}
	}

	// 2. Burst.
	if t.burst.active {
		t.burst.step()
	} else if t.rng.Float64() < p.BurstChance {
		t.burst.start(p.BurstTicks.RandomInt(t.rng), p.BurstMultiplier, p.BurstRampTicks)
		st.Bursts++
	}

	// 3. Advance.
	t.fresh = t.fresh[:0]
	front := t.Active()
	n := len(front)
	if n > p.MaxAdvancePerTick {
		n = p.MaxAdvancePerTick
	}
	for _, idx := range front[:n] {
		st.Advanced++
		if t.advance(idx) {
			t.fresh = append(t.fresh, idx)
			if t.segments[idx].Blocked() {
				st.Blocked++
			} else {
				st.Completed++
			}
		}
	}

	// 4. Branch fresh completions.
	budget := p.MaxBranchAttempts
	for _, idx := range t.fresh {
		if st.BranchAttempts >= budget {
			break
		}
		s := &t.segments[idx]
		if s.BranchCount != 0 || s.Blocked() {
			continue
		}
		st.BranchRolls++
		children := t.rollChildren(s)
		if rest := budget - st.BranchAttempts; children > rest {
			children = rest
		}
		for range children {
			t.Enqueue(idx)
		}
		st.BranchAttempts += children
	}

	// 5. Retire finished segments from the frontier.
	if len(t.fresh) > 0 {
		t.retire(n)
	}

	// 6. Random terminal pass.
	if rest := budget - st.BranchAttempts; rest > 0 && len(t.terminal) > 0 {
		t.randomPass(rest, &st)
	}

	// 7. Stall recovery.
	stalled := t.activeLen() == 0 && st.Created == 0 && len(t.rescue) == 0
	if stalled {
		st.Recovered = t.recoverStall()
	}

	// 8. Dormancy: stalled with no segment left to branch from.
	if stalled && st.Recovered == 0 {
		t.dormant = true
		t.pending = t.pending[:0]
		t.pendingHead = 0
		t.burst.stop()
	}
	return st
}

// retire drops the segments that stopped growing from the first n entries
// of the frontier, keeping the order of the rest. Only those n entries were
// advanced, so the cost does not depend on the frontier size.
func (t *Tree) retire(n int) {
	head := t.activeHead
	w := head + n
	for r := head + n - 1; r >= head; r-- {
		idx := t.active[r]
		if t.segments[idx].Growing() {
			w--
			t.active[w] = idx
			continue
		}
		if t.segments[idx].BranchCount == 0 {
			t.addTerminal(idx)
		}
		t.addBranchable(idx)
	}
	t.activeHead = w

	switch {
	case t.activeHead == len(t.active):
		t.active = t.active[:0]
		t.activeHead = 0
	case t.activeHead > 64 && t.activeHead*2 > len(t.active):
		k := copy(t.active, t.active[t.activeHead:])
		t.active = t.active[:k]
		t.activeHead = 0
	}
}

// advance grows one active segment and reports whether it left the growing
// states this tick.
func (t *Tree) advance(idx int) bool {
	p := t.profile
	s := &t.segments[idx]
	s.Age++
	if s.State == StatePending {
		s.State = StateGrowing
	}

	factor := p.Jitter.Random(t.rng)
	if t.burst.active {
		factor = t.burst.multiplier()
	}
	s.Progress += t.params.Speed * factor / math.Max(p.MinGrowthLength, s.Length)
	if s.Progress > 1 {
		s.Progress = 1
	}

	tip := s.Tip()
	reached := NoTarget
	targets := t.obstacles.Targets()
	for i := range targets {
		if tip.Dist(targets[i].Center) <= p.ReachedRadius {
			reached = i
		}
	}

	switch {
	case t.obstacles.Collides(tip.X, tip.Y):
		s.State = StateBlocked
	case reached != NoTarget:
		s.NearTarget = reached
		s.Progress = 1
		s.State = StateCompleted
	case s.Progress >= 1:
		s.State = StateCompleted
	default:
		return false
	}
	return true
}

// rollChildren rolls how many children a freshly completed segment requests.
func (t *Tree) rollChildren(s *Segment) int {
	density := t.grid.count(t.segments, s.End, t.profile.BranchDensityRadius, 0.5)
	densityFactor := math.Max(0.6, 1.2-float64(density)*0.03)

	depthFactor := 1.0
	switch {
	case s.Depth < 3:
		depthFactor = 1.1 - float64(s.Depth)*0.05
	case s.Depth > 8:
		depthFactor = math.Max(0.5, 1-float64(s.Depth-8)*0.05)
	}

	chance := t.params.BranchChance * densityFactor * depthFactor
	roll := t.rng.Float64()
	if roll >= chance {
		return 0
	}
	children := 2
	if density < 10 {
		children++
		third := chance * 0.15
		if s.Depth < 3 {
			third = chance * 0.3
		}
		if (s.Depth < 3 || density < 6) && roll < third {
			children++
		}
	}
	return children
}

// randomPass rolls branching for up to limit terminal nodes sampled without
// replacement.
func (t *Tree) randomPass(limit int, st *TickStats) {
	p := t.profile
	n := len(t.terminal)
	if limit > n {
		limit = n
	}
	clear(t.swapped)
	for i := 0; i < limit; i++ {
		if st.BranchAttempts >= p.MaxBranchAttempts {
			return
		}

		idx := t.terminal[t.pickDistinct(i, n)]
		s := &t.segments[idx]
		if s.Blocked() || s.Depth > p.RandomPassMaxDepth || s.BranchCount >= p.RandomPassMaxBranches {
			continue
		}
		chance := t.params.BranchChance * (0.5 + t.rng.Float64()*0.3)
		chance *= math.Max(1, 2-float64(s.Depth)*0.15)
		if s.Dir == p.Primary {
			chance *= 1 + t.rng.Float64()*0.25
		}
		chance *= math.Max(0.3, 1-float64(s.Depth)*0.025)

		st.BranchRolls++
		if t.rng.Float64() < chance {
			t.Enqueue(idx)
			st.BranchAttempts++
		}
	}
}

// recoverStall queues recovery requests for the top of the branchable set,
// which is the most extended childless segment while one is left, plus a few
// random branchable segments. It returns the number of requests.
func (t *Tree) recoverStall() int {
	n := t.branchable.Len()
	if n == 0 {
		return 0
	}
	t.enqueueRecovery(t.branchable.idx[0])
	queued := 1

	k := min(t.profile.StallRandomNodes, n-1)
	clear(t.swapped)
	for i := 0; i < k; i++ {
		t.enqueueRecovery(t.branchable.idx[1+t.pickDistinct(i, n-1)])
		queued++
	}
	return queued
}
