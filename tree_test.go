package bramble

import (
	"math/rand/v2"
	"testing"
)

// fieldOf builds a collision field without padding from plain rectangles.
func fieldOf(rects ...Rect) *CollisionField {
	env := &StaticEnvironment{}
	for _, r := range rects {
		env.UI = append(env.UI, Region{Bounds: r, Category: CategoryDecor})
	}
	f := NewCollisionField(PaddingTable{})
	f.Recompute(env)
	return f
}

func newTestTree(obs Obstacles, seed uint64) (*Tree, *Profile) {
	p := VerticalProfile()
	tr := NewTree(0, &p, obs, rand.New(rand.NewPCG(seed, 1)))
	tr.SetRoot(Vec2{100, 500})
	tr.Reset()
	return tr, &p
}

func TestTreeResetCreatesSingleRoot(t *testing.T) {
	tr, p := newTestTree(nil, 1)
	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}
	root := tr.Segment(0)
	if root.Parent != NoParent || root.Depth != 0 || root.Progress != 0 {
		t.Errorf("root = %+v, want parentless depth 0 with no progress", *root)
	}
	if root.Dir != Up {
		t.Errorf("root Dir = %v, want up", root.Dir)
	}
	if root.Length < p.RootLength.Min || root.Length > p.RootLength.Max {
		t.Errorf("root Length = %f, want within %v", root.Length, p.RootLength)
	}
	if tr.PendingLen() != p.ExtraRoots {
		t.Errorf("PendingLen = %d, want %d", tr.PendingLen(), p.ExtraRoots)
	}
	params := tr.Params()
	if params.Speed < p.Speed.Min || params.Speed > p.Speed.Max {
		t.Errorf("Speed = %f, want within %v", params.Speed, p.Speed)
	}
	if params.BranchChance < p.BranchChance.Min || params.BranchChance > p.BranchChance.Max {
		t.Errorf("BranchChance = %f, want within %v", params.BranchChance, p.BranchChance)
	}
}

func TestTreeFreshGrowth(t *testing.T) {
	tr, _ := newTestTree(nil, 42)

	tr.Update()
	root := tr.Segment(0)
	if root == nil {
		t.Fatal("root missing after one tick")
	}
	if root.Progress <= 0 || root.Progress > 1 {
		t.Fatalf("root Progress = %f, want in (0, 1]", root.Progress)
	}
	if root.Depth != 0 {
		t.Errorf("root Depth = %d, want 0", root.Depth)
	}

	for i := 0; i < 500 && tr.Segment(0).Progress < 1; i++ {
		tr.Update()
	}
	root = tr.Segment(0)
	if root.Progress != 1 {
		t.Fatalf("root Progress = %f after 500 ticks, want 1", root.Progress)
	}
	if root.BranchCount == 0 {
		if !tr.InTerminal(0) {
			t.Error("childless completed root should be terminal")
		}
	} else if tr.InTerminal(0) {
		t.Errorf("root with %d children should not be terminal", root.BranchCount)
	}
}

func TestTreeProgressMonotonic(t *testing.T) {
	field := fieldOf(Rect{X: 40, Y: 200, Width: 120, Height: 60}, Rect{X: 180, Y: 380, Width: 60, Height: 40})
	for seed := uint64(1); seed <= 5; seed++ {
		tr, _ := newTestTree(field, seed)
		var prev []Segment
		for tick := 0; tick < 400; tick++ {
			tr.Update()
			segs := tr.Segments()
			for i := range prev {
				before, now := prev[i], segs[i]
				if now.Progress < before.Progress {
					t.Fatalf("seed %d tick %d: segment %d progress %f -> %f", seed, tick, i, before.Progress, now.Progress)
				}
				if now.Progress > 1 {
					t.Fatalf("seed %d: segment %d progress %f > 1", seed, i, now.Progress)
				}
				if before.Blocked() && (now.Progress != before.Progress || !now.Blocked()) {
					t.Fatalf("seed %d: blocked segment %d changed", seed, i)
				}
				if before.State == StateCompleted && now.Growing() {
					t.Fatalf("seed %d: completed segment %d re-entered growth", seed, i)
				}
			}
			prev = append(prev[:0], segs...)
		}
	}
}

func TestTreeStructureInvariants(t *testing.T) {
	field := fieldOf(Rect{X: 0, Y: 100, Width: 90, Height: 50})
	for seed := uint64(1); seed <= 5; seed++ {
		tr, p := newTestTree(field, seed)
		for tick := 0; tick < 600; tick++ {
			tr.Update()
		}
		segs := tr.Segments()
		children := make([]int, len(segs))
		for i := range segs {
			s := &segs[i]
			if s.ID != i {
				t.Fatalf("segment %d has ID %d", i, s.ID)
			}
			if i == 0 {
				continue
			}
			if s.Parent < 0 || s.Parent >= i {
				t.Fatalf("segment %d has parent %d", i, s.Parent)
			}
			par := &segs[s.Parent]
			children[s.Parent]++
			if s.Dir == par.Dir.Reverse() {
				t.Errorf("seed %d: segment %d grows %v, reverse of parent %v", seed, i, s.Dir, par.Dir)
			}
			if s.Depth != par.Depth+1 {
				t.Errorf("seed %d: segment %d depth %d, parent depth %d", seed, i, s.Depth, par.Depth)
			}
			if s.Start != par.End {
				t.Errorf("seed %d: segment %d starts at %v, parent ends at %v", seed, i, s.Start, par.End)
			}
			if s.Length < p.MinSegmentLength {
				t.Errorf("seed %d: segment %d length %f below floor", seed, i, s.Length)
			}
		}
		for i := range segs {
			if segs[i].BranchCount > p.MaxBranches {
				t.Errorf("seed %d: segment %d BranchCount = %d, cap %d", seed, i, segs[i].BranchCount, p.MaxBranches)
			}
			if segs[i].BranchCount != children[i] {
				t.Errorf("seed %d: segment %d BranchCount = %d, children %d", seed, i, segs[i].BranchCount, children[i])
			}
		}
	}
}

func TestTreeActiveAndTerminalDisjoint(t *testing.T) {
	tr, _ := newTestTree(fieldOf(Rect{X: 60, Y: 300, Width: 80, Height: 30}), 7)
	for tick := 0; tick < 300; tick++ {
		tr.Update()
		seen := make(map[int]string)
		for _, i := range tr.Active() {
			if !tr.Segment(i).Growing() {
				t.Fatalf("tick %d: active segment %d is %v", tick, i, tr.Segment(i).State)
			}
			seen[i] = "active"
		}
		for _, i := range tr.Terminal() {
			if where, ok := seen[i]; ok {
				t.Fatalf("tick %d: segment %d in terminal and %s", tick, i, where)
			}
			s := tr.Segment(i)
			if s.Growing() || s.BranchCount != 0 {
				t.Fatalf("tick %d: terminal segment %d state %v children %d", tick, i, s.State, s.BranchCount)
			}
			seen[i] = "terminal"
		}
	}
}

func TestTreeCollisionExclusion(t *testing.T) {
	field := fieldOf(
		Rect{X: 20, Y: 300, Width: 60, Height: 60},
		Rect{X: 110, Y: 250, Width: 80, Height: 40},
		Rect{X: 0, Y: 100, Width: 300, Height: 20},
	)
	for seed := uint64(1); seed <= 8; seed++ {
		tr, _ := newTestTree(field, seed)
		for tick := 0; tick < 800; tick++ {
			tr.Update()
		}
		for i, s := range tr.Segments() {
			if field.Collides(s.End.X, s.End.Y) {
				t.Errorf("seed %d: segment %d ends inside an obstacle at %v", seed, i, s.End)
			}
			if !s.Blocked() && field.Collides(s.Tip().X, s.Tip().Y) {
				t.Errorf("seed %d: unblocked segment %d has its tip inside an obstacle", seed, i)
			}
		}
	}
}

func TestAddSegmentDropsWithoutSideEffects(t *testing.T) {
	p := VerticalProfile()
	p.Directions = []Direction{Up}
	tr := NewTree(0, &p, nil, rand.New(rand.NewPCG(3, 3)))
	tr.SetRoot(Vec2{100, 900})
	tr.Reset()
	tr.pending = tr.pending[:0]
	for tr.Segment(0).Progress < 1 {
		tr.Update()
	}

	// Block everything at least 1px above the root's end.
	end := tr.Segment(0).End
	tr.SetObstacles(fieldOf(Rect{X: -1000, Y: -1000, Width: 3000, Height: 1000 + end.Y - 1}))

	before := tr.Len()
	branches := tr.Segment(0).BranchCount
	terminal := tr.InTerminal(0)
	if got := tr.AddSegment(0); got != NoSegment {
		t.Fatalf("AddSegment = %d, want NoSegment", got)
	}
	if tr.Len() != before {
		t.Errorf("Len = %d after a dropped AddSegment, want %d", tr.Len(), before)
	}
	if tr.Segment(0).BranchCount != branches {
		t.Errorf("BranchCount = %d after a dropped AddSegment, want %d", tr.Segment(0).BranchCount, branches)
	}
	if tr.InTerminal(0) != terminal {
		t.Error("terminal membership changed on a dropped AddSegment")
	}
}

func TestAddSegmentRejectsInvalidParents(t *testing.T) {
	tr, p := newTestTree(nil, 9)
	if got := tr.AddSegment(-1); got != NoSegment {
		t.Errorf("AddSegment(-1) = %d, want NoSegment", got)
	}
	if got := tr.AddSegment(5); got != NoSegment {
		t.Errorf("AddSegment(5) = %d, want NoSegment", got)
	}

	for i := 0; i < p.MaxBranches; i++ {
		if got := tr.AddSegment(0); got == NoSegment {
			t.Fatalf("AddSegment #%d dropped in open space", i)
		}
	}
	if got := tr.AddSegment(0); got != NoSegment {
		t.Errorf("AddSegment past the branch cap = %d, want NoSegment", got)
	}
	if tr.Segment(0).BranchCount != p.MaxBranches {
		t.Errorf("BranchCount = %d, want %d", tr.Segment(0).BranchCount, p.MaxBranches)
	}

	tr.segments[1].State = StateBlocked
	if got := tr.AddSegment(1); got != NoSegment {
		t.Errorf("AddSegment on a blocked parent = %d, want NoSegment", got)
	}
}

func TestAddSegmentLeavesTerminalOnFirstChild(t *testing.T) {
	tr, _ := newTestTree(nil, 11)
	tr.pending = tr.pending[:0]
	for tr.Segment(0).Progress < 1 {
		tr.Update()
	}
	if !tr.InTerminal(0) {
		t.Fatal("completed root should be terminal")
	}
	if tr.AddSegment(0) == NoSegment {
		t.Fatal("AddSegment dropped in open space")
	}
	if tr.InTerminal(0) {
		t.Error("root still terminal after gaining a child")
	}
}

func TestTreeBoundedWork(t *testing.T) {
	p := VerticalProfile()
	tr := NewTree(0, &p, nil, rand.New(rand.NewPCG(5, 5)))
	tr.SetRoot(Vec2{5000, 10000})
	tr.Reset()

	// Grow a wide arena of pending segments directly.
	for parent := 0; tr.Len() < 6000; parent++ {
		for k := 0; k < 3; k++ {
			tr.AddSegment(parent)
		}
	}
	for i := 0; i < 2000; i++ {
		tr.Enqueue(i)
	}

	for tick := 0; tick < 60; tick++ {
		st := tr.Update()
		if st.Drained > p.MaxDrainPerTick {
			t.Fatalf("tick %d: Drained = %d, cap %d", tick, st.Drained, p.MaxDrainPerTick)
		}
		if st.Advanced > p.MaxAdvancePerTick {
			t.Fatalf("tick %d: Advanced = %d, cap %d", tick, st.Advanced, p.MaxAdvancePerTick)
		}
		if st.BranchAttempts > p.MaxBranchAttempts {
			t.Fatalf("tick %d: BranchAttempts = %d, cap %d", tick, st.BranchAttempts, p.MaxBranchAttempts)
		}
		if st.BranchRolls > st.Advanced+p.MaxBranchAttempts {
			t.Fatalf("tick %d: BranchRolls = %d with %d advanced", tick, st.BranchRolls, st.Advanced)
		}
		if st.Created > st.Drained {
			t.Fatalf("tick %d: Created = %d > Drained = %d", tick, st.Created, st.Drained)
		}
	}
}

// boxAround returns walls around the interior x in (55, 145), y in (395, 520),
// leaving the right side open when openRight is set.
func boxAround(openRight bool) *CollisionField {
	walls := []Rect{
		{X: -1000, Y: -1000, Width: 1055, Height: 3000}, // left
		{X: -1000, Y: -1000, Width: 1145, Height: 1395}, // top
		{X: -1000, Y: 520, Width: 3000, Height: 1000},   // bottom
	}
	if !openRight {
		walls = append(walls, Rect{X: 145, Y: -1000, Width: 1000, Height: 3000})
	}
	return fieldOf(walls...)
}

func TestTreeBoxedInGoesDormant(t *testing.T) {
	field := boxAround(false)
	for seed := uint64(1); seed <= 4; seed++ {
		tr, _ := newTestTree(field, seed)
		for tick := 0; tick < 20000 && !tr.Dormant(); tick++ {
			tr.Update()
		}
		if !tr.Dormant() {
			t.Fatalf("seed %d: boxed tree still busy after 20000 ticks (%d segments)", seed, tr.Len())
		}
		if n := len(tr.Branchable()); n != 0 {
			t.Errorf("seed %d: dormant tree still offers %d segments", seed, n)
		}

		n := tr.Len()
		snapshot := append([]Segment(nil), tr.Segments()...)
		for tick := 0; tick < 200; tick++ {
			if st := tr.Update(); st != (TickStats{}) {
				t.Fatalf("seed %d: dormant tree did work: %+v", seed, st)
			}
		}
		if tr.Len() != n {
			t.Fatalf("seed %d: dormant tree grew from %d to %d", seed, n, tr.Len())
		}
		for i := range snapshot {
			if tr.Segments()[i] != snapshot[i] {
				t.Fatalf("seed %d: dormant segment %d changed", seed, i)
			}
		}
		for i, s := range tr.Segments() {
			if s.End.X <= 55 || s.End.X >= 145 || s.End.Y <= 395 || s.End.Y >= 520 {
				t.Errorf("seed %d: segment %d escaped the box to %v", seed, i, s.End)
			}
		}
	}
}

func TestTreeStallRecoveryFindsOpenSide(t *testing.T) {
	field := boxAround(true)
	failed := 0
	for seed := uint64(1); seed <= 300; seed++ {
		tr, _ := newTestTree(field, seed)
		escaped := false
		seen := 0
		for tick := 0; tick < 3000 && !escaped && !tr.Dormant(); tick++ {
			tr.Update()
			for _, s := range tr.Segments()[seen:] {
				if s.End.X > 145 {
					escaped = true
					break
				}
			}
			seen = tr.Len()
		}
		if !escaped {
			failed++
			t.Errorf("seed %d: no segment grew through the open side (%d segments, dormant %v)", seed, tr.Len(), tr.Dormant())
		}
	}
	if failed > 0 {
		t.Logf("%d/300 seeds stayed inside the box", failed)
	}
}

// settle completes every growing segment and files it the way an Update
// retiring it would.
func settle(tr *Tree) {
	for _, i := range tr.Active() {
		s := &tr.segments[i]
		s.Progress, s.State = 1, StateCompleted
	}
	tr.retire(tr.activeLen())
}

func TestTreeRecoveryBranchesFromAncestor(t *testing.T) {
	// Everything left of the root column is solid, so the left child below
	// can neither continue nor turn up. The root can still branch right.
	field := fieldOf(Rect{X: -1000, Y: -1000, Width: 1097, Height: 3000})
	tr, _ := newTestTree(field, 3)
	tr.pending = tr.pending[:0]
	tr.pendingHead = 0
	settle(tr)

	rootEnd := tr.Segment(0).End
	child := tr.appendSegment(Segment{
		Start:  rootEnd,
		End:    rootEnd.Add(Left.Vec().Scale(40)),
		Dir:    Left,
		Length: 40,
		Depth:  1,
		Parent: 0,
	})
	tr.segments[0].BranchCount = 1
	tr.removeTerminal(0)
	tr.branched(0)
	settle(tr)

	if got := tr.Terminal(); len(got) != 1 || got[0] != child {
		t.Fatalf("Terminal = %v, want only the boxed child %d", got, child)
	}
	if len(tr.Branchable()) != 2 {
		t.Fatalf("Branchable = %v, want the root and the child", tr.Branchable())
	}

	for tick := 0; tick < 20 && tr.Segment(0).BranchCount < 2; tick++ {
		tr.Update()
		if tr.Dormant() {
			t.Fatalf("tick %d: tree went dormant while the root had room", tick)
		}
	}
	if got := tr.Segment(0).BranchCount; got < 2 {
		t.Fatalf("root BranchCount = %d, want a second child", got)
	}
	for i, s := range tr.Segments() {
		if s.Parent == 0 && i != child && s.Dir == Left {
			t.Errorf("segment %d grew left into the wall", i)
		}
	}
	if got := tr.Segment(child).misses; got == 0 {
		t.Errorf("boxed child misses = %d, want it tried first", got)
	}
}

func TestTreeRecoveryExhaustsSegments(t *testing.T) {
	tr, p := newTestTree(nil, 5)
	tr.pending = tr.pending[:0]
	tr.pendingHead = 0
	settle(tr)

	// Close a pocket around the root's end: up, left and right all land in
	// a wall.
	e := tr.Segment(0).End
	tr.SetObstacles(fieldOf(
		Rect{X: -1000, Y: -1000, Width: 3000, Height: 1000 + e.Y - 5},
		Rect{X: -1000, Y: -1000, Width: 1000 + e.X - 5, Height: 3000},
		Rect{X: e.X + 5, Y: -1000, Width: 1000, Height: 3000},
	))

	for tick := 0; tick < 100 && !tr.Dormant(); tick++ {
		tr.Update()
	}
	if !tr.Dormant() {
		t.Fatalf("pocketed tree not dormant, %d segments, branchable %v", tr.Len(), tr.Branchable())
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want only the root", tr.Len())
	}
	if got := tr.Segment(0).misses; got != p.RecoveryMissLimit {
		t.Errorf("root misses = %d, want %d", got, p.RecoveryMissLimit)
	}
	if tr.PendingLen() != 0 {
		t.Errorf("PendingLen = %d after dormancy, want 0", tr.PendingLen())
	}
}

func TestTreeRecoveryRefusesCrowdedEnds(t *testing.T) {
	tr, p := newTestTree(nil, 9)
	p.CrowdLimit = 1
	p.CrowdRadius = 1e6
	tr.pending = tr.pending[:0]
	tr.pendingHead = 0
	settle(tr)

	// The root itself is within the radius of every candidate end.
	if got := tr.addChild(0, true); got != NoSegment {
		t.Errorf("addChild = %d, want the crowded request refused", got)
	}
	p.CrowdLimit = 0
	if got := tr.addChild(0, true); got == NoSegment {
		t.Error("addChild refused with crowding disabled")
	}
}

func TestTreeRetireKeepsFrontierOrder(t *testing.T) {
	tr, p := newTestTree(nil, 11)
	p.MaxAdvancePerTick = 3
	for tick := 0; tick < 400; tick++ {
		before := make(map[int]int)
		for pos, i := range tr.Active() {
			before[i] = pos
		}
		tr.Update()
		last := -1
		for _, i := range tr.Active() {
			pos, ok := before[i]
			if !ok {
				continue
			}
			if pos < last {
				t.Fatalf("tick %d: segment %d moved ahead in the frontier", tick, i)
			}
			last = pos
		}
	}
}

func TestPickDistinct(t *testing.T) {
	tr, _ := newTestTree(nil, 1)
	for _, n := range []int{1, 2, 7, 64} {
		clear(tr.swapped)
		seen := make(map[int]bool)
		for i := 0; i < n; i++ {
			v := tr.pickDistinct(i, n)
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("n=%d: pick %d = %d, repeated or out of range", n, i, v)
			}
			seen[v] = true
		}
	}
}

func TestTreeForcedCollisionAboveRoot(t *testing.T) {
	block := Rect{X: 75, Y: 449, Width: 50, Height: 50}
	field := fieldOf(block)
	for seed := uint64(1); seed <= 10; seed++ {
		tr, _ := newTestTree(field, seed)
		for tick := 0; tick < 2000 && !tr.Dormant(); tick++ {
			tr.Update()
		}
		if tr.Len() == 0 {
			t.Fatalf("seed %d: tree lost its root", seed)
		}
		for i, s := range tr.Segments() {
			if block.Contains(s.End.X, s.End.Y) {
				t.Errorf("seed %d: segment %d ends inside the block at %v", seed, i, s.End)
			}
		}
	}
}

func TestTreeRootFallsBackToLateral(t *testing.T) {
	// Blocks every up move from the root.
	field := fieldOf(Rect{X: 90, Y: 300, Width: 20, Height: 195})
	tr, _ := newTestTree(field, 1)
	root := tr.Segment(0)
	if root.Dir != Right && root.Dir != Left {
		t.Fatalf("root Dir = %v, want a lateral fallback", root.Dir)
	}
	if tr.Dormant() {
		t.Error("tree with a clear lateral should not be dormant")
	}
}

func TestTreeRootFullyBlocked(t *testing.T) {
	// Everything above the root, and the root's row except the root point.
	field := fieldOf(
		Rect{X: 0, Y: 0, Width: 1000, Height: 499},
		Rect{X: 0, Y: 499, Width: 99, Height: 2},
		Rect{X: 101, Y: 499, Width: 900, Height: 2},
	)
	tr, _ := newTestTree(field, 1)
	root := tr.Segment(0)
	if !root.Blocked() || root.Length != 0 {
		t.Fatalf("root = %+v, want blocked with zero length", *root)
	}
	if !tr.Dormant() {
		t.Error("tree with a blocked root should be dormant")
	}
	if st := tr.Update(); st != (TickStats{}) {
		t.Errorf("Update on a dormant tree = %+v, want zero", st)
	}
}

func TestTreeResetClearsDormancy(t *testing.T) {
	tr, _ := newTestTree(boxAround(false), 2)
	tr.dormant = true
	tr.Reset()
	if tr.Dormant() {
		t.Error("Reset should clear dormancy")
	}
	if tr.Len() != 1 || len(tr.Terminal()) != 0 || len(tr.Active()) != 1 {
		t.Errorf("after Reset: len %d terminal %d active %d, want 1/0/1", tr.Len(), len(tr.Terminal()), len(tr.Active()))
	}
}

func TestTreeBurstsHappen(t *testing.T) {
	tr, _ := newTestTree(nil, 13)
	started := 0
	for tick := 0; tick < 1000; tick++ {
		if tr.Update().Bursts > 0 {
			started++
		}
	}
	if started == 0 {
		t.Error("no burst in 1000 ticks")
	}
}

func TestTreeHorizontalProfile(t *testing.T) {
	p := HorizontalProfile()
	tr := NewTree(0, &p, nil, rand.New(rand.NewPCG(21, 1)))
	tr.SetRoot(Vec2{40, 300})
	tr.Reset()
	for tick := 0; tick < 600; tick++ {
		tr.Update()
	}
	if tr.Segment(0).Dir != Right {
		t.Errorf("root Dir = %v, want right", tr.Segment(0).Dir)
	}
	for i, s := range tr.Segments() {
		if s.Dir == Left {
			t.Fatalf("segment %d grows left, not a horizontal profile direction", i)
		}
	}
	if tr.Len() < 10 {
		t.Errorf("Len = %d after 600 ticks, want a grown tree", tr.Len())
	}
}
