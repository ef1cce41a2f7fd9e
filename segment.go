package bramble

import "fmt"

// Direction is a unit step along one of the four cardinal directions.
type Direction struct {
	DX, DY int
}

var (
	Up    = Direction{0, -1}
	Down  = Direction{0, 1}
	Left  = Direction{-1, 0}
	Right = Direction{1, 0}
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	return Direction{-d.DX, -d.DY}
}

// Perp returns d rotated a quarter turn clockwise on screen (Up becomes Right).
func (d Direction) Perp() Direction {
	return Direction{-d.DY, d.DX}
}

// Vec returns the direction as a unit vector.
func (d Direction) Vec() Vec2 {
	return Vec2{float64(d.DX), float64(d.DY)}
}

// IsZero reports whether d is the zero direction.
func (d Direction) IsZero() bool {
	return d.DX == 0 && d.DY == 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}

// SegmentState is the growth state of a single segment.
type SegmentState uint8

const (
	StatePending   SegmentState = iota // created, not advanced yet
	StateGrowing                       // advancing toward progress 1
	StateCompleted                     // reached progress 1 or a target zone
	StateBlocked                       // halted by the collision field
)

func (s SegmentState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGrowing:
		return "growing"
	case StateCompleted:
		return "completed"
	case StateBlocked:
		return "blocked"
	}
	return fmt.Sprintf("SegmentState(%d)", uint8(s))
}

const (
	// NoParent is the Parent value of a tree's root segment.
	NoParent = -1
	// NoSegment is returned by AddSegment when no segment was created.
	NoSegment = -1
	// NoTarget marks a segment that never entered a target's reached zone.
	NoTarget = -1
)

// Segment is one straight piece of a tree. Segments live in their tree's
// append-only arena and refer to each other by index only.
type Segment struct {
	Start, End  Vec2
	Dir         Direction
	Length      float64
	Depth       int
	Progress    float64
	Thickness   float64
	ID          int
	Parent      int
	BranchCount int
	State       SegmentState
	Age         int
	NearTarget  int

	termPos   int // index into Tree.terminal, -1 when absent
	branchPos int // index into Tree.branchable, -1 when absent
	misses    int // failed recovery tries
}

// Blocked reports whether growth was halted by a collision.
func (s *Segment) Blocked() bool {
	return s.State == StateBlocked
}

// Growing reports whether the segment is still part of the active frontier.
func (s *Segment) Growing() bool {
	return s.State == StatePending || s.State == StateGrowing
}

// Tip returns the current end of the drawn line for the segment's progress.
func (s *Segment) Tip() Vec2 {
	return s.Start.Lerp(s.End, s.Progress)
}
