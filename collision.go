package bramble

// RegionCategory classifies a UI region. Each category has its own padding.
type RegionCategory uint8

const (
	CategoryApp    RegionCategory = iota // application tiles; their centers become targets
	CategoryIntro                        // introductory text blocks
	CategoryHeader                       // page header
	CategoryDecor                        // any other obstacle
)

func (c RegionCategory) String() string {
	switch c {
	case CategoryApp:
		return "app"
	case CategoryIntro:
		return "intro"
	case CategoryHeader:
		return "header"
	case CategoryDecor:
		return "decor"
	}
	return "unknown"
}

// ParseRegionCategory maps a category name to its value.
func ParseRegionCategory(s string) (RegionCategory, bool) {
	switch s {
	case "app":
		return CategoryApp, true
	case "intro":
		return CategoryIntro, true
	case "header":
		return CategoryHeader, true
	case "decor", "":
		return CategoryDecor, true
	}
	return CategoryDecor, false
}

// Region is one UI element as reported by the host environment, in viewport
// coordinates.
type Region struct {
	ID       string
	Bounds   Rect
	Category RegionCategory
	Hidden   bool
}

// RegionSource enumerates the UI regions that trees must avoid.
type RegionSource interface {
	Regions() []Region
}

// Target is the center of a visible application region. Trees steer toward
// targets and render thicker once they reach one.
type Target struct {
	Center        Vec2
	Width, Height float64
	ID            string
}

// Obstacles is the read-only view of the collision field used by trees.
type Obstacles interface {
	Collides(x, y float64) bool
	Targets() []Target
}

// PaddingTable holds the padding applied around each region category.
type PaddingTable struct {
	App, Intro, Header, Decor float64
}

// DefaultPadding returns the padding used by the vertical profile.
func DefaultPadding() PaddingTable {
	return PaddingTable{App: 15, Intro: 5, Header: 25}
}

func (p PaddingTable) of(c RegionCategory) float64 {
	switch c {
	case CategoryApp:
		return p.App
	case CategoryIntro:
		return p.Intro
	case CategoryHeader:
		return p.Header
	}
	return p.Decor
}

// CollisionField is the set of padded rectangles that block growth, plus the
// targets derived from application regions. It is recomputed wholesale from
// a RegionSource and never patched.
type CollisionField struct {
	padding PaddingTable
	rects   []Rect
	targets []Target
}

// NewCollisionField creates an empty field with the given padding.
func NewCollisionField(padding PaddingTable) *CollisionField {
	return &CollisionField{padding: padding}
}

// Recompute rebuilds the field from src. Hidden and zero-sized regions are
// skipped. A nil source empties the field.
func (f *CollisionField) Recompute(src RegionSource) {
	if src == nil {
		f.Clear()
		return
	}
	regions := src.Regions()
	rects := make([]Rect, 0, len(regions))
	var targets []Target
	for _, r := range regions {
		if r.Hidden || r.Bounds.Empty() {
			continue
		}
		rects = append(rects, r.Bounds.Pad(f.padding.of(r.Category)))
		if r.Category == CategoryApp {
			targets = append(targets, Target{
				Center: r.Bounds.Center(),
				Width:  r.Bounds.Width,
				Height: r.Bounds.Height,
				ID:     r.ID,
			})
		}
	}
	f.rects, f.targets = rects, targets
}

// Collides reports whether (x, y) lies inside any padded rectangle.
// Rectangle edges count as inside.
func (f *CollisionField) Collides(x, y float64) bool {
	for i := range f.rects {
		if f.rects[i].Contains(x, y) {
			return true
		}
	}
	return false
}

// Rects returns the padded rectangles. The slice must not be modified.
func (f *CollisionField) Rects() []Rect { return f.rects }

// Targets returns the current targets. The slice must not be modified.
func (f *CollisionField) Targets() []Target { return f.targets }

// Len returns the number of rectangles.
func (f *CollisionField) Len() int { return len(f.rects) }

// Clear removes every rectangle and target.
func (f *CollisionField) Clear() {
	f.rects, f.targets = nil, nil
}

// NoObstacles is an empty obstacle set for profiles without a collision field.
var NoObstacles Obstacles = noObstacles{}

type noObstacles struct{}

func (noObstacles) Collides(x, y float64) bool { return false }
func (noObstacles) Targets() []Target          { return nil }
