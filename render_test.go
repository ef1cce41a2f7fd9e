package bramble

import (
	"math/rand/v2"
	"testing"
)

type strokeCall struct {
	x0, y0, x1, y1 float64
	width          float64
	color          Color
	lineCap        LineCap
}

// recordCanvas is a Canvas that records every call.
type recordCanvas struct {
	w, h    int
	visible bool
	clears  []Color
	strokes []strokeCall
	resizes int
}

func newRecordCanvas(w, h int) *recordCanvas {
	return &recordCanvas{w: w, h: h, visible: true}
}

func (c *recordCanvas) Size() (int, int) { return c.w, c.h }
func (c *recordCanvas) Resize(w, h int) {
	c.w, c.h = w, h
	c.resizes++
}
func (c *recordCanvas) Clear(col Color) {
	c.clears = append(c.clears, col)
	c.strokes = c.strokes[:0]
}
func (c *recordCanvas) StrokeLine(x0, y0, x1, y1, width float64, col Color, lineCap LineCap) {
	c.strokes = append(c.strokes, strokeCall{x0, y0, x1, y1, width, col, lineCap})
}
func (c *recordCanvas) SetVisible(v bool) { c.visible = v }

func treeWithSegments(p *Profile, segs ...Segment) *Tree {
	tr := NewTree(0, p, nil, rand.New(rand.NewPCG(1, 1)))
	for _, s := range segs {
		tr.appendSegment(s)
	}
	return tr
}

func TestTreeDrawStyles(t *testing.T) {
	p := VerticalProfile()
	tr := treeWithSegments(&p,
		Segment{Start: Vec2{10, 100}, End: Vec2{10, 50}, Progress: 0.5},
		Segment{Start: Vec2{10, 50}, End: Vec2{60, 50}, Progress: 0},
		Segment{Start: Vec2{10, 50}, End: Vec2{10, 0}, Progress: 1},
	)
	tr.segments[2].NearTarget = 0

	c := newRecordCanvas(200, 200)
	n := tr.Draw(c, &p.Style, 1, Rect{Width: 200, Height: 200})
	if n != 2 || len(c.strokes) != 2 {
		t.Fatalf("drawn %d with %d strokes, want 2", n, len(c.strokes))
	}

	half := c.strokes[0]
	if half.y1 != 75 || half.width != 0.5 || half.lineCap != CapButt || half.color != ColorBlack {
		t.Errorf("regular stroke = %+v", half)
	}
	target := c.strokes[1]
	if target.width != 1 || target.lineCap != CapRound {
		t.Errorf("target stroke = %+v, want width 1 round cap", target)
	}
}

func TestTreeDrawCulling(t *testing.T) {
	p := VerticalProfile()
	tr := treeWithSegments(&p,
		Segment{Start: Vec2{-150, 10}, End: Vec2{-120, 10}, Progress: 1},
		Segment{Start: Vec2{-90, 10}, End: Vec2{-50, 10}, Progress: 1},
		Segment{Start: Vec2{100, 350}, End: Vec2{100, 310}, Progress: 1},
	)
	c := newRecordCanvas(200, 200)
	if n := tr.Draw(c, &p.Style, 1, Rect{Width: 200, Height: 200}); n != 1 {
		t.Errorf("drawn %d, want only the segment inside the cull margin", n)
	}
}

func TestTreeDrawPaletteAndGlow(t *testing.T) {
	p := HorizontalProfile()
	tr := treeWithSegments(&p,
		Segment{Start: Vec2{0, 10}, End: Vec2{50, 10}, Progress: 1, Thickness: 1, Depth: 0},
		Segment{Start: Vec2{50, 10}, End: Vec2{90, 10}, Progress: 1, Thickness: 1, Depth: 100},
	)
	c := newRecordCanvas(200, 200)
	tr.Draw(c, &p.Style, 0.5, Rect{Width: 200, Height: 200})
	if len(c.strokes) != 4 {
		t.Fatalf("strokes = %d, want a glow and a line per segment", len(c.strokes))
	}
	glow, line := c.strokes[0], c.strokes[1]
	if glow.width <= line.width {
		t.Errorf("glow width %v should exceed line width %v", glow.width, line.width)
	}
	if line.color.A != p.Style.DepthPalette[0].A*0.5 {
		t.Errorf("line alpha = %v, want faded by 0.5", line.color.A)
	}
	deep := c.strokes[3].color.WithAlpha(1)
	last := p.Style.DepthPalette[len(p.Style.DepthPalette)-1]
	if deep != last.WithAlpha(1) {
		t.Errorf("deep segment colour = %v, want last palette entry %v", deep, last)
	}
}
