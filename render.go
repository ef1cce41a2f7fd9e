package bramble

// Draw strokes every segment with progress > 0 from its start to its current
// tip. Segments entirely outside view grown by the style's cull margin are
// skipped. It returns the number of segments drawn.
//
// Segments whose tip reached a target use the target width and a round cap;
// all others use the regular width and a butt cap. With a depth palette the
// colour steps through the palette every DepthStep levels, and with glow a
// wider translucent stroke is drawn underneath each line.
func (t *Tree) Draw(c Canvas, style *Style, alpha float64, view Rect) int {
	bounds := view.Pad(style.CullMargin)
	drawn := 0
	for i := range t.segments {
		s := &t.segments[i]
		if s.Progress <= 0 {
			continue
		}
		tip := s.Tip()
		if culled(bounds, s.Start, tip) {
			continue
		}

		col := style.colorAt(s.Depth)
		width := style.Width
		if style.UseThickness {
			width *= s.Thickness
		}
		lineCap := CapButt
		if s.NearTarget != NoTarget {
			width = style.TargetWidth
			lineCap = CapRound
		}

		if style.Glow && style.GlowWidth > 0 {
			glow := col.WithAlpha(col.A * style.GlowAlpha * alpha)
			c.StrokeLine(s.Start.X, s.Start.Y, tip.X, tip.Y, width+style.GlowWidth, glow, CapRound)
		}
		c.StrokeLine(s.Start.X, s.Start.Y, tip.X, tip.Y, width, col.WithAlpha(col.A*alpha), lineCap)
		drawn++
	}
	return drawn
}

func (st *Style) colorAt(depth int) Color {
	if len(st.DepthPalette) == 0 {
		return st.Branch
	}
	step := st.DepthStep
	if step <= 0 {
		step = 1
	}
	i := depth / step
	if i >= len(st.DepthPalette) {
		i = len(st.DepthPalette) - 1
	}
	return st.DepthPalette[i]
}

// culled reports whether the line a-b lies entirely on the outer side of one
// of the rectangle's edges.
func culled(r Rect, a, b Vec2) bool {
	return (a.X < r.X && b.X < r.X) ||
		(a.X > r.X+r.Width && b.X > r.X+r.Width) ||
		(a.Y < r.Y && b.Y < r.Y) ||
		(a.Y > r.Y+r.Height && b.Y > r.Y+r.Height)
}
