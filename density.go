package bramble

import "math"

// endpointGrid is a uniform grid over segment endpoints. Density queries
// only look at the cells overlapping the query circle.
type endpointGrid struct {
	cell  float64
	cells map[[2]int][]int32
	seen  []uint32
	stamp uint32
}

func newEndpointGrid(cell float64) *endpointGrid {
	if cell <= 0 {
		cell = 100
	}
	return &endpointGrid{cell: cell, cells: make(map[[2]int][]int32)}
}

func (g *endpointGrid) key(p Vec2) [2]int {
	return [2]int{int(math.Floor(p.X / g.cell)), int(math.Floor(p.Y / g.cell))}
}

func (g *endpointGrid) reset() {
	clear(g.cells)
	g.seen = g.seen[:0]
	g.stamp = 0
}

// insert indexes both endpoints of segment idx.
func (g *endpointGrid) insert(idx int, s *Segment) {
	a, b := g.key(s.Start), g.key(s.End)
	g.cells[a] = append(g.cells[a], int32(idx))
	if b != a {
		g.cells[b] = append(g.cells[b], int32(idx))
	}
	for len(g.seen) <= idx {
		g.seen = append(g.seen, 0)
	}
}

// count returns how many segments with at least minProgress have an
// endpoint within radius of p.
func (g *endpointGrid) count(segs []Segment, p Vec2, radius, minProgress float64) int {
	g.stamp++
	if g.stamp == 0 {
		clear(g.seen)
		g.stamp = 1
	}
	lo := g.key(Vec2{p.X - radius, p.Y - radius})
	hi := g.key(Vec2{p.X + radius, p.Y + radius})
	n := 0
	for cx := lo[0]; cx <= hi[0]; cx++ {
		for cy := lo[1]; cy <= hi[1]; cy++ {
			for _, idx := range g.cells[[2]int{cx, cy}] {
				if g.seen[idx] == g.stamp {
					continue
				}
				g.seen[idx] = g.stamp
				s := &segs[idx]
				if s.Progress < minProgress {
					continue
				}
				if s.Start.Dist(p) < radius || s.End.Dist(p) < radius {
					n++
				}
			}
		}
	}
	return n
}
