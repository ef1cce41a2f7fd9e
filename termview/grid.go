package termview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phanxgames/bramble"
)

// Default cell size in canvas pixels. A terminal cell is roughly twice as
// tall as it is wide.
const (
	DefaultCellWidth  = 12
	DefaultCellHeight = 24
)

// minStrokeAlpha drops faint strokes such as glow, which a character cell
// cannot show.
const minStrokeAlpha = 0.25

// Connection bits of a cell.
const (
	linkUp uint8 = 1 << iota
	linkDown
	linkLeft
	linkRight
)

var glyphs = [16]rune{
	0:                                       ' ',
	linkUp:                                  '╵',
	linkDown:                                '╷',
	linkUp | linkDown:                       '│',
	linkLeft:                                '╴',
	linkUp | linkLeft:                       '┘',
	linkDown | linkLeft:                     '┐',
	linkUp | linkDown | linkLeft:            '┤',
	linkRight:                               '╶',
	linkUp | linkRight:                      '└',
	linkDown | linkRight:                    '┌',
	linkUp | linkDown | linkRight:           '├',
	linkLeft | linkRight:                    '─',
	linkUp | linkLeft | linkRight:           '┴',
	linkDown | linkLeft | linkRight:         '┬',
	linkUp | linkDown | linkLeft | linkRight: '┼',
}

type cell struct {
	links uint8
	color bramble.Color
}

// GridCanvas is a bramble.Canvas that rasterizes axis-aligned strokes into a
// grid of box-drawing characters. Its pixel size is the cell count times the
// cell size, so the simulation runs in the same coordinates as on a real
// surface.
type GridCanvas struct {
	CellW, CellH float64
	// Color renders cells with their stroke colour. Off, output is plain.
	Color bool

	cols, rows int
	cells      []cell
	background bramble.Color
	visible    bool
}

var _ bramble.Canvas = (*GridCanvas)(nil)

// NewGridCanvas creates a visible grid of cols×rows cells.
func NewGridCanvas(cols, rows int) *GridCanvas {
	g := &GridCanvas{CellW: DefaultCellWidth, CellH: DefaultCellHeight, Color: true, visible: true}
	g.setCells(cols, rows)
	return g
}

func (g *GridCanvas) setCells(cols, rows int) {
	g.cols, g.rows = max(cols, 1), max(rows, 1)
	g.cells = make([]cell, g.cols*g.rows)
}

// Cells returns the grid size in cells.
func (g *GridCanvas) Cells() (cols, rows int) { return g.cols, g.rows }

// Size returns the canvas size in pixels.
func (g *GridCanvas) Size() (int, int) {
	return int(float64(g.cols) * g.CellW), int(float64(g.rows) * g.CellH)
}

// Resize sets the pixel size. It is rounded down to whole cells.
func (g *GridCanvas) Resize(w, h int) {
	cols, rows := int(float64(w)/g.CellW), int(float64(h)/g.CellH)
	if cols == g.cols && rows == g.rows {
		return
	}
	g.setCells(cols, rows)
}

// Clear empties every cell and sets the background.
func (g *GridCanvas) Clear(col bramble.Color) {
	clear(g.cells)
	g.background = col
}

// SetVisible shows or hides the grid.
func (g *GridCanvas) SetVisible(v bool) { g.visible = v }

// Visible reports whether the grid is shown.
func (g *GridCanvas) Visible() bool { return g.visible }

// StrokeLine marks the cells the line passes through. Lines are treated as
// horizontal or vertical by their dominant axis. Width and cap are ignored.
func (g *GridCanvas) StrokeLine(x0, y0, x1, y1, _ float64, col bramble.Color, _ bramble.LineCap) {
	if col.A < minStrokeAlpha {
		return
	}
	c0, r0 := g.cellOf(x0, y0)
	c1, r1 := g.cellOf(x1, y1)
	if math.Abs(x1-x0) >= math.Abs(y1-y0) {
		a, b := min(c0, c1), max(c0, c1)
		for c := a; c <= b; c++ {
			var links uint8
			if c > a || a == b {
				links |= linkLeft
			}
			if c < b || a == b {
				links |= linkRight
			}
			g.mark(c, r0, links, col)
		}
		return
	}
	a, b := min(r0, r1), max(r0, r1)
	for r := a; r <= b; r++ {
		var links uint8
		if r > a || a == b {
			links |= linkUp
		}
		if r < b || a == b {
			links |= linkDown
		}
		g.mark(c0, r, links, col)
	}
}

func (g *GridCanvas) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / g.CellW)), int(math.Floor(y / g.CellH))
}

func (g *GridCanvas) mark(c, r int, links uint8, col bramble.Color) {
	if c < 0 || r < 0 || c >= g.cols || r >= g.rows {
		return
	}
	cl := &g.cells[r*g.cols+c]
	cl.links |= links
	cl.color = col
}

// Glyph returns the character at a cell.
func (g *GridCanvas) Glyph(c, r int) rune {
	if c < 0 || r < 0 || c >= g.cols || r >= g.rows {
		return ' '
	}
	return glyphs[g.cells[r*g.cols+c].links]
}

// Render returns the grid as lines of text. With Color set, runs of cells
// sharing a colour are wrapped in one lipgloss style.
func (g *GridCanvas) Render() string {
	var sb strings.Builder
	var run strings.Builder
	bg := lipgloss.NewStyle()
	if g.Color && g.background.A > 0 {
		bg = bg.Background(lipColor(g.background))
	}
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		row := g.cells[r*g.cols : (r+1)*g.cols]
		for i := 0; i < len(row); {
			j := i
			run.Reset()
			for j < len(row) && sameInk(row[i], row[j]) {
				run.WriteRune(glyphs[row[j].links])
				j++
			}
			if !g.Color {
				sb.WriteString(run.String())
			} else if row[i].links == 0 {
				sb.WriteString(bg.Render(run.String()))
			} else {
				sb.WriteString(bg.Foreground(lipColor(row[i].color)).Render(run.String()))
			}
			i = j
		}
	}
	return sb.String()
}

func sameInk(a, b cell) bool {
	if a.links == 0 || b.links == 0 {
		return a.links == b.links
	}
	return a.color == b.color
}

func lipColor(c bramble.Color) lipgloss.Color {
	n := c.NRGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B))
}
