package bramble

import (
	"image"
	"io"

	"github.com/fogleman/gg"
)

// Canvas is the drawing surface mutated by the driver every tick. Sizes are
// in pixels; coordinates follow the viewport (origin top-left, Y down).
type Canvas interface {
	Size() (w, h int)
	Resize(w, h int)
	Clear(c Color)
	StrokeLine(x0, y0, x1, y1, width float64, c Color, lineCap LineCap)
	SetVisible(visible bool)
}

// RasterCanvas is a software Canvas backed by a gg context. It is used by
// the headless renderer and by tests that need real pixels.
type RasterCanvas struct {
	dc      *gg.Context
	visible bool
}

// NewRasterCanvas creates a visible canvas. Sizes below 1 are clamped to 1.
func NewRasterCanvas(w, h int) *RasterCanvas {
	w, h = max(w, 1), max(h, 1)
	return &RasterCanvas{dc: gg.NewContext(w, h), visible: true}
}

// Size returns the canvas size in pixels.
func (c *RasterCanvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

// Resize reallocates the backing image when the size changes. Content is
// discarded.
func (c *RasterCanvas) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == c.dc.Width() && h == c.dc.Height() {
		return
	}
	c.dc = gg.NewContext(w, h)
}

// Clear fills the whole canvas with col, replacing existing pixels.
func (c *RasterCanvas) Clear(col Color) {
	c.dc.SetColor(col.NRGBA())
	c.dc.Clear()
}

// StrokeLine draws a straight line.
func (c *RasterCanvas) StrokeLine(x0, y0, x1, y1, width float64, col Color, lineCap LineCap) {
	c.dc.SetColor(col.NRGBA())
	c.dc.SetLineWidth(width)
	if lineCap == CapRound {
		c.dc.SetLineCap(gg.LineCapRound)
	} else {
		c.dc.SetLineCap(gg.LineCapButt)
	}
	c.dc.DrawLine(x0, y0, x1, y1)
	c.dc.Stroke()
}

// SetVisible records the visibility flag. A hidden raster canvas still
// accepts drawing.
func (c *RasterCanvas) SetVisible(v bool) { c.visible = v }

// Visible reports the visibility flag.
func (c *RasterCanvas) Visible() bool { return c.visible }

// Image returns the backing image.
func (c *RasterCanvas) Image() image.Image { return c.dc.Image() }

// SavePNG writes the canvas to a PNG file.
func (c *RasterCanvas) SavePNG(path string) error {
	return c.dc.SavePNG(path)
}

// EncodePNG writes the canvas as PNG to w.
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}
