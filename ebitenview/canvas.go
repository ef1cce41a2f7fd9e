package ebitenview

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/bramble"
)

// Canvas is a persistent offscreen ebiten image the driver draws into. The
// game composites it onto the screen every frame while it is visible.
type Canvas struct {
	image   *ebiten.Image
	w, h    int
	visible bool
}

var _ bramble.Canvas = (*Canvas)(nil)

// NewCanvas creates a visible canvas of the given size. Sizes below one
// pixel are raised to one.
func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 1), max(h, 1)
	return &Canvas{image: ebiten.NewImage(w, h), w: w, h: h, visible: true}
}

// Image returns the underlying image.
func (c *Canvas) Image() *ebiten.Image { return c.image }

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// Resize replaces the backing image when the size changes. The contents are
// discarded.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == c.w && h == c.h {
		return
	}
	c.image.Deallocate()
	c.image = ebiten.NewImage(w, h)
	c.w, c.h = w, h
}

// Clear fills the canvas with col.
func (c *Canvas) Clear(col bramble.Color) {
	if col.A <= 0 {
		c.image.Clear()
		return
	}
	c.image.Fill(col.NRGBA())
}

// StrokeLine draws an antialiased line. Round caps are drawn as discs at
// both ends.
func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float64, col bramble.Color, lineCap bramble.LineCap) {
	clr := col.NRGBA()
	vector.StrokeLine(c.image, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), clr, true)
	if lineCap == bramble.CapRound {
		r := float32(width / 2)
		vector.DrawFilledCircle(c.image, float32(x0), float32(y0), r, clr, true)
		vector.DrawFilledCircle(c.image, float32(x1), float32(y1), r, clr, true)
	}
}

// SetVisible shows or hides the canvas.
func (c *Canvas) SetVisible(v bool) { c.visible = v }

// Visible reports whether the canvas is shown.
func (c *Canvas) Visible() bool { return c.visible }

// Dispose releases the backing image. The canvas must not be used after.
func (c *Canvas) Dispose() {
	if c.image != nil {
		c.image.Deallocate()
		c.image = nil
	}
}
