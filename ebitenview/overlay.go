package ebitenview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/bramble"
)

// overlayRefresh is how often the overlay text is redrawn, in seconds.
const overlayRefresh = 0.5

// overlay shows FPS, TPS and the driver's frame statistics in the top-left
// corner. Its image is only redrawn every overlayRefresh seconds.
type overlay struct {
	img     *ebiten.Image
	elapsed float64
	text    string
}

func newOverlay() *overlay {
	// 220x64 fits four lines of debug text.
	return &overlay{img: ebiten.NewImage(220, 64), elapsed: overlayRefresh}
}

func (o *overlay) update(dt float64, st bramble.FrameStats, active bool) {
	o.elapsed += dt
	if o.elapsed < overlayRefresh {
		return
	}
	o.elapsed = 0
	o.text = overlayText(ebiten.ActualFPS(), ebiten.ActualTPS(), st, active)

	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

func (o *overlay) draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}

func overlayText(fps, tps float64, st bramble.FrameStats, active bool) string {
	state := "running"
	if !active {
		state = "stopped"
	}
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f\nframe %d (%s)\ntrees %d  dormant %d\nsegments %d  drawn %d",
		fps, tps, st.Frame, state, st.Trees, st.Dormant, st.Segments, st.Drawn)
}
