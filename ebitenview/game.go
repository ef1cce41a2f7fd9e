// Package ebitenview runs the bramble simulation in an Ebitengine window.
//
// The window stands in for the browser page: its size is the viewport, a
// static region list plays the role of the page's UI panels, and window
// resizes go through the same debounced Viewport as page resizes.
package ebitenview

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/phanxgames/bramble"
)

// RunConfig configures a window.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// ShowFPS starts with the statistics overlay visible. F toggles it.
	ShowFPS       bool
	ScreenshotDir string
	Sim           bramble.Config
	Regions       []bramble.Region
	// Script is replayed one step per tick when set.
	Script *bramble.ScriptRunner
	// Updates delivers replacement region lists, for example from a config
	// file watcher. They are applied at the top of the next tick.
	Updates <-chan []bramble.Region
	Logger  *zerolog.Logger
}

type command uint8

const (
	cmdToggleOverlay command = iota
	cmdScreenshot
	cmdRestart
	cmdQuit
)

var keyCommands = []struct {
	key ebiten.Key
	cmd command
}{
	{ebiten.KeyF, cmdToggleOverlay},
	{ebiten.KeyP, cmdScreenshot},
	{ebiten.KeyR, cmdRestart},
	{ebiten.KeyEscape, cmdQuit},
}

// Game implements ebiten.Game around a bramble driver.
type Game struct {
	Driver   *bramble.Driver
	Viewport *bramble.Viewport
	Frames   *bramble.FrameQueue
	Canvas   *Canvas
	Env      *bramble.StaticEnvironment

	cfg         RunConfig
	log         zerolog.Logger
	overlay     *overlay
	showOverlay bool
	shots       []string
}

// NewGame builds the driver, viewport and canvas for cfg. Nothing starts
// until Init is scheduled or a restart is requested.
func NewGame(cfg RunConfig) *Game {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	if cfg.Sim.TPS <= 0 {
		cfg.Sim.TPS = 60
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "ebitenview").Logger()
		cfg.Sim.Logger = cfg.Logger
	}

	env := &bramble.StaticEnvironment{Width: cfg.Width, Height: cfg.Height, UI: cfg.Regions}
	canvas := NewCanvas(cfg.Width, cfg.Height)
	frames := bramble.NewFrameQueue()
	d := bramble.NewDriver(cfg.Sim, env, canvas, frames)
	g := &Game{
		Driver:      d,
		Viewport:    bramble.NewViewport(d),
		Frames:      frames,
		Canvas:      canvas,
		Env:         env,
		cfg:         cfg,
		log:         log,
		overlay:     newOverlay(),
		showOverlay: cfg.ShowFPS,
	}
	if cfg.Script != nil {
		if cfg.Script.Resize == nil {
			cfg.Script.Resize = ebiten.SetWindowSize
		}
		if cfg.Script.OnSnapshot == nil {
			cfg.Script.OnSnapshot = g.Screenshot
		}
	}
	return g
}

// Update runs one tick: pending region updates, key commands, the scenario
// script, due viewport work and the frame queue.
func (g *Game) Update() error {
	now := time.Now()
	g.applyUpdates()
	for _, kc := range keyCommands {
		if inpututil.IsKeyJustPressed(kc.key) {
			if err := g.command(kc.cmd); err != nil {
				return err
			}
		}
	}
	if g.cfg.Script != nil {
		g.cfg.Script.Step(g.Viewport, now)
	}
	g.Viewport.Poll(now)
	g.Frames.RunFrame()
	if g.showOverlay {
		g.overlay.update(1/float64(g.cfg.Sim.TPS), g.Driver.Stats(), g.Driver.Active())
	}
	return nil
}

func (g *Game) command(c command) error {
	switch c {
	case cmdToggleOverlay:
		g.showOverlay = !g.showOverlay
	case cmdScreenshot:
		g.Screenshot("manual")
	case cmdRestart:
		g.Driver.ClearMemory()
		g.Driver.Init()
	case cmdQuit:
		g.Driver.ClearMemory()
		return ebiten.Termination
	}
	return nil
}

func (g *Game) applyUpdates() {
	if g.cfg.Updates == nil {
		return
	}
	for {
		select {
		case regions, ok := <-g.cfg.Updates:
			if !ok {
				g.cfg.Updates = nil
				return
			}
			g.Env.SetRegions(regions)
			g.log.Info().Int("regions", len(regions)).Msg("regions updated")
		default:
			return
		}
	}
}

// Draw composites the canvas and overlay onto the screen and flushes queued
// screenshots.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.Canvas.Visible() {
		screen.DrawImage(g.Canvas.Image(), nil)
	}
	g.flushScreenshots(screen)
	if g.showOverlay {
		g.overlay.draw(screen)
	}
}

// Layout reports the window size as the viewport. A change is fed to the
// viewport as a resize event.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.Env.ViewportSize()
	if outsideWidth != w || outsideHeight != h {
		g.Env.SetSize(outsideWidth, outsideHeight)
		g.Viewport.HandleResize(time.Now())
	}
	return outsideWidth, outsideHeight
}

// Run opens a resizable window and blocks until it is closed. The animation
// starts after the viewport's init delay.
func Run(cfg RunConfig) error {
	g := NewGame(cfg)
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.cfg.Sim.TPS)

	g.Viewport.ScheduleInit(time.Now())
	err := ebiten.RunGame(g)
	g.Canvas.Dispose()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
