package bramble

import (
	"context"
	"sync"
	"time"
)

// StaticEnvironment is an Environment with a fixed region list, used outside
// a browser: by the CLI renderers and by tests.
type StaticEnvironment struct {
	Width, Height int
	Agent         string
	UI            []Region

	mu sync.RWMutex
}

// Regions returns the UI regions.
func (e *StaticEnvironment) Regions() []Region {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.UI
}

// ViewportSize returns the viewport size.
func (e *StaticEnvironment) ViewportSize() (int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Width, e.Height
}

// UserAgent returns the configured user agent.
func (e *StaticEnvironment) UserAgent() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Agent
}

// SetSize changes the viewport size.
func (e *StaticEnvironment) SetSize(w, h int) {
	e.mu.Lock()
	e.Width, e.Height = w, h
	e.mu.Unlock()
}

// SetRegions replaces the region list.
func (e *StaticEnvironment) SetRegions(r []Region) {
	e.mu.Lock()
	e.UI = r
	e.mu.Unlock()
}

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	t time.Time
}

// NewManualClock creates a clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{t: start}
}

// Now returns the current reading.
func (c *ManualClock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Headless runs a driver without a display. Every step advances a manual
// clock by one tick period, so runs are reproducible for a fixed seed.
type Headless struct {
	Driver   *Driver
	Viewport *Viewport
	Frames   *FrameQueue
	Canvas   *RasterCanvas
	Env      *StaticEnvironment
	Clock    *ManualClock

	period time.Duration
}

// NewHeadless wires a driver, viewport and raster canvas around env.
// cfg.Now is replaced by the manual clock.
func NewHeadless(cfg Config, env *StaticEnvironment) *Headless {
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	clock := NewManualClock(time.Unix(0, 0).UTC())
	cfg.Now = clock.Now
	w, h := env.ViewportSize()
	canvas := NewRasterCanvas(w, h)
	frames := NewFrameQueue()
	d := NewDriver(cfg, env, canvas, frames)
	return &Headless{
		Driver:   d,
		Viewport: NewViewport(d),
		Frames:   frames,
		Canvas:   canvas,
		Env:      env,
		Clock:    clock,
		period:   time.Second / time.Duration(cfg.TPS),
	}
}

// Step runs one frame: due viewport work, then the frame queue, then the
// clock advances by one tick period.
func (h *Headless) Step() {
	h.Viewport.Poll(h.Clock.Now())
	h.Frames.RunFrame()
	h.Clock.Advance(h.period)
}

// Run steps up to frames frames, replaying runner when it is not nil. With
// frames <= 0 it runs until the driver is inactive and the script is done.
// It returns the number of frames stepped and the context error if ctx ended
// the run.
func (h *Headless) Run(ctx context.Context, frames int, runner *ScriptRunner) (int, error) {
	if runner != nil && runner.Resize == nil {
		runner.Resize = h.Env.SetSize
	}
	n := 0
	for frames <= 0 || n < frames {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if runner != nil {
			runner.Step(h.Viewport, h.Clock.Now())
		}
		h.Step()
		n++
		if frames <= 0 && !h.Driver.Active() && !h.Viewport.Pending() && (runner == nil || runner.Done()) {
			break
		}
	}
	return n, nil
}
