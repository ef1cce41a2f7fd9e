package bramble

import (
	"errors"
	"math"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoCanvas is logged when a driver is created without a drawing surface.
// Such a driver declines every Init.
var ErrNoCanvas = errors.New("bramble: no canvas")

// MobileMaxWidth is the widest viewport treated as a mobile device.
const MobileMaxWidth = 768

var mobileAgent = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsMobile reports whether a viewport of the given width, or the given user
// agent, belongs to a mobile-class device. The simulation never runs there.
func IsMobile(width int, userAgent string) bool {
	return width <= MobileMaxWidth || mobileAgent.MatchString(userAgent)
}

// Environment is the host the driver runs in: the UI regions to avoid, the
// viewport size and the device class signal.
type Environment interface {
	RegionSource
	ViewportSize() (w, h int)
	UserAgent() string
}

// LifecycleEvent is reported to the Observer on every lifecycle transition.
type LifecycleEvent uint8

const (
	LifecycleInit LifecycleEvent = iota
	LifecycleRefused
	LifecycleStop
	LifecycleClear
	LifecycleRelayout
	LifecycleAutoStop
)

func (e LifecycleEvent) String() string {
	switch e {
	case LifecycleInit:
		return "init"
	case LifecycleRefused:
		return "refused"
	case LifecycleStop:
		return "stop"
	case LifecycleClear:
		return "clear"
	case LifecycleRelayout:
		return "relayout"
	case LifecycleAutoStop:
		return "autostop"
	}
	return "unknown"
}

// FrameStats summarizes one driver tick.
type FrameStats struct {
	Frame          int
	Elapsed        time.Duration
	Trees          int
	Dormant        int
	Segments       int
	Drawn          int
	Tick           TickStats
	Phase          Phase
	Alpha          float64
	FieldRects     int
	FieldRefreshed bool
	UpdateTime     time.Duration
	DrawTime       time.Duration
}

// Observer receives frame statistics and lifecycle events. Calls happen on
// the goroutine that runs the frame queue.
type Observer interface {
	ObserveFrame(FrameStats)
	ObserveLifecycle(LifecycleEvent)
}

// Config configures a Driver.
type Config struct {
	Profile Profile
	// MaxRunTime stops the animation once this much wall time has passed
	// since Init. Zero runs forever.
	MaxRunTime time.Duration
	// FieldRefreshFrames is how often the collision field is rebuilt.
	// Zero disables periodic rebuilds.
	FieldRefreshFrames int
	// TPS is the expected tick rate. It converts ticks into simulated
	// seconds for the recession cycle.
	TPS int
	// Seed makes growth reproducible. Zero seeds from the runtime.
	Seed    uint64
	Padding PaddingTable
	// Logger receives lifecycle logs. Nil discards them.
	Logger   *zerolog.Logger
	Observer Observer
	// Debug logs per-frame timings at debug level.
	Debug bool
	// Now is the wall clock. Nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns the configuration of the canonical vertical variant.
func DefaultConfig() Config {
	return Config{
		Profile:            VerticalProfile(),
		MaxRunTime:         20 * time.Second,
		FieldRefreshFrames: 120,
		TPS:                60,
		Padding:            DefaultPadding(),
	}
}

// Driver owns the whole simulation: trees, collision field, frame counters
// and the scheduled frame callback. All methods must be called from the
// goroutine that runs the FrameQueue.
type Driver struct {
	cfg     Config
	profile *Profile
	env     Environment
	canvas  Canvas
	frames  *FrameQueue
	log     zerolog.Logger
	now     func() time.Time
	rng     *rand.Rand

	field *CollisionField
	trees []*Tree
	phase *GrowthPhase

	active  bool
	frameID FrameID
	frame   int
	start   time.Time
	spacing float64
	stats   FrameStats
	debug   debugStats
}

// NewDriver creates an inactive driver. env must not be nil. A nil frames
// queue gets a private one, reachable through Frames. A nil canvas is logged
// and makes every Init decline.
func NewDriver(cfg Config, env Environment, canvas Canvas, frames *FrameQueue) *Driver {
	if frames == nil {
		frames = NewFrameQueue()
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	if cfg.Profile.Name == "" {
		cfg.Profile = VerticalProfile()
	}
	d := &Driver{
		cfg:    cfg,
		env:    env,
		canvas: canvas,
		frames: frames,
		log:    zerolog.Nop(),
		now:    cfg.Now,
		field:  NewCollisionField(cfg.Padding),
	}
	d.profile = &d.cfg.Profile
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("component", "bramble").Logger()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if cfg.Seed != 0 {
		d.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	} else {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	d.phase = NewGrowthPhase(d.profile.Recession, d.rng)
	if canvas == nil {
		d.log.Error().Err(ErrNoCanvas).Msg("drawing surface unavailable, animation disabled")
	}
	return d
}

// Init starts the animation. It is a no-op returning true when already
// active, and returns false without starting on a mobile-class device or
// without a canvas.
func (d *Driver) Init() bool {
	if d.active {
		return true
	}
	if d.canvas == nil {
		d.log.Warn().Err(ErrNoCanvas).Msg("init declined")
		d.notify(LifecycleRefused)
		return false
	}
	w, h := d.env.ViewportSize()
	if IsMobile(w, d.env.UserAgent()) {
		d.canvas.SetVisible(false)
		d.log.Info().Int("width", w).Msg("mobile device detected, skipping initialization")
		d.notify(LifecycleRefused)
		return false
	}

	d.canvas.SetVisible(true)
	d.canvas.Resize(w, h)
	d.frame = 0
	d.stats = FrameStats{}
	d.recomputeField()
	d.buildTrees(w, h)
	d.phase.Reset()
	d.start = d.now()
	d.active = true
	d.frameID = d.frames.RequestFrame(d.animate)

	d.log.Info().
		Str("profile", d.profile.Name).
		Int("trees", len(d.trees)).
		Int("width", w).Int("height", h).
		Float64("spacing", d.spacing).
		Msg("animation started")
	d.notify(LifecycleInit)
	return true
}

// Stop cancels the scheduled frame and marks the driver inactive. Trees are
// kept. Calling Stop on an inactive driver does nothing.
func (d *Driver) Stop() {
	if !d.active {
		return
	}
	d.stop()
	d.log.Info().Int("frame", d.frame).Msg("animation stopped")
	d.notify(LifecycleStop)
}

func (d *Driver) stop() {
	d.frames.CancelFrame(d.frameID)
	d.frameID = 0
	d.active = false
}

// ClearMemory stops the animation, drops every tree and the collision field
// and clears the canvas. It is safe to call repeatedly.
func (d *Driver) ClearMemory() {
	d.Stop()
	d.trees = nil
	d.field.Clear()
	d.frame = 0
	d.stats = FrameStats{}
	if d.canvas != nil {
		d.canvas.Clear(ColorTransparent)
	}
	d.log.Debug().Msg("memory cleared")
	d.notify(LifecycleClear)
}

// Relayout rebuilds every tree at a root derived from the current canvas
// size and refreshes the collision field. The growth phase and the run
// clock carry over, so MaxRunTime counts from Init, not from the last
// resize. Nothing happens while inactive.
func (d *Driver) Relayout() {
	if !d.active {
		return
	}
	w, h := d.canvas.Size()
	d.recomputeField()
	d.buildTrees(w, h)
	d.log.Debug().Int("width", w).Int("height", h).Int("trees", len(d.trees)).Msg("relayout")
	d.notify(LifecycleRelayout)
}

// animate is the frame callback. The active flag is checked before the
// successor frame is requested so a stopped loop never resurrects.
func (d *Driver) animate() {
	if !d.active {
		return
	}
	d.frameID = d.frames.RequestFrame(d.animate)
	d.tick()
}

func (d *Driver) tick() {
	d.frame++
	elapsed := d.now().Sub(d.start)
	if d.cfg.MaxRunTime > 0 && elapsed >= d.cfg.MaxRunTime {
		d.stop()
		d.log.Info().Dur("elapsed", elapsed).Int("frame", d.frame).Msg("run time elapsed, animation stopped")
		d.notify(LifecycleAutoStop)
		return
	}

	st := FrameStats{Frame: d.frame, Elapsed: elapsed}
	if d.cfg.FieldRefreshFrames > 0 && d.frame%d.cfg.FieldRefreshFrames == 0 {
		d.recomputeField()
		st.FieldRefreshed = true
	}

	if d.phase.Step(1 / float64(d.cfg.TPS)) {
		restarted := 0
		for _, t := range d.trees {
			if d.phase.ShouldRestart(t.Len()) {
				t.Reset()
				restarted++
			}
		}
		d.log.Debug().Int("restarted", restarted).Int("cycle", d.phase.Cycles()).Msg("recession ended")
	}

	t0 := time.Now()
	if d.phase.Growing() {
		for _, t := range d.trees {
			st.Tick.Add(t.Update())
		}
	}
	t1 := time.Now()
	st.Drawn = d.draw()
	t2 := time.Now()

	st.UpdateTime = t1.Sub(t0)
	st.DrawTime = t2.Sub(t1)
	st.Trees = len(d.trees)
	for _, t := range d.trees {
		st.Segments += t.Len()
		if t.Dormant() {
			st.Dormant++
		}
	}
	st.Phase = d.phase.Phase()
	st.Alpha = d.phase.Alpha()
	st.FieldRects = d.field.Len()
	d.stats = st

	if d.cfg.Debug {
		d.debugLog(st)
	}
	if d.cfg.Observer != nil {
		d.cfg.Observer.ObserveFrame(st)
	}
}

// draw clears the canvas and draws every tree.
func (d *Driver) draw() int {
	w, h := d.canvas.Size()
	style := &d.profile.Style
	d.canvas.Clear(style.Background)
	view := Rect{Width: float64(w), Height: float64(h)}
	alpha := d.phase.Alpha()
	n := 0
	for _, t := range d.trees {
		n += t.Draw(d.canvas, style, alpha, view)
	}
	return n
}

func (d *Driver) recomputeField() {
	if !d.profile.UseCollisionField {
		d.field.Clear()
		return
	}
	d.field.Recompute(d.env)
}

func (d *Driver) obstacles() Obstacles {
	if d.profile.UseCollisionField {
		return d.field
	}
	return NoObstacles
}

// buildTrees replaces every tree with a fresh one anchored on the edge
// opposite the primary axis.
func (d *Driver) buildTrees(w, h int) {
	roots, spacing := LayoutRoots(d.profile, w, h)
	d.spacing = spacing
	d.trees = d.trees[:0]
	for i, root := range roots {
		t := NewTree(i, d.profile, d.obstacles(), d.treeRand(i))
		t.SetRoot(root)
		t.Reset()
		d.trees = append(d.trees, t)
	}
}

func (d *Driver) treeRand(i int) *rand.Rand {
	if d.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(d.cfg.Seed, uint64(i)+1))
	}
	return rand.New(rand.NewPCG(d.rng.Uint64(), d.rng.Uint64()))
}

// LayoutRoots returns the root anchors for a w×h canvas and the spacing
// between them. Roots sit RootMargin away from the edge opposite the primary
// axis, evenly spaced along it; roots within EdgeMargin of the far end are
// dropped.
func LayoutRoots(p *Profile, w, h int) ([]Vec2, float64) {
	horizontal := p.Primary.DX != 0
	span := float64(w)
	if horizontal {
		span = float64(h)
	}
	spacing := math.Max(p.MinSpacing, span/float64(p.MaxTrees+1))

	var anchor float64
	switch p.Primary {
	case Up:
		anchor = float64(h) - p.RootMargin
	case Down:
		anchor = p.RootMargin
	case Right:
		anchor = p.RootMargin
	case Left:
		anchor = float64(w) - p.RootMargin
	}

	roots := make([]Vec2, 0, p.MaxTrees)
	for i := 0; i < p.MaxTrees; i++ {
		pos := spacing * float64(i+1)
		if pos >= span-p.EdgeMargin {
			continue
		}
		if horizontal {
			roots = append(roots, Vec2{anchor, pos})
		} else {
			roots = append(roots, Vec2{pos, anchor})
		}
	}
	return roots, spacing
}

func (d *Driver) notify(e LifecycleEvent) {
	if d.cfg.Observer != nil {
		d.cfg.Observer.ObserveLifecycle(e)
	}
}

// Active reports whether the animation loop is running.
func (d *Driver) Active() bool { return d.active }

// Trees returns the current trees.
func (d *Driver) Trees() []*Tree { return d.trees }

// Field returns the collision field.
func (d *Driver) Field() *CollisionField { return d.field }

// Frame returns the number of ticks since Init.
func (d *Driver) Frame() int { return d.frame }

// Stats returns the statistics of the last tick.
func (d *Driver) Stats() FrameStats { return d.stats }

// Phase returns the recession cycle.
func (d *Driver) Phase() *GrowthPhase { return d.phase }

// Spacing returns the root spacing of the current layout.
func (d *Driver) Spacing() float64 { return d.spacing }

// Profile returns the profile in use.
func (d *Driver) Profile() *Profile { return d.profile }

// Canvas returns the drawing surface.
func (d *Driver) Canvas() Canvas { return d.canvas }

// Frames returns the frame queue the driver schedules on.
func (d *Driver) Frames() *FrameQueue { return d.frames }

// Env returns the host environment.
func (d *Driver) Env() Environment { return d.env }
