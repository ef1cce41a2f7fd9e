package bramble

import "time"

// Default debounce delays of the viewport manager.
const (
	DefaultResizeDelay      = 150 * time.Millisecond
	DefaultOrientationDelay = 300 * time.Millisecond
	DefaultVisualDelay      = 50 * time.Millisecond
	DefaultInitDelay        = 500 * time.Millisecond
)

// Viewport keeps the canvas in sync with the host viewport. Bursts of
// resize events are coalesced into a single recompute that fires once the
// delay has passed since the last event. Time is supplied by the caller, so
// hosts drive it from their frame clock and tests from a fake one.
type Viewport struct {
	ResizeDelay      time.Duration
	OrientationDelay time.Duration
	VisualDelay      time.Duration
	InitDelay        time.Duration
	// AutoInit re-runs Init when the viewport leaves the mobile class.
	AutoInit bool

	driver *Driver

	due        time.Time
	pending    bool
	initDue    time.Time
	initQueued bool

	mobile     bool
	recomputes int
}

// NewViewport creates a manager for d. The environment and canvas are the
// driver's.
func NewViewport(d *Driver) *Viewport {
	w, _ := d.Env().ViewportSize()
	return &Viewport{
		ResizeDelay:      DefaultResizeDelay,
		OrientationDelay: DefaultOrientationDelay,
		VisualDelay:      DefaultVisualDelay,
		InitDelay:        DefaultInitDelay,
		AutoInit:         true,
		driver:           d,
		mobile:           IsMobile(w, d.Env().UserAgent()),
	}
}

// HandleResize reports a window resize.
func (v *Viewport) HandleResize(now time.Time) {
	v.schedule(now, v.ResizeDelay)
}

// HandleOrientationChange reports a device orientation change.
func (v *Viewport) HandleOrientationChange(now time.Time) {
	v.schedule(now, v.OrientationDelay)
}

// HandleVisualResize reports a scroll or visual viewport change, such as a
// collapsing address bar. Narrow viewports ignore it.
func (v *Viewport) HandleVisualResize(now time.Time) {
	if w, _ := v.driver.Env().ViewportSize(); w <= MobileMaxWidth {
		return
	}
	v.schedule(now, v.VisualDelay)
}

// ScheduleInit starts the driver InitDelay after now, unless the viewport is
// narrow by then.
func (v *Viewport) ScheduleInit(now time.Time) {
	v.initDue = now.Add(v.InitDelay)
	v.initQueued = true
}

func (v *Viewport) schedule(now time.Time, delay time.Duration) {
	v.due = now.Add(delay)
	v.pending = true
}

// Pending reports whether a recompute is waiting for its delay.
func (v *Viewport) Pending() bool { return v.pending }

// Recomputes returns how many recomputes have been applied.
func (v *Viewport) Recomputes() int { return v.recomputes }

// Poll applies due work: the debounced recompute and the scheduled init. It
// reports whether a recompute ran.
func (v *Viewport) Poll(now time.Time) bool {
	ran := false
	if v.pending && !now.Before(v.due) {
		v.pending = false
		v.Recompute()
		ran = true
	}
	if v.initQueued && !now.Before(v.initDue) {
		v.initQueued = false
		if w, _ := v.driver.Env().ViewportSize(); w > MobileMaxWidth {
			v.driver.Init()
		}
	}
	return ran
}

// Recompute applies the current viewport immediately. On a mobile-class
// device the canvas is hidden and an active driver is stopped and cleared.
// Otherwise the canvas is resized and an active driver restarts every tree
// at its new root.
func (v *Viewport) Recompute() {
	d := v.driver
	w, h := d.Env().ViewportSize()
	wasMobile := v.mobile
	v.mobile = IsMobile(w, d.Env().UserAgent())
	v.recomputes++

	c := d.Canvas()
	if v.mobile {
		if c != nil {
			c.SetVisible(false)
		}
		if d.Active() {
			d.Stop()
			d.ClearMemory()
		}
		return
	}
	if c == nil {
		return
	}
	c.SetVisible(true)
	c.Resize(w, h)
	switch {
	case d.Active():
		d.Relayout()
	case wasMobile && v.AutoInit:
		d.Init()
	}
}
