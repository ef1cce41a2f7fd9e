package bramble

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Ramp eases a single value between two endpoints. Time units are up to the
// caller: trees step bursts in ticks, the driver steps the recession fade in
// seconds.
//
// A zero Ramp holds Value 0 and reports Done.
type Ramp struct {
	tween *gween.Tween
	value float64
	Done  bool
}

// NewRamp creates a ramp from begin to end over duration using fn.
// A non-positive duration jumps straight to end.
func NewRamp(begin, end float64, duration float32, fn ease.TweenFunc) Ramp {
	if duration <= 0 {
		return Ramp{value: end, Done: true}
	}
	return Ramp{
		tween: gween.New(float32(begin), float32(end), duration, fn),
		value: begin,
	}
}

// Update advances the ramp by dt and returns the current value.
func (r *Ramp) Update(dt float32) float64 {
	if r.Done || r.tween == nil {
		r.Done = true
		return r.value
	}
	v, finished := r.tween.Update(dt)
	r.value = float64(v)
	r.Done = finished
	return r.value
}

// Value returns the most recent value without advancing.
func (r *Ramp) Value() float64 {
	return r.value
}
