package bramble

import "github.com/tanema/gween/ease"

// burst is a timed growth-speed boost. The multiplier eases from 1 up to the
// peak over the ramp and stays there until the burst runs out.
type burst struct {
	active    bool
	remaining int
	ramp      Ramp
}

func (b *burst) start(ticks int, peak float64, rampTicks int) {
	if ticks <= 0 {
		return
	}
	b.active = true
	b.remaining = ticks
	b.ramp = NewRamp(1, peak, float32(rampTicks), ease.OutQuad)
}

// step advances the burst by one tick and reports whether it ended.
func (b *burst) step() bool {
	if !b.active {
		return false
	}
	b.ramp.Update(1)
	b.remaining--
	if b.remaining <= 0 {
		b.stop()
		return true
	}
	return false
}

func (b *burst) stop() {
	b.active = false
	b.remaining = 0
	b.ramp = Ramp{}
}

// multiplier returns the current speed factor, 1 outside a burst.
func (b *burst) multiplier() float64 {
	if !b.active {
		return 1
	}
	if v := b.ramp.Value(); v > 1 {
		return v
	}
	return 1
}
