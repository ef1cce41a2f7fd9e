package bramble

import (
	"math/rand/v2"

	"github.com/tanema/gween/ease"
)

// Phase is the recession cycle state.
type Phase uint8

const (
	PhaseGrowing Phase = iota
	PhaseReceding
)

func (p Phase) String() string {
	if p == PhaseReceding {
		return "receding"
	}
	return "growing"
}

// fadeInSeconds is how long the draw alpha takes to recover after a
// receding period.
const fadeInSeconds = 0.25

// GrowthPhase alternates growing and receding periods. Trees only grow while
// growing; while receding the draw alpha fades out. Segments never shrink.
// With recession disabled the phase stays growing forever at full alpha.
type GrowthPhase struct {
	cfg RecessionConfig
	rng *rand.Rand

	phase    Phase
	elapsed  float64
	duration float64
	fade     Ramp
	alpha    float64
	cycles   int
}

// NewGrowthPhase creates a phase cycle in the growing state.
func NewGrowthPhase(cfg RecessionConfig, rng *rand.Rand) *GrowthPhase {
	g := &GrowthPhase{cfg: cfg, rng: rng}
	g.Reset()
	return g
}

// Reset starts a fresh growing period at full alpha.
func (g *GrowthPhase) Reset() {
	g.phase = PhaseGrowing
	g.elapsed = 0
	g.duration = g.cfg.Growing.Random(g.rng)
	g.fade = Ramp{value: 1, Done: true}
	g.alpha = 1
	g.cycles = 0
}

// Phase returns the current state.
func (g *GrowthPhase) Phase() Phase { return g.phase }

// Growing reports whether trees should update this tick.
func (g *GrowthPhase) Growing() bool { return g.phase == PhaseGrowing }

// Alpha returns the draw alpha in [0, 1].
func (g *GrowthPhase) Alpha() float64 { return g.alpha }

// Cycles returns the number of completed receding periods since Reset.
func (g *GrowthPhase) Cycles() int { return g.cycles }

// Step advances the cycle by dt seconds. It returns true on the tick a
// receding period ends, which is when trees may restart.
func (g *GrowthPhase) Step(dt float64) bool {
	if !g.cfg.Enabled {
		return false
	}
	g.elapsed += dt
	switch g.phase {
	case PhaseGrowing:
		g.alpha = g.fade.Update(float32(dt))
		early := g.elapsed > g.cfg.EarlyAfter*g.duration && g.rng.Float64() < g.cfg.EarlyChance
		if g.elapsed >= g.duration || early {
			g.phase = PhaseReceding
			g.elapsed = 0
			g.duration = g.cfg.Receding.Random(g.rng)
			g.fade = NewRamp(g.alpha, g.cfg.FadeAlpha, float32(g.duration), ease.InOutQuad)
		}
	case PhaseReceding:
		g.alpha = g.fade.Update(float32(dt))
		if g.elapsed >= g.duration {
			g.phase = PhaseGrowing
			g.elapsed = 0
			g.duration = g.cfg.Growing.Random(g.rng)
			g.fade = NewRamp(g.alpha, 1, fadeInSeconds, ease.OutQuad)
			g.cycles++
			return true
		}
	}
	return false
}

// ShouldRestart decides whether a tree with n segments starts over after a
// receding period.
func (g *GrowthPhase) ShouldRestart(n int) bool {
	return n < g.cfg.RestartBelow || g.rng.Float64() < g.cfg.RestartChance
}
