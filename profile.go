package bramble

import (
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// Profile holds every tuning constant of the growth engine. The vertical
// profile is the canonical collision-aware variant; the horizontal profile
// grows rightward from the left edge without a collision field and with
// depth colours, glow and recession cycling.
//
// The heuristics are intentionally stochastic. Change the numbers freely; the
// invariants (caps, collision exclusion, monotonic progress) hold for any
// positive values.
type Profile struct {
	Name string

	// Primary is the main growth axis. Roots are anchored on the opposite edge.
	Primary Direction
	// Directions lists the candidate growth directions. The reverse of a
	// parent's direction is always excluded.
	Directions []Direction
	// UseCollisionField enables the UI collision field and target steering.
	UseCollisionField bool

	MaxTrees   int
	MinSpacing float64
	// RootMargin is the distance between the anchoring edge and the roots.
	RootMargin float64
	// EdgeMargin drops roots that would land closer than this to the far end
	// of the anchoring edge.
	EdgeMargin float64

	// Per-tree parameters, rolled on every Reset.
	Speed        Range
	BranchChance Range
	Bias         Range
	Thickness    Range

	RootLength Range
	ExtraRoots int

	// Segment length.
	BaseLength          Range
	ShallowLength       Range
	ShallowDepth        int
	LateralBonusShallow Range
	LateralBonus        Range
	PrimaryBonus        Range
	LengthDensityRadius float64
	DepthPenaltyRate    Range
	MaxDepthPenalty     float64
	MinSegmentLength    float64
	// MinGrowthLength is the divisor floor for the progress step so short
	// segments do not finish in a single tick.
	MinGrowthLength float64

	// Target steering.
	InfluenceRadius float64
	ReachedRadius   float64
	SteerChance     float64
	ContinueShare   float64

	// Branching.
	MaxBranches           int
	RandomPassMaxBranches int
	RandomPassMaxDepth    int
	BranchDensityRadius   float64

	// Per-tick caps.
	MaxDrainPerTick   int
	MaxAdvancePerTick int
	MaxBranchAttempts int
	StallRandomNodes  int

	// Stall recovery tries every direction from a segment. RecoveryMissLimit
	// is the number of such tries that may fail before the segment is no
	// longer offered; once no segment is left the tree turns dormant.
	RecoveryMissLimit int
	// A recovery child is refused when CrowdLimit segments already have an
	// endpoint within CrowdRadius of its end. Zero CrowdLimit disables it.
	CrowdRadius float64
	CrowdLimit  int

	// Bursts.
	BurstChance     float64
	BurstTicks      Range
	BurstMultiplier float64
	BurstRampTicks  int
	Jitter          Range

	Recession RecessionConfig
	Style     Style
}

// RecessionConfig controls the growing/receding phase cycle. Durations are in
// seconds of simulated time.
type RecessionConfig struct {
	Enabled       bool
	Growing       Range
	Receding      Range
	EarlyAfter    float64 // fraction of the growing period before early recession is possible
	EarlyChance   float64 // per-tick chance of early recession
	RestartChance float64
	RestartBelow  int     // trees with fewer segments always restart
	FadeAlpha     float64 // draw alpha reached while receding
}

// Style is the fixed visual style of the draw pass.
type Style struct {
	Background  Color
	Branch      Color
	Width       float64
	TargetWidth float64
	// UseThickness draws each segment with its own thickness times Width.
	UseThickness bool
	// DepthPalette colours segments by depth when non-empty.
	DepthPalette []Color
	DepthStep    int
	Glow         bool
	GlowWidth    float64
	GlowAlpha    float64
	CullMargin   float64
}

// Names of the built-in profiles.
const (
	ProfileVertical   = "vertical"
	ProfileHorizontal = "horizontal"
)

// VerticalProfile returns the canonical profile: trees rise from the bottom
// edge, branch up, left and right, and flow around UI regions.
func VerticalProfile() Profile {
	return Profile{
		Name:              ProfileVertical,
		Primary:           Up,
		Directions:        []Direction{Up, Left, Right},
		UseCollisionField: true,

		MaxTrees:   20,
		MinSpacing: 70,
		RootMargin: 50,
		EdgeMargin: 50,

		Speed:        Range{2, 6},
		BranchChance: Range{0.35, 0.55},
		Bias:         Range{0.45, 0.6},
		Thickness:    Range{0.5, 1},

		RootLength: Range{30, 70},
		ExtraRoots: 1,

		BaseLength:          Range{40, 100},
		ShallowLength:       Range{25, 65},
		ShallowDepth:        3,
		LateralBonusShallow: Range{10, 35},
		LateralBonus:        Range{20, 60},
		PrimaryBonus:        Range{15, 40},
		LengthDensityRadius: 150,
		DepthPenaltyRate:    Range{0.3, 0.5},
		MaxDepthPenalty:     15,
		MinSegmentLength:    15,
		MinGrowthLength:     20,

		InfluenceRadius: 200,
		ReachedRadius:   50,
		SteerChance:     0.5,
		ContinueShare:   0.15,

		MaxBranches:           4,
		RandomPassMaxBranches: 3,
		RandomPassMaxDepth:    25,
		BranchDensityRadius:   120,

		MaxDrainPerTick:   8,
		MaxAdvancePerTick: 100,
		MaxBranchAttempts: 24,
		StallRandomNodes:  3,
		RecoveryMissLimit: 3,
		CrowdRadius:       30,
		CrowdLimit:        8,

		BurstChance:     0.035,
		BurstTicks:      Range{60, 100},
		BurstMultiplier: 2,
		BurstRampTicks:  8,
		Jitter:          Range{0.7, 1.3},

		Recession: RecessionConfig{
			Growing:       Range{2, 6},
			Receding:      Range{0.1, 0.35},
			EarlyAfter:    0.3,
			EarlyChance:   0.002,
			RestartChance: 0.2,
			RestartBelow:  10,
			FadeAlpha:     0.35,
		},
		Style: Style{
			Background:  ColorWhite,
			Branch:      ColorBlack,
			Width:       0.5,
			TargetWidth: 1,
			CullMargin:  100,
		},
	}
}

// HorizontalProfile returns the glow variant: trees grow rightward from the
// left edge, branch right, up and down, ignore UI regions and cycle through
// recession phases.
func HorizontalProfile() Profile {
	p := VerticalProfile()
	p.Name = ProfileHorizontal
	p.Primary = Right
	p.Directions = []Direction{Right, Up, Down}
	p.UseCollisionField = false

	p.MaxTrees = 12
	p.MinSpacing = 60
	p.RootMargin = 40
	p.EdgeMargin = 40

	p.Speed = Range{1.5, 4.5}
	p.BranchChance = Range{0.4, 0.65}
	p.Bias = Range{0.5, 0.7}
	p.Thickness = Range{0.8, 1.6}

	p.Recession.Enabled = true
	p.Style = Style{
		Background:   ColorOf(color.RGBA{0x00, 0x1a, 0x2e, 0xff}),
		Branch:       ColorOf(colornames.Deepskyblue),
		Width:        1,
		TargetWidth:  1.5,
		UseThickness: true,
		DepthPalette: []Color{
			ColorOf(colornames.Steelblue),
			ColorOf(colornames.Dodgerblue),
			ColorOf(colornames.Deepskyblue),
			ColorOf(colornames.Lightskyblue),
			ColorOf(colornames.Turquoise),
			ColorOf(colornames.Paleturquoise),
		},
		DepthStep:  3,
		Glow:       true,
		GlowWidth:  4,
		GlowAlpha:  0.18,
		CullMargin: 100,
	}
	return p
}

// ProfileByName returns a built-in profile. Lookup is case-insensitive.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileVertical:
		return VerticalProfile(), true
	case ProfileHorizontal:
		return HorizontalProfile(), true
	}
	return Profile{}, false
}

// isLateral reports whether d is perpendicular to the primary axis.
func (p *Profile) isLateral(d Direction) bool {
	return d != p.Primary && d != p.Primary.Reverse()
}
