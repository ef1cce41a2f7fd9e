package bramble

import "math"

// chooseDirection picks the growth direction of a child of parent. The
// reverse of the parent's direction is never returned. A zero Direction means
// the profile leaves no candidate.
func (t *Tree) chooseDirection(parent *Segment) Direction {
	p := t.profile
	back := parent.Dir.Reverse()
	cands := t.candBuf[:0]
	for _, d := range p.Directions {
		if d != back && !d.IsZero() {
			cands = append(cands, d)
		}
	}
	t.candBuf = cands
	if len(cands) == 0 {
		return Direction{}
	}

	preferred, steer := t.preferredDirection(parent.End)
	if steer && !hasDirection(cands, preferred) {
		steer = false
	}

	r := t.rng.Float64()
	if steer && r < p.SteerChance {
		return preferred
	}
	if r < t.params.Bias {
		if r < t.params.Bias*p.ContinueShare && hasDirection(cands, parent.Dir) {
			return parent.Dir
		}
		if hasDirection(cands, p.Primary) {
			return p.Primary
		}
	}

	n := 0
	for _, d := range cands {
		if d != parent.Dir {
			cands[n] = d
			n++
		}
	}
	if n > 0 {
		return cands[t.rng.IntN(n)]
	}
	return cands[t.rng.IntN(len(cands))]
}

// openDirection tries every direction allowed from parent in random order and
// returns the first whose endpoint is clear of obstacles and not crowded. The
// zero Direction means none qualifies.
func (t *Tree) openDirection(parent *Segment, depth int) (Direction, float64, Vec2) {
	p := t.profile
	back := parent.Dir.Reverse()
	cands := t.candBuf[:0]
	for _, d := range p.Directions {
		if d != back && !d.IsZero() {
			cands = append(cands, d)
		}
	}
	t.candBuf = cands
	t.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	for _, d := range cands {
		length := t.segmentLength(depth, d, parent.End)
		end := parent.End.Add(d.Vec().Scale(length))
		if t.obstacles.Collides(end.X, end.Y) {
			continue
		}
		if p.CrowdLimit > 0 && t.grid.count(t.segments, end, p.CrowdRadius, 0.5) >= p.CrowdLimit {
			continue
		}
		return d, length, end
	}
	return Direction{}, 0, Vec2{}
}

// preferredDirection returns the direction that flows around the nearest
// target within the influence radius. The second result is false when no
// target is close enough.
//
// The geometry works in the growth frame: "along" is the distance to the
// target ahead on the primary axis, "across" the signed distance to the side.
func (t *Tree) preferredDirection(pos Vec2) (Direction, bool) {
	p := t.profile
	targets := t.obstacles.Targets()
	if len(targets) == 0 {
		return Direction{}, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i := range targets {
		d := pos.Dist(targets[i].Center)
		if d < p.InfluenceRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Direction{}, false
	}

	delta := targets[best].Center.Sub(pos)
	side := p.Primary.Perp()
	along := delta.Dot(p.Primary.Vec())
	across := delta.Dot(side.Vec())
	toward := side
	if across < 0 {
		toward = side.Reverse()
	}

	var dir Direction
	switch {
	case along > 40:
		if math.Abs(across) > 60 {
			dir = toward
		} else {
			dir = p.Primary
		}
	case math.Abs(across) > 40:
		if math.Abs(along) < 30 {
			dir = toward
		} else {
			dir = p.Primary
		}
	case bestDist < 80:
		if math.Abs(across) > math.Abs(along) {
			dir = toward.Reverse()
		} else {
			dir = p.Primary
		}
	default:
		if math.Abs(across) > 20 {
			dir = toward
		} else {
			dir = t.randomLateral()
		}
	}
	if dir == p.Primary.Reverse() {
		dir = t.randomLateral()
	}
	return dir, true
}

func (t *Tree) randomLateral() Direction {
	side := t.profile.Primary.Perp()
	if t.rng.IntN(2) == 0 {
		return side
	}
	return side.Reverse()
}

// segmentLength rolls the length of a new segment growing in dir from
// the given point at the given depth.
func (t *Tree) segmentLength(depth int, dir Direction, from Vec2) float64 {
	p := t.profile
	length := p.BaseLength.Random(t.rng)
	if depth < p.ShallowDepth {
		length = p.ShallowLength.Random(t.rng)
	}
	if p.isLateral(dir) {
		if depth < p.ShallowDepth {
			length += p.LateralBonusShallow.Random(t.rng)
		} else {
			length += p.LateralBonus.Random(t.rng)
		}
	}
	if dir == p.Primary {
		length += p.PrimaryBonus.Random(t.rng)
		n := t.grid.count(t.segments, from, p.LengthDensityRadius, 0.5)
		length *= math.Max(0.9, 1.1-float64(n)*0.02)
	}
	penalty := math.Min(p.MaxDepthPenalty, float64(depth)*p.DepthPenaltyRate.Random(t.rng))
	return math.Max(p.MinSegmentLength, length-penalty)
}

func hasDirection(ds []Direction, d Direction) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}
