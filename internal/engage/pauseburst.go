package engage

import "math"

// CyclePhase is the current half of the pause/burst rhythm.
type CyclePhase int

const (
	CycleInactive CyclePhase = iota
	CyclePause
	CycleBurst
)

func (p CyclePhase) String() string {
	switch p {
	case CycleInactive:
		return "inactive"
	case CyclePause:
		return "pause"
	case CycleBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// StrafeGeometry is what the cycle needs to place a strafe point.
type StrafeGeometry struct {
	Self         Vec3
	Opponent     Vec3
	DesiredRange float64
	Buffer       float64
}

// CycleDecision is the outcome of one cycle tick. Hold means stand still and
// fire; otherwise the unit is repositioning and Issue says whether Point is a
// fresh destination to send to the movement agent.
type CycleDecision struct {
	Hold  bool
	Issue bool
	Point Vec3
}

// PauseBurstCycle alternates standing still with short strafing movements.
type PauseBurstCycle struct {
	cfg Config
	rng randSource
	nav NavSurface

	pauseTimer  float64
	burstTimer  float64
	changeTimer float64
	repathTimer float64
	side        float64
	jitter      float64
}

func NewPauseBurstCycle(cfg Config, rng randSource, nav NavSurface) *PauseBurstCycle {
	c := &PauseBurstCycle{cfg: cfg, rng: rng, nav: nav, side: 1}
	if rng.Float64() < 0.5 {
		c.side = -1
	}
	return c
}

// Reset zeroes both phase timers; the next in-range tick starts a fresh pause.
func (c *PauseBurstCycle) Reset() {
	c.pauseTimer = 0
	c.burstTimer = 0
	c.changeTimer = 0
	c.repathTimer = 0
}

// Timers exposes the two phase countdowns.
func (c *PauseBurstCycle) Timers() (pause, burst float64) {
	return c.pauseTimer, c.burstTimer
}

func (c *PauseBurstCycle) Phase() CyclePhase {
	switch {
	case c.pauseTimer > 0:
		return CyclePause
	case c.burstTimer > 0:
		return CycleBurst
	default:
		return CycleInactive
	}
}

// Side is the current strafe direction (+1 or -1).
func (c *PauseBurstCycle) Side() float64 { return c.side }

// Tick advances the cycle. When strafing is disabled the cycle always holds.
func (c *PauseBurstCycle) Tick(dt float64, inRange bool, g StrafeGeometry) CycleDecision {
	if !c.cfg.StrafeEnabled {
		c.Reset()
		return CycleDecision{Hold: true}
	}
	if !inRange {
		c.Reset()
		return CycleDecision{Hold: true}
	}
	if !finite(dt) || dt < 0 {
		dt = 0
	}

	if c.pauseTimer <= 0 && c.burstTimer <= 0 {
		c.startPause()
		return CycleDecision{Hold: true}
	}

	if c.pauseTimer > 0 {
		c.pauseTimer -= dt
		if c.pauseTimer > 0 {
			return CycleDecision{Hold: true}
		}
		c.pauseTimer = 0
		c.startBurst()
		return c.reposition(g)
	}

	c.burstTimer -= dt
	if c.burstTimer <= 0 {
		c.burstTimer = 0
		c.startPause()
		return CycleDecision{Hold: true}
	}

	c.changeTimer -= dt
	if c.changeTimer <= 0 {
		c.reroll()
		c.changeTimer = c.cfg.StrafeChangeInterval
		c.repathTimer = 0
	}
	c.repathTimer -= dt
	if c.repathTimer <= 0 {
		return c.reposition(g)
	}
	return CycleDecision{}
}

func (c *PauseBurstCycle) startPause() {
	c.burstTimer = 0
	c.pauseTimer = math.Max(uniform(c.rng, c.cfg.PauseMin, c.cfg.PauseMax), 1e-3)
}

func (c *PauseBurstCycle) startBurst() {
	c.pauseTimer = 0
	c.burstTimer = math.Max(uniform(c.rng, c.cfg.BurstMin, c.cfg.BurstMax), 1e-3)
	c.reroll()
	c.changeTimer = c.cfg.StrafeChangeInterval
	c.repathTimer = 0
}

func (c *PauseBurstCycle) reroll() {
	if c.rng.Float64() < c.cfg.StrafeFlipChance {
		c.side = -c.side
	}
	j := degToRad(c.cfg.StrafeJitterDeg)
	c.jitter = uniform(c.rng, -j, j)
}

func (c *PauseBurstCycle) reposition(g StrafeGeometry) CycleDecision {
	c.repathTimer = c.cfg.StrafeRepath
	p, ok := c.strafePoint(g)
	if !ok {
		return CycleDecision{Hold: true}
	}
	return CycleDecision{Issue: true, Point: p}
}

// strafePoint swings the opponent->self offset by side*90°+jitter and blends
// it with the radial direction before placing it near the desired ring.
func (c *PauseBurstCycle) strafePoint(g StrafeGeometry) (Vec3, bool) {
	toSelf := planarDir(g.Opponent, g.Self)
	if toSelf == (Vec3{}) {
		toSelf = Vec3{X: c.side}
	}
	tangential := rotateY(toSelf, c.side*math.Pi/2+c.jitter)
	w := clamp(c.cfg.StrafeRadialWeight, 0, 1)
	dir := unitOrZero(tangential.Scale(1 - w).Add(toSelf.Scale(w)))
	if dir == (Vec3{}) {
		dir = tangential
	}
	radial := uniform(c.rng, -g.Buffer, g.Buffer)
	dist := math.Max(g.DesiredRange+radial, minDesiredRange)
	p := g.Opponent.Add(dir.Scale(dist))
	p.Y = g.Self.Y
	return sampleSurface(c.nav, p, c.cfg.NavSampleRange)
}

// sampleSurface projects p onto the nav surface; without a surface the point
// is used as-is.
func sampleSurface(nav NavSurface, p Vec3, radius float64) (Vec3, bool) {
	if !p.IsFinite() {
		return Vec3{}, false
	}
	if nav == nil {
		return p, true
	}
	return nav.SampleNavigable(p, radius)
}
