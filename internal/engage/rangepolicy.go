package engage

import "math"

const (
	// rangeIntervalJitter desynchronises squads sharing a profile (±35%).
	rangeIntervalJitter = 0.35
	// rangeFirstRetargetMin is the earliest first retarget after a reset.
	rangeFirstRetargetMin = 0.15
)

// RangePolicy produces the standoff distance a unit tries to keep.
type RangePolicy struct {
	base        float64
	fluctuate   bool
	min, max    float64
	interval    float64
	blendRate   float64
	rng         randSource
	current     float64
	target      float64
	retargetIn  float64
	initialized bool
}

// NewRangePolicy builds the policy from a profile. Validate rejects fluctuating
// bands below the range floor; the clamp here only covers unvalidated configs.
func NewRangePolicy(cfg Config, rng randSource) *RangePolicy {
	lo := math.Max(cfg.RangeMin, minDesiredRange)
	hi := math.Max(cfg.RangeMax, lo)
	return &RangePolicy{
		base:      cfg.DesiredRange,
		fluctuate: cfg.FluctuateRange,
		min:       lo,
		max:       hi,
		interval:  math.Max(cfg.RangeRetargetInterval, rangeFirstRetargetMin),
		blendRate: cfg.RangeBlendRate,
		rng:       rng,
	}
}

// Invalidate forces a re-initialisation on the next query. Called whenever an
// engagement (re)starts.
func (rp *RangePolicy) Invalidate() {
	rp.initialized = false
}

// Band returns the [min,max] window of the fluctuating mode, or the clamped
// fixed range twice in fixed mode.
func (rp *RangePolicy) Band() (float64, float64) {
	if !rp.fluctuate {
		r := rp.fixed()
		return r, r
	}
	return rp.min, rp.max
}

// Current returns the last computed range without advancing time.
func (rp *RangePolicy) Current() float64 {
	if !rp.fluctuate {
		return rp.fixed()
	}
	if !rp.initialized {
		return clamp(rp.base, rp.min, rp.max)
	}
	return rp.current
}

func (rp *RangePolicy) fixed() float64 {
	if !finite(rp.base) || rp.base < minDesiredRange {
		return minDesiredRange
	}
	return rp.base
}

func (rp *RangePolicy) reset() {
	start := clamp(rp.base, rp.min, rp.max)
	if !finite(start) {
		start = rp.min
	}
	rp.current = start
	rp.target = start
	rp.retargetIn = uniform(rp.rng, rangeFirstRetargetMin, rp.interval)
	rp.initialized = true
}

// DesiredRange advances the policy by dt and returns the standoff distance.
func (rp *RangePolicy) DesiredRange(dt float64) float64 {
	if !rp.fluctuate {
		return rp.fixed()
	}
	if !rp.initialized {
		rp.reset()
	}
	if !finite(dt) || dt < 0 {
		dt = 0
	}

	rp.retargetIn -= dt
	if rp.retargetIn <= 0 {
		rp.target = uniform(rp.rng, rp.min, rp.max)
		jitter := uniform(rp.rng, -rangeIntervalJitter, rangeIntervalJitter)
		rp.retargetIn = rp.interval * (1 + jitter)
	}

	blend := 1 - math.Exp(-rp.blendRate*dt)
	rp.current += (rp.target - rp.current) * blend
	rp.current = clamp(rp.current, rp.min, rp.max)
	return rp.current
}
