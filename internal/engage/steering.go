package engage

import (
	"hash/fnv"
	"math"
)

// SteerKind is the branch Standoff Steering took this tick.
type SteerKind int

const (
	SteerHold SteerKind = iota // inside the hysteresis band: hold or strafe
	SteerApproach
	SteerBackoff
)

func (k SteerKind) String() string {
	switch k {
	case SteerHold:
		return "hold"
	case SteerApproach:
		return "approach"
	case SteerBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

const (
	spreadMin = 1.0
	spreadMax = 6.0
)

// SteeringDecision is the output of one steering step. Point is only
// meaningful for Approach and Backoff; Valid is false when no navigable
// point could be found.
type SteeringDecision struct {
	Kind     SteerKind
	Point    Vec3
	Valid    bool
	Distance float64
	Inner    float64
	Outer    float64
}

// StandoffSteering keeps a unit inside a [r-b, r+b] band around its opponent.
type StandoffSteering struct {
	cfg Config
	nav NavSurface
	// lateral is this unit's stable offset factor in [-1,1].
	lateral float64
}

func NewStandoffSteering(cfg Config, id EntityID, nav NavSurface) *StandoffSteering {
	return &StandoffSteering{cfg: cfg, nav: nav, lateral: lateralFactor(id)}
}

// Seed derives a stable per-unit seed from its identity.
func Seed(id EntityID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64() & math.MaxInt64)
}

func lateralFactor(id EntityID) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return float64(h.Sum32())/float64(math.MaxUint32)*2 - 1
}

// Spread is the lateral offset magnitude applied to approach points at range r.
func (s *StandoffSteering) Spread(r float64) float64 {
	return clamp(r*s.cfg.SpreadScale, spreadMin, spreadMax)
}

// lateralOffset is the signed sideways offset for approach points at range r.
// The hash picks the side; the magnitude always lies in [spreadMin, Spread(r)].
func (s *StandoffSteering) lateralOffset(r float64) float64 {
	side := 1.0
	if s.lateral < 0 {
		side = -1
	}
	spread := s.Spread(r)
	return side * (spreadMin + math.Abs(s.lateral)*(spread-spreadMin))
}

// Step decides between approach, backoff and hold for the current distance.
// Distances here are planar on X/Z; height differences never move a unit
// between approach, hold and backoff.
func (s *StandoffSteering) Step(selfPos, oppPos Vec3, desiredRange, buffer, dt float64) SteeringDecision {
	if !finite(desiredRange) || desiredRange < minDesiredRange {
		desiredRange = minDesiredRange
	}
	if !finite(buffer) || buffer < 0 {
		buffer = 0
	}
	d := selfPos.PlanarDistanceTo(oppPos)
	dec := SteeringDecision{
		Kind:     SteerHold,
		Distance: d,
		Inner:    desiredRange - buffer,
		Outer:    desiredRange + buffer,
	}
	if !finite(d) {
		return dec
	}

	away := planarDir(oppPos, selfPos)
	if away == (Vec3{}) {
		// Stacked on the opponent: pick a deterministic side.
		away = rotateY(Vec3{X: 1}, s.lateral*math.Pi)
	}

	switch {
	case d > dec.Outer:
		// Slide along the ring by the unit's spread so a squad fans out
		// instead of converging on one point.
		lateral := orthogonal(away).Scale(s.lateralOffset(desiredRange))
		dir := unitOrZero(away.Scale(desiredRange).Add(lateral))
		if dir == (Vec3{}) {
			dir = away
		}
		p := oppPos.Add(dir.Scale(desiredRange))
		p.Y = selfPos.Y
		dec.Kind = SteerApproach
		dec.Point = p
		dec.Valid = p.IsFinite()
	case d < dec.Inner:
		push := (desiredRange - d) + s.cfg.BackoffExtra
		p := selfPos.Add(away.Scale(push))
		dec.Kind = SteerBackoff
		dec.Point, dec.Valid = sampleSurface(s.nav, p, s.cfg.NavSampleRange)
	}
	return dec
}
