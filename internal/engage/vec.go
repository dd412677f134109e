package engage

import "math"

// Vec3 is a world-space point or direction. Y is vertical; X/Z is the ground plane.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3           { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3           { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3      { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Len() float64              { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Dot(o Vec3) float64        { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Planar() Vec3              { return Vec3{X: v.X, Z: v.Z} }
func (v Vec3) PlanarLen() float64        { return math.Hypot(v.X, v.Z) }
func (v Vec3) DistanceTo(o Vec3) float64 { return o.Sub(v).Len() }

// PlanarDistanceTo ignores the vertical component.
func (v Vec3) PlanarDistanceTo(o Vec3) float64 {
	return math.Hypot(o.X-v.X, o.Z-v.Z)
}

// IsFinite reports whether every component is a real number.
func (v Vec3) IsFinite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// unitOrZero returns v normalised, or the zero vector when v is degenerate.
func unitOrZero(v Vec3) Vec3 {
	l := v.Len()
	if l <= 1e-6 || !finite(l) {
		return Vec3{}
	}
	return v.Scale(1.0 / l)
}

// planarDir is the normalised ground-plane direction from a to b.
func planarDir(a, b Vec3) Vec3 {
	return unitOrZero(b.Sub(a).Planar())
}

// rotateY rotates a ground-plane vector by angle radians (counter-clockwise
// in the yaw convention used by HeadingTo).
func rotateY(v Vec3, angle float64) Vec3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Vec3{X: v.X*c - v.Z*s, Y: v.Y, Z: v.X*s + v.Z*c}
}

// orthogonal is the ground-plane perpendicular of v (rotated +90°).
func orthogonal(v Vec3) Vec3 {
	return Vec3{X: -v.Z, Y: v.Y, Z: v.X}
}

// HeadingTo returns the yaw in radians from a toward b.
func HeadingTo(a, b Vec3) float64 {
	return math.Atan2(b.Z-a.Z, b.X-a.X)
}

// YawDir is the unit ground-plane vector for a yaw.
func YawDir(yaw float64) Vec3 {
	return Vec3{X: math.Cos(yaw), Z: math.Sin(yaw)}
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	if !finite(a) {
		return 0
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// turnToward rotates heading toward target by at most maxStep radians.
func turnToward(heading, target, maxStep float64) float64 {
	diff := normalizeAngle(target - heading)
	if math.Abs(diff) <= maxStep {
		return normalizeAngle(target)
	}
	if diff > 0 {
		return normalizeAngle(heading + maxStep)
	}
	return normalizeAngle(heading - maxStep)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// uniform draws from [lo, hi]; a reversed range is swapped.
func uniform(rng randSource, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// randSource is the subset of *rand.Rand the controller draws from.
type randSource interface {
	Float64() float64
}
