package engage

import "math"

// FormationTether keeps combat movement near a formation slot or team anchor.
type FormationTether struct {
	cfg Config
}

func NewFormationTether(cfg Config) *FormationTether {
	return &FormationTether{cfg: cfg}
}

// Radius is the effective tether radius for a team of teamSize members.
func (t *FormationTether) Radius(teamSize int) float64 {
	r := t.cfg.TetherRadius
	if t.cfg.TetherScaleWithTeam && teamSize > 1 {
		r += t.cfg.TetherExtraPerSqrtMember * math.Sqrt(float64(teamSize-1))
	}
	return r
}

// Clamp projects p onto the tether circle around anchor when it lies outside.
// A nil anchor leaves p unchanged. Y is always taken from p.
func (t *FormationTether) Clamp(p Vec3, anchor *Vec3, teamSize int) Vec3 {
	if anchor == nil {
		return p
	}
	return clampToCircle(p, *anchor, t.Radius(teamSize))
}

// clampToCircle projects p onto the planar circle (center, r) when outside it.
func clampToCircle(p, center Vec3, r float64) Vec3 {
	if !p.IsFinite() || !center.IsFinite() || center.PlanarDistanceTo(p) <= r {
		return p
	}
	dir := planarDir(center, p)
	out := center.Add(dir.Scale(r))
	out.Y = p.Y
	return out
}
