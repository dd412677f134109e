package engage

import (
	"github.com/sirupsen/logrus"
)

// Source records how an opponent was acquired.
type Source int

const (
	SourceNone Source = iota
	SourceForced
	SourceFocusFire
	SourceNearest
	SourcePassive
	sourceCount
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceForced:
		return "forced"
	case SourceFocusFire:
		return "focus"
	case SourceNearest:
		return "nearest"
	case SourcePassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Candidate is an admitted opponent.
type Candidate struct {
	Handle   Handle
	Source   Source
	Distance float64
}

// TargetAcquisition picks opponents for an idle unit: team focus-fire first,
// then the nearest enemy in chase radius. Forced orders and passive aggro are
// pushed in by the controller.
type TargetAcquisition struct {
	cfg      Config
	self     EntityID
	spatial  SpatialQuery
	teams    TeamProvider
	liveness Liveness
	filter   *targetFilter
	log      *logrus.Entry

	focusCooldown float64
}

func newTargetAcquisition(cfg Config, self EntityID, deps Deps, filter *targetFilter, log *logrus.Entry) *TargetAcquisition {
	return &TargetAcquisition{
		cfg:      cfg,
		self:     self,
		spatial:  deps.Spatial,
		teams:    deps.Teams,
		liveness: deps.Liveness,
		filter:   filter,
		log:      log,
	}
}

// Advance ticks the focus-fire cooldown.
func (a *TargetAcquisition) Advance(dt float64) {
	if a.focusCooldown > 0 {
		a.focusCooldown -= dt
		if a.focusCooldown < 0 {
			a.focusCooldown = 0
		}
	}
}

func (a *TargetAcquisition) FocusCooldown() float64 { return a.focusCooldown }

// Valid resolves a handle to a live, finite position.
func (a *TargetAcquisition) Valid(h Handle) (Vec3, bool) {
	if h == nil {
		return Vec3{}, false
	}
	if a.liveness != nil && a.liveness.IsDead(h.ID()) {
		return Vec3{}, false
	}
	p, ok := h.Position()
	if !ok || !p.IsFinite() {
		return Vec3{}, false
	}
	return p, true
}

// holdBlocks reports whether a hold point suppresses autonomous acquisition.
func (a *TargetAcquisition) holdBlocks(hold *Vec3) bool {
	return hold != nil && !a.cfg.AutoAggroWhileHolding
}

// TryAcquire runs the autonomous sources in priority order.
func (a *TargetAcquisition) TryAcquire(self Vec3, hold *Vec3) (Candidate, bool) {
	if a.holdBlocks(hold) {
		return Candidate{}, false
	}
	team, hasTeam := a.team()
	teamSize := len(team.Members)
	if hasTeam && a.cfg.FocusFire {
		if c, ok := a.focusFire(self, hold, team); ok {
			a.focusCooldown = a.cfg.FocusFireCooldown
			return c, true
		}
	}
	return a.nearest(self, hold, teamSize)
}

// Admit checks a single externally proposed candidate (passive aggro) against
// the hold and filter rules. No radius limit applies beyond the leash.
func (a *TargetAcquisition) Admit(h Handle, src Source, self Vec3, hold *Vec3) (Candidate, bool) {
	if a.holdBlocks(hold) {
		return Candidate{}, false
	}
	team, _ := a.team()
	return a.admit(h, src, self, hold, len(team.Members))
}

func (a *TargetAcquisition) team() (Team, bool) {
	if a.teams == nil {
		return Team{}, false
	}
	return a.teams.TeamOf(a.self)
}

func (a *TargetAcquisition) focusFire(self Vec3, hold *Vec3, team Team) (Candidate, bool) {
	minTeam := a.cfg.FocusFireMinTeam
	if minTeam < 2 {
		minTeam = 2
	}
	if len(team.Members) < minTeam || a.focusCooldown > 0 {
		return Candidate{}, false
	}
	var best Candidate
	found := false
	for _, m := range team.Members {
		if m == nil || m.ID() == a.self || !m.IsChasing() {
			continue
		}
		opp, ok := m.CurrentOpponent()
		if !ok {
			continue
		}
		c, ok := a.admit(opp, SourceFocusFire, self, hold, len(team.Members))
		if !ok || c.Distance > a.cfg.ChaseRadius || c.Distance > a.cfg.MaxFocusDistance {
			continue
		}
		if !found || c.Distance < best.Distance {
			best = c
			found = true
		}
	}
	if found {
		a.log.WithFields(logrus.Fields{
			"target":   best.Handle.ID(),
			"distance": best.Distance,
		}).Debug("focus-fire candidate adopted")
	}
	return best, found
}

func (a *TargetAcquisition) nearest(self Vec3, hold *Vec3, teamSize int) (Candidate, bool) {
	if a.spatial == nil {
		return Candidate{}, false
	}
	var best Candidate
	found := false
	for _, h := range a.spatial.FindNearby(CategoryEnemy, self, a.cfg.ChaseRadius) {
		c, ok := a.admit(h, SourceNearest, self, hold, teamSize)
		if !ok || c.Distance > a.cfg.ChaseRadius {
			continue
		}
		if !found || c.Distance < best.Distance {
			best = c
			found = true
		}
	}
	return best, found
}

func (a *TargetAcquisition) admit(h Handle, src Source, self Vec3, hold *Vec3, teamSize int) (Candidate, bool) {
	pos, ok := a.Valid(h)
	if !ok || h.ID() == a.self {
		return Candidate{}, false
	}
	if hold != nil {
		if !withinLeash(self, *hold, a.cfg.HoldLeashRadius) || !withinLeash(pos, *hold, a.cfg.HoldLeashRadius) {
			return Candidate{}, false
		}
	}
	d := self.DistanceTo(pos)
	if !finite(d) {
		return Candidate{}, false
	}

	env := FilterEnv{
		Candidate:    string(h.ID()),
		Distance:     d,
		HoldDistance: -1,
		Holding:      hold != nil,
		Source:       src.String(),
		TeamSize:     teamSize,
	}
	if hold != nil {
		env.HoldDistance = hold.PlanarDistanceTo(pos)
	}
	allowed, err := a.filter.allow(env)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"target": h.ID(),
			"filter": a.filter.src,
		}).WithError(err).Warn("target filter failed")
		return Candidate{}, false
	}
	if !allowed {
		return Candidate{}, false
	}
	return Candidate{Handle: h, Source: src, Distance: d}, true
}

// withinLeash is measured on the ground plane.
func withinLeash(p, hold Vec3, radius float64) bool {
	return hold.PlanarDistanceTo(p) <= radius
}
