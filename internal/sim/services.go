package sim

import (
	"math"

	"github.com/Garsondee/standoff/internal/engage"
)

// snapEntry is a unit as it stood at the start of the tick.
type snapEntry struct {
	u     *Unit
	pos   engage.Vec3
	team  Team
	alive bool
}

// spatialView answers FindNearby for one unit from the start-of-tick snapshot.
type spatialView struct {
	w    *World
	team Team
}

func (s spatialView) FindNearby(cat engage.Category, center engage.Vec3, radius float64) []engage.Handle {
	var out []engage.Handle
	for _, e := range s.w.snap {
		if !e.alive {
			continue
		}
		switch cat {
		case engage.CategoryEnemy:
			if e.team == s.team {
				continue
			}
		case engage.CategoryAlly:
			if e.team != s.team {
				continue
			}
		}
		if center.DistanceTo(e.pos) <= radius {
			out = append(out, e.u.ref())
		}
	}
	return out
}

// teamView exposes squads as engagement teams.
type teamView struct {
	w *World
}

func (t teamView) TeamOf(id engage.EntityID) (engage.Team, bool) {
	u, ok := t.w.byID[id]
	if !ok || u.Squad == nil {
		return engage.Team{}, false
	}
	sq := u.Squad
	team := engage.Team{ID: sq.ID}
	for _, m := range sq.alive() {
		team.Members = append(team.Members, m.ref())
	}
	if a, ok := sq.Anchor(); ok {
		team.Anchor = &a
	}
	return team, true
}

func (t teamView) AssignedSlot(id engage.EntityID) (engage.Vec3, bool) {
	u, ok := t.w.byID[id]
	if !ok || u.Squad == nil || u.Squad.Rally != nil {
		return engage.Vec3{}, false
	}
	return u.Squad.SlotOf(u)
}

// orders holds player-issued move orders: pins and follow targets.
type orders struct {
	w       *World
	pins    map[engage.EntityID]engage.Vec3
	follows map[engage.EntityID]engage.EntityID
}

func newOrders(w *World) *orders {
	return &orders{
		w:       w,
		pins:    make(map[engage.EntityID]engage.Vec3),
		follows: make(map[engage.EntityID]engage.EntityID),
	}
}

func (o *orders) TryGetLatestPinned(id engage.EntityID) (engage.Vec3, bool) {
	p, ok := o.pins[id]
	return p, ok
}

func (o *orders) ClearPinned(id engage.EntityID) { delete(o.pins, id) }

// FollowTarget returns an explicit follow order, or the squad leader for a
// squad member that has no pin or hold point of its own.
func (o *orders) FollowTarget(id engage.EntityID) (engage.EntityID, bool) {
	if t, ok := o.follows[id]; ok {
		if tu, alive := o.w.byID[t]; alive && tu.Alive() {
			return t, true
		}
		return "", false
	}
	u, ok := o.w.byID[id]
	if !ok || u.Squad == nil {
		return "", false
	}
	if _, pinned := o.pins[id]; pinned {
		return "", false
	}
	if _, holding := u.Ctrl.HoldPoint(); holding {
		return "", false
	}
	l := u.Squad.Leader()
	if l == nil || l == u {
		return "", false
	}
	return l.id, true
}

// liveness tracks deaths and death subscriptions.
type liveness struct {
	w    *World
	subs map[engage.EntityID][]*deathSub
}

type deathSub struct {
	fn func(engage.EntityID)
}

func newLiveness(w *World) *liveness {
	return &liveness{w: w, subs: make(map[engage.EntityID][]*deathSub)}
}

func (l *liveness) IsDead(id engage.EntityID) bool {
	u, ok := l.w.byID[id]
	return !ok || !u.Alive()
}

func (l *liveness) OnDied(id engage.EntityID, fn func(engage.EntityID)) func() {
	s := &deathSub{fn: fn}
	l.subs[id] = append(l.subs[id], s)
	return func() { s.fn = nil }
}

// notify delivers a death to every live subscription exactly once.
func (l *liveness) notify(id engage.EntityID) {
	subs := l.subs[id]
	delete(l.subs, id)
	for _, s := range subs {
		if fn := s.fn; fn != nil {
			s.fn = nil
			fn(id)
		}
	}
}

// thoughtSink routes controller thoughts into the world's ThoughtLog.
type thoughtSink struct {
	w *World
}

func (t thoughtSink) Think(id engage.EntityID, msg string) {
	u, ok := t.w.byID[id]
	if !ok {
		return
	}
	t.w.Thoughts.Add(t.w.tick, u.Label, u.Team, msg)
	t.w.SimLog.AddVerbose(t.w.tick, u.Label, u.Team.String(), "think", "note", msg, 0)
}

// spawner queues projectiles for one shooter. They enter the world in the
// projectile phase of the same tick.
type spawner struct {
	w *World
	u *Unit
}

func (s spawner) Spawn(origin engage.Vec3, rot engage.Rotation, damage float64) engage.ProjectileHandle {
	if !origin.IsFinite() || math.IsNaN(rot.Yaw) || math.IsNaN(rot.Pitch) {
		return 0
	}
	s.w.nextShot++
	cp := math.Cos(rot.Pitch)
	dir := engage.Vec3{X: cp * math.Cos(rot.Yaw), Y: math.Sin(rot.Pitch), Z: cp * math.Sin(rot.Yaw)}
	s.w.pendingShots = append(s.w.pendingShots, ProjectileData{
		Handle:  s.w.nextShot,
		Pos:     origin,
		Prev:    origin,
		Vel:     dir.Scale(ProjectileSpeed),
		Damage:  damage,
		Shooter: s.u.id,
		Team:    s.u.Team,
		Life:    projectileRange / ProjectileSpeed,
	})
	return s.w.nextShot
}
