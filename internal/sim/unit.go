package sim

import (
	"github.com/yohamta/donburi"

	"github.com/Garsondee/standoff/internal/engage"
)

const (
	// UnitSpeed is the sandbox movement speed in world units per second.
	UnitSpeed  = 3.2
	UnitHP     = 100.0
	unitRadius = 0.4
	unitHeight = 1.8
)

// Unit is a sandbox soldier: an ECS entity plus its engagement controller.
// Unit implements engage.Body.
type Unit struct {
	Label   string
	Team    Team
	Profile string
	Ctrl    *engage.Controller
	Squad   *Squad
	Anim    *AnimState

	id    engage.EntityID
	entry *donburi.Entry
	agent *navAgent
	world *World
}

func (u *Unit) ID() engage.EntityID { return u.id }

func (u *Unit) Position() engage.Vec3 { return Transform.Get(u.entry).Pos }
func (u *Unit) Yaw() float64          { return Transform.Get(u.entry).Yaw }
func (u *Unit) SetYaw(yaw float64)    { Transform.Get(u.entry).Yaw = yaw }
func (u *Unit) HP() float64           { return Health.Get(u.entry).HP }
func (u *Unit) Alive() bool           { return !Health.Get(u.entry).Dead }

// Path returns a copy of the remaining waypoints.
func (u *Unit) Path() []engage.Vec3 {
	m := Motion.Get(u.entry)
	out := make([]engage.Vec3, len(m.Path))
	copy(out, m.Path)
	return out
}

func (u *Unit) Destination() (engage.Vec3, bool) { return u.agent.Destination() }
func (u *Unit) Velocity() engage.Vec3            { return u.agent.Velocity() }

// ref returns the weak handle other controllers see for u.
func (u *Unit) ref() unitRef { return unitRef{u: u} }

// unitRef is the engage.Handle and engage.Teammate view of a unit.
type unitRef struct {
	u *Unit
}

func (r unitRef) ID() engage.EntityID { return r.u.id }

func (r unitRef) Position() (engage.Vec3, bool) {
	if !r.u.Alive() {
		return engage.Vec3{}, false
	}
	return r.u.Position(), true
}

func (r unitRef) IsChasing() bool { return r.u.Ctrl.IsChasing() }

func (r unitRef) CurrentOpponent() (engage.Handle, bool) { return r.u.Ctrl.CurrentOpponent() }

// AnimState records what the controller asked the animator to show.
type AnimState struct {
	Moving   bool
	Speed    float64
	Shots    int
	LastShot int // tick of the latest shot
	tick     *int
}

func (a *AnimState) SetMoving(moving bool)  { a.Moving = moving }
func (a *AnimState) SetSpeed(speed float64) { a.Speed = speed }
func (a *AnimState) TriggerShoot() {
	a.Shots++
	a.LastShot = *a.tick
}

// navAgent is the engage.MovementAgent over a unit's Motion component.
type navAgent struct {
	u   *Unit
	nav *NavGrid
}

func (a *navAgent) motion() *MotionData { return Motion.Get(a.u.entry) }

// SetDestination plans a path to p, projected onto the walkable grid. The
// previous path is kept when no route exists.
func (a *navAgent) SetDestination(p engage.Vec3) bool {
	if !p.IsFinite() || !a.u.Alive() {
		return false
	}
	goal, ok := a.nav.SampleNavigable(p, 1.5)
	if !ok {
		return false
	}
	path := a.nav.FindPath(a.u.Position(), goal)
	if path == nil {
		return false
	}
	m := a.motion()
	m.Path = path
	m.Dest = goal
	m.HasDest = true
	return true
}

func (a *navAgent) Stop() {
	m := a.motion()
	m.Path = nil
	m.HasDest = false
	m.Vel = engage.Vec3{}
	m.Desired = engage.Vec3{}
}

func (a *navAgent) ResetPath() {
	m := a.motion()
	m.Path = nil
	m.HasDest = false
	m.Desired = engage.Vec3{}
}

func (a *navAgent) RemainingDistance() float64 {
	m := a.motion()
	total := 0.0
	from := a.u.Position()
	for _, wp := range m.Path {
		total += from.PlanarDistanceTo(wp)
		from = wp
	}
	return total
}

func (a *navAgent) Velocity() engage.Vec3        { return a.motion().Vel }
func (a *navAgent) DesiredVelocity() engage.Vec3 { return a.motion().Desired }
func (a *navAgent) IsPathPending() bool          { return false }
func (a *navAgent) SetStoppingDistance(d float64) {
	a.motion().StopDist = d
}

func (a *navAgent) Destination() (engage.Vec3, bool) {
	m := a.motion()
	return m.Dest, m.HasDest
}

// integrate advances the unit along its path by one tick.
func (a *navAgent) integrate(dt float64) {
	m := a.motion()
	tr := Transform.Get(a.u.entry)
	if !m.HasDest || len(m.Path) == 0 {
		m.HasDest = m.HasDest && len(m.Path) > 0
		m.Vel = engage.Vec3{}
		m.Desired = engage.Vec3{}
		return
	}

	start := tr.Pos
	budget := m.Speed * dt
	first := m.Path[0].Sub(tr.Pos).Planar()
	if l := first.PlanarLen(); l > 1e-9 {
		m.Desired = first.Scale(m.Speed / l)
	}

	for budget > 0 && len(m.Path) > 0 {
		wp := m.Path[0]
		last := len(m.Path) == 1
		dist := tr.Pos.PlanarDistanceTo(wp)
		stop := 0.0
		if last {
			stop = m.StopDist
		}
		if dist <= stop+1e-6 {
			m.Path = m.Path[1:]
			continue
		}
		step := dist - stop
		if step > budget {
			step = budget
		}
		dir := wp.Sub(tr.Pos).Planar().Scale(1 / dist)
		tr.Pos.X += dir.X * step
		tr.Pos.Z += dir.Z * step
		budget -= step
		if step >= dist-stop-1e-6 {
			m.Path = m.Path[1:]
		}
	}
	if len(m.Path) == 0 {
		m.HasDest = false
		m.Desired = engage.Vec3{}
	}
	if dt > 0 {
		m.Vel = tr.Pos.Sub(start).Scale(1 / dt)
	}
	if !a.u.Ctrl.IsChasing() {
		tr.Yaw = headingOf(m.Vel, tr.Yaw)
	}
}
