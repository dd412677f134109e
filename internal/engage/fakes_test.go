package engage

import (
	"math"
	"math/rand"
	"testing"
)

type fakeBody struct {
	id  EntityID
	pos Vec3
	yaw float64
}

func (b *fakeBody) ID() EntityID       { return b.id }
func (b *fakeBody) Position() Vec3     { return b.pos }
func (b *fakeBody) Yaw() float64       { return b.yaw }
func (b *fakeBody) SetYaw(yaw float64) { b.yaw = yaw }

type fakeHandle struct {
	id   EntityID
	pos  Vec3
	gone bool
}

func (h *fakeHandle) ID() EntityID { return h.id }
func (h *fakeHandle) Position() (Vec3, bool) {
	if h.gone {
		return Vec3{}, false
	}
	return h.pos, true
}

type fakeAgent struct {
	dest       Vec3
	hasDest    bool
	issued     []Vec3
	stops      int
	vel        Vec3
	desiredVel Vec3
	stopDist   float64
	reject     bool
}

func (a *fakeAgent) SetDestination(p Vec3) bool {
	if a.reject {
		return false
	}
	a.dest = p
	a.hasDest = true
	a.issued = append(a.issued, p)
	return true
}
func (a *fakeAgent) Stop() {
	a.hasDest = false
	a.stops++
}
func (a *fakeAgent) ResetPath()                    { a.hasDest = false }
func (a *fakeAgent) RemainingDistance() float64    { return 0 }
func (a *fakeAgent) Velocity() Vec3                { return a.vel }
func (a *fakeAgent) DesiredVelocity() Vec3         { return a.desiredVel }
func (a *fakeAgent) IsPathPending() bool           { return false }
func (a *fakeAgent) SetStoppingDistance(d float64) { a.stopDist = d }
func (a *fakeAgent) Destination() (Vec3, bool)     { return a.dest, a.hasDest }

func (a *fakeAgent) last() (Vec3, bool) {
	if len(a.issued) == 0 {
		return Vec3{}, false
	}
	return a.issued[len(a.issued)-1], true
}

type fakeSpatial struct {
	enemies []Handle
}

func (s *fakeSpatial) FindNearby(cat Category, center Vec3, radius float64) []Handle {
	if cat != CategoryEnemy {
		return nil
	}
	var out []Handle
	for _, h := range s.enemies {
		if p, ok := h.Position(); ok && center.DistanceTo(p) <= radius {
			out = append(out, h)
		}
	}
	return out
}

type fakeTeammate struct {
	id      EntityID
	chasing bool
	opp     Handle
}

func (m *fakeTeammate) ID() EntityID    { return m.id }
func (m *fakeTeammate) IsChasing() bool { return m.chasing }
func (m *fakeTeammate) CurrentOpponent() (Handle, bool) {
	return m.opp, m.opp != nil
}

type fakeTeams struct {
	team    Team
	hasTeam bool
	slot    *Vec3
}

func (f *fakeTeams) TeamOf(EntityID) (Team, bool) { return f.team, f.hasTeam }
func (f *fakeTeams) AssignedSlot(EntityID) (Vec3, bool) {
	if f.slot == nil {
		return Vec3{}, false
	}
	return *f.slot, true
}

type fakePins struct {
	pin     *Vec3
	cleared int
}

func (f *fakePins) TryGetLatestPinned(EntityID) (Vec3, bool) {
	if f.pin == nil {
		return Vec3{}, false
	}
	return *f.pin, true
}
func (f *fakePins) ClearPinned(EntityID) {
	f.pin = nil
	f.cleared++
}

type fakeFollow struct {
	target EntityID
}

func (f *fakeFollow) FollowTarget(EntityID) (EntityID, bool) {
	return f.target, f.target != ""
}

type spawnCall struct {
	origin Vec3
	rot    Rotation
	damage float64
}

type fakeSpawner struct {
	calls []spawnCall
}

func (s *fakeSpawner) Spawn(origin Vec3, rot Rotation, damage float64) ProjectileHandle {
	s.calls = append(s.calls, spawnCall{origin, rot, damage})
	return ProjectileHandle(len(s.calls))
}

type fakeAnim struct {
	moving bool
	speed  float64
	shots  int
}

func (a *fakeAnim) SetMoving(m bool)   { a.moving = m }
func (a *fakeAnim) SetSpeed(s float64) { a.speed = s }
func (a *fakeAnim) TriggerShoot()      { a.shots++ }

type fakeLiveness struct {
	dead map[EntityID]bool
	subs map[EntityID][]func(EntityID)
}

func newFakeLiveness() *fakeLiveness {
	return &fakeLiveness{dead: map[EntityID]bool{}, subs: map[EntityID][]func(EntityID){}}
}

func (l *fakeLiveness) IsDead(id EntityID) bool { return l.dead[id] }
func (l *fakeLiveness) OnDied(id EntityID, fn func(EntityID)) func() {
	l.subs[id] = append(l.subs[id], fn)
	idx := len(l.subs[id]) - 1
	return func() { l.subs[id][idx] = nil }
}

// notify fires callbacks without marking the entity dead, so tests can tell
// the subscription path from the IsDead path.
func (l *fakeLiveness) notify(id EntityID) {
	for _, fn := range l.subs[id] {
		if fn != nil {
			fn(id)
		}
	}
}

type fakeNav struct {
	fail bool
}

func (n *fakeNav) SampleNavigable(p Vec3, _ float64) (Vec3, bool) {
	if n.fail {
		return Vec3{}, false
	}
	return p, true
}

type thoughtRecorder struct {
	lines []string
}

func (r *thoughtRecorder) Think(_ EntityID, msg string) { r.lines = append(r.lines, msg) }

// rig bundles a controller with all its fakes.
type rig struct {
	c        *Controller
	body     *fakeBody
	agent    *fakeAgent
	spatial  *fakeSpatial
	teams    *fakeTeams
	pins     *fakePins
	follow   *fakeFollow
	spawner  *fakeSpawner
	anim     *fakeAnim
	liveness *fakeLiveness
	thoughts *thoughtRecorder
}

func newRig(t *testing.T, cfg Config, self Vec3) *rig {
	t.Helper()
	r := &rig{
		body:     &fakeBody{id: "R0", pos: self},
		agent:    &fakeAgent{},
		spatial:  &fakeSpatial{},
		teams:    &fakeTeams{},
		pins:     &fakePins{},
		follow:   &fakeFollow{},
		spawner:  &fakeSpawner{},
		anim:     &fakeAnim{},
		liveness: newFakeLiveness(),
		thoughts: &thoughtRecorder{},
	}
	c, err := New(r.body, cfg, Deps{
		Agent:    r.agent,
		Spatial:  r.spatial,
		Teams:    r.teams,
		Pins:     r.pins,
		Follow:   r.follow,
		Spawner:  r.spawner,
		Anim:     r.anim,
		Liveness: r.liveness,
		Thoughts: r.thoughts,
		Rand:     rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.c = c
	return r
}

func (r *rig) addEnemy(id EntityID, x, z float64) *fakeHandle {
	h := &fakeHandle{id: id, pos: Vec3{X: x, Z: z}}
	r.spatial.enemies = append(r.spatial.enemies, h)
	return h
}

func (r *rig) tick(n int, dt float64) {
	for i := 0; i < n; i++ {
		r.c.Tick(dt)
	}
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func assertState(t *testing.T, c *Controller, want State) {
	t.Helper()
	if c.State() != want {
		t.Fatalf("state = %s, want %s", c.State(), want)
	}
}

func assertOpponent(t *testing.T, c *Controller, want EntityID) {
	t.Helper()
	h, ok := c.CurrentOpponent()
	if !ok {
		t.Fatalf("no opponent, want %s", want)
	}
	if h.ID() != want {
		t.Fatalf("opponent = %s, want %s", h.ID(), want)
	}
}
