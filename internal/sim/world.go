// Package sim is a headless sandbox that hosts engagement controllers on a
// small ECS world. It supplies every collaborator the controllers need: grid
// pathfinding, a start-of-tick spatial snapshot, squads, move orders,
// projectiles and death notifications.
package sim

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/profile"
)

// DefaultTickRate is the fixed simulation rate in ticks per second.
const DefaultTickRate = 30

// followGap is how far behind an explicit follow target a unit stops.
const followGap = 1.5

var (
	ErrUnknownUnit   = errors.New("unknown unit")
	ErrDuplicateUnit = errors.New("duplicate unit label")
	ErrBlockedSpawn  = errors.New("spawn point is not walkable")
)

// World is the sandbox simulation. It is single-threaded; call Tick from one
// goroutine.
type World struct {
	Width    float64
	Depth    float64
	TickRate int
	Seed     int64
	Nav      *NavGrid
	SimLog   *SimLog
	Thoughts *ThoughtLog
	Log      *logrus.Entry

	ecs            donburi.World
	profiles       *profile.Set
	defaultProfile string
	buildings      []Rect
	units          []*Unit
	byLabel        map[string]*Unit
	byID           map[engage.EntityID]*Unit
	squads         []*Squad
	orders         *orders
	live           *liveness
	namespace      uuid.UUID

	snap          []snapEntry
	pendingShots  []ProjectileData
	nextShot      engage.ProjectileHandle
	pendingDeaths []*Unit
	memo          map[engage.EntityID]unitMemo
	tick          int
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra optionKind = iota // map size, buildings, seed, profiles; applied first
	optUnit                    // add units; applied after the nav grid is built
	optSquad                   // form squads; applied after units exist
	optOrder                   // move, follow and hold orders; applied last
)

// Option is a builder function applied to a World during construction.
type Option struct {
	kind optionKind
	fn   func(*World) error
}

// WithMapSize sets the playfield extent in world units.
func WithMapSize(width, depth float64) Option {
	return Option{optInfra, func(w *World) error {
		if width <= 0 || depth <= 0 {
			return fmt.Errorf("map size %.1fx%.1f must be positive", width, depth)
		}
		w.Width, w.Depth = width, depth
		return nil
	}}
}

// WithBuilding adds an obstacle footprint.
func WithBuilding(x, z, width, depth float64) Option {
	return Option{optInfra, func(w *World) error {
		w.buildings = append(w.buildings, Rect{X: x, Z: z, W: width, D: depth})
		return nil
	}}
}

// WithSeed sets the seed that derives unit IDs, and through them each
// controller's random stream.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(w *World) error {
		w.Seed = seed
		return nil
	}}
}

// WithVerbose enables per-tick verbose SimLog entries.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(w *World) error {
		w.SimLog = NewSimLog(v)
		return nil
	}}
}

// WithLogger routes controller and world logging to l.
func WithLogger(l *logrus.Logger) Option {
	return Option{optInfra, func(w *World) error {
		w.Log = logrus.NewEntry(l)
		return nil
	}}
}

func WithTickRate(hz int) Option {
	return Option{optInfra, func(w *World) error {
		if hz <= 0 {
			return fmt.Errorf("tick rate %d must be positive", hz)
		}
		w.TickRate = hz
		return nil
	}}
}

// WithProfiles replaces the built-in profile set.
func WithProfiles(s *profile.Set) Option {
	return Option{optInfra, func(w *World) error {
		w.profiles = s
		return nil
	}}
}

// WithDefaultProfile selects the profile used by WithUnit.
func WithDefaultProfile(name string) Option {
	return Option{optInfra, func(w *World) error {
		w.defaultProfile = name
		return nil
	}}
}

// WithUnit adds a unit using the default profile.
func WithUnit(label string, team Team, x, z float64) Option {
	return WithUnitProfile(label, team, x, z, "")
}

// WithUnitProfile adds a unit using the named profile.
func WithUnitProfile(label string, team Team, x, z float64, profileName string) Option {
	return Option{optUnit, func(w *World) error {
		return w.addUnit(label, team, x, z, profileName)
	}}
}

// WithSquad groups existing units (by label) into a squad. The first label is
// the leader.
func WithSquad(ft FormationType, labels ...string) Option {
	return Option{optSquad, func(w *World) error {
		return w.formSquad(ft, labels)
	}}
}

// WithRally fixes the tether anchor of label's squad at (x, z).
func WithRally(label string, x, z float64) Option {
	return Option{optOrder, func(w *World) error {
		u, err := w.lookup(label)
		if err != nil {
			return err
		}
		if u.Squad == nil {
			return fmt.Errorf("rally for %s: unit has no squad", label)
		}
		p := engage.Vec3{X: x, Z: z}
		u.Squad.Rally = &p
		return nil
	}}
}

// WithPinned issues a pinned move order.
func WithPinned(label string, x, z float64) Option {
	return Option{optOrder, func(w *World) error {
		return w.MoveUnit(label, x, z, true)
	}}
}

// WithMoveOrder issues an unpinned move order.
func WithMoveOrder(label string, x, z float64) Option {
	return Option{optOrder, func(w *World) error {
		return w.MoveUnit(label, x, z, false)
	}}
}

func WithFollow(label, target string) Option {
	return Option{optOrder, func(w *World) error {
		return w.Follow(label, target)
	}}
}

// WithHold gives label a manual hold point.
func WithHold(label string, x, z float64) Option {
	return Option{optOrder, func(w *World) error {
		return w.SetHold(label, x, z)
	}}
}

// NewWorld constructs a World from the given options in ordered passes:
//  1. Infrastructure (map size, buildings, seed, profiles, logging)
//  2. Build NavGrid
//  3. Units
//  4. Squads
//  5. Orders
func NewWorld(opts ...Option) (*World, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	w := &World{
		Width:    60,
		Depth:    40,
		TickRate: DefaultTickRate,
		Seed:     1,
		SimLog:   NewSimLog(false),
		Thoughts: NewThoughtLog(),
		Log:      logrus.NewEntry(discard),
		ecs:      donburi.NewWorld(),
		profiles: profile.Builtin(),
		byLabel:  make(map[string]*Unit),
		byID:     make(map[engage.EntityID]*Unit),
		memo:     make(map[engage.EntityID]unitMemo),
	}
	w.orders = newOrders(w)
	w.live = newLiveness(w)

	for _, kind := range []optionKind{optInfra, optUnit, optSquad, optOrder} {
		if kind == optUnit {
			w.buildNavGrid()
		}
		for _, o := range opts {
			if o.kind != kind {
				continue
			}
			if err := o.fn(w); err != nil {
				return nil, err
			}
		}
	}
	w.captureSnapshot()
	for _, u := range w.units {
		w.memo[u.id] = memoOf(u)
	}
	return w, nil
}

func (w *World) buildNavGrid() {
	w.Nav = NewNavGrid(w.Width, w.Depth, w.buildings, unitRadius)
	w.namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("standoff/%d", w.Seed)))
}

func (w *World) addUnit(label string, team Team, x, z float64, profileName string) error {
	if _, dup := w.byLabel[label]; dup {
		return fmt.Errorf("unit %q: %w", label, ErrDuplicateUnit)
	}
	if profileName == "" {
		profileName = w.defaultProfile
	}
	cfg, err := w.profiles.Get(profileName)
	if err != nil {
		return fmt.Errorf("unit %q: %w", label, err)
	}
	pos, ok := w.Nav.SampleNavigable(engage.Vec3{X: x, Z: z}, 3)
	if !ok {
		return fmt.Errorf("unit %q at (%.1f, %.1f): %w", label, x, z, ErrBlockedSpawn)
	}

	yaw := 0.0
	if team == TeamBlue {
		yaw = math.Pi
	}
	entity := w.ecs.Create(Transform, Health, UnitInfo, Motion, Brain)
	entry := w.ecs.Entry(entity)
	donburi.SetValue(entry, Transform, TransformData{Pos: pos, Yaw: yaw})
	donburi.SetValue(entry, Health, HealthData{HP: UnitHP, Max: UnitHP})
	donburi.SetValue(entry, Motion, MotionData{Speed: UnitSpeed})

	u := &Unit{
		Label:   label,
		Team:    team,
		Profile: profileName,
		id:      engage.EntityID(uuid.NewSHA1(w.namespace, []byte(label)).String()),
		entry:   entry,
		world:   w,
	}
	if u.Profile == "" {
		u.Profile = w.profiles.Default()
	}
	u.agent = &navAgent{u: u, nav: w.Nav}
	u.Anim = &AnimState{tick: &w.tick}
	donburi.SetValue(entry, UnitInfo, UnitData{Label: label, Team: team, ID: u.id, Unit: u})

	ctrl, err := engage.New(u, cfg, engage.Deps{
		Agent:    u.agent,
		Spatial:  spatialView{w: w, team: team},
		Teams:    teamView{w: w},
		Pins:     w.orders,
		Follow:   w.orders,
		Spawner:  spawner{w: w, u: u},
		Anim:     u.Anim,
		Liveness: w.live,
		Nav:      w.Nav,
		Thoughts: thoughtSink{w: w},
		Logger:   w.Log.WithFields(logrus.Fields{"label": label, "team": team.String()}),
	})
	if err != nil {
		w.ecs.Remove(entity)
		return fmt.Errorf("unit %q: %w", label, err)
	}
	u.Ctrl = ctrl
	donburi.SetValue(entry, Brain, BrainData{Ctrl: ctrl})

	w.units = append(w.units, u)
	w.byLabel[label] = u
	w.byID[u.id] = u
	return nil
}

// formSquad groups units into a squad. All members must share a team.
func (w *World) formSquad(ft FormationType, labels []string) error {
	if len(labels) == 0 {
		return errors.New("squad needs at least one member")
	}
	sq := &Squad{ID: fmt.Sprintf("squad-%d", len(w.squads)), Formation: ft}
	for i, l := range labels {
		u, err := w.lookup(l)
		if err != nil {
			return err
		}
		if u.Squad != nil {
			return fmt.Errorf("unit %q is already in %s", l, u.Squad.ID)
		}
		if i == 0 {
			sq.Team = u.Team
		} else if u.Team != sq.Team {
			return fmt.Errorf("unit %q is on %s, squad is %s", l, u.Team, sq.Team)
		}
		sq.Members = append(sq.Members, u)
	}
	for _, u := range sq.Members {
		u.Squad = sq
	}
	sq.capture()
	w.squads = append(w.squads, sq)
	return nil
}

func (w *World) lookup(label string) (*Unit, error) {
	u, ok := w.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, label)
	}
	return u, nil
}

// Tick advances the world by one fixed step:
// snapshot, controllers, orders, movement, projectiles, deaths, log.
func (w *World) Tick() {
	dt := w.DT()
	w.tick++
	w.captureSnapshot()

	for _, u := range w.units {
		if u.Alive() {
			u.Ctrl.Tick(dt)
		}
	}
	w.stepOrders()
	unitQuery.Each(w.ecs, func(entry *donburi.Entry) {
		u := UnitInfo.Get(entry).Unit
		if u.Alive() {
			u.agent.integrate(dt)
		}
	})
	w.stepProjectiles(dt)
	w.flushDeaths()
	w.record()
}

// RunTicks advances the simulation n ticks.
func (w *World) RunTicks(n int) {
	for i := 0; i < n; i++ {
		w.Tick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (w *World) RunUntil(predicate func(*World) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		w.Tick()
		if predicate(w) {
			return w.tick
		}
	}
	return -1
}

func (w *World) captureSnapshot() {
	w.snap = w.snap[:0]
	unitQuery.Each(w.ecs, func(entry *donburi.Entry) {
		info := UnitInfo.Get(entry)
		w.snap = append(w.snap, snapEntry{
			u:     info.Unit,
			pos:   Transform.Get(entry).Pos,
			team:  info.Team,
			alive: !Health.Get(entry).Dead,
		})
	})
	for _, sq := range w.squads {
		sq.capture()
	}
}

// stepOrders moves idle followers toward their follow target or formation
// slot. Engaged units are steered by their controller instead.
func (w *World) stepOrders() {
	for _, u := range w.units {
		if !u.Alive() || u.Ctrl.IsChasing() || u.Ctrl.Disabled() {
			continue
		}
		tid, ok := w.orders.FollowTarget(u.id)
		if !ok {
			continue
		}
		target := w.byID[tid]
		goal, ok := w.followGoal(u, target)
		if !ok {
			continue
		}
		dest, has := u.agent.Destination()
		if has && dest.PlanarDistanceTo(goal) <= slotRepathThreshold {
			continue
		}
		if !has && u.Position().PlanarDistanceTo(goal) <= slotRepathThreshold {
			continue
		}
		u.agent.SetDestination(goal)
	}
}

// followGoal is u's formation slot when following its own squad leader,
// otherwise a point just behind the target.
func (w *World) followGoal(u, target *Unit) (engage.Vec3, bool) {
	if u.Squad != nil && target.Squad == u.Squad && u.Squad.Leader() == target {
		return u.Squad.SlotOf(u)
	}
	tp := target.Position()
	away := u.Position().Sub(tp).Planar()
	l := away.PlanarLen()
	if l <= followGap {
		return u.Position(), false
	}
	return tp.Add(away.Scale(followGap / l)), true
}

func (w *World) queueDeath(u *Unit) {
	w.pendingDeaths = append(w.pendingDeaths, u)
}

// flushDeaths marks queued units dead, disables their controllers and then
// notifies subscribers.
func (w *World) flushDeaths() {
	deaths := w.pendingDeaths
	w.pendingDeaths = nil
	for _, u := range deaths {
		h := Health.Get(u.entry)
		if h.Dead {
			continue
		}
		h.Dead = true
		h.HP = 0
		h.DiedTick = w.tick
		u.Ctrl.Disable()
		u.agent.Stop()
		delete(w.orders.pins, u.id)
		delete(w.orders.follows, u.id)

		w.SimLog.Add(w.tick, u.Label, u.Team.String(), "unit", "death", "killed", 0)
		w.Log.WithFields(logrus.Fields{"label": u.Label, "tick": w.tick}).Info("unit killed")
		w.live.notify(u.id)
	}
}

// unitMemo is the previous tick's view of a unit used to diff SimLog events.
type unitMemo struct {
	state engage.State
	stats engage.Stats
}

func memoOf(u *Unit) unitMemo {
	return unitMemo{state: u.Ctrl.State(), stats: u.Ctrl.Stats()}
}

// record diffs every controller against the previous tick and appends the
// changes to the SimLog.
func (w *World) record() {
	for _, u := range w.units {
		prev := w.memo[u.id]
		cur := memoOf(u)
		w.memo[u.id] = cur
		team := u.Team.String()

		if cur.stats.TotalLosses() > prev.stats.TotalLosses() {
			snap := u.Ctrl.Snapshot()
			w.SimLog.Add(w.tick, u.Label, team, "engage", "lose", snap.LastLoss.String(), 0)
		}
		if cur.stats.Resumes > prev.stats.Resumes {
			snap := u.Ctrl.Snapshot()
			w.SimLog.Add(w.tick, u.Label, team, "engage", "resume", snap.LastResume.Source.String(), 0)
		}
		if cur.stats.TotalAcquisitions() > prev.stats.TotalAcquisitions() {
			if opp, ok := u.Ctrl.CurrentOpponent(); ok {
				snap := u.Ctrl.Snapshot()
				d := 0.0
				if p, ok := opp.Position(); ok {
					d = u.Position().DistanceTo(p)
				}
				w.SimLog.Add(w.tick, u.Label, team, "engage", "acquire",
					fmt.Sprintf("%s via %s (%.1fm)", w.labelOf(opp.ID()), snap.Source, d), d)
			}
		}
		if cur.state != prev.state {
			w.SimLog.Add(w.tick, u.Label, team, "state", "change",
				fmt.Sprintf("%s → %s", prev.state, cur.state), 0)
		}
		if cur.stats.ShotsFired > prev.stats.ShotsFired {
			target := "--"
			if opp, ok := u.Ctrl.CurrentOpponent(); ok {
				target = w.labelOf(opp.ID())
			}
			w.SimLog.Add(w.tick, u.Label, team, "fire", "shot", "at "+target, float64(u.Ctrl.LastShot().Handle))
		}
		if cur.stats.ShotsSkipped > prev.stats.ShotsSkipped {
			w.SimLog.Add(w.tick, u.Label, team, "fire", "skip", u.Ctrl.LastShot().Outcome.String(), u.Ctrl.LastShot().Angle)
		}
		if u.Alive() {
			p := u.Position()
			w.SimLog.AddVerbose(w.tick, u.Label, team, "move", "pos",
				fmt.Sprintf("(%.1f, %.1f) speed %.2f", p.X, p.Z, u.Anim.Speed), u.Anim.Speed)
		}
	}
}

func (w *World) labelOf(id engage.EntityID) string {
	if u, ok := w.byID[id]; ok {
		return u.Label
	}
	return "--"
}

// --- Queries and commands ---

func (w *World) TickCount() int         { return w.tick }
func (w *World) DT() float64            { return 1 / float64(w.TickRate) }
func (w *World) Time() float64          { return float64(w.tick) * w.DT() }
func (w *World) Units() []*Unit         { return w.units }
func (w *World) Squads() []*Squad       { return w.squads }
func (w *World) Buildings() []Rect      { return w.buildings }
func (w *World) Profiles() *profile.Set { return w.profiles }

// Unit returns the unit with label, or nil.
func (w *World) Unit(label string) *Unit { return w.byLabel[label] }

// UnitByID resolves an engagement ID back to its unit.
func (w *World) UnitByID(id engage.EntityID) *Unit { return w.byID[id] }

// AliveCount returns how many units of team are alive.
func (w *World) AliveCount(team Team) int {
	n := 0
	for _, u := range w.units {
		if u.Team == team && u.Alive() {
			n++
		}
	}
	return n
}

// Winner reports the surviving side once the other has been wiped out.
func (w *World) Winner() (Team, bool) {
	red, blue := w.AliveCount(TeamRed), w.AliveCount(TeamBlue)
	switch {
	case red > 0 && blue == 0:
		return TeamRed, true
	case blue > 0 && red == 0:
		return TeamBlue, true
	default:
		return 0, false
	}
}

// MoveUnit orders label to (x, z). A pinned order is remembered as the unit's
// resume destination and replaces any follow order.
func (w *World) MoveUnit(label string, x, z float64, pin bool) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	p := engage.Vec3{X: x, Y: u.Position().Y, Z: z}
	if pin {
		w.orders.pins[u.id] = p
		delete(w.orders.follows, u.id)
	}
	if !u.agent.SetDestination(p) {
		return fmt.Errorf("move %s to (%.1f, %.1f): no path", label, x, z)
	}
	w.SimLog.Add(w.tick, u.Label, u.Team.String(), "move", "order", fmt.Sprintf("(%.1f, %.1f) pinned=%v", x, z, pin), 0)
	return nil
}

// Follow makes label follow target. Any pin is cleared.
func (w *World) Follow(label, target string) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	t, err := w.lookup(target)
	if err != nil {
		return err
	}
	if u == t {
		return fmt.Errorf("unit %q cannot follow itself", label)
	}
	w.orders.follows[u.id] = t.id
	delete(w.orders.pins, u.id)
	return nil
}

func (w *World) SetHold(label string, x, z float64) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	u.Ctrl.SetManualHoldPoint(engage.Vec3{X: x, Y: u.Position().Y, Z: z})
	return nil
}

func (w *World) ClearHold(label string) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	u.Ctrl.ClearManualHoldPoint()
	return nil
}

// ForceEngage orders label to attack target regardless of range and leash.
func (w *World) ForceEngage(label, target string) (bool, error) {
	u, err := w.lookup(label)
	if err != nil {
		return false, err
	}
	t, err := w.lookup(target)
	if err != nil {
		return false, err
	}
	return u.Ctrl.ForceEngage(t.ref()), nil
}

func (w *World) Disengage(label string) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	u.Ctrl.Disengage()
	return nil
}

// Damage applies amount to label as if attacker had hit it.
func (w *World) Damage(label string, amount float64, attacker string) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	a, err := w.lookup(attacker)
	if err != nil {
		return err
	}
	if !u.Alive() {
		return nil
	}
	w.applyHit(&ProjectileData{Damage: amount, Shooter: a.id, Team: a.Team}, u)
	w.flushDeaths()
	return nil
}

// Kill removes label from the fight immediately.
func (w *World) Kill(label string) error {
	u, err := w.lookup(label)
	if err != nil {
		return err
	}
	w.queueDeath(u)
	w.flushDeaths()
	return nil
}
