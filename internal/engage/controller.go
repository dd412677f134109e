package engage

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Deps are the controller's collaborators. Every field is optional; a missing
// collaborator turns the calls that need it into no-ops.
type Deps struct {
	Agent    MovementAgent
	Spatial  SpatialQuery
	Teams    TeamProvider
	Pins     PinnedDestinations
	Follow   FollowQuery
	Spawner  ProjectileSpawner
	Anim     AnimationSink
	Liveness Liveness
	Nav      NavSurface
	Thoughts ThoughtSink
	Logger   *logrus.Entry
	// Rand overrides the per-unit source seeded from the unit ID.
	Rand *rand.Rand
}

// Controller is the per-unit engagement state machine. It is not safe for
// concurrent use; the owning simulation steps it once per tick.
type Controller struct {
	body Body
	cfg  Config
	deps Deps
	log  *logrus.Entry

	acq      *TargetAcquisition
	ranges   *RangePolicy
	steering *StandoffSteering
	cycle    *PauseBurstCycle
	tether   *FormationTether
	fire     *FireController

	state        State
	opponent     Handle
	source       Source
	forced       bool
	opponentDied bool
	unsubscribe  func()
	loseTimer    float64
	damageGrace  float64
	hold         *Vec3
	resume       ResumeDestination
	disabled     bool

	lastIssued Vec3
	hasIssued  bool
	sinceIssue float64
	lastSteer  SteerKind
	lastRange  float64
	lastShot   ShotResult
	lastLoss   LossReason
	lastResume ResumeChoice
	speed      float64
	stats      Stats
}

// New builds a controller for body. The config is validated and the target
// filter compiled up front; errors wrap ErrInvalidConfig.
func New(body Body, cfg Config, deps Deps) (*Controller, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: nil body", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filter, err := compileTargetFilter(cfg.TargetFilter)
	if err != nil {
		return nil, err
	}

	log := deps.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	log = log.WithField("unit", body.ID())

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(Seed(body.ID()))) // #nosec G404 -- simulation randomness
	}

	c := &Controller{
		body:     body,
		cfg:      cfg,
		deps:     deps,
		log:      log,
		acq:      newTargetAcquisition(cfg, body.ID(), deps, filter, log),
		ranges:   NewRangePolicy(cfg, rng),
		steering: NewStandoffSteering(cfg, body.ID(), deps.Nav),
		cycle:    NewPauseBurstCycle(cfg, rng, deps.Nav),
		tether:   NewFormationTether(cfg),
		fire:     NewFireController(cfg),
	}
	if deps.Agent != nil {
		deps.Agent.SetStoppingDistance(cfg.StoppingDist)
	}
	return c, nil
}

func (c *Controller) ID() EntityID         { return c.body.ID() }
func (c *Controller) State() State         { return c.state }
func (c *Controller) IsChasing() bool      { return c.state == StateChasing }
func (c *Controller) Config() Config       { return c.cfg }
func (c *Controller) Stats() Stats         { return c.stats }
func (c *Controller) Disabled() bool       { return c.disabled }
func (c *Controller) LastShot() ShotResult { return c.lastShot }

// CurrentOpponent returns the opponent while chasing.
func (c *Controller) CurrentOpponent() (Handle, bool) {
	if c.state != StateChasing || c.opponent == nil {
		return nil, false
	}
	return c.opponent, true
}

// HoldPoint returns the manual hold point, if any.
func (c *Controller) HoldPoint() (Vec3, bool) {
	if c.hold == nil {
		return Vec3{}, false
	}
	return *c.hold, true
}

// SetManualHoldPoint replaces the hold point. An engagement that now violates
// the leash ends immediately.
func (c *Controller) SetManualHoldPoint(p Vec3) {
	if !p.IsFinite() {
		return
	}
	hp := p
	c.hold = &hp
	c.think(fmt.Sprintf("holding at (%.1f, %.1f)", p.X, p.Z))
	if c.state == StateChasing {
		if opp, ok := c.opponentPosition(); ok && !c.leashHolds(c.body.Position(), opp) {
			c.lose(LossLeash)
		}
	}
}

// ClearManualHoldPoint removes the hold point. Without one it does nothing.
func (c *Controller) ClearManualHoldPoint() {
	if c.hold == nil {
		return
	}
	c.hold = nil
	c.think("hold released")
}

// ForceEngage starts an explicit attack on h regardless of chase radius,
// auto-aggro gating or target filter, and ignores formation tethering. Once
// chasing, the lose radius and hold leash apply as for any engagement. It
// reports false if h is not a live target.
func (c *Controller) ForceEngage(h Handle) bool {
	if c.disabled {
		return false
	}
	if _, ok := c.acq.Valid(h); !ok || h.ID() == c.body.ID() {
		return false
	}
	if c.deps.Pins != nil {
		c.deps.Pins.ClearPinned(c.body.ID())
	}
	self := c.body.Position()
	pos, _ := h.Position()
	c.engage(Candidate{Handle: h, Source: SourceForced, Distance: self.DistanceTo(pos)})
	return true
}

// Disengage cancels the current engagement without resuming earlier travel.
func (c *Controller) Disengage() {
	if c.state != StateChasing {
		return
	}
	c.lose(LossDisengaged)
	c.resume = ResumeDestination{}
	c.stopAgent()
}

// Disable is called when the unit dies. The controller stops reacting until
// Enable.
func (c *Controller) Disable() {
	if c.disabled {
		return
	}
	if c.state == StateChasing {
		c.lose(LossDisabled)
	}
	c.resume = ResumeDestination{}
	c.stopAgent()
	c.disabled = true
}

func (c *Controller) Enable() {
	c.disabled = false
}

// NotifyDamaged tells the controller it was hit. While chasing it refreshes
// the lose grace; while idle it may engage the attacker.
func (c *Controller) NotifyDamaged(attacker Handle) {
	if c.disabled {
		return
	}
	c.damageGrace = c.cfg.DamageGraceRefresh
	if c.state == StateChasing {
		c.loseTimer = 0
		return
	}
	if !c.cfg.PassiveAggro || attacker == nil {
		return
	}
	if cand, ok := c.acq.Admit(attacker, SourcePassive, c.body.Position(), c.hold); ok {
		c.engage(cand)
	}
}

// Tick advances the controller by dt seconds.
func (c *Controller) Tick(dt float64) {
	if c.disabled {
		return
	}
	if !finite(dt) || dt < 0 {
		dt = 0
	}
	c.acq.Advance(dt)
	if c.damageGrace > 0 {
		c.damageGrace -= dt
	}

	if c.state == StateIdle {
		if cand, ok := c.acq.TryAcquire(c.body.Position(), c.hold); ok {
			c.engage(cand)
		}
	}
	if c.state == StateChasing {
		c.tickChasing(dt)
	}
	c.speed = pushAnimation(c.deps.Anim, c.deps.Agent, c.cfg.MovingSpeedThreshold)
}

func (c *Controller) tickChasing(dt float64) {
	opp, ok := c.opponentPosition()
	if !ok {
		c.lose(LossInvalidated)
		return
	}
	self := c.body.Position()
	if !self.IsFinite() {
		c.stopAgent()
		return
	}

	// Forced orders only bypass acquisition; lose radius and leash still apply.
	d := self.DistanceTo(opp)
	if d > c.cfg.LoseRadius && c.damageGrace <= 0 {
		c.loseTimer += dt
	} else {
		c.loseTimer = 0
	}
	if c.loseTimer > c.cfg.LoseGrace {
		c.lose(LossOutOfRange)
		return
	}
	if !c.leashHolds(self, opp) {
		c.lose(LossLeash)
		return
	}

	c.sinceIssue += dt
	r := c.ranges.DesiredRange(dt)
	c.lastRange = r
	dec := c.steering.Step(self, opp, r, c.cfg.RangeBuffer, dt)
	if dec.Kind != c.lastSteer {
		c.log.WithFields(logrus.Fields{
			"from":     c.lastSteer,
			"to":       dec.Kind,
			"distance": dec.Distance,
			"range":    r,
		}).Debug("steering branch")
		c.lastSteer = dec.Kind
	}

	switch dec.Kind {
	case SteerApproach, SteerBackoff:
		c.cycle.Reset()
		if !dec.Valid {
			c.stopAgent()
			break
		}
		c.issue(dec.Point, false)
	default:
		cd := c.cycle.Tick(dt, true, StrafeGeometry{
			Self:         self,
			Opponent:     opp,
			DesiredRange: r,
			Buffer:       c.cfg.RangeBuffer,
		})
		switch {
		case cd.Hold:
			c.stopAgent()
		case cd.Issue:
			c.issue(cd.Point, true)
		}
	}

	aim := opp
	aim.Y += c.cfg.AimHeight
	c.lastShot = c.fire.TryFire(c.body, aim, dt, c.deps.Spawner, c.deps.Anim)
	switch c.lastShot.Outcome {
	case ShotFired:
		c.stats.ShotsFired++
	case ShotSkippedCone, ShotSkippedRange, ShotNoSpawner:
		c.stats.ShotsSkipped++
	}
}

func (c *Controller) engage(cand Candidate) {
	wasChasing := c.state == StateChasing
	if wasChasing {
		c.release()
	} else {
		c.resume = c.captureResume()
	}

	c.state = StateChasing
	c.opponent = cand.Handle
	c.source = cand.Source
	c.forced = cand.Source == SourceForced
	c.opponentDied = false
	c.loseTimer = 0
	c.ranges.Invalidate()
	c.cycle.Reset()
	c.fire.Reset()
	c.hasIssued = false
	c.lastSteer = SteerHold
	c.lastLoss = LossNone
	c.stats.Acquisitions[cand.Source]++

	if c.deps.Liveness != nil {
		target := cand.Handle.ID()
		c.unsubscribe = c.deps.Liveness.OnDied(target, func(id EntityID) {
			if c.opponent != nil && c.opponent.ID() == id {
				c.opponentDied = true
			}
		})
	}

	c.log.WithFields(logrus.Fields{
		"target":   cand.Handle.ID(),
		"source":   cand.Source,
		"distance": cand.Distance,
	}).Info("engaging")
	c.think(fmt.Sprintf("engaging %s (%s, %.1fm)", cand.Handle.ID(), cand.Source, cand.Distance))
}

// release drops the opponent subscription and per-engagement state.
func (c *Controller) release() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.opponent = nil
	c.opponentDied = false
	c.source = SourceNone
	c.forced = false
	c.loseTimer = 0
	c.cycle.Reset()
	c.ranges.Invalidate()
	c.hasIssued = false
}

func (c *Controller) lose(reason LossReason) {
	var target EntityID
	if c.opponent != nil {
		target = c.opponent.ID()
	}
	c.release()
	c.state = StateIdle
	c.lastLoss = reason
	c.stats.Losses[reason]++

	c.log.WithFields(logrus.Fields{
		"target": target,
		"reason": reason,
	}).Info("engagement ended")
	c.think(fmt.Sprintf("lost %s (%s)", target, reason))

	if reason.resumes() {
		c.applyResume()
	}
}

func (c *Controller) captureResume() ResumeDestination {
	var r ResumeDestination
	if c.deps.Follow != nil {
		if target, ok := c.deps.Follow.FollowTarget(c.body.ID()); ok {
			r.Following = target
			return r
		}
	}
	if c.deps.Agent != nil {
		if p, ok := c.deps.Agent.Destination(); ok && p.IsFinite() {
			r.Point = p
			r.HasPoint = true
		}
	}
	return r
}

func (c *Controller) applyResume() {
	following := false
	if c.deps.Follow != nil {
		_, following = c.deps.Follow.FollowTarget(c.body.ID())
	}
	var pin Vec3
	hasPin := false
	if c.deps.Pins != nil {
		pin, hasPin = c.deps.Pins.TryGetLatestPinned(c.body.ID())
	}

	choice := ResolveResume(c.resume, following, c.hold, pin, hasPin)
	c.resume = ResumeDestination{}
	c.lastResume = choice
	c.stats.Resumes++

	switch choice.Source {
	case ResumeHold, ResumePinned, ResumeCaptured:
		if c.deps.Agent != nil {
			c.deps.Agent.SetDestination(choice.Point)
		}
		c.think(fmt.Sprintf("resuming %s (%.1f, %.1f)", choice.Source, choice.Point.X, choice.Point.Z))
	case ResumeFollow:
		c.think("resuming follow")
	default:
		c.stopAgent()
	}
}

// opponentPosition returns the opponent's position if the reference is still good.
func (c *Controller) opponentPosition() (Vec3, bool) {
	if c.opponent == nil || c.opponentDied {
		return Vec3{}, false
	}
	return c.acq.Valid(c.opponent)
}

// leashHolds is true without a hold point.
func (c *Controller) leashHolds(self, opp Vec3) bool {
	if c.hold == nil {
		return true
	}
	return withinLeash(self, *c.hold, c.cfg.HoldLeashRadius) && withinLeash(opp, *c.hold, c.cfg.HoldLeashRadius)
}

// tetherAnchor is the assigned slot, else the team anchor. Forced engagements
// are never tethered.
func (c *Controller) tetherAnchor() (*Vec3, int) {
	if c.forced || c.deps.Teams == nil {
		return nil, 0
	}
	team, hasTeam := c.deps.Teams.TeamOf(c.body.ID())
	size := len(team.Members)
	if slot, ok := c.deps.Teams.AssignedSlot(c.body.ID()); ok && slot.IsFinite() {
		return &slot, size
	}
	if hasTeam && team.Anchor != nil {
		a := *team.Anchor
		return &a, size
	}
	return nil, size
}

// issue clamps p by tether and leash and sends it to the agent. Unless force
// is set, a destination close to the last one is only re-sent after the
// approach repath interval.
func (c *Controller) issue(p Vec3, force bool) {
	anchor, size := c.tetherAnchor()
	p = c.tether.Clamp(p, anchor, size)
	if c.hold != nil {
		p = clampToCircle(p, *c.hold, c.cfg.HoldLeashRadius)
	}
	if !p.IsFinite() || c.deps.Agent == nil {
		return
	}
	if !force && c.hasIssued &&
		c.lastIssued.PlanarDistanceTo(p) <= c.cfg.RepathDistance &&
		c.sinceIssue < c.cfg.ApproachRepath {
		return
	}
	if !c.deps.Agent.SetDestination(p) {
		c.log.WithField("point", p).Debug("destination rejected")
		return
	}
	c.lastIssued = p
	c.hasIssued = true
	c.sinceIssue = 0
}

func (c *Controller) stopAgent() {
	if c.deps.Agent == nil {
		return
	}
	_, moving := c.deps.Agent.Destination()
	if !moving && !c.hasIssued {
		return
	}
	c.deps.Agent.Stop()
	c.hasIssued = false
}

func (c *Controller) think(msg string) {
	if c.deps.Thoughts != nil {
		c.deps.Thoughts.Think(c.body.ID(), msg)
	}
}
