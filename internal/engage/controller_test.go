package engage

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tickDT = 0.1

func TestController_AcquireThenLoseResumesCapturedDestination(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.agent.dest = Vec3{X: -5, Z: 3}
	r.agent.hasDest = true
	enemy := r.addEnemy("B0", 5, 0)

	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)
	assertOpponent(t, r.c, "B0")
	if got := r.c.Snapshot().Resume; !got.HasPoint || got.Point != (Vec3{X: -5, Z: 3}) {
		t.Fatalf("resume destination not captured: %+v", got)
	}

	enemy.pos = Vec3{X: 20}
	r.tick(10, tickDT)
	assertState(t, r.c, StateChasing)

	r.tick(10, tickDT)
	assertState(t, r.c, StateIdle)
	if n := r.c.Stats().Lost(LossOutOfRange); n != 1 {
		t.Fatalf("out-of-range losses = %d, want 1", n)
	}
	last, ok := r.agent.last()
	if !ok || last != (Vec3{X: -5, Z: 3}) {
		t.Fatalf("last destination = %+v (ok=%v), want captured (-5,0,3)", last, ok)
	}
	if !r.c.Snapshot().Resume.IsZero() {
		t.Fatal("resume destination should be cleared after use")
	}
	for _, line := range r.thoughts.lines {
		t.Log(line)
	}
}

func TestController_DamageRefreshesLoseGrace(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	enemy := r.addEnemy("B0", 5, 0)
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)

	enemy.pos = Vec3{X: 25}
	for i := 0; i < 60; i++ {
		if i%5 == 0 {
			r.c.NotifyDamaged(enemy)
		}
		r.c.Tick(tickDT)
	}
	assertState(t, r.c, StateChasing)

	r.tick(40, tickDT)
	assertState(t, r.c, StateIdle)
}

func TestController_OpponentDeathNotificationInvalidates(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 5, 0)
	pin := Vec3{X: 2, Z: 9}
	r.pins.pin = &pin

	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)

	r.liveness.notify("B0")
	r.spatial.enemies = nil
	r.tick(1, tickDT)
	assertState(t, r.c, StateIdle)
	if r.c.Stats().Lost(LossInvalidated) != 1 {
		t.Fatal("expected an invalidation loss")
	}
	if last, _ := r.agent.last(); last != pin {
		t.Fatalf("resume went to %+v, want pinned %+v", last, pin)
	}
}

func TestController_IsDeadInvalidates(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 5, 0)
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)

	r.liveness.dead["B0"] = true
	r.tick(1, tickDT)
	assertState(t, r.c, StateIdle)
}

func TestController_HoldWithoutAutoAggroSkipsAcquisition(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	enemy := r.addEnemy("B0", 4, 0)
	r.c.SetManualHoldPoint(Vec3{})

	r.tick(5, tickDT)
	assertState(t, r.c, StateIdle)

	r.c.NotifyDamaged(enemy)
	assertState(t, r.c, StateIdle)

	if !r.c.ForceEngage(enemy) {
		t.Fatal("a forced order should bypass the auto-aggro gate")
	}
	assertState(t, r.c, StateChasing)
}

func TestController_LeashRejectsCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAggroWhileHolding = true
	cfg.HoldLeashRadius = 8
	r := newRig(t, cfg, Vec3{})
	r.c.SetManualHoldPoint(Vec3{X: -5})

	// 9 from self (inside chase radius) but 14 from the hold point.
	r.addEnemy("B0", 9, 0)
	r.tick(3, tickDT)
	assertState(t, r.c, StateIdle)

	r.addEnemy("B1", 0, 2.5)
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)
	assertOpponent(t, r.c, "B1")
}

func TestController_LeashInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAggroWhileHolding = true
	cfg.HoldLeashRadius = 8
	cfg.ChaseRadius = 12
	cfg.LoseRadius = 20
	hold := Vec3{}

	r := newRig(t, cfg, Vec3{X: 1})
	r.c.SetManualHoldPoint(hold)
	enemy := r.addEnemy("B0", 5, 0)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 400; i++ {
		// Random walk both units around the hold point.
		enemy.pos = Vec3{X: rng.Float64()*24 - 12, Z: rng.Float64()*24 - 12}
		if i%7 == 0 {
			r.body.pos = Vec3{X: rng.Float64()*20 - 10, Z: rng.Float64()*20 - 10}
		}
		r.c.Tick(tickDT)
		if !r.c.IsChasing() {
			continue
		}
		self := r.body.Position()
		if d := hold.PlanarDistanceTo(self); d > cfg.HoldLeashRadius {
			t.Fatalf("tick %d: chasing with self %.2f from hold point", i, d)
		}
		if d := hold.PlanarDistanceTo(enemy.pos); d > cfg.HoldLeashRadius {
			t.Fatalf("tick %d: chasing opponent %.2f from hold point", i, d)
		}
	}
	if r.c.Stats().Lost(LossLeash) == 0 {
		t.Fatal("expected at least one leash loss in the random walk")
	}

	// A forced order on a target outside the leash does not survive a tick.
	far := &fakeHandle{id: "B7", pos: Vec3{X: 15}}
	r.c.Disengage()
	r.body.pos = Vec3{X: 1}
	if !r.c.ForceEngage(far) {
		t.Fatal("ForceEngage rejected a live target")
	}
	r.c.Tick(tickDT)
	if r.c.IsChasing() {
		if opp, _ := r.c.CurrentOpponent(); opp.ID() == "B7" {
			t.Fatalf("forced engagement kept an opponent %.2f from the hold point", hold.PlanarDistanceTo(far.pos))
		}
	}
	if r.c.Stats().Lost(LossLeash) < 2 {
		t.Fatal("the forced engagement should end on the leash")
	}

	// Setting a hold point mid forced chase applies the leash at once.
	r2 := newRig(t, cfg, Vec3{})
	target := &fakeHandle{id: "B8", pos: Vec3{X: 10}}
	r2.c.ForceEngage(target)
	r2.c.SetManualHoldPoint(Vec3{X: -6})
	assertState(t, r2.c, StateIdle)
	if r2.c.Stats().Lost(LossLeash) != 1 {
		t.Fatal("hold point outside reach should end the forced engagement")
	}
}

func TestController_LeashLossResumesToHoldPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAggroWhileHolding = true
	r := newRig(t, cfg, Vec3{})
	hold := Vec3{X: -2, Z: -2}
	r.c.SetManualHoldPoint(hold)
	enemy := r.addEnemy("B0", 4, 0)
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)

	enemy.pos = Vec3{X: 9}
	r.tick(1, tickDT)
	assertState(t, r.c, StateIdle)
	if last, _ := r.agent.last(); last != hold {
		t.Fatalf("resume went to %+v, want hold point", last)
	}
}

func TestController_SetHoldPointEndsViolatingEngagement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAggroWhileHolding = true
	r := newRig(t, cfg, Vec3{})
	r.addEnemy("B0", 6, 0)
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)

	r.c.SetManualHoldPoint(Vec3{X: -10})
	assertState(t, r.c, StateIdle)
}

func TestController_ClearManualHoldPointIsIdempotent(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 5, 0)
	r.tick(1, tickDT)

	before := r.c.Snapshot()
	thoughts := len(r.thoughts.lines)
	r.c.ClearManualHoldPoint()
	r.c.ClearManualHoldPoint()
	if after := r.c.Snapshot(); after != before {
		t.Fatalf("snapshot changed:\n before %+v\n after  %+v", before, after)
	}
	if len(r.thoughts.lines) != thoughts {
		t.Fatal("clearing a missing hold point should not log")
	}

	r.c.SetManualHoldPoint(Vec3{X: 1})
	r.c.ClearManualHoldPoint()
	if _, ok := r.c.HoldPoint(); ok {
		t.Fatal("hold point should be cleared")
	}
}

func TestController_TetherClampsAutonomousButNotForced(t *testing.T) {
	anchor := Vec3{X: -20}
	r := newRig(t, DefaultConfig(), Vec3{X: -14, Y: 1.5})
	r.teams.team = Team{ID: "red", Anchor: &anchor}
	r.teams.hasTeam = true
	enemy := r.addEnemy("B0", -5, 0)

	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)
	dest, ok := r.agent.last()
	if !ok {
		t.Fatal("no approach destination issued")
	}
	if d := anchor.PlanarDistanceTo(dest); d > r.c.cfg.TetherRadius+1e-9 {
		t.Fatalf("tethered destination %.2f from anchor, radius %.2f", d, r.c.cfg.TetherRadius)
	}
	if dest.Y != 1.5 {
		t.Fatalf("tether should preserve Y, got %.2f", dest.Y)
	}

	if !r.c.ForceEngage(enemy) {
		t.Fatal("ForceEngage rejected a live target")
	}
	if r.pins.cleared != 1 {
		t.Fatalf("ForceEngage should clear the pin once, cleared %d", r.pins.cleared)
	}
	r.tick(1, tickDT)
	dest, _ = r.agent.last()
	if d := anchor.PlanarDistanceTo(dest); d <= r.c.cfg.TetherRadius+1 {
		t.Fatalf("forced destination still tethered (%.2f from anchor)", d)
	}
	if r.c.Snapshot().Anchor != nil {
		t.Fatal("forced engagement should report no tether anchor")
	}
}

func TestController_AssignedSlotTakesPriorityOverAnchor(t *testing.T) {
	anchor := Vec3{X: 50}
	slot := Vec3{X: -20}
	r := newRig(t, DefaultConfig(), Vec3{X: -14})
	r.teams.team = Team{ID: "red", Anchor: &anchor}
	r.teams.hasTeam = true
	r.teams.slot = &slot
	r.addEnemy("B0", -5, 0)

	r.tick(1, tickDT)
	if s := r.c.Snapshot(); s.Anchor == nil || *s.Anchor != slot {
		t.Fatalf("anchor = %+v, want slot %+v", s.Anchor, slot)
	}
}

func TestController_ForcedEngagementIgnoresChaseRadius(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, Vec3{})
	// Beyond the chase radius, inside the lose radius.
	enemy := &fakeHandle{id: "B9", pos: Vec3{X: 13}}
	if !r.c.ForceEngage(enemy) {
		t.Fatal("ForceEngage rejected a live target")
	}
	r.tick(50, tickDT)
	assertState(t, r.c, StateChasing)
	if r.c.Stats().Acquired(SourceForced) != 1 {
		t.Fatal("forced acquisition not counted")
	}
}

func TestController_ForcedEngagementLosesPastGrace(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, Vec3{})
	enemy := &fakeHandle{id: "B9", pos: Vec3{X: 40}}
	if !r.c.ForceEngage(enemy) {
		t.Fatal("ForceEngage rejected a live target")
	}

	// Still inside the grace window.
	r.tick(int(cfg.LoseGrace/tickDT)-1, tickDT)
	assertState(t, r.c, StateChasing)

	r.tick(3, tickDT)
	assertState(t, r.c, StateIdle)
	if r.c.Stats().Lost(LossOutOfRange) != 1 {
		t.Fatalf("losses = %+v, want one out-of-range", r.c.Stats().Losses)
	}
}

func TestController_ForceEngageRejectsInvalid(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	if r.c.ForceEngage(nil) {
		t.Fatal("nil handle accepted")
	}
	if r.c.ForceEngage(&fakeHandle{id: "B0", gone: true}) {
		t.Fatal("destroyed handle accepted")
	}
	if r.c.ForceEngage(&fakeHandle{id: "R0"}) {
		t.Fatal("self accepted as opponent")
	}
	assertState(t, r.c, StateIdle)
}

func TestController_DisengageDoesNotResume(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.agent.dest = Vec3{X: 30}
	r.agent.hasDest = true
	enemy := r.addEnemy("B0", 5, 0)
	r.c.ForceEngage(enemy)
	r.tick(2, tickDT)
	issued := len(r.agent.issued)

	r.c.Disengage()
	assertState(t, r.c, StateIdle)
	if len(r.agent.issued) != issued {
		t.Fatal("disengage should not issue a resume destination")
	}
	if !r.c.Snapshot().Resume.IsZero() {
		t.Fatal("disengage should drop the captured destination")
	}
	if r.c.Stats().Resumes != 0 {
		t.Fatal("disengage counted as a resume")
	}
}

func TestController_FollowDefersResume(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.follow.target = "R1"
	enemy := r.addEnemy("B0", 5, 0)
	r.tick(1, tickDT)
	issued := len(r.agent.issued)

	enemy.gone = true
	r.tick(1, tickDT)
	assertState(t, r.c, StateIdle)
	if len(r.agent.issued) != issued {
		t.Fatal("follow resume should not issue a destination")
	}
	if r.c.Snapshot().LastResume.Source != ResumeFollow {
		t.Fatalf("resume source = %s, want follow", r.c.Snapshot().LastResume.Source)
	}
}

func TestController_DisableStopsEverything(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 5, 0)
	r.tick(1, tickDT)
	r.c.Disable()
	assertState(t, r.c, StateIdle)
	if r.c.Stats().Lost(LossDisabled) != 1 {
		t.Fatal("disable should end the engagement")
	}

	r.tick(10, tickDT)
	assertState(t, r.c, StateIdle)
	if r.c.ForceEngage(&fakeHandle{id: "B1", pos: Vec3{X: 1}}) {
		t.Fatal("disabled controller accepted an order")
	}

	r.c.Enable()
	r.tick(1, tickDT)
	assertState(t, r.c, StateChasing)
}

func TestController_NearestWinsTiesByOrder(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 7, 0)
	r.addEnemy("B1", 0, 4)
	r.addEnemy("B2", -4, 0)
	r.tick(1, tickDT)
	assertOpponent(t, r.c, "B1")
}

func TestController_FocusFireAdoptsTeammateTarget(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 3, 0)
	far := &fakeHandle{id: "B1", pos: Vec3{X: 0, Z: 8}}
	closer := &fakeHandle{id: "B2", pos: Vec3{X: -6}}
	r.teams.hasTeam = true
	r.teams.team = Team{ID: "red", Members: []Teammate{
		&fakeTeammate{id: "R0"},
		&fakeTeammate{id: "R1", chasing: true, opp: far},
		&fakeTeammate{id: "R2", chasing: true, opp: closer},
	}}

	r.tick(1, tickDT)
	assertOpponent(t, r.c, "B2")
	if r.c.Snapshot().Source != SourceFocusFire {
		t.Fatalf("source = %s, want focus", r.c.Snapshot().Source)
	}
	if cd := r.c.acq.FocusCooldown(); !approx(cd, r.c.cfg.FocusFireCooldown, 1e-9) {
		t.Fatalf("focus cooldown = %.2f, want %.2f", cd, r.c.cfg.FocusFireCooldown)
	}
}

func TestController_FocusFireRespectsRadiusAndTeamSize(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, Vec3{})
	r.addEnemy("B0", 3, 0)
	outside := &fakeHandle{id: "B1", pos: Vec3{X: cfg.ChaseRadius + 2}}
	r.teams.hasTeam = true
	r.teams.team = Team{ID: "red", Members: []Teammate{
		&fakeTeammate{id: "R0"},
		&fakeTeammate{id: "R1", chasing: true, opp: outside},
	}}
	r.tick(1, tickDT)
	assertOpponent(t, r.c, "B0")

	solo := newRig(t, cfg, Vec3{})
	solo.addEnemy("B0", 3, 0)
	inside := &fakeHandle{id: "B1", pos: Vec3{X: 5}}
	solo.teams.hasTeam = true
	solo.teams.team = Team{ID: "red", Members: []Teammate{
		&fakeTeammate{id: "R1", chasing: true, opp: inside},
	}}
	solo.tick(1, tickDT)
	assertOpponent(t, solo.c, "B0")
}

func TestController_TargetFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetFilter = `candidate != "B0" && distance < 9`
	r := newRig(t, cfg, Vec3{})
	r.addEnemy("B0", 2, 0)
	r.addEnemy("B1", 9.5, 0)
	r.addEnemy("B2", 0, 6)
	r.tick(1, tickDT)
	assertOpponent(t, r.c, "B2")
}

func TestController_PassiveAggro(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	attacker := &fakeHandle{id: "B5", pos: Vec3{X: 30}}
	r.c.NotifyDamaged(attacker)
	assertState(t, r.c, StateChasing)
	if r.c.Snapshot().Source != SourcePassive {
		t.Fatal("expected passive acquisition")
	}

	cfg := DefaultConfig()
	cfg.PassiveAggro = false
	off := newRig(t, cfg, Vec3{})
	off.c.NotifyDamaged(attacker)
	assertState(t, off.c, StateIdle)
}

func TestController_InRangeHoldsAndFires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrafeEnabled = false
	r := newRig(t, cfg, Vec3{})
	r.addEnemy("B0", 6, 0)

	r.tick(30, tickDT)
	assertState(t, r.c, StateChasing)
	if r.c.Snapshot().Steer != SteerHold {
		t.Fatalf("steer = %s, want hold", r.c.Snapshot().Steer)
	}
	if len(r.agent.issued) != 0 {
		t.Fatalf("holding unit issued %d destinations", len(r.agent.issued))
	}
	if len(r.spawner.calls) == 0 || r.anim.shots != len(r.spawner.calls) {
		t.Fatalf("expected shots with matching animation triggers, spawns=%d anim=%d",
			len(r.spawner.calls), r.anim.shots)
	}
	if r.c.Stats().ShotsFired != len(r.spawner.calls) {
		t.Fatal("shot counter out of sync with spawner")
	}
}

func TestController_ApproachReissueThrottled(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.addEnemy("B0", 9.5, 0)
	r.tick(3, tickDT)
	if n := len(r.agent.issued); n != 1 {
		t.Fatalf("approach issued %d times in 0.3s, want 1", n)
	}
	r.tick(5, tickDT)
	if n := len(r.agent.issued); n != 2 {
		t.Fatalf("approach issued %d times after the repath interval, want 2", n)
	}
}

func TestController_AnimationPush(t *testing.T) {
	r := newRig(t, DefaultConfig(), Vec3{})
	r.agent.desiredVel = Vec3{X: 2}
	r.agent.vel = Vec3{X: math.NaN()}
	r.tick(1, tickDT)
	if !r.anim.moving || r.anim.speed != 2 {
		t.Fatalf("anim moving=%v speed=%.2f, want moving at 2", r.anim.moving, r.anim.speed)
	}
	r.agent.desiredVel = Vec3{}
	r.tick(1, tickDT)
	if r.anim.moving {
		t.Fatal("anim should stop when the agent is still")
	}
}

func TestController_MissingCollaboratorsDegrade(t *testing.T) {
	body := &fakeBody{id: "R0"}
	c, err := New(body, DefaultConfig(), Deps{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Tick(tickDT)
	assertState(t, c, StateIdle)
	if !c.ForceEngage(&fakeHandle{id: "B0", pos: Vec3{X: 6}}) {
		t.Fatal("ForceEngage should work without collaborators")
	}
	for i := 0; i < 20; i++ {
		c.Tick(tickDT)
		c.Tick(math.NaN())
	}
	assertState(t, c, StateChasing)
	if c.Stats().ShotsSkipped == 0 {
		t.Fatal("shots without a spawner should count as skipped")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"negative chase radius", func(c *Config) { c.ChaseRadius = -1 }},
		{"lose inside chase", func(c *Config) { c.LoseRadius = c.ChaseRadius - 1 }},
		{"nan fire interval", func(c *Config) { c.FireInterval = math.NaN() }},
		{"reversed band", func(c *Config) { c.FluctuateRange = true; c.RangeMin, c.RangeMax = 9, 4 }},
		{"band below floor", func(c *Config) { c.FluctuateRange = true; c.RangeMin, c.RangeMax = 0.1, 0.3 }},
		{"band min below floor", func(c *Config) { c.FluctuateRange = true; c.RangeMin, c.RangeMax = 0.2, 4 }},
		{"reversed pause", func(c *Config) { c.PauseMin, c.PauseMax = 2, 1 }},
		{"flip chance", func(c *Config) { c.StrafeFlipChance = 1.5 }},
		{"zero cone", func(c *Config) { c.FireConeHalfAngleDeg = 0 }},
		{"bad filter", func(c *Config) { c.TargetFilter = "distance <" }},
		{"non-bool filter", func(c *Config) { c.TargetFilter = "distance + 1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			_, err := New(&fakeBody{id: "R0"}, cfg, Deps{})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
	if _, err := New(nil, DefaultConfig(), Deps{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("nil body err = %v", err)
	}

	cfg := DefaultConfig()
	cfg.RangeMin, cfg.RangeMax = 0.1, 0.3
	if err := cfg.Validate(); err != nil {
		t.Fatalf("a fixed-range profile ignores the band, got %v", err)
	}
}
