package engage

import "math"

// ShotOutcome is what the fire controller did on a tick.
type ShotOutcome int

const (
	ShotPending ShotOutcome = iota // cadence timer still running
	ShotFired
	ShotSkippedCone
	ShotSkippedRange
	ShotNoSpawner
)

func (o ShotOutcome) String() string {
	switch o {
	case ShotPending:
		return "pending"
	case ShotFired:
		return "fired"
	case ShotSkippedCone:
		return "skip-cone"
	case ShotSkippedRange:
		return "skip-range"
	case ShotNoSpawner:
		return "no-spawner"
	default:
		return "unknown"
	}
}

// ShotResult describes one fire-controller tick.
type ShotResult struct {
	Outcome ShotOutcome
	Angle   float64 // signed aim error in radians at the moment of the check
	Handle  ProjectileHandle
}

// FireController turns the body toward its target and gates shots on a fixed
// cadence and a facing cone.
type FireController struct {
	cfg      Config
	cooldown float64
	cone     float64
	turnRate float64
}

func NewFireController(cfg Config) *FireController {
	return &FireController{
		cfg:      cfg,
		cooldown: cfg.FireInterval,
		cone:     degToRad(cfg.FireConeHalfAngleDeg),
		turnRate: degToRad(cfg.TurnRateDeg),
	}
}

// Reset restarts the cadence; the first shot of an engagement comes one full
// interval after acquisition.
func (f *FireController) Reset() {
	f.cooldown = f.cfg.FireInterval
}

func (f *FireController) Cooldown() float64 { return f.cooldown }

// Face turns body toward aim at the configured turn rate.
func (f *FireController) Face(body Body, aim Vec3, dt float64) {
	pos := body.Position()
	if pos.PlanarDistanceTo(aim) < 1e-6 {
		return
	}
	want := HeadingTo(pos, aim)
	yaw := body.Yaw()
	if !finite(yaw) {
		yaw = want
	}
	body.SetYaw(turnToward(yaw, want, f.turnRate*dt))
}

// TryFire faces the aim point and, once the cadence elapses, fires if the aim
// error is inside the cone and the target is in range. A skipped shot still
// consumes the interval.
func (f *FireController) TryFire(body Body, aim Vec3, dt float64, spawner ProjectileSpawner, anim AnimationSink) ShotResult {
	f.Face(body, aim, dt)

	f.cooldown -= dt
	if f.cooldown > 0 {
		return ShotResult{Outcome: ShotPending}
	}
	f.cooldown = f.cfg.FireInterval

	pos := body.Position()
	yaw := body.Yaw()
	angle := normalizeAngle(HeadingTo(pos, aim) - yaw)
	res := ShotResult{Angle: angle}
	switch {
	case math.Abs(angle) >= f.cone:
		res.Outcome = ShotSkippedCone
		return res
	case pos.PlanarDistanceTo(aim) > f.cfg.FireRange:
		res.Outcome = ShotSkippedRange
		return res
	case spawner == nil:
		res.Outcome = ShotNoSpawner
		return res
	}

	origin := pos.Add(YawDir(yaw).Scale(f.cfg.MuzzleForward))
	origin.Y += f.cfg.MuzzleHeight
	pitch := math.Atan2(aim.Y-origin.Y, origin.PlanarDistanceTo(aim))
	res.Handle = spawner.Spawn(origin, Rotation{Yaw: yaw, Pitch: pitch}, f.cfg.Damage)
	res.Outcome = ShotFired
	if anim != nil {
		anim.TriggerShoot()
	}
	return res
}
