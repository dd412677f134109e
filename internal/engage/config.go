package engage

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid engagement config")

// minDesiredRange keeps the standoff away from degenerate zero-range behaviour.
const minDesiredRange = 0.5

// Config holds every tunable of one engagement profile. Distances are world
// units, durations are seconds, angles are degrees.
type Config struct {
	// Acquisition
	ChaseRadius           float64 `yaml:"chase_radius"`
	LoseRadius            float64 `yaml:"lose_radius"`
	LoseGrace             float64 `yaml:"lose_grace"`
	DamageGraceRefresh    float64 `yaml:"damage_grace_refresh"`
	FocusFire             bool    `yaml:"focus_fire"`
	FocusFireCooldown     float64 `yaml:"focus_fire_cooldown"`
	FocusFireMinTeam      int     `yaml:"focus_fire_min_team"`
	MaxFocusDistance      float64 `yaml:"max_focus_distance"`
	PassiveAggro          bool    `yaml:"passive_aggro"`
	AutoAggroWhileHolding bool    `yaml:"auto_aggro_while_holding"`
	HoldLeashRadius       float64 `yaml:"hold_leash_radius"`
	TargetFilter          string  `yaml:"target_filter"`

	// Range policy
	DesiredRange          float64 `yaml:"desired_range"`
	RangeBuffer           float64 `yaml:"range_buffer"`
	FluctuateRange        bool    `yaml:"fluctuate_range"`
	RangeMin              float64 `yaml:"range_min"`
	RangeMax              float64 `yaml:"range_max"`
	RangeRetargetInterval float64 `yaml:"range_retarget_interval"`
	RangeBlendRate        float64 `yaml:"range_blend_rate"`

	// Standoff steering
	SpreadScale    float64 `yaml:"spread_scale"`
	BackoffExtra   float64 `yaml:"backoff_extra"`
	NavSampleRange float64 `yaml:"nav_sample_range"`
	RepathDistance float64 `yaml:"repath_distance"`
	ApproachRepath float64 `yaml:"approach_repath"`
	StoppingDist   float64 `yaml:"stopping_distance"`

	// Pause/burst strafing
	StrafeEnabled        bool    `yaml:"strafe_enabled"`
	PauseMin             float64 `yaml:"pause_min"`
	PauseMax             float64 `yaml:"pause_max"`
	BurstMin             float64 `yaml:"burst_min"`
	BurstMax             float64 `yaml:"burst_max"`
	StrafeChangeInterval float64 `yaml:"strafe_change_interval"`
	StrafeFlipChance     float64 `yaml:"strafe_flip_chance"`
	StrafeJitterDeg      float64 `yaml:"strafe_jitter_deg"`
	StrafeRadialWeight   float64 `yaml:"strafe_radial_weight"`
	StrafeRepath         float64 `yaml:"strafe_repath"`

	// Formation tether
	TetherRadius             float64 `yaml:"tether_radius"`
	TetherScaleWithTeam      bool    `yaml:"tether_scale_with_team"`
	TetherExtraPerSqrtMember float64 `yaml:"tether_extra_per_sqrt_member"`

	// Fire control
	FireInterval         float64 `yaml:"fire_interval"`
	FireConeHalfAngleDeg float64 `yaml:"fire_cone_half_angle"`
	FireRange            float64 `yaml:"fire_range"`
	TurnRateDeg          float64 `yaml:"turn_rate"`
	Damage               float64 `yaml:"damage"`
	AimHeight            float64 `yaml:"aim_height"`
	MuzzleForward        float64 `yaml:"muzzle_forward"`
	MuzzleHeight         float64 `yaml:"muzzle_height"`

	// Animation
	MovingSpeedThreshold float64 `yaml:"moving_speed_threshold"`
}

// DefaultConfig returns a baseline rifleman profile.
func DefaultConfig() Config {
	return Config{
		ChaseRadius:           10,
		LoseRadius:            15,
		LoseGrace:             1.5,
		DamageGraceRefresh:    1.0,
		FocusFire:             true,
		FocusFireCooldown:     0.75,
		FocusFireMinTeam:      2,
		MaxFocusDistance:      25,
		PassiveAggro:          true,
		AutoAggroWhileHolding: false,
		HoldLeashRadius:       8,

		DesiredRange:          6,
		RangeBuffer:           0.75,
		FluctuateRange:        false,
		RangeMin:              5,
		RangeMax:              8,
		RangeRetargetInterval: 2.5,
		RangeBlendRate:        1.5,

		SpreadScale:    0.35,
		BackoffExtra:   0.5,
		NavSampleRange: 2,
		RepathDistance: 0.5,
		ApproachRepath: 0.5,
		StoppingDist:   0.2,

		StrafeEnabled:        true,
		PauseMin:             0.6,
		PauseMax:             1.4,
		BurstMin:             0.5,
		BurstMax:             1.1,
		StrafeChangeInterval: 0.6,
		StrafeFlipChance:     0.35,
		StrafeJitterDeg:      25,
		StrafeRadialWeight:   0.3,
		StrafeRepath:         0.2,

		TetherRadius:             6,
		TetherScaleWithTeam:      true,
		TetherExtraPerSqrtMember: 1.5,

		FireInterval:         0.8,
		FireConeHalfAngleDeg: 30,
		FireRange:            12,
		TurnRateDeg:          360,
		Damage:               10,
		AimHeight:            1.2,
		MuzzleForward:        0.5,
		MuzzleHeight:         1.4,

		MovingSpeedThreshold: 0.1,
	}
}

// Validate rejects configurations the controller cannot run with. Soft
// degeneracies (such as a zero desired range) are clamped at use instead.
func (c Config) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"chase_radius", c.ChaseRadius},
		{"lose_radius", c.LoseRadius},
		{"lose_grace", c.LoseGrace},
		{"damage_grace_refresh", c.DamageGraceRefresh},
		{"focus_fire_cooldown", c.FocusFireCooldown},
		{"max_focus_distance", c.MaxFocusDistance},
		{"hold_leash_radius", c.HoldLeashRadius},
		{"desired_range", c.DesiredRange},
		{"range_buffer", c.RangeBuffer},
		{"range_min", c.RangeMin},
		{"range_max", c.RangeMax},
		{"range_retarget_interval", c.RangeRetargetInterval},
		{"range_blend_rate", c.RangeBlendRate},
		{"pause_min", c.PauseMin},
		{"pause_max", c.PauseMax},
		{"burst_min", c.BurstMin},
		{"burst_max", c.BurstMax},
		{"tether_radius", c.TetherRadius},
		{"fire_interval", c.FireInterval},
		{"fire_range", c.FireRange},
		{"turn_rate", c.TurnRateDeg},
	}
	for _, ch := range checks {
		if math.IsNaN(ch.v) || math.IsInf(ch.v, 0) || ch.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, ch.name, ch.v)
		}
	}
	if c.LoseRadius < c.ChaseRadius {
		return fmt.Errorf("%w: lose_radius %.2f is inside chase_radius %.2f", ErrInvalidConfig, c.LoseRadius, c.ChaseRadius)
	}
	if c.FluctuateRange {
		if c.RangeMax < c.RangeMin {
			return fmt.Errorf("%w: range_max %.2f below range_min %.2f", ErrInvalidConfig, c.RangeMax, c.RangeMin)
		}
		if c.RangeMin < minDesiredRange {
			return fmt.Errorf("%w: range_min %.2f below the %.2f range floor", ErrInvalidConfig, c.RangeMin, minDesiredRange)
		}
	}
	if c.PauseMax < c.PauseMin || c.BurstMax < c.BurstMin {
		return fmt.Errorf("%w: pause/burst bounds are reversed", ErrInvalidConfig)
	}
	if c.StrafeFlipChance < 0 || c.StrafeFlipChance > 1 {
		return fmt.Errorf("%w: strafe_flip_chance must be in [0,1], got %v", ErrInvalidConfig, c.StrafeFlipChance)
	}
	if c.StrafeRadialWeight < 0 || c.StrafeRadialWeight > 1 {
		return fmt.Errorf("%w: strafe_radial_weight must be in [0,1], got %v", ErrInvalidConfig, c.StrafeRadialWeight)
	}
	if c.FireConeHalfAngleDeg <= 0 || c.FireConeHalfAngleDeg > 180 {
		return fmt.Errorf("%w: fire_cone_half_angle must be in (0,180], got %v", ErrInvalidConfig, c.FireConeHalfAngleDeg)
	}
	if _, err := compileTargetFilter(c.TargetFilter); err != nil {
		return err
	}
	return nil
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
