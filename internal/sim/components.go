package sim

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/Garsondee/standoff/internal/engage"
)

// Team is a side in the sandbox.
type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Other returns the opposing side.
func (t Team) Other() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// TransformData is a unit's world pose.
type TransformData struct {
	Pos engage.Vec3
	Yaw float64
}

type HealthData struct {
	HP       float64
	Max      float64
	Dead     bool
	DiedTick int
}

// UnitData ties an entity back to its sandbox unit.
type UnitData struct {
	Label string
	Team  Team
	ID    engage.EntityID
	Unit  *Unit
}

// MotionData is the path-following state driven by the nav agent.
type MotionData struct {
	Path     []engage.Vec3
	Dest     engage.Vec3
	HasDest  bool
	Vel      engage.Vec3
	Desired  engage.Vec3
	StopDist float64
	Speed    float64
}

type BrainData struct {
	Ctrl *engage.Controller
}

type ProjectileData struct {
	Handle  engage.ProjectileHandle
	Pos     engage.Vec3
	Prev    engage.Vec3
	Vel     engage.Vec3
	Damage  float64
	Shooter engage.EntityID
	Team    Team
	Life    float64
}

var (
	Transform  = donburi.NewComponentType[TransformData]()
	Health     = donburi.NewComponentType[HealthData]()
	UnitInfo   = donburi.NewComponentType[UnitData]()
	Motion     = donburi.NewComponentType[MotionData]()
	Brain      = donburi.NewComponentType[BrainData]()
	Projectile = donburi.NewComponentType[ProjectileData]()
)

var (
	unitQuery       = donburi.NewQuery(filter.Contains(Transform, Health, UnitInfo, Motion, Brain))
	projectileQuery = donburi.NewQuery(filter.Contains(Projectile))
)
