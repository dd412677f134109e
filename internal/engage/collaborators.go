package engage

// EntityID identifies a unit across the controller and its collaborators.
type EntityID string

// Category selects which side of the fight a spatial query returns.
type Category int

const (
	CategoryEnemy Category = iota
	CategoryAlly
)

func (c Category) String() string {
	switch c {
	case CategoryEnemy:
		return "enemy"
	case CategoryAlly:
		return "ally"
	default:
		return "unknown"
	}
}

// Handle is a weak reference to another unit. Position reports false once the
// referenced entity has been destroyed or disabled.
type Handle interface {
	ID() EntityID
	Position() (Vec3, bool)
}

// Body is the unit the controller drives.
type Body interface {
	ID() EntityID
	Position() Vec3
	Yaw() float64
	SetYaw(yaw float64)
}

// MovementAgent wraps a path-following movement agent.
type MovementAgent interface {
	SetDestination(p Vec3) bool
	Stop()
	ResetPath()
	RemainingDistance() float64
	Velocity() Vec3
	DesiredVelocity() Vec3
	IsPathPending() bool
	SetStoppingDistance(d float64)
	// Destination is the currently commanded destination, if any.
	Destination() (Vec3, bool)
}

// SpatialQuery returns candidates around a point relative to the asking unit's side.
// Implementations must answer from a start-of-tick snapshot.
type SpatialQuery interface {
	FindNearby(cat Category, center Vec3, radius float64) []Handle
}

// Teammate is the read-only view of another unit's engagement.
type Teammate interface {
	ID() EntityID
	IsChasing() bool
	CurrentOpponent() (Handle, bool)
}

// Team is a snapshot of a unit's team as seen by its controller.
type Team struct {
	ID      string
	Members []Teammate
	Anchor  *Vec3
}

// TeamProvider exposes team membership and formation slots.
type TeamProvider interface {
	TeamOf(id EntityID) (Team, bool)
	AssignedSlot(id EntityID) (Vec3, bool)
}

// PinnedDestinations is the order system's latest pinned move target per unit.
type PinnedDestinations interface {
	TryGetLatestPinned(id EntityID) (Vec3, bool)
	ClearPinned(id EntityID)
}

// FollowQuery reports whether a unit was following a dynamic target.
type FollowQuery interface {
	FollowTarget(id EntityID) (EntityID, bool)
}

// Rotation is the firing orientation handed to the projectile spawner.
type Rotation struct {
	Yaw   float64
	Pitch float64
}

// ProjectileHandle identifies a spawned projectile; zero means nothing was spawned.
type ProjectileHandle uint64

type ProjectileSpawner interface {
	Spawn(origin Vec3, rot Rotation, damage float64) ProjectileHandle
}

type AnimationSink interface {
	SetMoving(moving bool)
	SetSpeed(speed float64)
	TriggerShoot()
}

// Liveness answers death queries and delivers death notifications.
type Liveness interface {
	IsDead(id EntityID) bool
	OnDied(id EntityID, fn func(EntityID)) (unsubscribe func())
}

// NavSurface projects a point onto the navigable surface within radius.
type NavSurface interface {
	SampleNavigable(p Vec3, radius float64) (Vec3, bool)
}

// ThoughtSink receives short human-readable decision notes.
type ThoughtSink interface {
	Think(id EntityID, msg string)
}
