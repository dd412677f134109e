package sim

import (
	"math"

	"github.com/Garsondee/standoff/internal/engage"
)

// FormationType identifies the shape of a squad formation.
type FormationType int

const (
	FormationLine    FormationType = iota // side-by-side perpendicular to heading
	FormationWedge                        // V-shape, leader at point
	FormationColumn                       // single file behind leader
	FormationEchelon                      // diagonal line offset to one flank
)

func (ft FormationType) String() string {
	switch ft {
	case FormationLine:
		return "line"
	case FormationWedge:
		return "wedge"
	case FormationColumn:
		return "column"
	case FormationEchelon:
		return "echelon"
	default:
		return "unknown"
	}
}

// slotSpacing is the world gap between adjacent formation slots.
const slotSpacing = 1.8

// slotRepathThreshold is how far a slot must drift before an idle member
// re-paths to it.
const slotRepathThreshold = 1.0

// formationOffsets returns the local (forward, right) offsets for each slot
// in a formation of count members (slot 0 is the leader).
func formationOffsets(ft FormationType, count int) [][2]float64 {
	offsets := make([][2]float64, count)
	if count == 0 {
		return offsets
	}
	offsets[0] = [2]float64{0, 0}

	switch ft {
	case FormationLine:
		for i := 1; i < count; i++ {
			side := float64((i+1)/2) * slotSpacing
			if i%2 == 1 {
				side = -side
			}
			offsets[i] = [2]float64{0, side}
		}

	case FormationWedge:
		for i := 1; i < count; i++ {
			depth := float64((i+1)/2) * slotSpacing
			side := float64((i+1)/2) * slotSpacing
			if i%2 == 1 {
				side = -side
			}
			offsets[i] = [2]float64{-depth, side}
		}

	case FormationColumn:
		for i := 1; i < count; i++ {
			offsets[i] = [2]float64{-float64(i) * slotSpacing, 0}
		}

	case FormationEchelon:
		for i := 1; i < count; i++ {
			offsets[i] = [2]float64{-float64(i) * slotSpacing * 0.7, float64(i) * slotSpacing * 0.7}
		}
	}
	return offsets
}

// SlotWorld converts a local (forward, right) offset into a world position
// given the leader's position and yaw.
func SlotWorld(leader engage.Vec3, yaw, fwd, right float64) engage.Vec3 {
	f := engage.YawDir(yaw)
	// Right is 90° clockwise from forward on screen (X right, Z down).
	r := engage.Vec3{X: -f.Z, Z: f.X}
	return engage.Vec3{
		X: leader.X + f.X*fwd + r.X*right,
		Y: leader.Y,
		Z: leader.Z + f.Z*fwd + r.Z*right,
	}
}

// Squad groups units that share a formation and a tether anchor.
type Squad struct {
	ID        string
	Team      Team
	Formation FormationType
	Members   []*Unit
	// Rally is an optional fixed anchor (for example a defended position).
	Rally *engage.Vec3

	// start-of-tick leader pose used for slots and anchors
	leaderPos engage.Vec3
	leaderYaw float64
	hasLeader bool
}

// Leader is the first living member.
func (sq *Squad) Leader() *Unit {
	for _, m := range sq.Members {
		if m.Alive() {
			return m
		}
	}
	return nil
}

// alive returns living members in formation order.
func (sq *Squad) alive() []*Unit {
	out := make([]*Unit, 0, len(sq.Members))
	for _, m := range sq.Members {
		if m.Alive() {
			out = append(out, m)
		}
	}
	return out
}

// capture records the leader pose at the start of a tick.
func (sq *Squad) capture() {
	l := sq.Leader()
	sq.hasLeader = l != nil
	if l != nil {
		sq.leaderPos = l.Position()
		sq.leaderYaw = l.Yaw()
	}
}

// Anchor is the rally point if set, otherwise the leader's start-of-tick
// position.
func (sq *Squad) Anchor() (engage.Vec3, bool) {
	if sq.Rally != nil {
		return *sq.Rally, true
	}
	return sq.leaderPos, sq.hasLeader
}

// SlotOf returns u's formation slot. The leader has none.
func (sq *Squad) SlotOf(u *Unit) (engage.Vec3, bool) {
	if !sq.hasLeader {
		return engage.Vec3{}, false
	}
	members := sq.alive()
	if len(members) == 0 || members[0] == u {
		return engage.Vec3{}, false
	}
	offsets := formationOffsets(sq.Formation, len(members))
	for i, m := range members {
		if m == u {
			return SlotWorld(sq.leaderPos, sq.leaderYaw, offsets[i][0], offsets[i][1]), true
		}
	}
	return engage.Vec3{}, false
}

// headingOf is the yaw of a velocity, or fallback when standing still.
func headingOf(v engage.Vec3, fallback float64) float64 {
	if v.PlanarLen() < 1e-3 {
		return fallback
	}
	return math.Atan2(v.Z, v.X)
}
