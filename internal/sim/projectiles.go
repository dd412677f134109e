package sim

import (
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/Garsondee/standoff/internal/engage"
)

const (
	// ProjectileSpeed is the muzzle velocity in world units per second.
	ProjectileSpeed = 40.0
	projectileRange = 30.0
	hitRadius       = unitRadius + 0.05
)

// ProjectileView is a read-only projectile for overlays.
type ProjectileView struct {
	Handle engage.ProjectileHandle
	Pos    engage.Vec3
	Prev   engage.Vec3
	Team   Team
}

// stepProjectiles spawns this tick's queued shots, moves every projectile and
// resolves hits. Expired or colliding projectiles are removed after the sweep.
func (w *World) stepProjectiles(dt float64) {
	for _, p := range w.pendingShots {
		e := w.ecs.Create(Projectile)
		donburi.SetValue(w.ecs.Entry(e), Projectile, p)
	}
	w.pendingShots = w.pendingShots[:0]

	var live []*donburi.Entry
	projectileQuery.Each(w.ecs, func(entry *donburi.Entry) {
		live = append(live, entry)
	})

	var spent []donburi.Entity
	for _, entry := range live {
		p := Projectile.Get(entry)
		p.Prev = p.Pos
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		p.Life -= dt

		if victim, ok := w.firstHit(p); ok {
			w.applyHit(p, victim)
			spent = append(spent, entry.Entity())
			continue
		}
		if p.Life <= 0 || w.outOfBounds(p.Pos) || w.insideBuilding(p.Pos) || p.Pos.Y < 0 {
			spent = append(spent, entry.Entity())
		}
	}
	for _, e := range spent {
		w.ecs.Remove(e)
	}
}

// firstHit returns the enemy unit whose body the segment Prev->Pos crosses
// earliest.
func (w *World) firstHit(p *ProjectileData) (*Unit, bool) {
	seg := p.Pos.Sub(p.Prev)
	segLen2 := seg.X*seg.X + seg.Z*seg.Z
	var best *Unit
	bestT := 2.0
	for _, u := range w.units {
		if u.Team == p.Team || !u.Alive() {
			continue
		}
		c := u.Position()
		t := 0.0
		if segLen2 > 1e-12 {
			t = engage.Vec3{X: c.X - p.Prev.X, Z: c.Z - p.Prev.Z}.Dot(engage.Vec3{X: seg.X, Z: seg.Z}) / segLen2
			t = min(max(t, 0), 1)
		}
		at := p.Prev.Add(seg.Scale(t))
		if at.PlanarDistanceTo(c) > hitRadius {
			continue
		}
		if at.Y < c.Y || at.Y > c.Y+unitHeight {
			continue
		}
		if t < bestT {
			best, bestT = u, t
		}
	}
	return best, best != nil
}

func (w *World) applyHit(p *ProjectileData, victim *Unit) {
	h := Health.Get(victim.entry)
	h.HP -= p.Damage
	shooter := w.byID[p.Shooter]
	label := "--"
	if shooter != nil {
		label = shooter.Label
	}
	w.SimLog.Add(w.tick, victim.Label, victim.Team.String(), "fire", "hit",
		fmt.Sprintf("by %s for %.0f (hp %.0f)", label, p.Damage, max(h.HP, 0)), p.Damage)
	if h.HP <= 0 {
		w.queueDeath(victim)
		return
	}
	if shooter != nil {
		victim.Ctrl.NotifyDamaged(shooter.ref())
	}
}

func (w *World) outOfBounds(p engage.Vec3) bool {
	return p.X < 0 || p.Z < 0 || p.X > w.Width || p.Z > w.Depth
}

func (w *World) insideBuilding(p engage.Vec3) bool {
	for _, b := range w.buildings {
		if b.Contains(p.X, p.Z) {
			return true
		}
	}
	return false
}

// Projectiles returns the live projectiles.
func (w *World) Projectiles() []ProjectileView {
	var out []ProjectileView
	projectileQuery.Each(w.ecs, func(entry *donburi.Entry) {
		p := Projectile.Get(entry)
		out = append(out, ProjectileView{Handle: p.Handle, Pos: p.Pos, Prev: p.Prev, Team: p.Team})
	})
	return out
}
