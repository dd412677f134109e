package viewer

import (
	"fmt"
	"strings"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/sim"
)

// UnitReport renders a plain-text debug report for u covering the last
// lastTicks ticks of its event history.
func UnitReport(w *sim.World, u *sim.Unit, lastTicks int) string {
	if u == nil {
		return ""
	}
	if lastTicks <= 0 {
		lastTicks = 120
	}
	toTick := w.TickCount()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- standoff unit report ---\n")
	fmt.Fprintf(&b, "seed=%d tick_range=[%d..%d] time=%.2fs\n", w.Seed, fromTick, toTick, w.Time())
	fmt.Fprintf(&b, "unit=%s team=%s profile=%s hp=%.0f alive=%v\n", u.Label, u.Team, u.Profile, u.HP(), u.Alive())
	if sq := u.Squad; sq != nil {
		leader := "-"
		if l := sq.Leader(); l != nil {
			leader = l.Label
		}
		fmt.Fprintf(&b, "squad=%s formation=%s leader=%s\n", sq.ID, sq.Formation, leader)
	}
	p := u.Position()
	fmt.Fprintf(&b, "pos=(%.2f, %.2f, %.2f) yaw=%.2f\n\n", p.X, p.Y, p.Z, u.Yaw())

	snap := u.Ctrl.Snapshot()
	b.WriteString("== controller ==\n")
	fmt.Fprintf(&b, "state=%s disabled=%v\n", snap.State, snap.Disabled)
	if snap.State == engage.StateChasing {
		fmt.Fprintf(&b, "opponent=%s source=%s forced=%v\n", labelFor(w, snap.Opponent), snap.Source, snap.Forced)
		fmt.Fprintf(&b, "range=%.2f band=[%.2f..%.2f] steer=%s\n", snap.DesiredRange, snap.Inner, snap.Outer, snap.Steer)
		fmt.Fprintf(&b, "phase=%s pause=%.2f burst=%.2f strafe=%+.0f lose_timer=%.2f\n",
			snap.Phase, snap.PauseTimer, snap.BurstTimer, snap.StrafeSide, snap.LoseTimer)
		fmt.Fprintf(&b, "last_shot=%s angle=%.3f\n", snap.LastShot.Outcome, snap.LastShot.Angle)
	}
	if snap.LastLoss != engage.LossNone {
		fmt.Fprintf(&b, "last_loss=%s resumed=%s\n", snap.LastLoss, snap.LastResume.Source)
	}
	if snap.Hold != nil {
		fmt.Fprintf(&b, "hold=(%.2f, %.2f) leash=%.2f\n", snap.Hold.X, snap.Hold.Z, snap.LeashRadius)
	}
	if snap.Anchor != nil {
		fmt.Fprintf(&b, "tether=(%.2f, %.2f) radius=%.2f\n", snap.Anchor.X, snap.Anchor.Z, snap.TetherRadius)
	}
	if d, ok := u.Destination(); ok {
		fmt.Fprintf(&b, "destination=(%.2f, %.2f) waypoints=%d\n", d.X, d.Z, len(u.Path()))
	}

	st := u.Ctrl.Stats()
	b.WriteString("\n== stats ==\n")
	for _, src := range []engage.Source{engage.SourceForced, engage.SourceFocusFire, engage.SourceNearest, engage.SourcePassive} {
		fmt.Fprintf(&b, "acquired_%s=%d ", src, st.Acquired(src))
	}
	b.WriteByte('\n')
	for _, r := range []engage.LossReason{engage.LossInvalidated, engage.LossOutOfRange, engage.LossLeash, engage.LossDisengaged, engage.LossDisabled} {
		fmt.Fprintf(&b, "lost_%s=%d ", r, st.Lost(r))
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "shots=%d skipped=%d resumes=%d\n", st.ShotsFired, st.ShotsSkipped, st.Resumes)

	b.WriteString("\n== events ==\n")
	n := 0
	for _, e := range w.SimLog.FilterUnit(u.Label) {
		if e.Tick < fromTick {
			continue
		}
		b.WriteString(e.String())
		b.WriteByte('\n')
		n++
	}
	if n == 0 {
		b.WriteString("(no events in range)\n")
	}
	return b.String()
}

func labelFor(w *sim.World, id engage.EntityID) string {
	if u := w.UnitByID(id); u != nil {
		return u.Label
	}
	return string(id)
}
