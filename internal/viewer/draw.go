package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/sim"
)

var (
	colBackground = color.RGBA{R: 12, G: 14, B: 12, A: 255}
	colGround     = color.RGBA{R: 28, G: 42, B: 28, A: 255}
	colGrid       = color.RGBA{R: 36, G: 52, B: 36, A: 255}
	colBorder     = color.RGBA{R: 65, G: 90, B: 65, A: 255}
	colBuilding   = color.RGBA{R: 70, G: 68, B: 60, A: 255}
	colRoof       = color.RGBA{R: 95, G: 92, B: 82, A: 255}
	colRed        = color.RGBA{R: 210, G: 70, B: 70, A: 255}
	colBlue       = color.RGBA{R: 70, G: 110, B: 210, A: 255}
	colDead       = color.RGBA{R: 60, G: 60, B: 60, A: 200}
	colSelect     = color.RGBA{R: 240, G: 230, B: 120, A: 255}
	colBandInner  = color.RGBA{R: 220, G: 120, B: 60, A: 140}
	colBandOuter  = color.RGBA{R: 220, G: 190, B: 60, A: 140}
	colTether     = color.RGBA{R: 80, G: 200, B: 200, A: 110}
	colLeash      = color.RGBA{R: 200, G: 90, B: 200, A: 130}
	colPath       = color.RGBA{R: 150, G: 170, B: 150, A: 90}
	colDest       = color.RGBA{R: 240, G: 240, B: 240, A: 160}
	colTracer     = color.RGBA{R: 255, G: 235, B: 150, A: 255}
)

func teamColor(t sim.Team) color.RGBA {
	if t == sim.TeamRed {
		return colRed
	}
	return colBlue
}

// fade returns c with alpha scaled by f.
func fade(c color.RGBA, f float64) color.RGBA {
	c.A = uint8(float64(c.A) * f)
	return c
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	v.drawField(screen)
	v.drawBuildings(screen)

	for _, u := range v.world.Units() {
		if !u.Alive() {
			continue
		}
		if v.showAll || u == v.selected {
			v.drawOverlays(screen, u)
		}
	}
	v.drawProjectiles(screen)
	for _, u := range v.world.Units() {
		v.drawUnit(screen, u)
	}

	ox, oy := float32(borderWidth), float32(borderWidth)
	vector.StrokeRect(screen, ox-1, oy-1, float32(v.fieldW)+2, float32(v.fieldH)+2, 2.0, colBorder, false)

	drawThoughts(screen, v.world.Thoughts, borderWidth+v.fieldW+borderWidth, v.height)

	if v.showHUD {
		v.drawHUD(screen)
	}
	if v.selected != nil {
		v.drawInspector(screen, v.selected)
	}
	if v.statusTTL > 0 {
		drawText(screen, v.status, borderWidth+6, v.height-borderWidth-18, colSelect)
	}
}

func (v *Viewer) drawField(screen *ebiten.Image) {
	ox, oy := float32(borderWidth), float32(borderWidth)
	vector.FillRect(screen, ox, oy, float32(v.fieldW), float32(v.fieldH), colGround, false)
	// 5m grid.
	for x := 5.0; x < v.world.Width; x += 5 {
		sx, _ := toScreen(engage.Vec3{X: x})
		vector.StrokeLine(screen, sx, oy, sx, oy+float32(v.fieldH), 1, colGrid, false)
	}
	for z := 5.0; z < v.world.Depth; z += 5 {
		_, sy := toScreen(engage.Vec3{Z: z})
		vector.StrokeLine(screen, ox, sy, ox+float32(v.fieldW), sy, 1, colGrid, false)
	}
}

func (v *Viewer) drawBuildings(screen *ebiten.Image) {
	for _, b := range v.world.Buildings() {
		x, y := toScreen(engage.Vec3{X: b.X, Z: b.Z})
		w, h := float32(b.W*pxPerUnit), float32(b.D*pxPerUnit)
		vector.FillRect(screen, x, y, w, h, colBuilding, false)
		vector.FillRect(screen, x+3, y+3, w-6, h-6, colRoof, false)
		vector.StrokeRect(screen, x, y, w, h, 1.5, colBorder, false)
	}
}

func (v *Viewer) drawUnit(screen *ebiten.Image, u *sim.Unit) {
	x, y := toScreen(u.Position())
	r := float32(0.45 * pxPerUnit)
	if !u.Alive() {
		vector.StrokeLine(screen, x-r, y-r, x+r, y+r, 2, colDead, false)
		vector.StrokeLine(screen, x-r, y+r, x+r, y-r, 2, colDead, false)
		return
	}
	col := teamColor(u.Team)
	vector.FillCircle(screen, x, y, r, col, true)

	// Facing tick.
	dir := engage.YawDir(u.Yaw())
	fx, fy := toScreen(u.Position().Add(dir.Scale(0.8)))
	vector.StrokeLine(screen, x, y, fx, fy, 2, color.White, true)

	// Health bar.
	frac := float32(u.HP() / sim.UnitHP)
	vector.FillRect(screen, x-r, y-r-5, 2*r, 3, colDead, false)
	vector.FillRect(screen, x-r, y-r-5, 2*r*frac, 3, color.RGBA{R: 90, G: 200, B: 90, A: 255}, false)

	if u.Ctrl.IsChasing() {
		vector.StrokeCircle(screen, x, y, r+2, 1, fade(colBandInner, 1.5), true)
	}
	if u == v.selected {
		vector.StrokeCircle(screen, x, y, r+5, 1.5, colSelect, true)
	}
	drawText(screen, u.Label, int(x)+int(r)+2, int(y)-6, fade(col, 0.9))
}

// drawOverlays draws the controller state of u: its planned path, the
// standoff band around the opponent, the squad tether and the hold leash.
func (v *Viewer) drawOverlays(screen *ebiten.Image, u *sim.Unit) {
	snap := u.Ctrl.Snapshot()
	alpha := 1.0
	if u != v.selected {
		alpha = 0.5
	}

	from := u.Position()
	for _, wp := range u.Path() {
		x0, y0 := toScreen(from)
		x1, y1 := toScreen(wp)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, fade(colPath, alpha), true)
		from = wp
	}
	if d, ok := u.Destination(); ok {
		x, y := toScreen(d)
		vector.StrokeLine(screen, x-3, y-3, x+3, y+3, 1, fade(colDest, alpha), false)
		vector.StrokeLine(screen, x-3, y+3, x+3, y-3, 1, fade(colDest, alpha), false)
	}

	if snap.Anchor != nil && snap.TetherRadius > 0 {
		x, y := toScreen(*snap.Anchor)
		vector.StrokeCircle(screen, x, y, float32(snap.TetherRadius*pxPerUnit), 1, fade(colTether, alpha), true)
	}
	if snap.Hold != nil {
		x, y := toScreen(*snap.Hold)
		vector.StrokeCircle(screen, x, y, float32(snap.LeashRadius*pxPerUnit), 1.5, fade(colLeash, alpha), true)
		vector.FillCircle(screen, x, y, 2.5, fade(colLeash, alpha), true)
	}

	if snap.State != engage.StateChasing {
		return
	}
	opp := v.world.UnitByID(snap.Opponent)
	if opp == nil {
		return
	}
	ox, oy := toScreen(opp.Position())
	ux, uy := toScreen(u.Position())
	vector.StrokeLine(screen, ux, uy, ox, oy, 1, fade(teamColor(u.Team), alpha*0.6), true)
	if snap.Inner > 0 {
		vector.StrokeCircle(screen, ox, oy, float32(snap.Inner*pxPerUnit), 1, fade(colBandInner, alpha), true)
	}
	vector.StrokeCircle(screen, ox, oy, float32(snap.Outer*pxPerUnit), 1, fade(colBandOuter, alpha), true)
}

func (v *Viewer) drawProjectiles(screen *ebiten.Image) {
	for _, p := range v.world.Projectiles() {
		x0, y0 := toScreen(p.Prev)
		x1, y1 := toScreen(p.Pos)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1.5, colTracer, true)
	}
}

// drawHUD prints the key legend and run status in the top-left corner.
func (v *Viewer) drawHUD(screen *ebiten.Image) {
	speed := "PAUSED"
	if v.simSpeed > 0 {
		speed = fmt.Sprintf("x%.2g", v.simSpeed)
	}
	lines := []string{
		fmt.Sprintf("T=%d  %.1fs  %s  red %d  blue %d", v.world.TickCount(), v.world.Time(), speed,
			v.world.AliveCount(sim.TeamRed), v.world.AliveCount(sim.TeamBlue)),
		"click select  tab cycle  rmb pin move",
		"G hold/release  F force  X disengage",
		"P pause  , . speed  N step  O overlays",
		"C copy report  R restart  H hide",
	}
	if team, ok := v.world.Winner(); ok {
		lines = append(lines, fmt.Sprintf("%s wins", team))
	}
	h := float32(len(lines)*13 + 6)
	vector.FillRect(screen, borderWidth+4, borderWidth+4, 270, h, color.RGBA{R: 10, G: 12, B: 10, A: 200}, false)
	for i, l := range lines {
		drawText(screen, l, borderWidth+8, borderWidth+6+i*13, color.RGBA{R: 200, G: 215, B: 200, A: 255})
	}
}

// drawInspector shows the selected unit's controller state.
func (v *Viewer) drawInspector(screen *ebiten.Image, u *sim.Unit) {
	snap := u.Ctrl.Snapshot()
	lines := []string{
		fmt.Sprintf("%s  %s  %s  hp %.0f", u.Label, u.Team, u.Profile, u.HP()),
		fmt.Sprintf("state %s", snap.State),
	}
	if snap.State == engage.StateChasing {
		opp := v.world.UnitByID(snap.Opponent)
		label := "?"
		if opp != nil {
			label = opp.Label
		}
		lines = append(lines,
			fmt.Sprintf("target %s via %s", label, snap.Source),
			fmt.Sprintf("band %.1f-%.1f  %s", math.Max(snap.Inner, 0), snap.Outer, snap.Steer),
			fmt.Sprintf("%s  pause %.2f  burst %.2f", snap.Phase, snap.PauseTimer, snap.BurstTimer),
		)
	} else if snap.LastLoss != engage.LossNone {
		lines = append(lines, fmt.Sprintf("last loss %s, resumed %s", snap.LastLoss, snap.LastResume.Source))
	}
	if snap.Hold != nil {
		lines = append(lines, fmt.Sprintf("hold (%.1f, %.1f) leash %.1f", snap.Hold.X, snap.Hold.Z, snap.LeashRadius))
	}
	if snap.Disabled {
		lines = append(lines, "DISABLED")
	}
	st := u.Ctrl.Stats()
	lines = append(lines, fmt.Sprintf("shots %d  acq %d  lost %d", st.ShotsFired, st.TotalAcquisitions(), st.TotalLosses()))

	w := float32(250)
	h := float32(len(lines)*13 + 6)
	x := float32(borderWidth+v.fieldW) - w - 4
	y := float32(borderWidth + 4)
	vector.FillRect(screen, x, y, w, h, color.RGBA{R: 10, G: 12, B: 10, A: 210}, false)
	vector.StrokeRect(screen, x, y, w, h, 1, teamColor(u.Team), false)
	for i, l := range lines {
		drawText(screen, l, int(x)+6, int(y)+2+i*13, color.RGBA{R: 220, G: 225, B: 210, A: 255})
	}
}
