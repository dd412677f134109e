// Package viewer is an interactive ebiten front end for the sandbox. It draws
// each controller's standoff band, tether and leash, and lets the operator
// issue orders to the selected unit.
package viewer

import (
	"fmt"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/sim"
)

const (
	// borderWidth is the pixel gap between the window edge and the field.
	borderWidth = 24
	// pxPerUnit maps one world unit to screen pixels.
	pxPerUnit = 16.0
	// statusTicks is how long a status message stays on screen (frames).
	statusTicks = 180
)

// speeds are the selectable simulation speed multipliers.
var speeds = []float64{0, 0.25, 0.5, 1, 2, 4}

// Factory builds a fresh world; R restarts the viewer through it.
type Factory func() (*sim.World, error)

// Viewer implements ebiten.Game over a sandbox world.
type Viewer struct {
	world   *sim.World
	factory Factory
	log     *logrus.Entry

	width  int
	height int
	fieldW int
	fieldH int

	selected  *sim.Unit
	showHUD   bool
	showAll   bool // overlays for every unit, not just the selection
	simSpeed  float64
	tickAccum float64

	prevKeys       map[ebiten.Key]bool
	prevMouseLeft  bool
	prevMouseRight bool

	status    string
	statusTTL int
}

// New builds a viewer. factory is called once immediately.
func New(factory Factory, log *logrus.Entry) (*Viewer, error) {
	w, err := factory()
	if err != nil {
		return nil, err
	}
	v := &Viewer{
		factory:  factory,
		log:      log,
		showHUD:  true,
		simSpeed: 1,
		prevKeys: make(map[ebiten.Key]bool),
	}
	v.attach(w)
	return v, nil
}

func (v *Viewer) attach(w *sim.World) {
	v.world = w
	v.fieldW = int(math.Ceil(w.Width * pxPerUnit))
	v.fieldH = int(math.Ceil(w.Depth * pxPerUnit))
	v.width = borderWidth + v.fieldW + borderWidth + logPanelWidth
	v.height = borderWidth + v.fieldH + borderWidth
	v.selected = nil
	v.tickAccum = 0
}

// Size is the window size the viewer wants.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

func (v *Viewer) Layout(_, _ int) (int, int) { return v.width, v.height }

func (v *Viewer) Update() error {
	v.handleInput()
	if v.statusTTL > 0 {
		v.statusTTL--
	}
	if v.simSpeed <= 0 {
		return nil
	}
	// The sim runs at its own tick rate; ebiten calls Update at TPS.
	v.tickAccum += v.simSpeed * float64(v.world.TickRate) / float64(ebiten.TPS())
	for v.tickAccum >= 1.0 {
		v.tickAccum -= 1.0
		v.world.Tick()
	}
	if v.selected != nil && !v.selected.Alive() {
		v.selected = nil
	}
	return nil
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.statusTTL = statusTicks
}

// pressed reports a rising edge for k and records it in cur.
func (v *Viewer) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered) and mouse orders.
func (v *Viewer) handleInput() {
	cur := map[ebiten.Key]bool{}

	if v.pressed(cur, ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
	if v.pressed(cur, ebiten.KeyO) {
		v.showAll = !v.showAll
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster, N=single step.
	if v.pressed(cur, ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if v.pressed(cur, ebiten.KeyComma) {
		for i := len(speeds) - 1; i > 0; i-- {
			if speeds[i] <= v.simSpeed {
				v.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if v.pressed(cur, ebiten.KeyPeriod) {
		for _, s := range speeds {
			if s > v.simSpeed {
				v.simSpeed = s
				break
			}
		}
	}
	if v.pressed(cur, ebiten.KeyN) && v.simSpeed == 0 {
		v.world.Tick()
	}
	if v.pressed(cur, ebiten.KeyTab) {
		v.cycleSelection()
	}
	if v.pressed(cur, ebiten.KeyR) {
		v.restart()
	}
	if v.pressed(cur, ebiten.KeyC) {
		v.copyReport()
	}

	mx, my := ebiten.CursorPosition()
	cursor, onField := v.screenToWorld(mx, my)

	if u := v.selected; u != nil {
		if v.pressed(cur, ebiten.KeyG) && onField {
			v.toggleHold(u, cursor)
		}
		if v.pressed(cur, ebiten.KeyF) && onField {
			v.forceNearest(u, cursor)
		}
		if v.pressed(cur, ebiten.KeyX) {
			if err := v.world.Disengage(u.Label); err == nil {
				v.setStatus("%s disengaged", u.Label)
			}
		}
		right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
		if right && !v.prevMouseRight && onField {
			if err := v.world.MoveUnit(u.Label, cursor.X, cursor.Z, true); err != nil {
				v.setStatus("%v", err)
			} else {
				v.setStatus("%s pinned to (%.1f, %.1f)", u.Label, cursor.X, cursor.Z)
			}
		}
	}
	v.prevMouseRight = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if left && !v.prevMouseLeft && onField {
		v.selected = v.unitAt(cursor, 1.0)
	}
	v.prevMouseLeft = left

	v.prevKeys = cur
}

func (v *Viewer) toggleHold(u *sim.Unit, at engage.Vec3) {
	if _, ok := u.Ctrl.HoldPoint(); ok {
		_ = v.world.ClearHold(u.Label)
		v.setStatus("%s hold released", u.Label)
		return
	}
	_ = v.world.SetHold(u.Label, at.X, at.Z)
	v.setStatus("%s holding at (%.1f, %.1f)", u.Label, at.X, at.Z)
}

// forceNearest force-engages the living enemy closest to the cursor.
func (v *Viewer) forceNearest(u *sim.Unit, at engage.Vec3) {
	var best *sim.Unit
	bestD := math.Inf(1)
	for _, o := range v.world.Units() {
		if o.Team == u.Team || !o.Alive() {
			continue
		}
		if d := o.Position().PlanarDistanceTo(at); d < bestD {
			best, bestD = o, d
		}
	}
	if best == nil {
		v.setStatus("no enemy to engage")
		return
	}
	ok, err := v.world.ForceEngage(u.Label, best.Label)
	if err != nil || !ok {
		v.setStatus("%s cannot engage %s", u.Label, best.Label)
		return
	}
	v.setStatus("%s ordered onto %s", u.Label, best.Label)
}

func (v *Viewer) cycleSelection() {
	units := v.world.Units()
	if len(units) == 0 {
		return
	}
	start := -1
	for i, u := range units {
		if u == v.selected {
			start = i
		}
	}
	for n := 1; n <= len(units); n++ {
		u := units[(start+n+len(units))%len(units)]
		if u.Alive() {
			v.selected = u
			return
		}
	}
}

func (v *Viewer) restart() {
	w, err := v.factory()
	if err != nil {
		v.setStatus("restart failed: %v", err)
		v.log.WithError(err).Warn("restart failed")
		return
	}
	v.attach(w)
	v.setStatus("restarted")
}

func (v *Viewer) copyReport() {
	if v.selected == nil {
		v.setStatus("select a unit to copy its report")
		return
	}
	report := UnitReport(v.world, v.selected, 120)
	if err := clipboard.WriteAll(report); err != nil {
		v.log.WithError(err).Warn("clipboard unavailable")
		v.setStatus("clipboard unavailable: %v", err)
		return
	}
	v.setStatus("copied %s report (%d bytes)", v.selected.Label, len(report))
}

// unitAt returns the living unit nearest p within radius world units.
func (v *Viewer) unitAt(p engage.Vec3, radius float64) *sim.Unit {
	var hit *sim.Unit
	best := radius
	for _, u := range v.world.Units() {
		if !u.Alive() {
			continue
		}
		if d := u.Position().PlanarDistanceTo(p); d <= best {
			best, hit = d, u
		}
	}
	return hit
}

// screenToWorld maps a pixel to the ground plane.
func (v *Viewer) screenToWorld(mx, my int) (engage.Vec3, bool) {
	x := float64(mx-borderWidth) / pxPerUnit
	z := float64(my-borderWidth) / pxPerUnit
	on := x >= 0 && z >= 0 && x <= v.world.Width && z <= v.world.Depth
	return engage.Vec3{X: x, Z: z}, on
}

// toScreen maps a world point to pixels.
func toScreen(p engage.Vec3) (float32, float32) {
	return float32(borderWidth + p.X*pxPerUnit), float32(borderWidth + p.Z*pxPerUnit)
}
