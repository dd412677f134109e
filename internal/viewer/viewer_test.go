package viewer

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/sim"
)

func testViewer(t *testing.T) *Viewer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	v, err := New(func() (*sim.World, error) {
		return sim.NewWorld(
			sim.WithMapSize(40, 30),
			sim.WithUnit("R0", sim.TeamRed, 10, 15),
			sim.WithUnit("R1", sim.TeamRed, 8, 12),
			sim.WithUnit("B0", sim.TeamBlue, 17, 15),
			sim.WithUnit("B1", sim.TeamBlue, 30, 25),
		)
	}, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestViewer_LayoutFitsFieldAndPanel(t *testing.T) {
	v := testViewer(t)
	w, h := v.Layout(0, 0)
	if w != borderWidth+40*pxPerUnit+borderWidth+logPanelWidth {
		t.Fatalf("width = %d", w)
	}
	if h != borderWidth+30*pxPerUnit+borderWidth {
		t.Fatalf("height = %d", h)
	}
}

func TestViewer_ScreenToWorldRoundTrip(t *testing.T) {
	v := testViewer(t)
	p := engage.Vec3{X: 12.5, Z: 7.25}
	sx, sy := toScreen(p)
	got, on := v.screenToWorld(int(sx), int(sy))
	if !on {
		t.Fatal("point should be on the field")
	}
	if got.PlanarDistanceTo(p) > 1/pxPerUnit {
		t.Fatalf("round trip %v -> %v", p, got)
	}
	if _, on := v.screenToWorld(2, 2); on {
		t.Fatal("border pixels are off the field")
	}
}

func TestViewer_SelectionAndCycling(t *testing.T) {
	v := testViewer(t)
	if u := v.unitAt(engage.Vec3{X: 10.3, Z: 15.2}, 1); u == nil || u.Label != "R0" {
		t.Fatalf("unitAt picked %v", u)
	}
	if u := v.unitAt(engage.Vec3{X: 20, Z: 5}, 1); u != nil {
		t.Fatalf("empty ground picked %s", u.Label)
	}

	if err := v.world.Kill("R1"); err != nil {
		t.Fatal(err)
	}
	var seen []string
	for i := 0; i < 3; i++ {
		v.cycleSelection()
		seen = append(seen, v.selected.Label)
	}
	if strings.Join(seen, ",") != "R0,B0,B1" {
		t.Fatalf("cycle order = %v, dead units should be skipped", seen)
	}
}

func TestViewer_Orders(t *testing.T) {
	v := testViewer(t)
	r0 := v.world.Unit("R0")

	v.toggleHold(r0, engage.Vec3{X: 9, Z: 15})
	if _, ok := r0.Ctrl.HoldPoint(); !ok {
		t.Fatal("G should set a hold point")
	}
	v.toggleHold(r0, engage.Vec3{X: 9, Z: 15})
	if _, ok := r0.Ctrl.HoldPoint(); ok {
		t.Fatal("second G should release the hold")
	}

	v.forceNearest(r0, engage.Vec3{X: 29, Z: 24})
	snap := r0.Ctrl.Snapshot()
	if !snap.Forced || v.world.UnitByID(snap.Opponent).Label != "B1" {
		t.Fatalf("R0 should be forced onto B1, got %+v (%s)", snap, v.status)
	}
}

func TestViewer_RestartRebuildsWorld(t *testing.T) {
	v := testViewer(t)
	old := v.world
	v.world.RunTicks(10)
	v.selected = v.world.Unit("R0")
	v.restart()
	if v.world == old || v.world.TickCount() != 0 {
		t.Fatal("restart should build a fresh world")
	}
	if v.selected != nil {
		t.Fatal("restart clears the selection")
	}
}

func TestUnitReport(t *testing.T) {
	v := testViewer(t)
	v.world.Unit("B0").Ctrl.Disable()
	v.world.RunTicks(60)
	r0 := v.world.Unit("R0")

	report := UnitReport(v.world, r0, 0)
	t.Log("\n" + report)
	for _, want := range []string{
		"unit=R0 team=red",
		"state=chasing",
		"opponent=B0 source=nearest",
		"acquired_nearest=1",
		"engage    acquire",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if UnitReport(v.world, nil, 10) != "" {
		t.Fatal("nil unit gives an empty report")
	}
}
