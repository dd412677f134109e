package engage

import (
	"math"
	"testing"
)

func TestFormationTether_ClampOutside(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TetherRadius = 5
	cfg.TetherScaleWithTeam = false
	tt := NewFormationTether(cfg)
	anchor := Vec3{X: 1, Y: 0, Z: 1}

	got := tt.Clamp(Vec3{X: 11, Y: 2.5, Z: 1}, &anchor, 4)
	want := Vec3{X: 6, Y: 2.5, Z: 1}
	if !approx(got.X, want.X, 1e-9) || !approx(got.Z, want.Z, 1e-9) || got.Y != want.Y {
		t.Fatalf("Clamp = %+v, want %+v", got, want)
	}
}

func TestFormationTether_InsideAndNoAnchorUnchanged(t *testing.T) {
	tt := NewFormationTether(DefaultConfig())
	anchor := Vec3{}
	p := Vec3{X: 2, Y: 1, Z: -3}
	if got := tt.Clamp(p, &anchor, 3); got != p {
		t.Fatalf("point inside tether moved to %+v", got)
	}
	far := Vec3{X: 500}
	if got := tt.Clamp(far, nil, 3); got != far {
		t.Fatalf("nil anchor moved point to %+v", got)
	}
}

func TestFormationTether_RadiusScalesWithTeam(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TetherRadius = 4
	cfg.TetherExtraPerSqrtMember = 2
	tt := NewFormationTether(cfg)

	tests := []struct {
		size int
		want float64
	}{
		{0, 4},
		{1, 4},
		{2, 6},
		{5, 8},
		{10, 4 + 2*math.Sqrt(9)},
	}
	for _, tc := range tests {
		if got := tt.Radius(tc.size); !approx(got, tc.want, 1e-9) {
			t.Fatalf("Radius(%d) = %.3f, want %.3f", tc.size, got, tc.want)
		}
	}

	cfg.TetherScaleWithTeam = false
	if got := NewFormationTether(cfg).Radius(10); got != 4 {
		t.Fatalf("unscaled radius = %.2f, want 4", got)
	}
}
