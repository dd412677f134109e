package main

import (
	"strings"
	"testing"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/sim"
)

func TestTeamSurvivalCounts(t *testing.T) {
	units := []unitResult{
		{Team: sim.TeamRed, Survived: true},
		{Team: sim.TeamRed, Survived: false},
		{Team: sim.TeamBlue, Survived: true},
		{Team: sim.TeamBlue, Survived: true},
	}

	redTotal, blueTotal, redSurvivors, blueSurvivors := teamSurvivalCounts(units)
	if redTotal != 2 || blueTotal != 2 {
		t.Fatalf("expected totals red=2 blue=2, got red=%d blue=%d", redTotal, blueTotal)
	}
	if redSurvivors != 1 || blueSurvivors != 2 {
		t.Fatalf("expected survivors red=1 blue=2, got red=%d blue=%d", redSurvivors, blueSurvivors)
	}
}

func TestDetectStalemate_TrueWhenMutualSurvivalAndChurnHigh(t *testing.T) {
	rs := runStats{
		redTotal:      4,
		blueTotal:     4,
		redSurvivors:  3,
		blueSurvivors: 4,
		lost:          map[engage.LossReason]int{engage.LossOutOfRange: 3, engage.LossLeash: 2},
	}

	isStalemate, reason := detectStalemate(rs)
	if !isStalemate {
		t.Fatalf("expected stalemate=true, got false (reason=%s)", reason)
	}
	if !strings.Contains(reason, "high_mutual_survival") {
		t.Fatalf("expected reason to mention high_mutual_survival, got: %s", reason)
	}
}

func TestDetectStalemate_FalseWhenEngagementsHold(t *testing.T) {
	rs := runStats{
		redTotal:      4,
		blueTotal:     4,
		redSurvivors:  4,
		blueSurvivors: 4,
		lost:          map[engage.LossReason]int{engage.LossInvalidated: 6, engage.LossOutOfRange: 1},
	}

	isStalemate, reason := detectStalemate(rs)
	if isStalemate {
		t.Fatalf("expected stalemate=false without range churn (reason=%s)", reason)
	}
}

func TestDetectStalemate_FalseWhenAttritionDecisive(t *testing.T) {
	rs := runStats{
		redTotal:      4,
		blueTotal:     4,
		redSurvivors:  1,
		blueSurvivors: 4,
		lost:          map[engage.LossReason]int{engage.LossOutOfRange: 8},
	}

	isStalemate, reason := detectStalemate(rs)
	if isStalemate {
		t.Fatalf("expected stalemate=false under decisive attrition (reason=%s)", reason)
	}
}

func TestRunScenario_Duel(t *testing.T) {
	w, err := sim.NewScenario("duel", sim.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	rs := runScenario(w, 1, 900)
	if rs.firstAcquireTick < 0 {
		t.Fatal("the duellists should engage")
	}
	if rs.shots == 0 || rs.acquired[engage.SourceNearest]+rs.acquired[engage.SourcePassive] == 0 {
		t.Fatalf("expected shots and acquisitions, got %+v", rs)
	}
	if rs.redTotal != 1 || rs.blueTotal != 1 {
		t.Fatalf("duel has one unit a side, got red=%d blue=%d", rs.redTotal, rs.blueTotal)
	}
	if got := formatCounts(rs.acquired, sources); !strings.HasPrefix(got, "forced=0 focus=") {
		t.Fatalf("formatCounts = %q", got)
	}
}
