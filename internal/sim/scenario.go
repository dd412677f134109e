package sim

import (
	"fmt"
	"sort"
)

// scenarios are the canned layouts shared by the sandbox viewer and the
// headless report. Extra options are applied after the scenario's own, so a
// caller can override the seed or the profile set.
var scenarios = map[string]func() []Option{
	// Two four-man squads advance on each other around a central building.
	"skirmish": func() []Option {
		return []Option{
			WithMapSize(60, 40),
			WithBuilding(27, 16, 6, 8),
			WithUnit("R0", TeamRed, 8, 20),
			WithUnit("R1", TeamRed, 6, 18),
			WithUnitProfile("R2", TeamRed, 6, 22, "skirmisher"),
			WithUnitProfile("R3", TeamRed, 4, 20, "marksman"),
			WithUnit("B0", TeamBlue, 52, 20),
			WithUnit("B1", TeamBlue, 52, 17),
			WithUnitProfile("B2", TeamBlue, 52, 23, "brawler"),
			WithUnitProfile("B3", TeamBlue, 54, 20, "skirmisher"),
			WithSquad(FormationWedge, "R0", "R1", "R2", "R3"),
			WithSquad(FormationLine, "B0", "B1", "B2", "B3"),
			WithPinned("R0", 44, 20),
			WithPinned("B0", 16, 20),
		}
	},
	// Red sentries hold a line while a blue section walks into it.
	"hold-line": func() []Option {
		return []Option{
			WithMapSize(60, 40),
			WithBuilding(22, 8, 3, 6),
			WithBuilding(22, 26, 3, 6),
			WithUnitProfile("R0", TeamRed, 18, 14, "sentry"),
			WithUnitProfile("R1", TeamRed, 18, 20, "sentry"),
			WithUnitProfile("R2", TeamRed, 18, 26, "sentry"),
			WithUnit("B0", TeamBlue, 54, 20),
			WithUnit("B1", TeamBlue, 55, 16),
			WithUnitProfile("B2", TeamBlue, 55, 24, "skirmisher"),
			WithSquad(FormationLine, "R0", "R1", "R2"),
			WithSquad(FormationWedge, "B0", "B1", "B2"),
			WithRally("R0", 18, 20),
			WithHold("R0", 18, 14),
			WithHold("R1", 18, 20),
			WithHold("R2", 18, 26),
			WithPinned("B0", 8, 20),
		}
	},
	// A red fire team meets scattered blue stragglers already inside chase range.
	"focus-fire": func() []Option {
		return []Option{
			WithMapSize(50, 30),
			WithUnit("R0", TeamRed, 15, 15),
			WithUnit("R1", TeamRed, 14, 12),
			WithUnit("R2", TeamRed, 14, 18),
			WithUnit("B0", TeamBlue, 24, 15),
			WithUnit("B1", TeamBlue, 30, 7),
			WithUnit("B2", TeamBlue, 30, 24),
			WithSquad(FormationLine, "R0", "R1", "R2"),
		}
	},
	// One on one in the open.
	"duel": func() []Option {
		return []Option{
			WithMapSize(40, 20),
			WithUnitProfile("R0", TeamRed, 8, 10, "marksman"),
			WithUnitProfile("B0", TeamBlue, 32, 10, "brawler"),
			WithPinned("R0", 30, 10),
		}
	},
}

// ScenarioNames lists the canned scenarios in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewScenario builds a canned scenario.
func NewScenario(name string, extra ...Option) (*World, error) {
	build, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (have %v)", name, ScenarioNames())
	}
	return NewWorld(append(build(), extra...)...)
}
