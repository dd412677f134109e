package sim

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a simulation run.
type SimLogEntry struct {
	Tick     int
	Unit     string  // label e.g. "R0", "B3", or "--" for global events
	Team     string  // "red", "blue", or "--"
	Category string  // engage, fire, state, unit, move
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] R0   engage    acquire          B1 via nearest (6.2m)
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Unit, e.Category, e.Key, e.Value)
}

// SimLog collects structured engagement events. Unlike ThoughtLog (a UI ring
// buffer) it is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick steering and
// position entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

func (sl *SimLog) Add(tick int, unit, team, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Unit:     unit,
		Team:     team,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, unit, team, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, unit, team, category, key, value, numVal)
}

func (sl *SimLog) Entries() []SimLogEntry { return sl.entries }

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterUnit returns entries for one unit label.
func (sl *SimLog) FilterUnit(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Unit == label {
			out = append(out, e)
		}
	}
	return out
}

func (sl *SimLog) Count(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable state summary.
func (sl *SimLog) Summary(tick int, units []*Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	alive := map[Team]int{}
	chasing := map[Team]int{}
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		alive[u.Team]++
		if u.Ctrl.IsChasing() {
			chasing[u.Team]++
		}
	}
	fmt.Fprintf(&sb, "Alive: red=%d  blue=%d\n", alive[TeamRed], alive[TeamBlue])
	fmt.Fprintf(&sb, "Chasing: red=%d  blue=%d\n", chasing[TeamRed], chasing[TeamBlue])

	lines := 0
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		if opp, ok := u.Ctrl.CurrentOpponent(); ok {
			snap := u.Ctrl.Snapshot()
			fmt.Fprintf(&sb, "Target: %s → %s (%s, band %.1f..%.1f)\n",
				u.Label, u.world.labelOf(opp.ID()), snap.Source, snap.Inner, snap.Outer)
			lines++
		}
	}
	if lines == 0 {
		sb.WriteString("Targets: none\n")
	}
	fmt.Fprintf(&sb, "Shots: %d fired, %d skipped\n", sl.Count("fire", "shot"), sl.Count("fire", "skip"))
	return sb.String()
}
