package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Garsondee/standoff/internal/engage"
	"github.com/Garsondee/standoff/internal/profile"
	"github.com/Garsondee/standoff/internal/sim"
)

var sources = []engage.Source{engage.SourceForced, engage.SourceFocusFire, engage.SourceNearest, engage.SourcePassive}

var losses = []engage.LossReason{
	engage.LossInvalidated, engage.LossOutOfRange, engage.LossLeash, engage.LossDisengaged, engage.LossDisabled,
}

type runStats struct {
	runIndex int
	seed     int64
	ticks    int

	firstAcquireTick int
	firstShotTick    int
	firstHitTick     int
	firstDeathTick   int
	endTick          int // tick a team was wiped out, -1 if none

	acquired     map[engage.Source]int
	lost         map[engage.LossReason]int
	resumes      int
	shots        int
	skipped      int
	hits         int
	stateChanges int

	redTotal      int
	blueTotal     int
	redSurvivors  int
	blueSurvivors int
	winner        string

	units []unitResult
}

type unitResult struct {
	Label    string
	Team     sim.Team
	Profile  string
	Survived bool
	HP       float64
	Shots    int
	Acquired int
	Lost     int
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var profiles string
	var verbose bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 1800, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "skirmish", "scenario name ("+strings.Join(sim.ScenarioNames(), ", ")+")")
	flag.StringVar(&profiles, "profiles", "", "engagement profile YAML (built-in profiles when empty)")
	flag.BoolVar(&verbose, "v", false, "log controller activity to stderr")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if runs <= 0 {
		logger.Fatal("-runs must be > 0")
	}
	if ticks <= 0 {
		logger.Fatal("-ticks must be > 0")
	}
	set, err := profile.LoadOrBuiltin(profiles)
	if err != nil {
		logger.WithError(err).Fatal("loading profiles")
	}

	fmt.Printf("=== Headless Engagement Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n", scenario, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		w, err := sim.NewScenario(scenario,
			sim.WithSeed(seed),
			sim.WithProfiles(set),
			sim.WithLogger(logger),
		)
		if err != nil {
			logger.WithError(err).Fatal("building scenario")
		}
		stats := runScenario(w, i+1, ticks)
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

// runScenario advances w until one team is wiped out or ticks run out and
// collects its engagement statistics.
func runScenario(w *sim.World, runIndex, ticks int) runStats {
	end := w.RunUntil(func(w *sim.World) bool {
		_, done := w.Winner()
		return done
	}, ticks)

	entries := w.SimLog.Entries()
	rs := runStats{
		runIndex:         runIndex,
		seed:             w.Seed,
		ticks:            w.TickCount(),
		firstAcquireTick: firstTick(entries, "engage", "acquire", ""),
		firstShotTick:    firstTick(entries, "fire", "shot", ""),
		firstHitTick:     firstTick(entries, "fire", "hit", ""),
		firstDeathTick:   firstTick(entries, "unit", "death", ""),
		endTick:          end,
		acquired:         map[engage.Source]int{},
		lost:             map[engage.LossReason]int{},
		hits:             w.SimLog.Count("fire", "hit"),
		stateChanges:     w.SimLog.Count("state", "change"),
		winner:           "none",
	}
	if team, ok := w.Winner(); ok {
		rs.winner = team.String()
	}

	for _, u := range w.Units() {
		st := u.Ctrl.Stats()
		for _, src := range sources {
			rs.acquired[src] += st.Acquired(src)
		}
		for _, r := range losses {
			rs.lost[r] += st.Lost(r)
		}
		rs.resumes += st.Resumes
		rs.shots += st.ShotsFired
		rs.skipped += st.ShotsSkipped
		rs.units = append(rs.units, unitResult{
			Label:    u.Label,
			Team:     u.Team,
			Profile:  u.Profile,
			Survived: u.Alive(),
			HP:       u.HP(),
			Shots:    st.ShotsFired,
			Acquired: st.TotalAcquisitions(),
			Lost:     st.TotalLosses(),
		})
	}
	rs.redTotal, rs.blueTotal, rs.redSurvivors, rs.blueSurvivors = teamSurvivalCounts(rs.units)
	return rs
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func teamSurvivalCounts(units []unitResult) (redTotal, blueTotal, redSurvivors, blueSurvivors int) {
	for _, u := range units {
		if u.Team == sim.TeamRed {
			redTotal++
			if u.Survived {
				redSurvivors++
			}
		} else {
			blueTotal++
			if u.Survived {
				blueSurvivors++
			}
		}
	}
	return
}

// detectStalemate flags runs where both sides kept most of their units while
// engagements kept collapsing on range or leash limits instead of resolving.
func detectStalemate(rs runStats) (bool, string) {
	if rs.redTotal == 0 || rs.blueTotal == 0 {
		return false, "empty_team"
	}
	redSurv := float64(rs.redSurvivors) / float64(rs.redTotal)
	blueSurv := float64(rs.blueSurvivors) / float64(rs.blueTotal)
	if redSurv < 0.5 || blueSurv < 0.5 {
		return false, fmt.Sprintf("decisive_attrition red=%.0f%% blue=%.0f%%", redSurv*100, blueSurv*100)
	}
	churn := rs.lost[engage.LossOutOfRange] + rs.lost[engage.LossLeash]
	if churn < 4 {
		return false, fmt.Sprintf("engagements_held churn=%d", churn)
	}
	return true, fmt.Sprintf("high_mutual_survival red=%.0f%% blue=%.0f%% churn=%d", redSurv*100, blueSurv*100, churn)
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("phase_markers: first_acquire=%d first_shot=%d first_hit=%d first_death=%d end=%d ticks=%d\n",
		rs.firstAcquireTick, rs.firstShotTick, rs.firstHitTick, rs.firstDeathTick, rs.endTick, rs.ticks)
	fmt.Printf("acquisitions: %s\n", formatCounts(rs.acquired, sources))
	fmt.Printf("losses: %s resumes=%d\n", formatCounts(rs.lost, losses), rs.resumes)
	fmt.Printf("fire: shots=%d skipped=%d hits=%d accuracy=%s state_changes=%d\n",
		rs.shots, rs.skipped, rs.hits, pct(rs.hits, rs.shots), rs.stateChanges)
	fmt.Printf("survivors: red=%d/%d blue=%d/%d winner=%s\n",
		rs.redSurvivors, rs.redTotal, rs.blueSurvivors, rs.blueTotal, rs.winner)
	if stale, reason := detectStalemate(rs); stale {
		fmt.Printf("STALEMATE: %s\n", reason)
	}
	for _, u := range rs.units {
		status := "KIA"
		if u.Survived {
			status = fmt.Sprintf("hp=%.0f", u.HP)
		}
		fmt.Printf("  %-3s %-4s %-10s %-7s shots=%d acquired=%d lost=%d\n",
			u.Label, u.Team, u.Profile, status, u.Shots, u.Acquired, u.Lost)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	acquired := map[engage.Source]int{}
	lost := map[engage.LossReason]int{}
	wins := map[string]int{}
	totalShots, totalHits, totalResumes, stalemates := 0, 0, 0, 0
	acquireTicks := make([]int, 0, len(all))
	deathTicks := make([]int, 0, len(all))
	endTicks := make([]int, 0, len(all))

	type unitAgg struct {
		profile  string
		count    int
		survived int
		shots    int
	}
	unitAggs := map[string]*unitAgg{}

	for _, rs := range all {
		for k, v := range rs.acquired {
			acquired[k] += v
		}
		for k, v := range rs.lost {
			lost[k] += v
		}
		wins[rs.winner]++
		totalShots += rs.shots
		totalHits += rs.hits
		totalResumes += rs.resumes
		if stale, _ := detectStalemate(rs); stale {
			stalemates++
		}
		if rs.firstAcquireTick >= 0 {
			acquireTicks = append(acquireTicks, rs.firstAcquireTick)
		}
		if rs.firstDeathTick >= 0 {
			deathTicks = append(deathTicks, rs.firstDeathTick)
		}
		if rs.endTick >= 0 {
			endTicks = append(endTicks, rs.endTick)
		}
		for _, u := range rs.units {
			ag, ok := unitAggs[u.Label]
			if !ok {
				ag = &unitAgg{profile: u.Profile}
				unitAggs[u.Label] = ag
			}
			ag.count++
			ag.shots += u.Shots
			if u.Survived {
				ag.survived++
			}
		}
	}

	n := len(all)
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d wins: red=%d blue=%d none=%d stalemates=%d\n", n, wins["red"], wins["blue"], wins["none"], stalemates)
	fmt.Printf("avg_acquisitions_per_run: %s\n", formatAvg(acquired, sources, n))
	fmt.Printf("avg_losses_per_run: %s resumes=%.1f\n", formatAvg(lost, losses, n), avg(totalResumes, n))
	fmt.Printf("avg_fire_per_run: shots=%.1f hits=%.1f accuracy=%s\n", avg(totalShots, n), avg(totalHits, n), pct(totalHits, totalShots))
	fmt.Printf("phase_marker_avg_ticks: first_acquire=%s first_death=%s end=%s\n",
		avgTickString(acquireTicks), avgTickString(deathTicks), avgTickString(endTicks))

	fmt.Println("\n=== Per-Unit Survival ===")
	labels := make([]string, 0, len(unitAggs))
	for l := range unitAggs {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		ag := unitAggs[l]
		fmt.Printf("  %-3s %-10s survival=%s avg_shots=%.1f\n", l, ag.profile, pct(ag.survived, ag.count), avg(ag.shots, ag.count))
	}
}

// countKey is an enum that prints itself.
type countKey interface {
	comparable
	String() string
}

func formatCounts[K countKey](counts map[K]int, order []K) string {
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func formatAvg[K countKey](counts map[K]int, order []K, n int) string {
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%s=%.1f", k, avg(counts[k], n)))
	}
	return strings.Join(parts, " ")
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func pct(num, den int) string {
	if den <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", float64(num)/float64(den)*100)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
