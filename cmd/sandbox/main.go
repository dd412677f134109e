package main

import (
	"flag"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/standoff/internal/profile"
	"github.com/Garsondee/standoff/internal/sim"
	"github.com/Garsondee/standoff/internal/viewer"
)

func main() {
	var scenario string
	var seed int64
	var profiles string
	var verbose bool

	flag.StringVar(&scenario, "scenario", "skirmish", "scenario name ("+strings.Join(sim.ScenarioNames(), ", ")+")")
	flag.Int64Var(&seed, "seed", 1, "world seed")
	flag.StringVar(&profiles, "profiles", "", "engagement profile YAML (built-in profiles when empty)")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	set, err := profile.LoadOrBuiltin(profiles)
	if err != nil {
		logger.WithError(err).Fatal("loading profiles")
	}

	v, err := viewer.New(func() (*sim.World, error) {
		return sim.NewScenario(scenario,
			sim.WithSeed(seed),
			sim.WithProfiles(set),
			sim.WithLogger(logger),
			sim.WithVerbose(verbose),
		)
	}, logger.WithField("scenario", scenario))
	if err != nil {
		logger.WithError(err).Fatal("building scenario")
	}

	w, h := v.Size()
	ebiten.SetWindowTitle("Standoff - " + scenario)
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(v); err != nil {
		logger.WithError(err).Fatal("viewer exited")
	}
}
