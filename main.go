package main

import (
	"flag"
	"fmt"
	"os"

	"pmcts/dynamics"
	"pmcts/experiments"
	"pmcts/meta"
	"pmcts/searcher"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file, defaults are used when empty")
	mapPath := flag.String("map", "", "PGM occupancy map, overrides the scenario map")
	pareto := flag.Bool("pareto", false, "Select children with the Pareto-UCB rule")
	seed := flag.Uint64("seed", 0, "Seed of the Pareto-UCB tie breaks, overrides the configured seed when set")
	out := flag.String("out", "results", "Directory of experiment records")
	experiment := flag.Bool("experiment", false, "Run every configured planner and store records instead of planning once")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(lvl)

	file := meta.Default()
	if *configPath != "" {
		file, err = meta.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
	}
	if *mapPath != "" {
		file.Scenario.Map = *mapPath
	}
	if *pareto {
		file.Planner.Selector = meta.Pareto
	}
	if *seed != 0 {
		file.Planner.Seed = *seed
	}
	if err := file.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if *experiment {
		runExperiment(file, *out)
		return
	}
	plan(file)
}

func plan(file meta.File) {
	cfg, err := file.PlannerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid planner configuration")
	}
	planner, err := searcher.NewPlanner(cfg, file.Planner.Options()...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create planner")
	}
	rewards, occupancy, err := file.Scenario.Maps()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scenario maps")
	}

	start := file.Scenario.Pose()
	best, err := planner.Search(start, rewards, occupancy)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to plan from %+v", start)
	}
	trajectory, _ := planner.Trajectory()

	o := termenv.NewOutput(os.Stdout)
	m := planner.Metrics()
	fmt.Fprintln(o, o.String(fmt.Sprintf("%s search from %s", m.Selector, formatPose(start))).Bold())
	fmt.Fprintf(o, "  iterations %d, nodes %d, invalid actions %d, dead ends %d, took %v\n",
		m.Iterations, m.TreeSize, m.InvalidActions, m.DeadEnds, m.Duration)
	fmt.Fprintln(o, o.String("best action").Foreground(o.Color("4")))
	for _, pose := range best {
		fmt.Fprintf(o, "  %s\n", formatPose(pose))
	}
	fmt.Fprintln(o, o.String(fmt.Sprintf("best trajectory: %d poses ending at %s",
		len(trajectory), formatPose(trajectory[len(trajectory)-1]))).Foreground(o.Color("1")))
	if m.StoppedEarly {
		fmt.Fprintln(o, o.String("search stopped early at a dead end").Faint())
	}
}

func runExperiment(file meta.File, out string) {
	reg := prometheus.NewRegistry()
	results, dir, err := experiments.Run(file, out, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("experiment failed")
	}

	o := termenv.NewOutput(os.Stdout)
	fmt.Fprintln(o, o.String(fmt.Sprintf("%s experiment stored in %s", file.Experiment.Name, dir)).Bold())
	for _, r := range results {
		status := o.String("ok").Foreground(o.Color("2"))
		if r.Record.Error != "" {
			status = o.String(r.Record.Error).Foreground(o.Color("1"))
		}
		fmt.Fprintf(o, "  planner %d (%s, weight %v, %d iterations): %d nodes in %v, %s\n",
			r.Config.ID, r.Config.Selector, r.Config.Weight, r.Config.MaxIterations,
			r.Record.TreeSize, r.Record.Duration, status)
	}

	families, err := reg.Gather()
	if err != nil {
		log.Error().Err(err).Msg("failed to gather planner metrics")
		return
	}
	for _, family := range families {
		log.Debug().Msgf("%s: %d series", family.GetName(), len(family.GetMetric()))
	}
}

func formatPose(p dynamics.Pose) string {
	return fmt.Sprintf("(%.2f, %.2f, %.3f)", p.X, p.Y, p.Heading)
}
