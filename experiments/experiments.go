package experiments

import (
	"fmt"

	"pmcts/dynamics"
	"pmcts/experiments/metrics"
	"pmcts/meta"
	"pmcts/searcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of one experiment run.
type Result struct {
	Config     metrics.PlannerConfig
	Record     metrics.SearchRecord
	Trajectory []dynamics.Pose
	Tree       [][]dynamics.Pose
}

// Run plans the scenario of file once per experiment run and stores the
// planner configs, the search records and, per planner, the best trajectory and
// the search tree in a timestamped folder under dir. Search metrics are also
// reported to reg. Runs that find no valid action are recorded, not fatal.
func Run(file meta.File, dir string, reg prometheus.Registerer) ([]Result, string, error) {
	if err := file.Validate(); err != nil {
		return nil, "", err
	}
	sink, err := metrics.NewPrometheus(reg)
	if err != nil {
		return nil, "", err
	}
	rewards, occupancy, err := file.Scenario.Maps()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build scenario maps: %w", err)
	}
	start := file.Scenario.Pose()
	runs := file.Experiment.Runs

	log.Info().Msgf("starting %s experiment with %d planners...", file.Experiment.Name, len(runs))

	results := make([]Result, 0, len(runs))
	for i, run := range runs {
		id := i + 1
		settings := file.Planner.With(run)
		cfg, err := settings.Config()
		if err != nil {
			return nil, "", err
		}
		options := append(settings.Options(), searcher.WithMetrics(sink.Collector()))
		planner, err := searcher.NewPlanner(cfg, options...)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create planner %d: %w", id, err)
		}

		log.Info().Msgf("starting planner %d of %d with %+v...", id, len(runs), run)

		result := Result{
			Config: metrics.PlannerConfig{
				ID:              id,
				Selector:        settings.Selector,
				Seed:            settings.Seed,
				Weight:          cfg.Weight,
				MaxIterations:   cfg.MaxIterations,
				MaxRolloutSteps: cfg.MaxRolloutSteps,
				NumActions:      cfg.NumActions,
				Duration:        cfg.Duration,
			},
		}
		_, searchErr := planner.Search(start, rewards, occupancy)
		result.Record = metrics.SearchRecord{Planner: id, SearchMetric: planner.Metrics()}
		if searchErr != nil {
			log.Warn().Msgf("planner %d found no plan: %v", id, searchErr)
			result.Record.Error = searchErr.Error()
		} else {
			result.Trajectory, _ = planner.Trajectory()
			result.Tree = planner.Tree()
		}
		results = append(results, result)

		log.Info().Msgf("completed planner %d of %d in %v with %d nodes", id, len(runs),
			result.Record.Duration, result.Record.TreeSize)
	}

	log.Info().Msgf("completed %s experiment", file.Experiment.Name)

	out, err := store(dir, results)
	if err != nil {
		return nil, "", err
	}
	return results, out, nil
}

func store(dir string, results []Result) (string, error) {
	writer, err := metrics.NewWriter(dir)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	configs := make([]metrics.PlannerConfig, len(results))
	records := make([]metrics.SearchRecord, len(results))
	for i, r := range results {
		configs[i] = r.Config
		records[i] = r.Record
	}
	if err := writer.WritePlannerConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store planner configs: %w", err)
	}
	log.Info().Msg("stored planner configs")
	if err := writer.WriteSearchRecords(records); err != nil {
		return "", fmt.Errorf("failed to store search records: %w", err)
	}
	log.Info().Msg("stored search records")

	for _, r := range results {
		if r.Trajectory == nil {
			continue
		}
		id := r.Config.ID
		if err := writer.WriteTrajectories(fmt.Sprintf("trajectory_%d.csv", id), id, [][]dynamics.Pose{r.Trajectory}); err != nil {
			return "", fmt.Errorf("failed to store trajectory of planner %d: %w", id, err)
		}
		if err := writer.WriteTrajectories(fmt.Sprintf("tree_%d.csv", id), id, r.Tree); err != nil {
			return "", fmt.Errorf("failed to store tree of planner %d: %w", id, err)
		}
	}
	log.Info().Msg("stored trajectories and trees")

	return writer.Dir(), nil
}
