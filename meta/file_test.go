package meta

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pmcts/dynamics"
	"pmcts/searcher"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	f := Default()

	require.NoError(t, f.Validate())

	cfg, err := f.PlannerConfig()
	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.Extent.X.Lo)
	require.Equal(t, 100.0, cfg.Extent.Y.Hi)
	require.Equal(t, NumActions, cfg.NumActions)
	require.Equal(t, MaxIterations, cfg.MaxIterations)
	require.Empty(t, f.Planner.Options(), "UCB and stopping on dead ends are the planner defaults")

	f.Scenario.Hotspots[0].Mean[0] = -1
	require.Equal(t, 80.0, Hotspots[0].Mean[0], "Defaults should not share hotspots")
}

func TestParse(t *testing.T) {
	t.Run("overriding only the given keys", func(t *testing.T) {
		f, err := Parse(strings.NewReader(`
planner:
  num_actions: 3
  selector: pareto
  seed: 7
scenario:
  start: [10, 20, 0.5]
  hotspots:
    - mean: [5, 5]
      covariance: [[2, 0], [0, 2]]
`))
		require.NoError(t, err)

		require.Equal(t, 3, f.Planner.NumActions)
		require.Equal(t, Pareto, f.Planner.Selector)
		require.Equal(t, uint64(7), f.Planner.Seed)
		require.Equal(t, Duration, f.Planner.Duration, "Missing keys should keep defaults")
		require.Equal(t, Extent, f.Planner.Extent)
		require.Equal(t, dynamics.Pose{X: 10, Y: 20, Heading: 0.5}, f.Scenario.Pose())
		require.Len(t, f.Scenario.Hotspots, 1)
		require.Equal(t, [2][2]float64{{2, 0}, {0, 2}}, f.Scenario.Hotspots[0].Covariance)
		require.Len(t, f.Planner.Options(), 1)
	})

	t.Run("accepting an empty document", func(t *testing.T) {
		f, err := Parse(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, Default(), f)
	})

	t.Run("rejecting unknown keys", func(t *testing.T) {
		_, err := Parse(strings.NewReader("planner:\n  iterations: 10\n"))
		require.Error(t, err)
	})

	t.Run("rejecting malformed arrays", func(t *testing.T) {
		_, err := Parse(strings.NewReader("planner:\n  extent: [0, 1]\n"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("reading a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("planner:\n  weight: 0.7\n"), 0o644))

		f, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 0.7, f.Planner.Weight)
	})

	t.Run("failing on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	t.Run("reporting every invalid setting", func(t *testing.T) {
		f := Default()
		f.Planner.Selector = "random"
		f.Planner.DeadEnd = "ignore"
		f.Planner.MaxIterations = 0
		f.Scenario.Threshold = 2
		f.Scenario.Hotspots = nil

		err := f.Validate()

		require.ErrorIs(t, err, dynamics.ErrInvalidConfiguration)
		errs := multierr.Errors(err)
		// selector, dead end, iterations, threshold, hotspots and each of the four runs
		require.Len(t, errs, 9)
	})

	t.Run("rejecting a bad experiment run", func(t *testing.T) {
		f := Default()
		f.Experiment.Runs = append(f.Experiment.Runs, Run{Weight: math.Inf(1)})

		err := f.Validate()
		require.ErrorIs(t, err, searcher.ErrInvalidConfiguration)
		require.Contains(t, err.Error(), "experiment run 4")
	})

	t.Run("rejecting an empty extent", func(t *testing.T) {
		f := Default()
		f.Planner.Extent = [4]float64{0, 0, 0, 100}

		_, err := f.PlannerConfig()
		require.ErrorIs(t, err, dynamics.ErrInvalidConfiguration)
		require.Error(t, f.Validate())
	})
}

func TestPlannerWith(t *testing.T) {
	p := Default().Planner

	got := p.With(Run{Selector: Pareto, MaxIterations: 50, Seed: 3})

	require.Equal(t, Pareto, got.Selector)
	require.Equal(t, 50, got.MaxIterations)
	require.Equal(t, uint64(3), got.Seed)
	require.Equal(t, p.Weight, got.Weight, "Zero overrides should keep the planner value")
	require.Equal(t, UCB, p.Selector, "The receiver should not change")
}

func TestOptions(t *testing.T) {
	p := Default().Planner
	p.Selector = Pareto
	p.DeadEnd = searcher.ContinueOnDeadEnd.String()
	cfg, err := p.Config()
	require.NoError(t, err)

	planner, err := searcher.NewPlanner(cfg, p.Options()...)
	require.NoError(t, err)

	require.Equal(t, Pareto, planner.Selector().Name())
}

func TestScenarioMaps(t *testing.T) {
	t.Run("generating hotspots over a free workspace", func(t *testing.T) {
		s := Default().Scenario
		s.Rows, s.Cols = 20, 30
		s.Hotspots[0].Mean = [2]float64{10, 10}

		rewards, occupancy, err := s.Maps()
		require.NoError(t, err)

		rows, cols := rewards.Shape()
		require.Equal(t, 20, rows)
		require.Equal(t, 30, cols)
		rows, cols = occupancy.Shape()
		require.Equal(t, 20, rows)
		require.Equal(t, 30, cols)
	})

	t.Run("sizing the rewards after a PGM map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "map.pgm")
		data := append([]byte("P5\n4 2\n255\n"), 255, 0, 255, 255, 255, 255, 255, 255)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		s := Default().Scenario
		s.Map = path

		rewards, occupancy, err := s.Maps()
		require.NoError(t, err)

		rows, cols := rewards.Shape()
		require.Equal(t, 2, rows)
		require.Equal(t, 4, cols)
		require.True(t, occupancy.Occupied(0, 1))
		require.False(t, occupancy.Occupied(1, 1))
	})

	t.Run("failing on a missing map", func(t *testing.T) {
		s := Default().Scenario
		s.Map = filepath.Join(t.TempDir(), "missing.pgm")

		_, _, err := s.Maps()
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
