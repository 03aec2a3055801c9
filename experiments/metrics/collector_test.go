package metrics

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pmcts/dynamics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counting search events", func(t *testing.T) {
		c := NewCollector()
		c.Start("ucb")
		for i := 0; i < 3; i++ {
			c.AddIteration()
		}
		c.AddExpansion()
		c.AddExpansion()
		c.AddInvalidAction()
		c.AddDeadEnd()
		c.SetStoppedEarly(true)

		got := c.Complete(3)

		require.Equal(t, "ucb", got.Selector)
		require.Equal(t, 3, got.Iterations)
		require.Equal(t, 2, got.Expansions)
		require.Equal(t, 1, got.InvalidActions)
		require.Equal(t, 1, got.DeadEnds)
		require.True(t, got.StoppedEarly)
		require.Equal(t, 3, got.TreeSize)
		require.False(t, got.StartTime.IsZero())
	})

	t.Run("resetting counters on start", func(t *testing.T) {
		c := NewCollector()
		c.Start("ucb")
		c.AddIteration()
		c.SetStoppedEarly(true)

		c.Start("pareto")
		got := c.Complete(1)

		require.Equal(t, "pareto", got.Selector)
		require.Zero(t, got.Iterations)
		require.False(t, got.StoppedEarly)
	})
}

func TestPrometheus(t *testing.T) {
	t.Run("forwarding completed searches from several collectors", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		p, err := NewPrometheus(reg)
		require.NoError(t, err)

		for _, selector := range []string{"ucb", "ucb", "pareto"} {
			c := p.Collector()
			c.Start(selector)
			c.AddIteration()
			c.AddIteration()
			c.AddExpansion()
			c.SetStoppedEarly(selector == "pareto")
			c.Complete(2)
		}

		require.Equal(t, 2.0, testutil.ToFloat64(p.searches.WithLabelValues("ucb")))
		require.Equal(t, 4.0, testutil.ToFloat64(p.iterations.WithLabelValues("ucb")))
		require.Equal(t, 1.0, testutil.ToFloat64(p.expansions.WithLabelValues("pareto")))
		require.Equal(t, 1.0, testutil.ToFloat64(p.earlyStops.WithLabelValues("pareto")))
		require.Equal(t, 0.0, testutil.ToFloat64(p.earlyStops.WithLabelValues("ucb")))
	})

	t.Run("refusing to register twice", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewPrometheus(reg)
		require.NoError(t, err)

		_, err = NewPrometheus(reg)
		require.Error(t, err)
	})
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	t.Run("writing planner configs", func(t *testing.T) {
		err := w.WritePlannerConfigs([]PlannerConfig{{ID: 1, Selector: "pareto", Seed: 7, Weight: 0.3, MaxIterations: 200}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "planner_configs.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "pareto", "7", "0.3", "200", "0", "0", "0"}, rows[1])
	})

	t.Run("writing search records", func(t *testing.T) {
		err := w.WriteSearchRecords([]SearchRecord{
			{Planner: 1, SearchMetric: SearchMetric{Selector: "ucb", Iterations: 5, TreeSize: 4}},
			{Planner: 2, Error: "no valid action"},
		})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "search_records.csv"))
		require.Len(t, rows, 3)
		require.Equal(t, "5", rows[1][4])
		require.Equal(t, "no valid action", rows[2][10])
	})

	t.Run("writing trajectories one pose per row", func(t *testing.T) {
		trajectories := [][]dynamics.Pose{
			{{X: 0, Y: 0, Heading: 0}, {X: 1, Y: 0.5, Heading: 0.25}},
			{{X: 2, Y: 1, Heading: 1}},
		}
		err := w.WriteTrajectories("tree.csv", 3, trajectories)
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "tree.csv"))
		require.Equal(t, [][]string{
			{"planner", "segment", "step", "x", "y", "heading"},
			{"3", "0", "0", "0", "0", "0"},
			{"3", "0", "1", "1", "0.5", "0.25"},
			{"3", "1", "0", "2", "1", "1"},
		}, rows)
	})
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error {
	return f.err
}

func TestWriteCSV(t *testing.T) {
	t.Run("flushing rows before closing", func(t *testing.T) {
		dst := &failingCloser{}

		err := writeCSV(dst, "tree.csv", []string{"a", "b"}, [][]string{{"1", "2"}})
		require.NoError(t, err)
		require.Equal(t, "a,b\n1,2\n", dst.String())
	})

	t.Run("reporting a failed close", func(t *testing.T) {
		closeErr := errors.New("disk full")
		dst := &failingCloser{err: closeErr}

		err := writeCSV(dst, "tree.csv", []string{"a"}, nil)
		require.ErrorIs(t, err, closeErr)
		require.Contains(t, err.Error(), "failed to close tree.csv file")
	})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
