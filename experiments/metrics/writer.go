package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pmcts/dynamics"
)

// PlannerConfig identifies one planner setup of an experiment.
type PlannerConfig struct {
	ID              int
	Selector        string
	Seed            uint64
	Weight          float64
	MaxIterations   int
	MaxRolloutSteps int
	NumActions      int
	Duration        int
}

type SearchRecord struct {
	Planner int // PlannerConfig.ID
	Error   string
	SearchMetric
}

type Writer struct {
	baseDir string
}

// NewWriter stores records in a subfolder of dir named by the current timestamp.
func NewWriter(dir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(dir, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WritePlannerConfigs(configs []PlannerConfig) error {
	header := []string{"id", "selector", "seed", "weight", "max_iterations", "max_rollout_steps", "num_actions", "duration"}
	rows := make([][]string, len(configs))
	for i, config := range configs {
		rows[i] = []string{
			strconv.Itoa(config.ID),
			config.Selector,
			strconv.FormatUint(config.Seed, 10),
			formatFloat(config.Weight),
			strconv.Itoa(config.MaxIterations),
			strconv.Itoa(config.MaxRolloutSteps),
			strconv.Itoa(config.NumActions),
			strconv.Itoa(config.Duration),
		}
	}
	return w.write("planner_configs.csv", header, rows)
}

func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	header := []string{"planner", "selector", "start_time", "duration", "iterations", "expansions",
		"invalid_actions", "dead_ends", "stopped_early", "tree_size", "error"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			strconv.Itoa(record.Planner),
			record.Selector,
			record.StartTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.Iterations),
			strconv.Itoa(record.Expansions),
			strconv.Itoa(record.InvalidActions),
			strconv.Itoa(record.DeadEnds),
			strconv.FormatBool(record.StoppedEarly),
			strconv.Itoa(record.TreeSize),
			record.Error,
		}
	}
	return w.write("search_records.csv", header, rows)
}

// WriteTrajectories stores pose sequences, one row per pose, tagged with the
// planner and the position of the sequence in the list.
func (w *Writer) WriteTrajectories(name string, planner int, trajectories [][]dynamics.Pose) error {
	header := []string{"planner", "segment", "step", "x", "y", "heading"}
	var rows [][]string
	for s, trajectory := range trajectories {
		for k, pose := range trajectory {
			rows = append(rows, []string{
				strconv.Itoa(planner),
				strconv.Itoa(s),
				strconv.Itoa(k),
				formatFloat(pose.X),
				formatFloat(pose.Y),
				formatFloat(pose.Heading),
			})
		}
	}
	return w.write(name, header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", name, err)
	}
	return writeCSV(f, name, header, rows)
}

// writeCSV writes the header and rows and closes dst, reporting a failed
// close since it may hide a failed flush.
func writeCSV(dst io.WriteCloser, name string, header []string, rows [][]string) error {
	writer := csv.NewWriter(dst)

	err := writer.Write(header)
	if err == nil {
		err = writer.WriteAll(rows)
	}
	if err != nil {
		dst.Close()
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}

	err = dst.Close()
	if err != nil {
		return fmt.Errorf("failed to close %s file: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
