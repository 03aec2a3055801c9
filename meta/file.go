package meta

import (
	"errors"
	"fmt"
	"io"
	"os"

	"pmcts/dynamics"
	"pmcts/grid"
	"pmcts/searcher"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	UCB    = "ucb"
	Pareto = "pareto"
)

// File is the YAML configuration of a planning session. Keys left out of a
// file keep their default values.
type File struct {
	Planner    Planner    `yaml:"planner"`
	Scenario   Scenario   `yaml:"scenario"`
	Experiment Experiment `yaml:"experiment"`
}

type Planner struct {
	Extent          [4]float64 `yaml:"extent"` // xmin, xmax, ymin, ymax
	AngleRange      [2]float64 `yaml:"angle_range"`
	Velocity        float64    `yaml:"velocity"`
	NumActions      int        `yaml:"num_actions"`
	Duration        int        `yaml:"duration"`
	Weight          float64    `yaml:"weight"`
	MaxIterations   int        `yaml:"max_iterations"`
	MaxRolloutSteps int        `yaml:"max_rollout_steps"`
	Selector        string     `yaml:"selector"`
	Seed            uint64     `yaml:"seed"`
	DeadEnd         string     `yaml:"dead_end"`
}

type Scenario struct {
	Start     [3]float64     `yaml:"start"` // x, y, heading
	Rows      int            `yaml:"rows"`
	Cols      int            `yaml:"cols"`
	Hotspots  []grid.Hotspot `yaml:"hotspots"`
	Map       string         `yaml:"map"` // Optional PGM occupancy map, overrides rows and cols
	Threshold float64        `yaml:"threshold"`
}

// Experiment lists planner variants to compare on the scenario.
type Experiment struct {
	Name string `yaml:"name"`
	Runs []Run  `yaml:"runs"`
}

// Run overrides planner fields; zero values keep the planner's.
type Run struct {
	Selector      string  `yaml:"selector"`
	Weight        float64 `yaml:"weight"`
	MaxIterations int     `yaml:"max_iterations"`
	Seed          uint64  `yaml:"seed"`
}

func Default() File {
	return File{
		Planner: Planner{
			Extent:          Extent,
			AngleRange:      AngleRange,
			Velocity:        Velocity,
			NumActions:      NumActions,
			Duration:        Duration,
			Weight:          Weight,
			MaxIterations:   MaxIterations,
			MaxRolloutSteps: MaxRolloutSteps,
			Selector:        UCB,
			DeadEnd:         searcher.StopOnDeadEnd.String(),
		},
		Scenario: Scenario{
			Start:     Start,
			Rows:      Rows,
			Cols:      Cols,
			Hotspots:  append([]grid.Hotspot(nil), Hotspots...),
			Threshold: Threshold,
		},
		Experiment: Experiment{
			Name: "selectors",
			Runs: []Run{
				{Selector: UCB},
				{Selector: Pareto, Seed: 1},
				{Selector: UCB, Weight: 1},
				{Selector: UCB, MaxIterations: 100},
			},
		},
	}
}

// Load reads a configuration file on top of the defaults.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a YAML configuration on top of the defaults. Unknown keys are
// rejected.
func Parse(r io.Reader) (File, error) {
	file := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return file, nil
}

// Validate reports every invalid setting at once.
func (f File) Validate() error {
	err := f.Planner.validate()
	if f.Scenario.Map == "" && (f.Scenario.Rows < 1 || f.Scenario.Cols < 1) {
		err = multierr.Append(err, fmt.Errorf("%w: map size %dx%d", dynamics.ErrInvalidConfiguration,
			f.Scenario.Rows, f.Scenario.Cols))
	}
	if !(f.Scenario.Threshold >= 0 && f.Scenario.Threshold <= 1) {
		err = multierr.Append(err, fmt.Errorf("%w: threshold must be within [0, 1], got %v",
			dynamics.ErrInvalidConfiguration, f.Scenario.Threshold))
	}
	if len(f.Scenario.Hotspots) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: scenario has no hotspots", dynamics.ErrInvalidConfiguration))
	}
	for i, run := range f.Experiment.Runs {
		if runErr := f.Planner.With(run).validate(); runErr != nil {
			err = multierr.Append(err, fmt.Errorf("experiment run %d: %w", i, runErr))
		}
	}
	return err
}

func (f File) PlannerConfig() (searcher.Config, error) {
	return f.Planner.Config()
}

// Config converts the planner section to a search configuration.
func (p Planner) Config() (searcher.Config, error) {
	extent, err := grid.NewExtent(p.Extent[0], p.Extent[1], p.Extent[2], p.Extent[3])
	if err != nil {
		return searcher.Config{}, err
	}
	return searcher.Config{
		Extent:          extent,
		AngleRange:      p.AngleRange,
		Velocity:        p.Velocity,
		NumActions:      p.NumActions,
		Duration:        p.Duration,
		Weight:          p.Weight,
		MaxIterations:   p.MaxIterations,
		MaxRolloutSteps: p.MaxRolloutSteps,
	}, nil
}

// Options translates the selector and dead-end settings to planner options.
func (p Planner) Options() []searcher.Option {
	options := []searcher.Option{}
	if p.Selector == Pareto {
		options = append(options, searcher.WithPareto(p.Seed))
	}
	if p.DeadEnd == searcher.ContinueOnDeadEnd.String() {
		options = append(options, searcher.WithDeadEndPolicy(searcher.ContinueOnDeadEnd))
	}
	return options
}

// With returns the planner settings overridden by a run.
func (p Planner) With(run Run) Planner {
	if run.Selector != "" {
		p.Selector = run.Selector
	}
	if run.Weight != 0 {
		p.Weight = run.Weight
	}
	if run.MaxIterations != 0 {
		p.MaxIterations = run.MaxIterations
	}
	if run.Seed != 0 {
		p.Seed = run.Seed
	}
	return p
}

func (p Planner) validate() error {
	var err error
	if p.Selector != UCB && p.Selector != Pareto {
		err = multierr.Append(err, fmt.Errorf("%w: unknown selector %q", dynamics.ErrInvalidConfiguration, p.Selector))
	}
	if p.DeadEnd != searcher.StopOnDeadEnd.String() && p.DeadEnd != searcher.ContinueOnDeadEnd.String() {
		err = multierr.Append(err, fmt.Errorf("%w: unknown dead end policy %q", dynamics.ErrInvalidConfiguration, p.DeadEnd))
	}
	cfg, cfgErr := p.Config()
	if cfgErr != nil {
		return multierr.Append(err, cfgErr)
	}
	return multierr.Append(err, cfg.Validate())
}

// Pose returns the start pose of the scenario.
func (s Scenario) Pose() dynamics.Pose {
	return dynamics.Pose{X: s.Start[0], Y: s.Start[1], Heading: s.Start[2]}
}

// Maps builds the reward and occupancy maps of the scenario. Without a PGM map
// the workspace is free.
func (s Scenario) Maps() (*grid.Rewards, *grid.Occupancy, error) {
	var occupancy *grid.Occupancy
	var err error
	if s.Map != "" {
		occupancy, err = readMap(s.Map, s.Threshold)
	} else {
		occupancy, err = grid.NewOccupancy(s.Rows, s.Cols)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, cols := occupancy.Shape()
	rewards, err := grid.Hotspots(rows, cols, s.Hotspots)
	if err != nil {
		return nil, nil, err
	}
	return rewards, occupancy, nil
}

func readMap(path string, threshold float64) (*grid.Occupancy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer f.Close()

	return grid.ReadPGM(f, threshold)
}
