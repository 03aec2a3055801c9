package searcher

import (
	"fmt"
	"math"

	"pmcts/actions"
	"pmcts/dynamics"
	"pmcts/experiments/metrics"
	"pmcts/grid"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"golang.org/x/exp/rand"
)

type Config struct {
	Extent          r2.Rect    // Workspace bounds for the boundary check and grid mapping
	AngleRange      [2]float64 // Steering commands sampled into NumActions primitives
	Velocity        float64
	NumActions      int // Odd, so that a straight middle action exists
	Duration        int // Steps per primitive, start pose excluded
	Weight          float64
	MaxIterations   int
	MaxRolloutSteps int
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if !(c.Extent.X.Length() > 0) || !(c.Extent.Y.Length() > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: extent %v is empty", ErrInvalidConfiguration, c.Extent))
	}
	if c.MaxIterations < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfiguration, c.MaxIterations))
	}
	if c.MaxRolloutSteps < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: max rollout steps must be positive, got %d", ErrInvalidConfiguration, c.MaxRolloutSteps))
	}
	if !(c.Weight >= 0) || math.IsInf(c.Weight, 1) {
		err = multierr.Append(err, fmt.Errorf("%w: weight must be finite and non-negative, got %v", ErrInvalidConfiguration, c.Weight))
	}
	if _, libErr := actions.NewLibrary(c.AngleRange, c.NumActions, c.Duration, c.Velocity); libErr != nil {
		err = multierr.Append(err, libErr)
	}
	return err
}

type Option func(p *Planner)

// WithSelector replaces the default UCB selection rule.
func WithSelector(selector Selector) Option {
	return func(p *Planner) {
		if selector != nil {
			p.selector = selector
		}
	}
}

// WithPareto selects children with the Pareto-UCB rule, breaking ties with a
// generator seeded by seed.
func WithPareto(seed uint64) Option {
	return func(p *Planner) {
		p.selector = NewPareto(p.cfg.Weight, rand.New(rand.NewSource(seed)))
	}
}

func WithDeadEndPolicy(policy DeadEndPolicy) Option {
	return func(p *Planner) {
		p.deadEnds = policy
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(p *Planner) {
		if collector != nil {
			p.metrics = collector
		}
	}
}

// Planner runs one search tree per Search call. It is not safe for concurrent
// use; the reward and occupancy maps are only read and may be shared.
type Planner struct {
	cfg      Config
	library  *actions.Library
	selector Selector
	deadEnds DeadEndPolicy
	metrics  metrics.Collector
	last     metrics.SearchMetric

	tree      *tree
	rewards   *grid.Rewards
	occupancy *grid.Occupancy
	maxRow    int
	maxCol    int
}

func NewPlanner(cfg Config, options ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	library, err := actions.NewLibrary(cfg.AngleRange, cfg.NumActions, cfg.Duration, cfg.Velocity)
	if err != nil {
		return nil, err
	}

	p := &Planner{ // Default values
		cfg:      cfg,
		library:  library,
		selector: NewUCB(cfg.Weight),
		deadEnds: StopOnDeadEnd,
		metrics:  metrics.NewCollector(),
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

func (p *Planner) Config() Config {
	return p.cfg
}

func (p *Planner) Library() *actions.Library {
	return p.library
}

func (p *Planner) Selector() Selector {
	return p.selector
}

// Search grows a new tree from start and returns the action of the most
// visited root child. With StopOnDeadEnd the loop ends as soon as selection
// reaches a fully expanded node without children.
func (p *Planner) Search(start dynamics.Pose, rewards *grid.Rewards, occupancy *grid.Occupancy) ([]dynamics.Pose, error) {
	p.tree = nil
	p.last = metrics.SearchMetric{}
	if err := p.load(rewards, occupancy); err != nil {
		return nil, err
	}
	start.Heading = dynamics.WrapAngle(start.Heading)
	p.tree = newTree(start, p.library.Len(), rewards.Dim())

	p.metrics.Start(p.selector.Name())
	log.Debug().Msgf("starting %s search from %+v with %d iterations", p.selector.Name(), start, p.cfg.MaxIterations)

	for i := 0; i < p.cfg.MaxIterations; i++ {
		p.metrics.AddIteration()

		// Selection
		leaf, expandable := p.selects()
		if !expandable {
			p.metrics.AddDeadEnd()
			p.tree.backup(leaf, penalty(p.tree.dim))
			if p.deadEnds == StopOnDeadEnd {
				log.Warn().Msgf("dead end at node %d stopped the search after %d of %d iterations", leaf, i+1, p.cfg.MaxIterations)
				p.metrics.SetStoppedEarly(true)
				break
			}
			continue
		}

		// Expansion
		child, added, err := p.expands(leaf)
		if err != nil {
			return nil, err
		}
		if !added {
			p.metrics.AddInvalidAction()
			p.tree.backup(leaf, penalty(p.tree.dim))
			continue
		}
		p.metrics.AddExpansion()

		// Rollout and backpropagation
		reward, err := p.rollout(child)
		if err != nil {
			return nil, err
		}
		p.tree.backup(child, reward)
	}

	p.last = p.metrics.Complete(len(p.tree.nodes))
	log.Debug().Msgf("completed %s search: %d iterations, %d nodes, %d invalid actions",
		p.last.Selector, p.last.Iterations, p.last.TreeSize, p.last.InvalidActions)

	return p.BestAction()
}

func (p *Planner) load(rewards *grid.Rewards, occupancy *grid.Occupancy) error {
	if rewards == nil || occupancy == nil {
		return fmt.Errorf("%w: missing reward or occupancy map", ErrInvalidInput)
	}
	rows, cols := rewards.Shape()
	oRows, oCols := occupancy.Shape()
	if rows != oRows || cols != oCols {
		return fmt.Errorf("%w: reward map %dx%d and occupancy map %dx%d differ in shape",
			ErrInvalidInput, rows, cols, oRows, oCols)
	}
	if err := p.selector.Validate(rewards.Dim()); err != nil {
		return err
	}

	p.rewards = rewards
	p.occupancy = occupancy
	p.maxRow = rows - 1
	p.maxCol = cols - 1
	return nil
}

// selects descends from the root to the first node with untried actions. It
// returns false when it stops at a fully expanded node without children.
func (p *Planner) selects() (int, bool) {
	id := rootID
	for {
		n := &p.tree.nodes[id]
		if len(n.unvisited) > 0 {
			return id, true
		}
		if len(n.children) == 0 {
			return id, false
		}
		ith := p.selector.Select(n.visits, p.tree.childStats(id))
		id = n.children[ith]
	}
}

// expands tries the first untried action of a node. The action is consumed
// even when it leaves the workspace or hits an obstacle, in which case no
// child is added.
func (p *Planner) expands(parent int) (int, bool, error) {
	a := p.tree.nextAction(parent)
	action, err := p.library.Instantiate(p.tree.nodes[parent].pose, a)
	if err != nil {
		return noParent, false, err
	}

	points := dynamics.Points(action)
	cells := grid.ToGrid(points, p.cfg.Extent, p.maxRow, p.maxCol)
	if !grid.Inside(points, p.cfg.Extent) || p.occupancy.Any(cells) {
		return noParent, false, nil
	}
	return p.tree.addChild(parent, action, p.rewards.Sum(cells)), true, nil
}

// rollout drives the straight action MaxRolloutSteps times from a node and
// returns the reward collected per step. Rollouts ignore the boundary and
// obstacles; cells outside the map are clamped to its border.
func (p *Planner) rollout(id int) ([]float64, error) {
	pose := p.tree.nodes[id].pose
	var cells []grid.Index
	for step := 0; step < p.cfg.MaxRolloutSteps; step++ {
		action, err := p.library.Instantiate(pose, p.library.Straight())
		if err != nil {
			return nil, err
		}
		pose = action[len(action)-1]
		cells = append(cells, grid.ToGrid(dynamics.Points(action), p.cfg.Extent, p.maxRow, p.maxCol)...)
	}

	reward := p.rewards.Sum(cells)
	for k := range reward {
		reward[k] /= float64(p.cfg.MaxRolloutSteps)
	}
	return reward, nil
}

// BestAction returns the action of the most visited root child.
func (p *Planner) BestAction() ([]dynamics.Pose, error) {
	if p.tree == nil {
		return nil, ErrNoValidAction
	}
	best, ok := p.tree.mostVisited(rootID)
	if !ok {
		return nil, ErrNoValidAction
	}
	return copyPoses(p.tree.nodes[best].action), nil
}

// Trajectory follows the most visited child from the root down to a leaf and
// concatenates the actions along the way.
func (p *Planner) Trajectory() ([]dynamics.Pose, error) {
	if p.tree == nil {
		return nil, ErrNoValidAction
	}
	id, ok := p.tree.mostVisited(rootID)
	if !ok {
		return nil, ErrNoValidAction
	}
	var poses []dynamics.Pose
	for ok {
		poses = append(poses, p.tree.nodes[id].action...)
		id, ok = p.tree.mostVisited(id)
	}
	return poses, nil
}

// Tree returns the action of every non-root node in depth-first pre-order.
func (p *Planner) Tree() [][]dynamics.Pose {
	if p.tree == nil {
		return nil
	}
	return p.tree.actions()
}

// Metrics describes the last search.
func (p *Planner) Metrics() metrics.SearchMetric {
	return p.last
}
