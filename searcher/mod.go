package searcher

import (
	"errors"

	"pmcts/dynamics"
)

// Hyperparameters for MCTS

const CSquared = 2.0 // Exploration constant of the single-objective UCB

const Penalty = -1.0 // Reward for an invalid action or a dead end

var (
	ErrInvalidConfiguration = dynamics.ErrInvalidConfiguration
	ErrInvalidInput         = dynamics.ErrInvalidInput
	// ErrNoValidAction means every maneuver from the root was rejected.
	ErrNoValidAction = errors.New("no valid action in current pose")
)

// Stats is what a selector sees of a child node.
type Stats struct {
	Reward []float64 // Cumulative reward, one entry per objective
	Visits int
}

// Selector picks the child to descend into from a fully expanded node.
type Selector interface {
	// Select returns an index into children. Every child has been visited.
	Select(parentVisits int, children []Stats) int
	// Validate rejects reward dimensions the selector cannot rank.
	Validate(dim int) error
	Name() string
}

// DeadEndPolicy decides what a search does after selection reaches a fully
// expanded node without children.
type DeadEndPolicy int

const (
	// StopOnDeadEnd penalizes the dead end and ends the whole search.
	StopOnDeadEnd DeadEndPolicy = iota
	// ContinueOnDeadEnd penalizes the dead end and starts the next iteration.
	ContinueOnDeadEnd
)

func (p DeadEndPolicy) String() string {
	switch p {
	case StopOnDeadEnd:
		return "stop"
	case ContinueOnDeadEnd:
		return "continue"
	default:
		return "unknown"
	}
}

func penalty(dim int) []float64 {
	reward := make([]float64, dim)
	for k := range reward {
		reward[k] = Penalty
	}
	return reward
}
