package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one planning call.
type SearchMetric struct {
	Selector       string
	StartTime      time.Time
	Duration       time.Duration
	Iterations     int // Iterations started, the one ending at a dead end included
	Expansions     int // Children created
	InvalidActions int // Actions rejected by the boundary or collision check
	DeadEnds       int
	StoppedEarly   bool
	TreeSize       int // Nodes, root included
}

type Collector interface {
	Start(selector string)
	AddIteration()
	AddExpansion()
	AddInvalidAction()
	AddDeadEnd()
	SetStoppedEarly(value bool)
	Complete(treeSize int) SearchMetric
}

type collector struct {
	selector       string
	startTime      time.Time
	iterations     atomic.Int32
	expansions     atomic.Int32
	invalidActions atomic.Int32
	deadEnds       atomic.Int32
	stoppedEarly   atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the counters for a new search.
func (m *collector) Start(selector string) {
	m.selector = selector
	m.startTime = time.Now()
	m.iterations.Store(0)
	m.expansions.Store(0)
	m.invalidActions.Store(0)
	m.deadEnds.Store(0)
	m.stoppedEarly.Store(false)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) AddInvalidAction() {
	m.invalidActions.Add(1)
}

func (m *collector) AddDeadEnd() {
	m.deadEnds.Add(1)
}

func (m *collector) SetStoppedEarly(value bool) {
	m.stoppedEarly.Store(value)
}

func (m *collector) Complete(treeSize int) SearchMetric {
	return SearchMetric{
		Selector:       m.selector,
		StartTime:      m.startTime,
		Duration:       time.Since(m.startTime),
		Iterations:     int(m.iterations.Load()),
		Expansions:     int(m.expansions.Load()),
		InvalidActions: int(m.invalidActions.Load()),
		DeadEnds:       int(m.deadEnds.Load()),
		StoppedEarly:   m.stoppedEarly.Load(),
		TreeSize:       treeSize,
	}
}
