package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus holds planner metrics shared by every collector it hands out, so
// several planners can report into one registry.
type Prometheus struct {
	searches       *prometheus.CounterVec
	iterations     *prometheus.CounterVec
	expansions     *prometheus.CounterVec
	invalidActions *prometheus.CounterVec
	deadEnds       *prometheus.CounterVec
	earlyStops     *prometheus.CounterVec
	treeSize       *prometheus.HistogramVec
	duration       *prometheus.HistogramVec
}

func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	labels := []string{"selector"}
	p := &Prometheus{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_searches_total",
			Help: "Total planning calls by selection rule",
		}, labels),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_iterations_total",
			Help: "Total tree search iterations",
		}, labels),
		expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_expansions_total",
			Help: "Total tree nodes created by expansion",
		}, labels),
		invalidActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_invalid_actions_total",
			Help: "Total actions rejected by the boundary or collision check",
		}, labels),
		deadEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_dead_ends_total",
			Help: "Total fully expanded nodes reached without any child",
		}, labels),
		earlyStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcts_early_stops_total",
			Help: "Total searches stopped before the iteration budget",
		}, labels),
		treeSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pmcts_tree_nodes",
			Help:    "Search tree size per planning call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1 to 8192 nodes
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pmcts_search_duration_seconds",
			Help:    "Planning call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, labels),
	}

	for _, c := range []prometheus.Collector{
		p.searches, p.iterations, p.expansions, p.invalidActions,
		p.deadEnds, p.earlyStops, p.treeSize, p.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register planner metrics: %w", err)
		}
	}
	return p, nil
}

// Collector returns a collector for one planner that forwards every completed
// search to the shared metrics.
func (p *Prometheus) Collector() Collector {
	return &prometheusCollector{sink: p}
}

type prometheusCollector struct {
	collector
	sink *Prometheus
}

func (c *prometheusCollector) Complete(treeSize int) SearchMetric {
	metric := c.collector.Complete(treeSize)

	s := metric.Selector
	c.sink.searches.WithLabelValues(s).Inc()
	c.sink.iterations.WithLabelValues(s).Add(float64(metric.Iterations))
	c.sink.expansions.WithLabelValues(s).Add(float64(metric.Expansions))
	c.sink.invalidActions.WithLabelValues(s).Add(float64(metric.InvalidActions))
	c.sink.deadEnds.WithLabelValues(s).Add(float64(metric.DeadEnds))
	if metric.StoppedEarly {
		c.sink.earlyStops.WithLabelValues(s).Inc()
	}
	c.sink.treeSize.WithLabelValues(s).Observe(float64(metric.TreeSize))
	c.sink.duration.WithLabelValues(s).Observe(metric.Duration.Seconds())
	return metric
}
