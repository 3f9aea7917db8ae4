// Package telemetry переводит события поиска в метрики Prometheus.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"standAlloc/internal/bnb"
)

// MetricsObserver считает ветвления, отказы пропагации, отсечения и рекорды.
// Безопасен для параллельного поиска: счётчики Prometheus атомарны.
type MetricsObserver struct {
	branches   prometheus.Counter
	failures   prometheus.Counter
	prunes     prometheus.Counter
	incumbents prometheus.Counter
	cost       prometheus.Gauge
	depth      prometheus.Histogram
}

var _ bnb.Observer = (*MetricsObserver)(nil)

// NewMetricsObserver регистрирует метрики поиска в reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		branches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "branches_total",
			Help:      "Branch decisions taken by the search.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "propagation_failures_total",
			Help:      "Branches rejected by constraint propagation.",
		}),
		prunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "prunes_total",
			Help:      "Branches cut by the lower bound.",
		}),
		incumbents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "incumbents_total",
			Help:      "Improving complete assignments found.",
		}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "incumbent_cost",
			Help:      "Cost of the current best assignment.",
		}),
		depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "standalloc",
			Subsystem: "search",
			Name:      "branch_depth",
			Help:      "Depth of branch decisions.",
			Buckets:   prometheus.LinearBuckets(0, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.branches, m.failures, m.prunes, m.incumbents, m.cost, m.depth} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

func (m *MetricsObserver) Branch(ev bnb.Event) {
	m.branches.Inc()
	m.depth.Observe(float64(ev.Depth))
}

func (m *MetricsObserver) Fail(bnb.Event) { m.failures.Inc() }

func (m *MetricsObserver) Prune(bnb.Event) { m.prunes.Inc() }

func (m *MetricsObserver) Incumbent(ev bnb.Event) {
	m.incumbents.Inc()
	m.cost.Set(float64(ev.Incumbent))
}

// WriteTextfile выгружает метрики в файл для node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
