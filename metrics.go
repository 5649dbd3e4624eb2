package fairloop

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for reflection runs. It implements
// Observer, so attach it with WithObserver.
type Metrics struct {
	runs        *prometheus.CounterVec
	rounds      prometheus.Counter
	roundGini   prometheus.Histogram
	initialGini prometheus.Gauge
	currentGini prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the metrics registered with the global Prometheus
// registry, creating them on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg (nil selects the default
// registerer). Collectors already registered under the same name are reused;
// any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fairloop",
			Subsystem: "reflection",
			Name:      "runs_total",
			Help:      "Completed reflection runs by stop reason.",
		},
		[]string{"reason"},
	)
	rounds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fairloop",
			Subsystem: "reflection",
			Name:      "rounds_total",
			Help:      "Completed reflection rounds across all runs.",
		},
	)
	roundGini := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fairloop",
			Subsystem: "reflection",
			Name:      "round_gini",
			Help:      "Gini coefficient measured at the end of each round.",
			Buckets:   prometheus.LinearBuckets(0.05, 0.05, 20),
		},
	)
	initialGini := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fairloop",
			Subsystem: "reflection",
			Name:      "initial_gini",
			Help:      "Gini coefficient of the most recently started run's initial votes.",
		},
	)
	currentGini := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fairloop",
			Subsystem: "reflection",
			Name:      "current_gini",
			Help:      "Most recently measured Gini coefficient.",
		},
	)

	return &Metrics{
		runs:        registerOrReuse(reg, runs),
		rounds:      registerOrReuse(reg, rounds),
		roundGini:   registerOrReuse(reg, roundGini),
		initialGini: registerOrReuse(reg, initialGini),
		currentGini: registerOrReuse(reg, currentGini),
	}
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordStart implements Observer.
func (m *Metrics) RecordStart(_ string, initialGini float64, _ int) {
	if m == nil {
		return
	}
	m.initialGini.Set(initialGini)
	m.currentGini.Set(initialGini)
}

// RecordRound implements Observer.
func (m *Metrics) RecordRound(rec RoundRecord) {
	if m == nil {
		return
	}
	m.rounds.Inc()
	m.roundGini.Observe(rec.GiniAfter)
	m.currentGini.Set(rec.GiniAfter)
}

// RecordComplete implements Observer.
func (m *Metrics) RecordComplete(result *LoopResult) {
	if m == nil || result == nil {
		return
	}
	m.runs.WithLabelValues(string(result.Reason)).Inc()
}
