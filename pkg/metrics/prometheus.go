// Package metrics holds the Prometheus instruments of the exploration
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics.
type PrometheusMetrics struct {
	RoundsTotal       prometheus.Counter
	VariantsTotal     prometheus.Counter
	EvalSuccessTotal  prometheus.Counter
	EvalFailuresTotal *prometheus.CounterVec
	EvalDuration      prometheus.Histogram
	CorpusWrites      prometheus.Counter
}

// NewPrometheusMetrics registers and returns the engine metrics on reg. A
// nil registerer uses the default one.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		RoundsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exploration_rounds_total",
			Help: "Total number of exploration rounds",
		}),
		VariantsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exploration_variants_total",
			Help: "Total number of mutation candidates produced",
		}),
		EvalSuccessTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exploration_eval_success_total",
			Help: "Candidates that evaluated successfully",
		}),
		EvalFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exploration_eval_failures_total",
			Help: "Candidates rejected by the host library, by failure class",
		}, []string{"class"}),
		EvalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exploration_eval_duration_seconds",
			Help:    "Host evaluation latency",
			Buckets: prometheus.DefBuckets,
		}),
		CorpusWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "exploration_corpus_writes_total",
			Help: "Values written to the corpus directory",
		}),
	}
}

// ObserveEval records one evaluation outcome.
func (m *PrometheusMetrics) ObserveEval(class string, duration time.Duration, ok bool) {
	m.EvalDuration.Observe(duration.Seconds())
	if ok {
		m.EvalSuccessTotal.Inc()
		return
	}
	m.EvalFailuresTotal.WithLabelValues(class).Inc()
}
