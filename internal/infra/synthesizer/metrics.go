package synthesizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindQuestions = "questions"
	kindTopics    = "topics"

	outcomeOK       = "ok"
	outcomeEmpty    = "empty_response"
	outcomeFormat   = "format_error"
	outcomeProvider = "provider_error"
)

// SynthesisMetricsRecorder abstracts metrics recording so tests can inject a fake.
type SynthesisMetricsRecorder interface {
	// RecordDuration records the wall time of one provider call.
	RecordDuration(kind string, duration time.Duration)
	// RecordOutcome counts the result of one synthesis request.
	RecordOutcome(kind, outcome string)
	// RecordDropped counts question objects rejected by validation.
	RecordDropped(n int)
}

// PrometheusSynthesisMetrics implements SynthesisMetricsRecorder using Prometheus metrics.
type PrometheusSynthesisMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	dropped  prometheus.Counter
}

var (
	prometheusMetricsInstance *PrometheusSynthesisMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateHistogramVec gets an existing histogram vector or registers a new one.
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// getOrCreateCounterVec gets an existing counter vector or registers a new one.
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// getOrCreateCounter gets an existing counter or registers a new one.
func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

// NewPrometheusSynthesisMetrics returns the process-wide recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusSynthesisMetrics() *PrometheusSynthesisMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusSynthesisMetrics{
			duration: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "quiz_synthesis_duration_seconds",
				Help:    "Duration of language model calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			}, []string{"kind"}),
			outcomes: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "quiz_synthesis_total",
				Help: "Synthesis requests by kind and outcome",
			}, []string{"kind", "outcome"}),
			dropped: getOrCreateCounter(prometheus.CounterOpts{
				Name: "quiz_synthesis_questions_dropped_total",
				Help: "Question objects rejected by validation",
			}),
		}
	})
	return prometheusMetricsInstance
}

func (m *PrometheusSynthesisMetrics) RecordDuration(kind string, duration time.Duration) {
	m.duration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *PrometheusSynthesisMetrics) RecordOutcome(kind, outcome string) {
	m.outcomes.WithLabelValues(kind, outcome).Inc()
}

func (m *PrometheusSynthesisMetrics) RecordDropped(n int) {
	if n > 0 {
		m.dropped.Add(float64(n))
	}
}
