package llmfmt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "llmfmt"

// Metrics instruments pipeline runs. A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	inputBytes    prometheus.Counter
	outputBytes   prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by outcome.",
		}, []string{"status"}),
		stageDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage"}),
		stageFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stage_failures_total",
			Help:      "Total number of pipeline runs that failed, by failing stage.",
		}, []string{"stage"}),
		inputBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "input_bytes_total",
			Help:      "Total bytes read by pipeline runs.",
		}),
		outputBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "output_bytes_total",
			Help:      "Total bytes produced by successful pipeline runs.",
		}),
	}
}

func (m *Metrics) observeStage(stage Stage, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(seconds)
}

func (m *Metrics) observeFailure(stage Stage, inputLen int) {
	if m == nil {
		return
	}
	m.inputBytes.Add(float64(inputLen))
	m.stageFailures.WithLabelValues(string(stage)).Inc()
	m.runs.WithLabelValues("failure").Inc()
}

func (m *Metrics) observeSuccess(inputLen, outputLen int) {
	if m == nil {
		return
	}
	m.inputBytes.Add(float64(inputLen))
	m.outputBytes.Add(float64(outputLen))
	m.runs.WithLabelValues("success").Inc()
}
