package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	promNamespace = "throttle"

	promSchedulerSubsystem = "scheduler"
	promRetrySubsystem     = "retry"
)

type prometheusRec struct {
	// Metrics.
	submitted       *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	retryRetries    *prometheus.CounterVec
	retryDelay      *prometheus.HistogramVec
	settled         *prometheus.CounterVec
	queueLength     *prometheus.GaugeVec
	active          *prometheus.GaugeVec

	id  string
	reg prometheus.Registerer
}

// NewPrometheusRecorder returns a new Recorder that knows how to measure
// using Prometheus kind metrics.
func NewPrometheusRecorder(reg prometheus.Registerer) Recorder {
	p := &prometheusRec{
		reg: reg,
	}

	p.registerMetrics()
	return p
}

func (p prometheusRec) WithID(id string) Recorder {
	return &prometheusRec{
		submitted:       p.submitted,
		attemptDuration: p.attemptDuration,
		retryRetries:    p.retryRetries,
		retryDelay:      p.retryDelay,
		settled:         p.settled,
		queueLength:     p.queueLength,
		active:          p.active,

		id:  id,
		reg: p.reg,
	}
}

func (p *prometheusRec) registerMetrics() {
	p.submitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Subsystem: promSchedulerSubsystem,
		Name:      "submitted_tasks_total",
		Help:      "Total number of tasks submitted to the scheduler.",
	}, []string{"id"})

	p.attemptDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Subsystem: promSchedulerSubsystem,
		Name:      "attempt_duration_seconds",
		Help:      "The duration of a single task execution attempt in seconds.",
	}, []string{"id", "success"})

	p.retryRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Subsystem: promRetrySubsystem,
		Name:      "retries_total",
		Help:      "Total number of retries scheduled by the kind of failure.",
	}, []string{"id", "kind"})

	p.retryDelay = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Subsystem: promRetrySubsystem,
		Name:      "delay_seconds",
		Help:      "The wait before a retried task is queued again in seconds.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 4, 8, 16},
	}, []string{"id"})

	p.settled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Subsystem: promSchedulerSubsystem,
		Name:      "settled_tasks_total",
		Help:      "Total number of tasks settled by the scheduler.",
	}, []string{"id", "success"})

	p.queueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Subsystem: promSchedulerSubsystem,
		Name:      "queued_tasks",
		Help:      "The number of tasks waiting to be executed.",
	}, []string{"id"})

	p.active = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Subsystem: promSchedulerSubsystem,
		Name:      "active_tasks",
		Help:      "The number of tasks being executed.",
	}, []string{"id"})

	p.reg.MustRegister(p.submitted,
		p.attemptDuration,
		p.retryRetries,
		p.retryDelay,
		p.settled,
		p.queueLength,
		p.active,
	)
}

func (p prometheusRec) IncSubmitted() {
	p.submitted.WithLabelValues(p.id).Inc()
}

func (p prometheusRec) ObserveAttempt(start time.Time, success bool) {
	secs := time.Since(start).Seconds()
	p.attemptDuration.WithLabelValues(p.id, fmt.Sprintf("%t", success)).Observe(secs)
}

func (p prometheusRec) IncRetry(kind string) {
	p.retryRetries.WithLabelValues(p.id, kind).Inc()
}

func (p prometheusRec) ObserveRetryDelay(delay time.Duration) {
	p.retryDelay.WithLabelValues(p.id).Observe(delay.Seconds())
}

func (p prometheusRec) IncSettled(success bool) {
	p.settled.WithLabelValues(p.id, fmt.Sprintf("%t", success)).Inc()
}

func (p prometheusRec) SetQueueLength(length int) {
	p.queueLength.WithLabelValues(p.id).Set(float64(length))
}

func (p prometheusRec) SetActive(active int) {
	p.active.WithLabelValues(p.id).Set(float64(active))
}
