package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dagsched"

// Task outcomes used as label values
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Collector records schedule execution metrics in its own Prometheus registry
type Collector struct {
	registry *prometheus.Registry

	tasksStarted  prometheus.Counter
	tasksFinished *prometheus.CounterVec
	tasksRunning  prometheus.Gauge
	taskDuration  prometheus.Histogram
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// NewCollector creates a collector backed by a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		tasksStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Total number of tasks dispatched to a worker",
		}),
		tasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Total number of tasks finished, by outcome",
		}, []string{"outcome"}),
		tasksRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_running",
			Help:      "Number of tasks currently executing",
		}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60, 300},
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of schedule runs, by final status",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Schedule run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// TaskStarted records a task dispatch
func (c *Collector) TaskStarted(taskID string) {
	c.tasksStarted.Inc()
	c.tasksRunning.Inc()
}

// TaskFinished records a finished task and its duration
func (c *Collector) TaskFinished(taskID string, duration time.Duration, err error) {
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	c.tasksRunning.Dec()
	c.tasksFinished.WithLabelValues(outcome).Inc()
	c.taskDuration.Observe(duration.Seconds())
}

// RunFinished records the final status of a schedule run
func (c *Collector) RunFinished(status string, duration time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// Handler serves the collected metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
