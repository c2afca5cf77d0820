package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "labledger"

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CronJobMetrics tracks scheduled job runs: how long they took, how they
// ended and when each job last succeeded.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

// NewCronJobMetrics registers the cron job metrics on reg. A nil reg yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cron_job_duration_seconds",
		Help:      "Duration of cron jobs in seconds.",
		// reconcile passes scan the whole log; allow for slow ones
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cron_job_runs_total",
		Help:      "Cron job executions by outcome.",
	}, []string{"job", "outcome"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cron_job_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run per job.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, lastSuccess)
	return &CronJobMetrics{
		duration:    duration,
		runs:        runs,
		lastSuccess: lastSuccess,
		now:         time.Now,
	}
}

// ObserveRun records one execution of job. A nil err counts as success.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, outcomeFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, outcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(c.now().Unix()))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
