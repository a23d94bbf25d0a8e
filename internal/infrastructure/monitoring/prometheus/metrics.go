// Package prometheus registers and exposes the service metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// Default buckets
var (
	defaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	defaultJobDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	defaultAtomCountBuckets    = []float64{0, 10, 25, 50, 100, 250, 500, 1000}
)

// AppMetrics holds all service metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Docking pipeline
	JobsStartedTotal   *prometheus.CounterVec
	JobsCompletedTotal *prometheus.CounterVec
	JobsFailedTotal    *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	BestScore          *prometheus.GaugeVec
	PoseAtomCount      prometheus.Histogram

	// Cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewAppMetrics registers all metrics on reg and returns the handle.  Pass
// prometheus.DefaultRegisterer outside of tests.
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	factory := promauto.With(reg)
	return &AppMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moldock",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   defaultHTTPDurationBuckets,
		}, []string{"method", "route"}),

		JobsStartedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "docking_jobs_started_total",
			Help:      "Docking jobs started by target.",
		}, []string{"target"}),
		JobsCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "docking_jobs_completed_total",
			Help:      "Docking jobs completed by target.",
		}, []string{"target"}),
		JobsFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "docking_jobs_failed_total",
			Help:      "Docking jobs failed by target and error code.",
		}, []string{"target", "code"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moldock",
			Name:      "docking_job_duration_seconds",
			Help:      "End-to-end docking job duration by target.",
			Buckets:   defaultJobDurationBuckets,
		}, []string{"target"}),
		BestScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "moldock",
			Name:      "docking_last_score_kcal_mol",
			Help:      "Most recent best-mode affinity by target.",
		}, []string{"target"}),
		PoseAtomCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "moldock",
			Name:      "docking_pose_atoms",
			Help:      "Atom count of selected best poses.",
			Buckets:   defaultAtomCountBuckets,
		}),

		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "result_cache_hits_total",
			Help:      "Docking result cache hits.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "moldock",
			Name:      "result_cache_misses_total",
			Help:      "Docking result cache misses.",
		}),
	}
}

// JobStarted records a job start.
func (m *AppMetrics) JobStarted(targetName string) {
	m.JobsStartedTotal.WithLabelValues(targetName).Inc()
}

// JobCompleted records a successful job.
func (m *AppMetrics) JobCompleted(targetName string, score float64, elapsed time.Duration) {
	m.JobsCompletedTotal.WithLabelValues(targetName).Inc()
	m.JobDuration.WithLabelValues(targetName).Observe(elapsed.Seconds())
	m.BestScore.WithLabelValues(targetName).Set(score)
}

// JobFailed records a failed job with its typed code.
func (m *AppMetrics) JobFailed(targetName string, code apperrors.ErrorCode) {
	m.JobsFailedTotal.WithLabelValues(targetName, string(code)).Inc()
}

// PoseAtoms records the atom count of one selected pose.
func (m *AppMetrics) PoseAtoms(count int) {
	m.PoseAtomCount.Observe(float64(count))
}
