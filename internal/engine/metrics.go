package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveyor_jobs_submitted_total",
			Help: "Total number of jobs accepted for execution.",
		},
		[]string{"type"},
	)

	jobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveyor_jobs_completed_total",
			Help: "Total number of jobs that completed successfully.",
		},
		[]string{"type"},
	)

	jobsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveyor_jobs_failed_total",
			Help: "Total number of jobs that failed.",
		},
		[]string{"type"},
	)

	jobsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conveyor_jobs_swept_total",
			Help: "Total number of terminal jobs evicted by the retention sweeper.",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conveyor_queue_depth",
			Help: "Number of job identifiers waiting to be dequeued.",
		},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conveyor_job_duration_seconds",
			Help:    "Handler execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(jobsSubmitted)
	prometheus.MustRegister(jobsCompleted)
	prometheus.MustRegister(jobsFailed)
	prometheus.MustRegister(jobsSwept)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(jobDuration)
}
