package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobsCreatedTotal,
		jobsProcessedTotal,
		dispatchTicksTotal,
		jobsEvictedTotal,
		sessionsEvictedTotal,
		jobsArchivedTotal,
		jobsStuck,
		jobsPending,
	)
}

var (
	jobsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_created_total",
			Help: "Jobs accepted into the queue, labeled by intake channel.",
		},
		[]string{"channel"},
	)

	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_processed_total",
			Help: "Total number of jobs processed, labeled by final status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	dispatchTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_ticks_total",
			Help: "Dispatcher ticks by outcome (idle/busy/processed/failed).",
		},
		[]string{"outcome"},
	)

	jobsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_jobs_evicted_total",
			Help: "Terminal jobs removed by the reaper.",
		},
	)

	sessionsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Stale sessions removed by the reaper.",
		},
	)

	jobsArchivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_jobs_archived_total",
			Help: "Evicted jobs written to the archive.",
		},
	)

	jobsStuck = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_jobs_stuck",
			Help: "Jobs processing for longer than the configured ceiling.",
		},
	)

	jobsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_jobs_pending",
			Help: "Jobs waiting for the dispatcher.",
		},
	)
)

func IncJobCreated(channel string) {
	jobsCreatedTotal.WithLabelValues(norm(channel)).Inc()
}

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncDispatchTick(outcome string) {
	dispatchTicksTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddEvicted(jobs, sessions int) {
	jobsEvictedTotal.Add(float64(jobs))
	sessionsEvictedTotal.Add(float64(sessions))
}

func AddArchived(n int) {
	jobsArchivedTotal.Add(float64(n))
}

func SetStuckJobs(n int) {
	jobsStuck.Set(float64(n))
}

func SetPendingJobs(n int) {
	jobsPending.Set(float64(n))
}
