package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobStageSeconds) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "transcription_jobs_processed_total",
		Help: "Total number of transcription jobs processed, labeled by final status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var jobStageSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "transcription_job_stage_seconds",
		Help:    "Wall-clock time spent per pipeline stage.",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
	},
	[]string{"stage"}, // 'extract', 'transcribe', 'save'
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, seconds float64) {
	jobStageSeconds.WithLabelValues(norm(stage)).Observe(seconds)
}
