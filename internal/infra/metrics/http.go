package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(uploadsTotal, uploadBytesTotal) }

var uploadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "uploads_total",
		Help: "Upload attempts by outcome (accepted/rejected/rate_limited).",
	},
	[]string{"outcome"},
)

var uploadBytesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "upload_bytes_total",
		Help: "Total bytes of accepted upload payloads.",
	},
)

func IncUpload(outcome string) {
	uploadsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddUploadBytes(n int64) {
	if n > 0 {
		uploadBytesTotal.Add(float64(n))
	}
}
