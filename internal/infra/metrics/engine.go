package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(recognizeLatency, chunksTranscribed) }

var recognizeLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "speech_recognize_latency_seconds",
		Help:    "Speech engine call latency distribution per backend/model.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	},
	[]string{"engine", "model", "success"},
)

var chunksTranscribed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "speech_chunks_transcribed_total",
		Help: "Audio chunks submitted to the speech engine per backend/model.",
	},
	[]string{"engine", "model"},
)

func ObserveRecognize(engine, model string, seconds float64, success bool) {
	recognizeLatency.WithLabelValues(norm(engine), norm(model), strconv.FormatBool(success)).
		Observe(seconds)
	chunksTranscribed.WithLabelValues(norm(engine), norm(model)).Inc()
}
