package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(generationLatency, generationFallbacksTotal) }

var (
	generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_seconds",
			Help:    "Generation call latency per provider.",
			Buckets: []float64{5, 15, 30, 45, 60, 90, 120, 180, 300, 600},
		},
		[]string{"provider", "success"},
	)

	generationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_fallbacks_total",
			Help: "Times the fallback model was used after the primary failed.",
		},
		[]string{"provider"},
	)
)

func ObserveGeneration(provider string, d time.Duration, success bool) {
	generationLatency.WithLabelValues(norm(provider), strconv.FormatBool(success)).Observe(d.Seconds())
}

func IncGenerationFallback(provider string) {
	generationFallbacksTotal.WithLabelValues(norm(provider)).Inc()
}
