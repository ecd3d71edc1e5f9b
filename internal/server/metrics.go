package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "prguard", Subsystem: "serving", Name: "predictions_total", Help: "Scored PR items by result label."},
		[]string{"label"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "prguard", Subsystem: "serving", Name: "request_duration_seconds", Help: "Request latency by endpoint.", Buckets: prometheus.DefBuckets},
		[]string{"endpoint"},
	)
	modelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "prguard", Subsystem: "serving", Name: "model_loaded", Help: "1 when the model artifact is loaded."},
	)
)

func init() {
	_ = prometheus.Register(predictionsTotal)
	_ = prometheus.Register(requestDuration)
	_ = prometheus.Register(modelLoadedGauge)
}
