package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reembedTotal    *prometheus.CounterVec
	reembedDuration *prometheus.HistogramVec
	reembedInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reembedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legaledge",
			Subsystem: "worker",
			Name:      "reembed_total",
			Help:      "Total chunk re-embedding attempts by status.",
		},
		[]string{"service", "status"},
	)
	reembedDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legaledge",
			Subsystem: "worker",
			Name:      "reembed_duration_seconds",
			Help:      "Chunk re-embedding duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	reembedInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "legaledge",
			Subsystem: "worker",
			Name:      "reembed_in_flight",
			Help:      "Number of in-flight re-embedding tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(reembedTotal, reembedDuration, reembedInFlight)

	return &WorkerMetrics{
		registry:        registry,
		reembedTotal:    reembedTotal,
		reembedDuration: reembedDuration,
		reembedInFlight: reembedInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReembed() {
	m.reembedInFlight.Inc()
}

func (m *WorkerMetrics) FinishReembed(service string, duration time.Duration, err error) {
	m.reembedInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reembedTotal.WithLabelValues(service, status).Inc()
	m.reembedDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
