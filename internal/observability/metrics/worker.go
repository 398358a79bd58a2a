package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobTotal      *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobInFlight   prometheus.Gauge
	chunksCreated *prometheus.HistogramVec
	chunksDropped *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "score",
			Subsystem: "worker",
			Name:      "ingestion_jobs_total",
			Help:      "Total processed ingestion jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "score",
			Subsystem: "worker",
			Name:      "ingestion_job_duration_seconds",
			Help:      "Ingestion job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "score",
			Subsystem: "worker",
			Name:      "ingestion_jobs_in_flight",
			Help:      "Number of in-flight ingestion jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksCreated := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "score",
			Subsystem: "worker",
			Name:      "chunks_created",
			Help:      "Distribution of stored chunks per ingestion job.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	chunksDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "score",
			Subsystem: "worker",
			Name:      "chunks_dropped_total",
			Help:      "Total chunks filtered out by syllabus mapping.",
		},
		[]string{"service"},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, chunksCreated, chunksDropped)

	return &WorkerMetrics{
		registry:      registry,
		jobTotal:      jobTotal,
		jobDuration:   jobDuration,
		jobInFlight:   jobInFlight,
		chunksCreated: chunksCreated,
		chunksDropped: chunksDropped,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveChunks(service string, created, dropped int) {
	m.chunksCreated.WithLabelValues(service).Observe(float64(created))
	if dropped > 0 {
		m.chunksDropped.WithLabelValues(service).Add(float64(dropped))
	}
}
