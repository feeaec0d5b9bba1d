package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const BeamlineWorkerMetricsPrefix = "beamline_worker_"

var chunksProcessed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: BeamlineWorkerMetricsPrefix + "chunks_processed_total",
		Help: "Number of work chunks processed",
	})

var particlesProcessed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: BeamlineWorkerMetricsPrefix + "particles_processed_total",
		Help: "Number of primary particles processed",
	})

var processingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    BeamlineWorkerMetricsPrefix + "chunk_processing_seconds",
		Help:    "Chunk processing latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	})

var receiveRetries = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: BeamlineWorkerMetricsPrefix + "work_receive_retries_total",
		Help: "Number of work reply waits that timed out and were retried",
	})

var reportFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: BeamlineWorkerMetricsPrefix + "completion_report_failures_total",
		Help: "Number of completion records that could not be published",
	})

func RecordChunkProcessed(nParticles int, duration time.Duration) {
	chunksProcessed.Inc()
	particlesProcessed.Add(float64(nParticles))
	processingDuration.Observe(duration.Seconds())
}

func RecordReceiveRetry() {
	receiveRetries.Inc()
}

func RecordReportFailure() {
	reportFailures.Inc()
}
