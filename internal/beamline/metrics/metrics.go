package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beamline-project/beamline/pkg/api"
)

const MetricPrefix = "beamline_"

// Work request outcomes.
const (
	RequestOutcomeChunk    = "chunk"
	RequestOutcomeSentinel = "sentinel"
	RequestOutcomeConfig   = "config"
	RequestOutcomeError    = "error"
)

var eventsGenerated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: MetricPrefix + "server_events_generated_total",
		Help: "Number of events produced by the generation stack",
	})

var generationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    MetricPrefix + "server_event_generation_seconds",
		Help:    "Event generation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	})

var chunksServed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: MetricPrefix + "server_chunks_served_total",
		Help: "Number of work chunks served to workers",
	})

var particlesServed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: MetricPrefix + "server_particles_served_total",
		Help: "Number of primary particles served to workers",
	})

var requests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricPrefix + "server_requests_total",
		Help: "Work channel requests by outcome",
	},
	[]string{"outcome"})

var reconfigurations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricPrefix + "server_reconfigurations_total",
		Help: "Control channel reconfigurations by result",
	},
	[]string{"result"})

func RecordEventGenerated(duration time.Duration) {
	eventsGenerated.Inc()
	generationDuration.Observe(duration.Seconds())
}

func RecordChunkServed(nParticles int) {
	chunksServed.Inc()
	particlesServed.Add(float64(nParticles))
}

func RecordRequest(outcome string) {
	requests.WithLabelValues(outcome).Inc()
}

func RecordReconfiguration(result string) {
	reconfigurations.WithLabelValues(result).Inc()
}

var stateDesc = prometheus.NewDesc(
	MetricPrefix+"server_state",
	"Lifecycle state of the primary server, one-hot per state",
	[]string{"state"},
	nil,
)

// StateCollector exports the server lifecycle state. It is registered while
// the server runs and unregistered when serving stops, so test processes can
// start servers repeatedly.
type StateCollector struct {
	CurrentState func() api.State
}

func (c *StateCollector) Describe(desc chan<- *prometheus.Desc) {
	desc <- stateDesc
}

func (c *StateCollector) Collect(metrics chan<- prometheus.Metric) {
	current := c.CurrentState()
	for state := api.StateInitializing; state <= api.StateStopped; state++ {
		value := 0.0
		if state == current {
			value = 1.0
		}
		metrics <- prometheus.MustNewConstMetric(stateDesc, prometheus.GaugeValue, value, state.String())
	}
}
