package configuration

import (
	"time"

	beamlineconfig "github.com/beamline-project/beamline/internal/beamline/configuration"
)

type RequestConfiguration struct {
	// ReceiveTimeout bounds one wait for a work reply; the wait is retried
	// ReceiveAttempts times before the worker gives up.
	ReceiveTimeout  time.Duration
	ReceiveAttempts int

	// StatusTimeout bounds a status probe round trip.
	StatusTimeout time.Duration

	// ConfigFetchAttempts and ConfigFetchDelay govern the startup fetch of
	// the run configuration. Workers are often launched before the server,
	// so this retries patiently.
	ConfigFetchAttempts int
	ConfigFetchDelay    time.Duration
}

type EngineConfiguration struct {
	// Name overrides the engine named in the run configuration. Empty means
	// follow the server.
	Name string

	// OutputDir is where file-writing engines place their output.
	OutputDir string
}

// DurableReportingConfiguration routes completion records through NATS
// Streaming instead of plain publishes, so they survive broker restarts.
type DurableReportingConfiguration struct {
	Enabled   bool
	ClusterID string
	ClientID  string
}

type WorkerConfiguration struct {
	MetricsPort uint16

	// WorkerID distinguishes workers in logs, completion records and output
	// file names.
	WorkerID int

	Nats      beamlineconfig.NatsConfiguration
	Request   RequestConfiguration
	Engine    EngineConfiguration
	Reporting DurableReportingConfiguration
}
