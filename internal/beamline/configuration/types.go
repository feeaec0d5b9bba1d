package configuration

import (
	"time"

	"github.com/beamline-project/beamline/pkg/api"
)

type NatsConfiguration struct {
	Servers  []string
	Subjects api.Subjects
}

type ServeConfiguration struct {
	// AsService keeps the server alive once the event budget is exhausted,
	// awaiting control commands. Without it the server exits instead.
	AsService bool

	// PollInterval is how long a blocking receive waits before the serving
	// and status loops re-check for shutdown.
	PollInterval time.Duration

	// ReplySendTimeout bounds flushing a reply to a requester.
	ReplySendTimeout time.Duration

	// ControlBacklog is how many control commands may queue before new ones
	// are dropped.
	ControlBacklog int
}

type BeamlineConfiguration struct {
	MetricsPort uint16
	HttpPort    uint16

	Nats  NatsConfiguration
	Serve ServeConfiguration

	// Run is the initial run configuration; it can be replaced over the
	// control channel at run time.
	Run api.RunConfig
}
