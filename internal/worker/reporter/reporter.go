package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	stan_util "github.com/beamline-project/beamline/internal/common/stan-util"
	"github.com/beamline-project/beamline/internal/worker/configuration"
	"github.com/beamline-project/beamline/pkg/api"
)

// Reporter publishes chunk completion records.
type Reporter interface {
	Report(completion *api.Completion) error
	Close() error
}

// New selects the reporting transport: durable NATS Streaming when
// configured, plain NATS publishes otherwise.
func New(conn *nats.Conn, config *configuration.WorkerConfiguration) (Reporter, error) {
	subject := config.Nats.Subjects.Completions
	if !config.Reporting.Enabled {
		return &natsReporter{conn: conn, subject: subject}, nil
	}

	clientID := config.Reporting.ClientID
	if clientID == "" {
		// The streaming server bumps the previous session when a client id is
		// reused, so a restarted worker must not inherit its old identity.
		clientID = fmt.Sprintf("beamline-worker-%d-%s", config.WorkerID, uuid.New())
	}
	durable, err := stan_util.DurableConnect(
		config.Reporting.ClusterID,
		clientID,
		strings.Join(config.Nats.Servers, ","))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to NATS Streaming")
	}
	return &stanReporter{conn: durable, subject: subject}, nil
}

// natsReporter publishes records fire-and-forget; a lost record costs only
// bookkeeping.
type natsReporter struct {
	conn    *nats.Conn
	subject string
}

func (r *natsReporter) Report(completion *api.Completion) error {
	data, err := json.Marshal(completion)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject, data)
}

// Close leaves the connection open; the worker owns it.
func (r *natsReporter) Close() error {
	return nil
}

// stanReporter publishes through the durable streaming connection and waits
// for the broker ack, so completion records survive restarts.
type stanReporter struct {
	conn    *stan_util.DurableConnection
	subject string
}

func (r *stanReporter) Report(completion *api.Completion) error {
	data, err := json.Marshal(completion)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject, data)
}

func (r *stanReporter) Close() error {
	return r.conn.Close()
}
