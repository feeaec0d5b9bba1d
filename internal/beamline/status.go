package beamline

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// runStatusResponder answers state probes for as long as the server runs. It
// is deliberately independent of the serving loop, so probes get answers even
// while that loop blocks waiting for a slow generation.
func (s *PrimaryServer) runStatusResponder(ctx context.Context, statusSub *nats.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := statusSub.NextMsg(s.serve.PollInterval)
		if err == nats.ErrTimeout {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "status channel receive failed")
		}
		if msg.Reply == "" {
			continue
		}
		if err := s.conn.Publish(msg.Reply, s.State().MarshalStatusReply()); err != nil {
			log.WithError(err).Warn("Failed to send status reply")
		}
	}
}
