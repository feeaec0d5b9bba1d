package natsutil

import (
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Connect dials the NATS servers with reconnect behaviour suited to
// long-running components: unlimited reconnect attempts, an unbounded
// reconnect buffer and logged connection transitions.
func Connect(servers []string, clientName string) (*nats.Conn, error) {
	return nats.Connect(strings.Join(servers, ","),
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS connection lost")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
		}))
}

// ConnectionHealth adapts a NATS connection to the health.Checker interface.
type ConnectionHealth struct {
	Conn *nats.Conn
}

func (h *ConnectionHealth) Check() error {
	if h.Conn == nil {
		return errors.New("no NATS connection")
	}
	if !h.Conn.IsConnected() {
		return errors.New("not connected to NATS")
	}
	return nil
}
