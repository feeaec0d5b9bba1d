package client

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/pkg/api"
)

// SubscribeNotifications delivers server status lines to the handler until
// the returned subscription is unsubscribed.
func (c *Client) SubscribeNotifications(handler func(line string)) (*nats.Subscription, error) {
	return c.conn.Subscribe(c.subjects.Notify, func(msg *nats.Msg) {
		handler(string(msg.Data))
	})
}

// SubscribeCompletions delivers worker completion records to the handler.
// Records that fail to decode are logged and skipped.
func (c *Client) SubscribeCompletions(handler func(completion *api.Completion)) (*nats.Subscription, error) {
	return c.conn.Subscribe(c.subjects.Completions, func(msg *nats.Msg) {
		completion := &api.Completion{}
		if err := json.Unmarshal(msg.Data, completion); err != nil {
			log.WithError(err).Warn("Skipping malformed completion record")
			return
		}
		handler(completion)
	})
}
