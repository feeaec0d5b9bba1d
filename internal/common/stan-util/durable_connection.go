package stan_util

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/internal/common/util"
)

// DurableConnection wraps a STAN connection and transparently re-establishes
// it when the streaming server reports the client lost. Subscriptions made
// through it are replayed onto every new connection.
type DurableConnection struct {
	mutex sync.RWMutex

	options       []stan.Option
	clientID      string
	stanClusterID string

	subscriptions []func(conn stan.Conn) error

	currentConn stan.Conn
	nc          *nats.Conn
}

// DurableConnect establishes the underlying NATS connection once and keeps it
// for the lifetime of the durable connection. NATS reconnects on its own;
// only the STAN layer needs renewing, and reusing one NATS connection keeps
// message acks working across a STAN connection-lost event.
func DurableConnect(stanClusterID, clientID, urls string, options ...stan.Option) (*DurableConnection, error) {
	nc, err := nats.Connect(urls,
		nats.Name(clientID),
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(-1))
	if err != nil {
		return nil, err
	}

	conn := &DurableConnection{
		stanClusterID: stanClusterID,
		clientID:      clientID,
		nc:            nc,
	}
	conn.options = append(options, stan.SetConnectionLostHandler(conn.onConnectionLost), stan.NatsConn(nc))
	err = conn.reconnect()
	return conn, err
}

// Publish sends data synchronously, waiting for the streaming server ack.
func (c *DurableConnection) Publish(subject string, data []byte) error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.currentConn.Publish(subject, data)
}

func (c *DurableConnection) QueueSubscribe(subject, qgroup string, cb stan.MsgHandler, opts ...stan.SubscriptionOption) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s := func(conn stan.Conn) error {
		_, err := conn.QueueSubscribe(subject, qgroup, cb, opts...)
		return err
	}
	c.subscriptions = append(c.subscriptions, s)

	return s(c.currentConn)
}

func (c *DurableConnection) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := c.currentConn.Close()
	c.nc.Close()
	return err
}

func (c *DurableConnection) Check() error {
	c.mutex.RLock()
	currentConn := c.currentConn
	c.mutex.RUnlock()

	if currentConn == nil {
		return errors.New("no STAN connection")
	}

	natsConn := currentConn.NatsConn()
	if natsConn == nil {
		return errors.New("no underlying NATS connection")
	}

	if !natsConn.IsConnected() {
		return errors.New("not connected to NATS")
	}

	return nil
}

func (c *DurableConnection) onConnectionLost(_ stan.Conn, e error) {
	log.WithError(e).Warn("STAN connection lost, reconnecting")
	// runs in its own goroutine, so it may retry for as long as it takes
	util.RetryUntilSuccess(
		context.Background(),
		c.reconnect,
		func(err error) {
			log.Errorf("Error while reconnecting to STAN: %v", err)
			time.Sleep(1 * time.Second)
		},
	)
}

func (c *DurableConnection) reconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// close any previous connection, in case it is still half open
	if c.currentConn != nil {
		c.closeConnection()
	}

	newConnection, err := stan.Connect(c.stanClusterID, c.clientID, c.options...)
	c.currentConn = newConnection
	if err != nil {
		log.Errorf("Error while connecting to STAN: %v", err)
		return err
	}

	for _, s := range c.subscriptions {
		err := s(c.currentConn)
		if err != nil {
			// on any subscription error consider the connection unsuccessful
			log.Errorf("Error while resubscribing to STAN: %v", err)
			c.closeConnection()
			return err
		}
	}

	return nil
}

func (c *DurableConnection) closeConnection() {
	err := c.currentConn.Close()
	if err != nil {
		log.Errorf("Error while closing STAN connection: %v", err)
	}
}
