package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/pkg/api"
)

// ConnectionDetails configures a protocol client. Zero timeouts and counts
// fall back to the defaults below.
type ConnectionDetails struct {
	Subjects api.Subjects

	// ReceiveTimeout bounds one wait for a work channel reply. Event
	// generation can take a while, so the default is generous.
	ReceiveTimeout time.Duration

	// ReceiveAttempts is how many times a reply is waited for before the
	// request is abandoned. The request is sent once; only the receive is
	// retried.
	ReceiveAttempts int

	// StatusTimeout bounds a status probe round trip.
	StatusTimeout time.Duration
}

const (
	defaultReceiveTimeout  = 100 * time.Second
	defaultReceiveAttempts = 3
	defaultStatusTimeout   = 2 * time.Second
)

// Client speaks the work, status and control channels over an established
// NATS connection. It is safe for concurrent use.
type Client struct {
	conn            *nats.Conn
	subjects        api.Subjects
	receiveTimeout  time.Duration
	receiveAttempts int
	statusTimeout   time.Duration

	// OnReceiveRetry, when set, is invoked every time a reply wait times out
	// and is retried.
	OnReceiveRetry func()
}

func New(conn *nats.Conn, details ConnectionDetails) *Client {
	if details.Subjects == (api.Subjects{}) {
		details.Subjects = api.DefaultSubjects()
	}
	if details.ReceiveTimeout <= 0 {
		details.ReceiveTimeout = defaultReceiveTimeout
	}
	if details.ReceiveAttempts <= 0 {
		details.ReceiveAttempts = defaultReceiveAttempts
	}
	if details.StatusTimeout <= 0 {
		details.StatusTimeout = defaultStatusTimeout
	}
	return &Client{
		conn:            conn,
		subjects:        details.Subjects,
		receiveTimeout:  details.ReceiveTimeout,
		receiveAttempts: details.ReceiveAttempts,
		statusTimeout:   details.StatusTimeout,
	}
}

// RequestWork asks the server for the next chunk. The sentinel chunk is
// returned as a chunk, not an error; callers check IsEndOfWork.
func (c *Client) RequestWork(ctx context.Context) (*api.Chunk, error) {
	data, err := c.request(ctx, api.WorkRequestToken)
	if err != nil {
		return nil, err
	}
	return decodeWorkReply(data)
}

// RequestRunConfig fetches the effective run configuration of the server.
func (c *Client) RequestRunConfig(ctx context.Context) (*api.RunConfig, error) {
	data, err := c.request(ctx, api.ConfigRequestToken)
	if err != nil {
		return nil, err
	}
	var failure api.ErrorReply
	if err := json.Unmarshal(data, &failure); err != nil {
		return nil, errors.Wrap(err, "malformed config reply")
	}
	if failure.Error != "" {
		return nil, errors.Errorf("server rejected config request: %s", failure.Error)
	}
	config := &api.RunConfig{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "malformed config reply")
	}
	return config, nil
}

// request sends one request on the work channel and waits for the reply,
// retrying the receive without re-sending so a slow server never serves the
// same request twice.
func (c *Client) request(ctx context.Context, token string) ([]byte, error) {
	inbox := nats.NewInbox()
	sub, err := c.conn.SubscribeSync(inbox)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to reply inbox")
	}
	defer sub.Unsubscribe()

	if err := c.conn.PublishRequest(c.subjects.Work, inbox, []byte(token)); err != nil {
		return nil, errors.Wrapf(err, "failed to send %s", token)
	}

	for attempt := 1; attempt <= c.receiveAttempts; attempt++ {
		waitCtx, cancel := context.WithTimeout(ctx, c.receiveTimeout)
		msg, err := sub.NextMsgWithContext(waitCtx)
		cancel()
		if err == nil {
			return msg.Data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrapf(err, "failed waiting for %s reply", token)
		}
		if attempt < c.receiveAttempts {
			log.Warnf("No reply to %s within %v, waiting again (attempt %d of %d)",
				token, c.receiveTimeout, attempt, c.receiveAttempts)
			if c.OnReceiveRetry != nil {
				c.OnReceiveRetry()
			}
		}
	}
	return nil, errors.Errorf("no reply to %s after %d attempts", token, c.receiveAttempts)
}

// workReply is the union of the possible work channel replies; the error key
// discriminates.
type workReply struct {
	Error     string            `json:"error"`
	Info      *api.SubEventInfo `json:"info"`
	Particles []api.Particle    `json:"particles"`
}

func decodeWorkReply(data []byte) (*api.Chunk, error) {
	var reply workReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, errors.Wrap(err, "malformed work reply")
	}
	if reply.Error != "" {
		return nil, errors.Errorf("server rejected work request: %s", reply.Error)
	}
	if reply.Info == nil {
		return nil, errors.New("work reply carries neither chunk nor error")
	}
	return &api.Chunk{Info: *reply.Info, Particles: reply.Particles}, nil
}

// ProbeStatus asks the status responder for the server lifecycle state.
func (c *Client) ProbeStatus() (api.State, error) {
	msg, err := c.conn.Request(c.subjects.Status, []byte(api.StatusRequestToken), c.statusTimeout)
	if err != nil {
		return api.StateStopped, errors.Wrap(err, "status probe failed")
	}
	state, ok := api.ParseStatusReply(msg.Data)
	if !ok {
		return api.StateStopped, errors.Errorf("malformed status reply %q", string(msg.Data))
	}
	return state, nil
}

// IsWorkAvailable interprets the server state: an initialising or generating
// server will have work eventually, only an idle or stopped one will not.
func (c *Client) IsWorkAvailable() (bool, error) {
	state, err := c.ProbeStatus()
	if err != nil {
		return false, err
	}
	switch state {
	case api.StateInitializing, api.StateWaitingEvent, api.StateReadyToServe:
		return true, nil
	default:
		return false, nil
	}
}

// SendReconfigure publishes a reconfiguration command on the control channel.
// Delivery is flushed before returning; whether the server accepts the
// command is reported on the notification channel, not here.
func (c *Client) SendReconfigure(request *api.ReconfigRequest) error {
	return c.sendControl(request.Command())
}

// SendStop asks the server to shut down.
func (c *Client) SendStop() error {
	return c.sendControl("stop")
}

func (c *Client) sendControl(command string) error {
	if err := c.conn.Publish(c.subjects.Control, []byte(command)); err != nil {
		return errors.Wrap(err, "failed to publish control command")
	}
	return errors.Wrap(c.conn.Flush(), "failed to flush control command")
}
