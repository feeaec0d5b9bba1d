package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats-streaming-server/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamline-project/beamline/pkg/api"
)

// runTestBroker starts an embedded broker on the given port and returns a
// connection to it. Responders and clients share the connection, so subject
// interest is always registered before a request goes out.
func runTestBroker(t *testing.T, port int) *nats.Conn {
	opts := server.DefaultNatsServerOptions
	opts.Port = port
	broker := test.RunServer(&opts)
	t.Cleanup(broker.Shutdown)

	conn, err := nats.Connect(fmt.Sprintf("nats://127.0.0.1:%d", port))
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func intPtr(v int) *int {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestNew_AppliesDefaults(t *testing.T) {
	cl := New(nil, ConnectionDetails{})
	assert.Equal(t, api.DefaultSubjects(), cl.subjects)
	assert.Equal(t, 100*time.Second, cl.receiveTimeout)
	assert.Equal(t, 3, cl.receiveAttempts)
	assert.Equal(t, 2*time.Second, cl.statusTimeout)
}

func TestDecodeWorkReply(t *testing.T) {
	chunk := &api.Chunk{
		Info:      api.SubEventInfo{EventID: 3, MaxEvents: 5, Part: 2, NParts: 3, StartIndex: 500, Seed: 11},
		Particles: []api.Particle{{PdgCode: 211, Pz: 1, Energy: 1}},
	}
	data, err := json.Marshal(chunk)
	require.NoError(t, err)

	decoded, err := decodeWorkReply(data)
	require.NoError(t, err)
	assert.Equal(t, chunk.Info, decoded.Info)
	assert.Equal(t, chunk.Particles, decoded.Particles)
	assert.False(t, decoded.IsEndOfWork())
}

func TestDecodeWorkReply_Sentinel(t *testing.T) {
	data, err := json.Marshal(api.EndOfWork())
	require.NoError(t, err)

	decoded, err := decodeWorkReply(data)
	require.NoError(t, err)
	assert.True(t, decoded.IsEndOfWork())
	assert.Equal(t, api.EndOfWorkEventID, decoded.Info.EventID)
}

func TestDecodeWorkReply_Error(t *testing.T) {
	_, err := decodeWorkReply([]byte(`{"error":"boom"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server rejected work request: boom")
}

func TestDecodeWorkReply_Malformed(t *testing.T) {
	_, err := decodeWorkReply([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed work reply")

	_, err = decodeWorkReply([]byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither chunk nor error")
}

func TestRequestWork_RetriesReceiveWithoutResending(t *testing.T) {
	conn := runTestBroker(t, 8385)

	var requests int64
	sub, err := conn.Subscribe(api.DefaultSubjects().Work, func(msg *nats.Msg) {
		atomic.AddInt64(&requests, 1)
		// reply well past the client's receive timeout
		time.Sleep(300 * time.Millisecond)
		data, _ := json.Marshal(&api.Chunk{Info: api.SubEventInfo{EventID: 1, MaxEvents: 1, Part: 1, NParts: 1}})
		_ = conn.Publish(msg.Reply, data)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cl := New(conn, ConnectionDetails{ReceiveTimeout: 100 * time.Millisecond, ReceiveAttempts: 5})
	var retries int64
	cl.OnReceiveRetry = func() { atomic.AddInt64(&retries, 1) }

	chunk, err := cl.RequestWork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.Info.EventID)

	// the slow reply must have been waited out, not provoked again
	assert.Equal(t, int64(1), atomic.LoadInt64(&requests))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&retries), int64(1))
}

func TestRequestWork_FailsAfterAllAttempts(t *testing.T) {
	conn := runTestBroker(t, 8386)

	cl := New(conn, ConnectionDetails{ReceiveTimeout: 50 * time.Millisecond, ReceiveAttempts: 2})
	_, err := cl.RequestWork(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reply to work-request after 2 attempts")
}

func TestRequestWork_ContextCancelAborts(t *testing.T) {
	conn := runTestBroker(t, 8387)

	cl := New(conn, ConnectionDetails{ReceiveTimeout: 10 * time.Second, ReceiveAttempts: 3})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	started := time.Now()
	_, err := cl.RequestWork(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestProbeStatus(t *testing.T) {
	conn := runTestBroker(t, 8388)

	var replyData atomic.Value
	replyData.Store("2")
	sub, err := conn.Subscribe(api.DefaultSubjects().Status, func(msg *nats.Msg) {
		_ = conn.Publish(msg.Reply, []byte(replyData.Load().(string)))
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cl := New(conn, ConnectionDetails{})

	state, err := cl.ProbeStatus()
	require.NoError(t, err)
	assert.Equal(t, api.StateReadyToServe, state)

	for _, tc := range []struct {
		reply     string
		available bool
	}{
		{"0", true},
		{"1", true},
		{"2", true},
		{"3", false},
		{"4", false},
	} {
		replyData.Store(tc.reply)
		available, err := cl.IsWorkAvailable()
		require.NoError(t, err)
		assert.Equal(t, tc.available, available, "reply %s", tc.reply)
	}

	replyData.Store("banana")
	_, err = cl.ProbeStatus()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed status reply")
}

func TestRequestRunConfig(t *testing.T) {
	conn := runTestBroker(t, 8390)

	var rejectRequests int64
	sub, err := conn.Subscribe(api.DefaultSubjects().Work, func(msg *nats.Msg) {
		if string(msg.Data) != api.ConfigRequestToken {
			return
		}
		if atomic.LoadInt64(&rejectRequests) != 0 {
			data, _ := json.Marshal(&api.ErrorReply{Error: "nope"})
			_ = conn.Publish(msg.Reply, data)
			return
		}
		data, _ := json.Marshal(&api.RunConfig{Generator: "box", MaxEvents: 4, ChunkSize: 100, Seed: 9})
		_ = conn.Publish(msg.Reply, data)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cl := New(conn, ConnectionDetails{ReceiveTimeout: 2 * time.Second, ReceiveAttempts: 2})

	config, err := cl.RequestRunConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "box", config.Generator)
	assert.Equal(t, 4, config.MaxEvents)
	assert.Equal(t, 100, config.ChunkSize)
	assert.Equal(t, int64(9), config.Seed)

	atomic.StoreInt64(&rejectRequests, 1)
	_, err = cl.RequestRunConfig(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server rejected config request: nope")
}

func TestControlAndWatchChannels(t *testing.T) {
	conn := runTestBroker(t, 8389)

	commands := make(chan string, 4)
	sub, err := conn.Subscribe(api.DefaultSubjects().Control, func(msg *nats.Msg) {
		commands <- string(msg.Data)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cl := New(conn, ConnectionDetails{})

	lines := make(chan string, 4)
	notifySub, err := cl.SubscribeNotifications(func(line string) { lines <- line })
	require.NoError(t, err)
	defer notifySub.Unsubscribe()

	completions := make(chan *api.Completion, 4)
	completionSub, err := cl.SubscribeCompletions(func(completion *api.Completion) { completions <- completion })
	require.NoError(t, err)
	defer completionSub.Unsubscribe()
	require.NoError(t, conn.Flush())

	require.NoError(t, cl.SendReconfigure(&api.ReconfigRequest{Seed: int64Ptr(7), MaxEvents: intPtr(3)}))
	assert.Equal(t, "seed=7 events=3", receiveWithin(t, commands))

	require.NoError(t, cl.SendStop())
	assert.Equal(t, "stop", receiveWithin(t, commands))

	require.NoError(t, conn.Publish(api.DefaultSubjects().Notify, []byte("SERVER : STATUS : hello")))
	assert.Equal(t, "SERVER : STATUS : hello", receiveWithin(t, lines))

	record := &api.Completion{WorkerID: 2, RunID: "run", EventID: 1, Part: 1, NParts: 1, NParticles: 10, Engine: "noop"}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, conn.Publish(api.DefaultSubjects().Completions, []byte("garbage")))
	require.NoError(t, conn.Publish(api.DefaultSubjects().Completions, data))

	received := receiveCompletionWithin(t, completions)
	assert.Equal(t, record.WorkerID, received.WorkerID)
	assert.Equal(t, record.EventID, received.EventID)
	assert.Equal(t, record.Engine, received.Engine)
}

func receiveWithin(t *testing.T, ch <-chan string) string {
	select {
	case value := <-ch:
		return value
	case <-time.After(5 * time.Second):
		require.FailNow(t, "nothing received in time")
		return ""
	}
}

func receiveCompletionWithin(t *testing.T, ch <-chan *api.Completion) *api.Completion {
	select {
	case value := <-ch:
		return value
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no completion received in time")
		return nil
	}
}
