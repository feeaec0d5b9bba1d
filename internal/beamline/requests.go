package beamline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/internal/beamline/metrics"
	"github.com/beamline-project/beamline/pkg/api"
)

// runServingLoop is the heart of the server: it answers work and config
// requests in arrival order and applies control commands between them.
func (s *PrimaryServer) runServingLoop(ctx context.Context, workSub *nats.Subscription) error {
	for {
		if s.State() == api.StateStopped {
			return nil
		}
		if s.State() == api.StateIdle && !s.serve.AsService {
			s.setState(api.StateStopped)
			return nil
		}

		select {
		case <-ctx.Done():
			s.setState(api.StateStopped)
			return nil
		case command := <-s.controlCh:
			s.handleControl(command)
			continue
		default:
		}

		msg, err := workSub.NextMsg(s.serve.PollInterval)
		if err == nats.ErrTimeout {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "work channel receive failed")
		}
		s.handleRequest(ctx, msg)
	}
}

func (s *PrimaryServer) handleRequest(ctx context.Context, msg *nats.Msg) {
	switch string(msg.Data) {
	case api.WorkRequestToken:
		s.handleWorkRequest(ctx, msg)
	case api.ConfigRequestToken:
		s.handleConfigRequest(msg)
	default:
		metrics.RecordRequest(metrics.RequestOutcomeError)
		token := string(msg.Data)
		if len(token) > 64 {
			token = token[:64] + "..."
		}
		log.Warnf("Rejecting request with unknown token %q", token)
		s.reply(msg, encodeReply(&api.ErrorReply{Error: fmt.Sprintf("unknown request token %q", token)}))
	}
}

// handleConfigRequest answers with the effective run configuration. It never
// changes state or cursor, so workers can fetch their configuration at any
// point of the run.
func (s *PrimaryServer) handleConfigRequest(msg *nats.Msg) {
	metrics.RecordRequest(metrics.RequestOutcomeConfig)
	s.reply(msg, encodeReply(s.coordinator.Config()))
}

func (s *PrimaryServer) handleWorkRequest(ctx context.Context, msg *nats.Msg) {
	if s.State() == api.StateIdle || s.State() == api.StateStopped {
		s.replySentinel(msg)
		return
	}

	if s.needNewEvent {
		// the exhaustion check precedes any cursor movement, so a request
		// against a spent budget gets the sentinel and changes nothing
		if s.eventCounter >= s.maxEvents {
			s.enterIdle()
			s.replySentinel(msg)
			return
		}
		if !s.joinGeneration(ctx, msg) {
			return
		}
	}

	chunk := s.buildChunk()
	if chunk.Info.Part == 1 {
		s.pipe.NotifyEvent(s.eventCounter)
	}
	s.advanceCursor()
	s.replyChunk(msg, chunk)
}

func (s *PrimaryServer) buildChunk() *api.Chunk {
	start, end := ChunkBounds(len(s.current.Particles), s.chunkSize, s.partCounter)
	return &api.Chunk{
		Info: api.SubEventInfo{
			EventID:    s.eventCounter,
			MaxEvents:  s.maxEvents,
			Part:       s.partCounter + 1,
			NParts:     s.nParts,
			StartIndex: start,
			Seed:       int64(s.eventCounter) + s.coordinator.BaseSeed(),
			Header:     s.current.Header,
		},
		Particles: s.current.Particles[start:end],
	}
}

// advanceCursor moves to the next part and, at the end of an event, either
// pipelines the next generation or declares the run complete.
func (s *PrimaryServer) advanceCursor() {
	s.partCounter++
	if s.partCounter < s.nParts {
		return
	}
	s.needNewEvent = true
	s.current = nil
	if s.eventCounter < s.maxEvents {
		s.setState(api.StateWaitingEvent)
		s.kickGeneration()
		return
	}
	s.enterIdle()
}

func (s *PrimaryServer) replyChunk(msg *nats.Msg, chunk *api.Chunk) {
	metrics.RecordRequest(metrics.RequestOutcomeChunk)
	metrics.RecordChunkServed(len(chunk.Particles))
	log.Debugf("Serving event %d part %d/%d with %d particles",
		chunk.Info.EventID, chunk.Info.Part, chunk.Info.NParts, len(chunk.Particles))
	s.reply(msg, encodeReply(chunk))
}

func (s *PrimaryServer) replySentinel(msg *nats.Msg) {
	metrics.RecordRequest(metrics.RequestOutcomeSentinel)
	s.reply(msg, encodeReply(api.EndOfWork()))
}

// reply sends a payload back to the requester, bounding the flush so a dead
// broker connection cannot wedge the serving loop.
func (s *PrimaryServer) reply(msg *nats.Msg, payload []byte) {
	if msg.Reply == "" {
		log.Warn("Dropping request without reply subject")
		return
	}
	if err := s.conn.Publish(msg.Reply, payload); err != nil {
		log.WithError(err).Warn("Failed to publish reply")
		return
	}
	if err := s.conn.FlushTimeout(s.serve.ReplySendTimeout); err != nil {
		log.WithError(err).Warn("Failed to flush reply within timeout")
	}
}

func encodeReply(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// replies are plain structs; this cannot fail
		panic(err)
	}
	return data
}
