package beamline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/beamline-project/beamline/internal/beamline/configuration"
	"github.com/beamline-project/beamline/internal/beamline/metrics"
	"github.com/beamline-project/beamline/internal/generator"
	"github.com/beamline-project/beamline/pkg/api"
)

type generationResult struct {
	event *generator.Event
	err   error
}

// PrimaryServer owns event generation and distributes the resulting primaries
// to workers over the work channel. One serving goroutine handles all work
// and control traffic, so the cursor below needs no locking; only the
// lifecycle state is shared, with the status responder and the generation
// goroutine, and is accessed atomically.
type PrimaryServer struct {
	config      *configuration.BeamlineConfiguration
	serve       configuration.ServeConfiguration
	conn        *nats.Conn
	coordinator *generator.Coordinator
	pipe        *driverPipe

	state int32

	// serving cursor, owned by the serving loop
	eventCounter int
	partCounter  int
	nParts       int
	needNewEvent bool
	current      *generator.Event

	// effective budget of the current cycle
	maxEvents int
	chunkSize int

	generation chan generationResult
	controlCh  chan string
}

func NewPrimaryServer(config *configuration.BeamlineConfiguration, conn *nats.Conn) *PrimaryServer {
	serve := config.Serve
	if serve.PollInterval <= 0 {
		serve.PollInterval = 500 * time.Millisecond
	}
	if serve.ReplySendTimeout <= 0 {
		serve.ReplySendTimeout = 5 * time.Second
	}
	if serve.ControlBacklog <= 0 {
		serve.ControlBacklog = 16
	}
	return &PrimaryServer{
		config:      config,
		serve:       serve,
		conn:        conn,
		coordinator: generator.NewCoordinator(),
		pipe:        openDriverPipe(),
		controlCh:   make(chan string, serve.ControlBacklog),
	}
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *PrimaryServer) State() api.State {
	return api.State(atomic.LoadInt32(&s.state))
}

func (s *PrimaryServer) setState(state api.State) {
	old := api.State(atomic.SwapInt32(&s.state, int32(state)))
	if old != state {
		log.Infof("Server state %s -> %s", old, state)
	}
}

func (s *PrimaryServer) swapState(from, to api.State) bool {
	swapped := atomic.CompareAndSwapInt32(&s.state, int32(from), int32(to))
	if swapped {
		log.Infof("Server state %s -> %s", from, to)
	}
	return swapped
}

// Serve runs the server until the context is cancelled, the run completes in
// non-service mode, or a stop command arrives.
func (s *PrimaryServer) Serve(ctx context.Context) error {
	if err := s.initialize(); err != nil {
		return err
	}

	subjects := s.config.Nats.Subjects
	workSub, err := s.conn.SubscribeSync(subjects.Work)
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to work subject %s", subjects.Work)
	}
	defer workSub.Unsubscribe()

	statusSub, err := s.conn.SubscribeSync(subjects.Status)
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to status subject %s", subjects.Status)
	}
	defer statusSub.Unsubscribe()

	controlSub, err := s.conn.Subscribe(subjects.Control, s.enqueueControl)
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to control subject %s", subjects.Control)
	}
	defer controlSub.Unsubscribe()

	collector := &metrics.StateCollector{CurrentState: s.State}
	prometheus.MustRegister(collector)
	defer prometheus.Unregister(collector)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.runStatusResponder(ctx, statusSub)
	})
	g.Go(func() error {
		defer cancel()
		return s.runServingLoop(ctx, workSub)
	})
	return g.Wait()
}

func (s *PrimaryServer) initialize() error {
	s.setState(api.StateInitializing)
	if err := s.coordinator.Configure(&s.config.Run); err != nil {
		return errors.Wrap(err, "initial configuration failed")
	}
	s.beginCycle()
	return nil
}

// beginCycle resets the serving cursor for the freshly configured run and
// starts generating its first event.
func (s *PrimaryServer) beginCycle() {
	effective := s.coordinator.Config()
	s.maxEvents = effective.MaxEvents
	s.chunkSize = effective.ChunkSize
	s.eventCounter = 0
	s.partCounter = 0
	s.nParts = 0
	s.needNewEvent = true
	s.current = nil

	s.notifyf("new run %s: generator=%s events=%d chunkSize=%d",
		s.coordinator.RunID(), effective.Generator, s.maxEvents, s.chunkSize)

	if s.maxEvents == 0 {
		s.enterIdle()
		return
	}
	s.setState(api.StateWaitingEvent)
	s.kickGeneration()
}

// kickGeneration produces the next event in the background and parks the
// result in the single-slot future the serving loop joins. At most one
// generation is in flight at any time.
func (s *PrimaryServer) kickGeneration() {
	future := make(chan generationResult, 1)
	s.generation = future
	go func() {
		started := time.Now()
		event, err := s.coordinator.ProduceEvent()
		if err != nil {
			log.WithError(err).Error("Event generation failed")
			s.notifyf("event generation failed: %v", err)
			s.setState(api.StateStopped)
			future <- generationResult{err: err}
			return
		}
		metrics.RecordEventGenerated(time.Since(started))
		s.swapState(api.StateWaitingEvent, api.StateReadyToServe)
		future <- generationResult{event: event}
	}()
}

// joinGeneration blocks until the in-flight generation completes and moves
// the cursor onto the new event. It reports false when no event became
// available, in which case the requester has been answered already.
func (s *PrimaryServer) joinGeneration(ctx context.Context, msg *nats.Msg) bool {
	select {
	case result := <-s.generation:
		if result.err != nil {
			// the generation goroutine has stopped the server already
			s.replySentinel(msg)
			return false
		}
		s.current = result.event
		s.eventCounter++
		s.partCounter = 0
		s.nParts = NumChunks(len(result.event.Particles), s.chunkSize)
		s.needNewEvent = false
		s.setState(api.StateReadyToServe)
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *PrimaryServer) enterIdle() {
	if s.State() == api.StateIdle {
		return
	}
	s.setState(api.StateIdle)
	s.notifyf("run %s complete: served %d of %d events", s.coordinator.RunID(), s.eventCounter, s.maxEvents)
	if s.serve.AsService {
		s.notify("awaiting control input")
	}
}
