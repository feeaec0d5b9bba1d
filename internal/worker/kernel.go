package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/internal/worker/engine"
	"github.com/beamline-project/beamline/internal/worker/metrics"
	"github.com/beamline-project/beamline/internal/worker/reporter"
	"github.com/beamline-project/beamline/pkg/api"
	"github.com/beamline-project/beamline/pkg/client"
)

// Kernel is the processing loop of one worker: probe the server, request a
// chunk, run it through the engine, report the completion, repeat until the
// run is exhausted.
type Kernel struct {
	id       int
	client   *client.Client
	engine   engine.Engine
	reporter reporter.Reporter
	log      *log.Entry
}

func NewKernel(id int, protocolClient *client.Client, eng engine.Engine, rep reporter.Reporter) *Kernel {
	return &Kernel{
		id:       id,
		client:   protocolClient,
		engine:   eng,
		reporter: rep,
		log:      log.WithField("worker", fmt.Sprintf("W%d", id)),
	}
}

// Run processes chunks until no work remains, the server goes away, or the
// context is cancelled. A clean exhaustion returns nil.
func (k *Kernel) Run(ctx context.Context) error {
	k.log.Infof("Worker kernel starting with engine %s", k.engine.Name())
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		available, err := k.client.IsWorkAvailable()
		if err != nil {
			k.log.WithError(err).Warn("Status probe failed, assuming the server is gone")
			return nil
		}
		if !available {
			k.log.Info("Server reports no more work, shutting down")
			return nil
		}

		chunk, err := k.client.RequestWork(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "work request failed")
		}
		if chunk.IsEndOfWork() {
			k.log.Info("Received end of work")
			return nil
		}

		if err := k.process(ctx, chunk); err != nil {
			return err
		}
	}
}

func (k *Kernel) process(ctx context.Context, chunk *api.Chunk) error {
	started := time.Now()
	if err := k.engine.Process(ctx, chunk); err != nil {
		return errors.Wrapf(err, "engine %s failed on event %d part %d",
			k.engine.Name(), chunk.Info.EventID, chunk.Info.Part)
	}
	elapsed := time.Since(started)
	metrics.RecordChunkProcessed(len(chunk.Particles), elapsed)
	k.log.Infof("Processed event %d part %d/%d with %d particles in %s",
		chunk.Info.EventID, chunk.Info.Part, chunk.Info.NParts, len(chunk.Particles), elapsed)

	completion := &api.Completion{
		WorkerID:   k.id,
		RunID:      chunk.Info.Header.RunID,
		EventID:    chunk.Info.EventID,
		Part:       chunk.Info.Part,
		NParts:     chunk.Info.NParts,
		NParticles: len(chunk.Particles),
		Engine:     k.engine.Name(),
		DurationMs: elapsed.Milliseconds(),
		FinishedAt: time.Now().UTC(),
	}
	if err := k.reporter.Report(completion); err != nil {
		metrics.RecordReportFailure()
		k.log.WithError(err).Warn("Failed to report chunk completion")
	}
	return nil
}
