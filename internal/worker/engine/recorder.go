package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("recorder", newRecorderEngine)
}

// recordedChunk is one line of a recorder output file.
type recordedChunk struct {
	WorkerID  int              `json:"worker_id"`
	Info      api.SubEventInfo `json:"info"`
	Particles []api.Particle   `json:"particles"`
}

// recorderEngine appends every processed chunk to a per-worker JSONL file.
// Its output doubles as a kinematics file, so recorded runs can be replayed
// through the extkin generator.
type recorderEngine struct {
	workerID int
	file     *os.File
	encoder  *json.Encoder
}

func newRecorderEngine(config Config) (Engine, error) {
	dir := config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("worker-%d.jsonl", config.WorkerID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open output file %s", path)
	}
	return &recorderEngine{
		workerID: config.WorkerID,
		file:     file,
		encoder:  json.NewEncoder(file),
	}, nil
}

func (e *recorderEngine) Name() string {
	return "recorder"
}

func (e *recorderEngine) Process(_ context.Context, chunk *api.Chunk) error {
	record := recordedChunk{
		WorkerID:  e.workerID,
		Info:      chunk.Info,
		Particles: chunk.Particles,
	}
	if err := e.encoder.Encode(&record); err != nil {
		return errors.Wrapf(err, "failed to record event %d part %d", chunk.Info.EventID, chunk.Info.Part)
	}
	return nil
}

func (e *recorderEngine) Close() error {
	return e.file.Close()
}
