package engine

import (
	"context"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("noop", newNoopEngine)
}

// noopEngine discards chunks, for load tests that exercise only the
// distribution path.
type noopEngine struct{}

func newNoopEngine(Config) (Engine, error) {
	return noopEngine{}, nil
}

func (noopEngine) Name() string {
	return "noop"
}

func (noopEngine) Process(context.Context, *api.Chunk) error {
	return nil
}

func (noopEngine) Close() error {
	return nil
}
