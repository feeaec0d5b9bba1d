package engine

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
)

// Engine consumes the primaries of one chunk. Implementations are driven by
// a single kernel goroutine.
type Engine interface {
	Name() string
	Process(ctx context.Context, chunk *api.Chunk) error
	Close() error
}

// Config carries the worker-side settings engines are built from.
type Config struct {
	WorkerID  int
	OutputDir string
}

// Constructor builds an engine from the worker configuration.
type Constructor func(config Config) (Engine, error)

var registry = map[string]Constructor{}

// Register makes an engine kind available to New. It is intended to be
// called from init functions and panics on duplicates.
func Register(kind string, constructor Constructor) {
	if _, exists := registry[kind]; exists {
		panic("engine kind registered twice: " + kind)
	}
	registry[kind] = constructor
}

// New constructs the engine named kind.
func New(kind string, config Config) (Engine, error) {
	constructor, exists := registry[kind]
	if !exists {
		return nil, errors.Errorf("unknown engine %q, registered kinds are %v", kind, RegisteredKinds())
	}
	eng, err := constructor(config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct engine %q", kind)
	}
	return eng, nil
}

// RegisteredKinds returns the known engine kinds in sorted order.
func RegisteredKinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
