package generator

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
)

// Generator produces the primary particles of one event per call. Generators
// are not required to be safe for concurrent use; the coordinator serialises
// access.
type Generator interface {
	// Init prepares the generator, e.g. parses parameters or opens input
	// files. It is called once before the first Generate.
	Init() error

	// Generate produces the primaries of the next event. Implementations
	// draw all randomness from rng so runs are reproducible from the seed.
	Generate(rng *rand.Rand) ([]api.Particle, error)
}

// Constructor builds a generator from a run configuration.
type Constructor func(config *api.RunConfig) (Generator, error)

var registry = map[string]Constructor{}

// Register makes a generator kind available to New. It is intended to be
// called from init functions and panics on duplicates.
func Register(kind string, constructor Constructor) {
	if _, exists := registry[kind]; exists {
		panic("generator kind registered twice: " + kind)
	}
	registry[kind] = constructor
}

// New constructs and initialises the generator named by the configuration.
func New(config *api.RunConfig) (Generator, error) {
	constructor, exists := registry[config.Generator]
	if !exists {
		return nil, errors.Errorf("unknown generator %q, registered kinds are %v", config.Generator, RegisteredKinds())
	}
	gen, err := constructor(config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct generator %q", config.Generator)
	}
	if err := gen.Init(); err != nil {
		return nil, errors.Wrapf(err, "failed to initialise generator %q", config.Generator)
	}
	return gen, nil
}

// RegisteredKinds returns the known generator kinds in sorted order.
func RegisteredKinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
