package generator

import (
	"math/rand"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("extkin", newExtKinGenerator)
}

// extKinGenerator replays pre-generated events from a kinematics file in
// order. When the file is exhausted it rewinds, so the event budget may
// exceed the file length. It holds a read cursor and is therefore never
// shared through the generator cache.
type extKinGenerator struct {
	fileName string

	events [][]api.Particle
	next   int
}

func newExtKinGenerator(config *api.RunConfig) (Generator, error) {
	return &extKinGenerator{fileName: config.ExtKinFile}, nil
}

func (g *extKinGenerator) Init() error {
	events, err := readKinematicsFile(g.fileName)
	if err != nil {
		return err
	}
	g.events = events
	g.next = 0
	return nil
}

func (g *extKinGenerator) Generate(_ *rand.Rand) ([]api.Particle, error) {
	event := g.events[g.next]
	g.next = (g.next + 1) % len(g.events)

	// callers may shift vertices when embedding, so hand out a copy
	particles := make([]api.Particle, len(event))
	copy(particles, event)
	return particles, nil
}
