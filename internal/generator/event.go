package generator

import "github.com/beamline-project/beamline/pkg/api"

// Event is one fully generated event, ready to be partitioned into chunks.
type Event struct {
	Header    api.EventHeader
	Particles []api.Particle
}
