package generator

import (
	"math/rand"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("gun", newGunGenerator)
}

// gunGenerator fires particles with one fixed momentum vector, for detector
// alignment and single-track studies. Multiplicity copies are emitted per
// event.
type gunGenerator struct {
	multiplicity int
	params       map[string]string

	template api.Particle
}

func newGunGenerator(config *api.RunConfig) (Generator, error) {
	multiplicity := config.Multiplicity
	if multiplicity == 0 {
		multiplicity = 1
	}
	return &gunGenerator{
		multiplicity: multiplicity,
		params:       config.Params,
	}, nil
}

func (g *gunGenerator) Init() error {
	pdg, err := pdgParam(g.params, "pdg", 211)
	if err != nil {
		return err
	}
	px, err := floatParam(g.params, "px", 0)
	if err != nil {
		return err
	}
	py, err := floatParam(g.params, "py", 0)
	if err != nil {
		return err
	}
	pz, err := floatParam(g.params, "pz", 1)
	if err != nil {
		return err
	}
	g.template = api.Particle{
		PdgCode:      pdg,
		StatusCode:   1,
		FirstMother:  -1,
		SecondMother: -1,
		Px:           px,
		Py:           py,
		Pz:           pz,
		Energy:       energyOf(pdg, px, py, pz),
		Weight:       1,
	}
	return nil
}

func (g *gunGenerator) Generate(_ *rand.Rand) ([]api.Particle, error) {
	particles := make([]api.Particle, g.multiplicity)
	for i := range particles {
		particles[i] = g.template
	}
	return particles, nil
}
