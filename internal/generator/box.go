package generator

import (
	"math"
	"math/rand"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("box", newBoxGenerator)
}

// boxGenerator emits a fixed number of identical-species particles uniform in
// momentum magnitude, pseudorapidity and azimuth. It is the workhorse for
// load and transport tests.
type boxGenerator struct {
	multiplicity int
	pdg          int32
	pMin         float64
	pMax         float64
	etaMin       float64
	etaMax       float64
	params       map[string]string
}

func newBoxGenerator(config *api.RunConfig) (Generator, error) {
	return &boxGenerator{
		multiplicity: config.Multiplicity,
		params:       config.Params,
	}, nil
}

func (g *boxGenerator) Init() error {
	var err error
	if g.pdg, err = pdgParam(g.params, "pdg", 211); err != nil {
		return err
	}
	if g.pMin, err = floatParam(g.params, "pmin", 0.1); err != nil {
		return err
	}
	if g.pMax, err = floatParam(g.params, "pmax", 10.0); err != nil {
		return err
	}
	if g.etaMin, err = floatParam(g.params, "etamin", -1.0); err != nil {
		return err
	}
	if g.etaMax, err = floatParam(g.params, "etamax", 1.0); err != nil {
		return err
	}
	return nil
}

func (g *boxGenerator) Generate(rng *rand.Rand) ([]api.Particle, error) {
	particles := make([]api.Particle, g.multiplicity)
	for i := range particles {
		p := g.pMin + rng.Float64()*(g.pMax-g.pMin)
		eta := g.etaMin + rng.Float64()*(g.etaMax-g.etaMin)
		phi := rng.Float64() * 2 * math.Pi

		theta := 2 * math.Atan(math.Exp(-eta))
		pt := p * math.Sin(theta)
		px := pt * math.Cos(phi)
		py := pt * math.Sin(phi)
		pz := p * math.Cos(theta)

		particles[i] = api.Particle{
			PdgCode:      g.pdg,
			StatusCode:   1,
			FirstMother:  -1,
			SecondMother: -1,
			Px:           px,
			Py:           py,
			Pz:           pz,
			Energy:       energyOf(g.pdg, px, py, pz),
			Weight:       1,
		}
	}
	return particles, nil
}
