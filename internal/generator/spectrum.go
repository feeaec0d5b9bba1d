package generator

import (
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("spectrum", newSpectrumGenerator)
}

// spectrumTable is the YAML schema of a transverse momentum spectrum file.
type spectrumTable struct {
	Pdg    int32         `yaml:"pdg"`
	EtaMin float64       `yaml:"etaMin"`
	EtaMax float64       `yaml:"etaMax"`
	Bins   []spectrumBin `yaml:"bins"`
}

type spectrumBin struct {
	PtLow  float64 `yaml:"ptLow"`
	PtHigh float64 `yaml:"ptHigh"`
	Weight float64 `yaml:"weight"`
}

// spectrumGenerator samples particle transverse momenta from a binned
// spectrum table, uniform within each bin.
type spectrumGenerator struct {
	multiplicity int
	fileName     string

	table       spectrumTable
	totalWeight float64
}

func newSpectrumGenerator(config *api.RunConfig) (Generator, error) {
	return &spectrumGenerator{
		multiplicity: config.Multiplicity,
		fileName:     config.SpectrumFile,
	}, nil
}

func (g *spectrumGenerator) Init() error {
	data, err := os.ReadFile(g.fileName)
	if err != nil {
		return errors.Wrapf(err, "failed to read spectrum file %s", g.fileName)
	}
	if err := yaml.Unmarshal(data, &g.table); err != nil {
		return errors.Wrapf(err, "failed to parse spectrum file %s", g.fileName)
	}
	if len(g.table.Bins) == 0 {
		return errors.Errorf("spectrum file %s contains no bins", g.fileName)
	}
	g.totalWeight = 0
	for i, bin := range g.table.Bins {
		if bin.PtHigh <= bin.PtLow {
			return errors.Errorf("spectrum file %s: bin %d has ptHigh <= ptLow", g.fileName, i)
		}
		if bin.Weight < 0 {
			return errors.Errorf("spectrum file %s: bin %d has negative weight", g.fileName, i)
		}
		g.totalWeight += bin.Weight
	}
	if g.totalWeight <= 0 {
		return errors.Errorf("spectrum file %s has zero total weight", g.fileName)
	}
	return nil
}

func (g *spectrumGenerator) Generate(rng *rand.Rand) ([]api.Particle, error) {
	particles := make([]api.Particle, g.multiplicity)
	for i := range particles {
		pt := g.samplePt(rng)
		eta := g.table.EtaMin + rng.Float64()*(g.table.EtaMax-g.table.EtaMin)
		phi := rng.Float64() * 2 * math.Pi

		px := pt * math.Cos(phi)
		py := pt * math.Sin(phi)
		pz := pt * math.Sinh(eta)

		particles[i] = api.Particle{
			PdgCode:      g.table.Pdg,
			StatusCode:   1,
			FirstMother:  -1,
			SecondMother: -1,
			Px:           px,
			Py:           py,
			Pz:           pz,
			Energy:       energyOf(g.table.Pdg, px, py, pz),
			Weight:       1,
		}
	}
	return particles, nil
}

func (g *spectrumGenerator) samplePt(rng *rand.Rand) float64 {
	r := rng.Float64() * g.totalWeight
	for _, bin := range g.table.Bins {
		if r < bin.Weight {
			return bin.PtLow + rng.Float64()*(bin.PtHigh-bin.PtLow)
		}
		r -= bin.Weight
	}
	last := g.table.Bins[len(g.table.Bins)-1]
	return last.PtLow + rng.Float64()*(last.PtHigh-last.PtLow)
}
