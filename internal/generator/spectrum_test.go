package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamline-project/beamline/internal/common/util"
	"github.com/beamline-project/beamline/pkg/api"
)

func writeSpectrumFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectrum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSpectrumGenerator_SamplesWithinBins(t *testing.T) {
	path := writeSpectrumFile(t, `
pdg: 211
etaMin: -1.0
etaMax: 1.0
bins:
  - ptLow: 0.2
    ptHigh: 0.5
    weight: 10
  - ptLow: 0.5
    ptHigh: 2.0
    weight: 1
`)
	config := &api.RunConfig{
		Generator:    "spectrum",
		MaxEvents:    1,
		ChunkSize:    100,
		Multiplicity: 200,
		Seed:         1,
		SpectrumFile: path,
	}
	gen, err := New(config)
	require.NoError(t, err)

	particles, err := gen.Generate(util.NewThreadsafeRand(3))
	require.NoError(t, err)
	require.Len(t, particles, 200)

	lowBin := 0
	for _, particle := range particles {
		pt := particle.Pt()
		assert.GreaterOrEqual(t, pt, 0.2-1e-9)
		assert.LessOrEqual(t, pt, 2.0+1e-9)
		if pt < 0.5 {
			lowBin++
		}
	}
	// weight 10 vs 1 must show up in the sampled population
	assert.Greater(t, lowBin, 120)
}

func TestSpectrumGenerator_RejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"no bins":         "pdg: 211\nbins: []\n",
		"inverted bin":    "pdg: 211\nbins:\n  - ptLow: 1.0\n    ptHigh: 0.5\n    weight: 1\n",
		"negative weight": "pdg: 211\nbins:\n  - ptLow: 0.0\n    ptHigh: 1.0\n    weight: -2\n",
		"zero weight":     "pdg: 211\nbins:\n  - ptLow: 0.0\n    ptHigh: 1.0\n    weight: 0\n",
	}
	for name, content := range cases {
		path := writeSpectrumFile(t, content)
		config := &api.RunConfig{Generator: "spectrum", ChunkSize: 1, Multiplicity: 1, SpectrumFile: path}
		_, err := New(config)
		assert.Error(t, err, "table %q should be rejected", name)
	}
}

func TestSpectrumGenerator_MissingFile(t *testing.T) {
	config := &api.RunConfig{Generator: "spectrum", ChunkSize: 1, SpectrumFile: "/does/not/exist.yaml"}
	_, err := New(config)
	assert.Error(t, err)
}
