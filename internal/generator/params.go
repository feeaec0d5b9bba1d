package generator

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

func floatParam(params map[string]string, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Errorf("parameter %q: invalid float %q", key, raw)
	}
	return value, nil
}

func pdgParam(params map[string]string, key string, fallback int32) (int32, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.Errorf("parameter %q: invalid pdg code %q", key, raw)
	}
	return int32(value), nil
}

// particleMass lists masses in GeV for the species the kinematic generators
// commonly emit. Unknown codes are generated massless.
var particleMass = map[int32]float64{
	11:   0.000511,
	13:   0.105658,
	22:   0,
	111:  0.134977,
	211:  0.139570,
	321:  0.493677,
	2112: 0.939565,
	2212: 0.938272,
}

func massOf(pdg int32) float64 {
	if pdg < 0 {
		pdg = -pdg
	}
	return particleMass[pdg]
}

func energyOf(pdg int32, px, py, pz float64) float64 {
	m := massOf(pdg)
	p2 := px*px + py*py + pz*pz
	return math.Sqrt(p2 + m*m)
}
