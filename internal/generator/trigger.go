package generator

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
)

// Trigger decides whether a generated event is kept or generation is
// retried.
type Trigger interface {
	Fired(particles []api.Particle) bool
}

// ParseTrigger decodes a trigger specification of the form "<kind>:<arg>".
// The empty specification selects no trigger and returns nil.
func ParseTrigger(spec string) (Trigger, error) {
	if spec == "" {
		return nil, nil
	}
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "minmult":
		min, err := strconv.Atoi(arg)
		if err != nil || min < 0 {
			return nil, errors.Errorf("invalid minmult trigger argument %q", arg)
		}
		return minMultiplicityTrigger{min: min}, nil
	default:
		return nil, errors.Errorf("unknown trigger kind %q", kind)
	}
}

// minMultiplicityTrigger keeps events with at least min primaries.
type minMultiplicityTrigger struct {
	min int
}

func (t minMultiplicityTrigger) Fired(particles []api.Particle) bool {
	return len(particles) >= t.min
}
