package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamline-project/beamline/pkg/api"
)

func TestParseTrigger_Empty(t *testing.T) {
	trigger, err := ParseTrigger("")
	require.NoError(t, err)
	assert.Nil(t, trigger)
}

func TestParseTrigger_MinMult(t *testing.T) {
	trigger, err := ParseTrigger("minmult:3")
	require.NoError(t, err)

	assert.False(t, trigger.Fired(make([]api.Particle, 2)))
	assert.True(t, trigger.Fired(make([]api.Particle, 3)))
	assert.True(t, trigger.Fired(make([]api.Particle, 10)))
}

func TestParseTrigger_Invalid(t *testing.T) {
	for _, spec := range []string{"minmult:", "minmult:x", "minmult:-1", "maxmult:3"} {
		_, err := ParseTrigger(spec)
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}
