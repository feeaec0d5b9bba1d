package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReconfigCommand_Assignments(t *testing.T) {
	request, err := ParseReconfigCommand("generator=box events=20 chunk_size=250 seed=7 param.pdg=211")
	require.NoError(t, err)

	require.NotNil(t, request.Generator)
	assert.Equal(t, "box", *request.Generator)
	require.NotNil(t, request.MaxEvents)
	assert.Equal(t, 20, *request.MaxEvents)
	require.NotNil(t, request.ChunkSize)
	assert.Equal(t, 250, *request.ChunkSize)
	require.NotNil(t, request.Seed)
	assert.Equal(t, int64(7), *request.Seed)
	assert.Equal(t, map[string]string{"pdg": "211"}, request.Params)
	assert.False(t, request.Stop)
}

func TestParseReconfigCommand_BareStop(t *testing.T) {
	request, err := ParseReconfigCommand("stop")
	require.NoError(t, err)
	assert.True(t, request.Stop)
}

func TestParseReconfigCommand_StopCannotCarryOverrides(t *testing.T) {
	_, err := ParseReconfigCommand("stop generator=box")
	assert.Error(t, err)
}

func TestParseReconfigCommand_Rejections(t *testing.T) {
	for _, command := range []string{
		"",
		"generator",
		"=box",
		"unknown_key=1",
		"seed=notanumber",
		"events=ten",
		"param.=x",
	} {
		_, err := ParseReconfigCommand(command)
		assert.Error(t, err, "command %q should be rejected", command)
	}
}

func TestReconfigRequest_CommandRoundTrip(t *testing.T) {
	generator := "spectrum"
	spectrumFile := "/data/pions.yaml"
	seed := int64(1234)
	events := 50
	original := &ReconfigRequest{
		Generator:    &generator,
		SpectrumFile: &spectrumFile,
		Seed:         &seed,
		MaxEvents:    &events,
		Params:       map[string]string{"pdg": "211", "ptmax": "10"},
	}

	parsed, err := ParseReconfigCommand(original.Command())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestReconfigRequest_ApplyOverlaysBase(t *testing.T) {
	base := validConfig()
	trigger := "minmult:50"
	events := 99
	request := &ReconfigRequest{
		Trigger:   &trigger,
		MaxEvents: &events,
		Params:    map[string]string{"ptmax": "5"},
	}

	merged := request.Apply(base)

	assert.Equal(t, "minmult:50", merged.Trigger)
	assert.Equal(t, 99, merged.MaxEvents)
	assert.Equal(t, "box", merged.Generator)
	assert.Equal(t, map[string]string{"pdg": "211", "ptmax": "5"}, merged.Params)

	// The base must stay untouched.
	assert.Equal(t, "", base.Trigger)
	assert.Equal(t, 10, base.MaxEvents)
	assert.NotContains(t, base.Params, "ptmax")
}
