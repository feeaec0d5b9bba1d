package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndOfWork_IsSentinel(t *testing.T) {
	chunk := EndOfWork()
	assert.True(t, chunk.IsEndOfWork())
	assert.Equal(t, EndOfWorkEventID, chunk.Info.EventID)
	assert.Empty(t, chunk.Particles)
}

func TestIsEndOfWork_FalseForRealChunks(t *testing.T) {
	chunk := &Chunk{
		Info:      SubEventInfo{EventID: 1, MaxEvents: 2, Part: 1, NParts: 1},
		Particles: []Particle{{PdgCode: 211, Energy: 1.5}},
	}
	assert.False(t, chunk.IsEndOfWork())
}
