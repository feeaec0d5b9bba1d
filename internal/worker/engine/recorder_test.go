package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamline-project/beamline/pkg/api"
)

func testChunk(eventID, part int) *api.Chunk {
	return &api.Chunk{
		Info: api.SubEventInfo{
			EventID:   eventID,
			MaxEvents: 2,
			Part:      part,
			NParts:    2,
			Seed:      42,
			Header:    api.EventHeader{RunID: "run", EventNumber: eventID},
		},
		Particles: []api.Particle{{PdgCode: 211, Pz: 1, Energy: 1}},
	}
}

func TestRecorderEngine_WritesOneRecordPerChunk(t *testing.T) {
	dir := t.TempDir()
	eng, err := New("recorder", Config{WorkerID: 3, OutputDir: dir})
	require.NoError(t, err)

	require.NoError(t, eng.Process(context.Background(), testChunk(1, 1)))
	require.NoError(t, eng.Process(context.Background(), testChunk(1, 2)))
	require.NoError(t, eng.Close())

	file, err := os.Open(filepath.Join(dir, "worker-3.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var records []recordedChunk
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record recordedChunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		records = append(records, record)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].WorkerID)
	assert.Equal(t, 1, records[0].Info.Part)
	assert.Equal(t, 2, records[1].Info.Part)
	assert.Equal(t, int32(211), records[0].Particles[0].PdgCode)
}

func TestRecorderEngine_AppendsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	first, err := New("recorder", Config{WorkerID: 1, OutputDir: dir})
	require.NoError(t, err)
	require.NoError(t, first.Process(context.Background(), testChunk(1, 1)))
	require.NoError(t, first.Close())

	second, err := New("recorder", Config{WorkerID: 1, OutputDir: dir})
	require.NoError(t, err)
	require.NoError(t, second.Process(context.Background(), testChunk(2, 1)))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(filepath.Join(dir, "worker-1.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	return lines
}

func TestNoopEngine(t *testing.T) {
	eng, err := New("noop", Config{})
	require.NoError(t, err)
	assert.Equal(t, "noop", eng.Name())
	assert.NoError(t, eng.Process(context.Background(), testChunk(1, 1)))
	assert.NoError(t, eng.Close())
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New("geant", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}
