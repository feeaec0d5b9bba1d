package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamline-project/beamline/internal/common/util"
	"github.com/beamline-project/beamline/pkg/api"
)

// writeKinFile writes a kinematics file whose events carry the given pdg
// codes, one single-particle event per code.
func writeKinFile(t *testing.T, dir, name string, pdgCodes ...int32) string {
	t.Helper()
	content := ""
	for _, pdg := range pdgCodes {
		content += fmt.Sprintf(`{"particles":[{"pdg_code":%d,"status_code":1,"pz":1.0,"energy":1.0,"weight":1}]}`+"\n", pdg)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtKinGenerator_ReplaysInOrderAndRewinds(t *testing.T) {
	path := writeKinFile(t, t.TempDir(), "events.jsonl", 11, 13, 15)
	config := &api.RunConfig{Generator: "extkin", ChunkSize: 10, ExtKinFile: path}
	gen, err := New(config)
	require.NoError(t, err)

	rng := util.NewThreadsafeRand(1)
	var served []int32
	for i := 0; i < 5; i++ {
		particles, err := gen.Generate(rng)
		require.NoError(t, err)
		require.Len(t, particles, 1)
		served = append(served, particles[0].PdgCode)
	}
	assert.Equal(t, []int32{11, 13, 15, 11, 13}, served)
}

func TestExtKinGenerator_ServedEventsAreIsolated(t *testing.T) {
	path := writeKinFile(t, t.TempDir(), "events.jsonl", 11)
	gen, err := New(&api.RunConfig{Generator: "extkin", ChunkSize: 10, ExtKinFile: path})
	require.NoError(t, err)

	rng := util.NewThreadsafeRand(1)
	first, err := gen.Generate(rng)
	require.NoError(t, err)
	first[0].Vx = 99 // embedding shifts vertices in place

	second, err := gen.Generate(rng)
	require.NoError(t, err)
	assert.Equal(t, 0.0, second[0].Vx)
}

func TestExtKinGenerator_RejectsMissingOrEmptyFiles(t *testing.T) {
	_, err := New(&api.RunConfig{Generator: "extkin", ChunkSize: 10, ExtKinFile: "/does/not/exist.jsonl"})
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o644))
	_, err = New(&api.RunConfig{Generator: "extkin", ChunkSize: 10, ExtKinFile: empty})
	assert.Error(t, err)
}

func TestExtKinChainGenerator_WalksChainAndWraps(t *testing.T) {
	dir := t.TempDir()
	first := writeKinFile(t, dir, "first.jsonl", 11, 13)
	second := writeKinFile(t, dir, "second.jsonl", 15)
	manifest := filepath.Join(dir, "chain.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(fmt.Sprintf("files:\n  - %s\n  - %s\n", first, second)), 0o644))

	gen, err := New(&api.RunConfig{Generator: "extkinchain", ChunkSize: 10, ExtKinFile: manifest})
	require.NoError(t, err)

	rng := util.NewThreadsafeRand(1)
	var served []int32
	for i := 0; i < 7; i++ {
		particles, err := gen.Generate(rng)
		require.NoError(t, err)
		served = append(served, particles[0].PdgCode)
	}
	assert.Equal(t, []int32{11, 13, 15, 11, 13, 15, 11}, served)
}

func TestExtKinChainGenerator_RejectsEmptyManifest(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("files: []\n"), 0o644))
	_, err := New(&api.RunConfig{Generator: "extkinchain", ChunkSize: 10, ExtKinFile: manifest})
	assert.Error(t, err)
}
