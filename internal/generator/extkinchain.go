package generator

import (
	"math/rand"
	"os"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	Register("extkinchain", newExtKinChainGenerator)
}

// chainManifest is the YAML schema of an extkinchain manifest: an ordered
// list of kinematics files to replay.
type chainManifest struct {
	Files []string `yaml:"files"`
}

// chainCacheSize bounds how many parsed kinematics files are held in memory
// at once. Chains are read mostly sequentially, so a small window suffices.
const chainCacheSize = 4

// extKinChainGenerator replays events from a chain of kinematics files named
// by a manifest, wrapping around once the last file is exhausted. Parsed
// files are kept in an LRU cache so long chains do not pin all their input
// in memory.
type extKinChainGenerator struct {
	manifestName string

	files      []string
	cache      *lru.Cache
	fileIndex  int
	eventIndex int
}

func newExtKinChainGenerator(config *api.RunConfig) (Generator, error) {
	return &extKinChainGenerator{manifestName: config.ExtKinFile}, nil
}

func (g *extKinChainGenerator) Init() error {
	data, err := os.ReadFile(g.manifestName)
	if err != nil {
		return errors.Wrapf(err, "failed to read chain manifest %s", g.manifestName)
	}
	var manifest chainManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return errors.Wrapf(err, "failed to parse chain manifest %s", g.manifestName)
	}
	if len(manifest.Files) == 0 {
		return errors.Errorf("chain manifest %s lists no files", g.manifestName)
	}

	cache, err := lru.New(chainCacheSize)
	if err != nil {
		return err
	}
	g.files = manifest.Files
	g.cache = cache
	g.fileIndex = 0
	g.eventIndex = 0

	// fail fast on an unreadable first file rather than on the first event
	_, err = g.load(g.files[0])
	return err
}

func (g *extKinChainGenerator) Generate(_ *rand.Rand) ([]api.Particle, error) {
	events, err := g.load(g.files[g.fileIndex])
	if err != nil {
		return nil, err
	}
	event := events[g.eventIndex]

	g.eventIndex++
	if g.eventIndex >= len(events) {
		g.eventIndex = 0
		g.fileIndex = (g.fileIndex + 1) % len(g.files)
	}

	particles := make([]api.Particle, len(event))
	copy(particles, event)
	return particles, nil
}

func (g *extKinChainGenerator) load(path string) ([][]api.Particle, error) {
	if cached, ok := g.cache.Get(path); ok {
		return cached.([][]api.Particle), nil
	}
	events, err := readKinematicsFile(path)
	if err != nil {
		return nil, err
	}
	g.cache.Add(path, events)
	return events, nil
}
