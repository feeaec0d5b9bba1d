package generator

import (
	"github.com/patrickmn/go-cache"

	"github.com/beamline-project/beamline/pkg/api"
)

// generatorCache reuses constructed generators across reconfigurations with
// matching settings, so repeated runs skip re-parsing spectrum tables and
// parameter sets. The extkin kinds hold read cursors and are excluded.
type generatorCache struct {
	constructed *cache.Cache
}

func newGeneratorCache() *generatorCache {
	return &generatorCache{
		constructed: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func cacheable(kind string) bool {
	return kind != "extkin" && kind != "extkinchain"
}

// cacheKey hashes the configuration fields that shape generator construction.
// Budget and serving parameters are deliberately excluded so that changing
// only maxEvents still hits the cache.
func cacheKey(config *api.RunConfig) string {
	reduced := api.RunConfig{
		Generator:    config.Generator,
		Multiplicity: config.Multiplicity,
		ExtKinFile:   config.ExtKinFile,
		SpectrumFile: config.SpectrumFile,
		Params:       config.Params,
	}
	return config.Generator + "-" + reduced.Digest()
}

func (c *generatorCache) GetOrConstruct(config *api.RunConfig) (Generator, error) {
	if !cacheable(config.Generator) {
		return New(config)
	}
	key := cacheKey(config)
	if cached, ok := c.constructed.Get(key); ok {
		return cached.(Generator), nil
	}
	gen, err := New(config)
	if err != nil {
		return nil, err
	}
	c.constructed.Set(key, gen, cache.NoExpiration)
	return gen, nil
}
