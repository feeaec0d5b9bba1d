package generator

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/internal/common/util"
	"github.com/beamline-project/beamline/pkg/api"
)

// maxTriggerAttempts bounds how often generation is retried for an event
// whose trigger keeps rejecting, so a trigger that can never fire surfaces as
// an error instead of a livelock.
const maxTriggerAttempts = 1000

// Coordinator owns the generation stack of a run: the generator, the optional
// trigger and embedding provider, and the event numbering. The serving loop
// drives it from a single goroutine; methods are not safe for concurrent use.
type Coordinator struct {
	genCache *generatorCache

	config  *api.RunConfig
	runID   string
	rng     *rand.Rand
	gen     Generator
	trigger Trigger
	embed   *embedProvider

	eventsProduced int
}

func NewCoordinator() *Coordinator {
	return &Coordinator{genCache: newGeneratorCache()}
}

// Configure validates the configuration and (re)builds the generation stack
// for it. A zero seed is replaced by a wall clock seed so the effective seed
// is never zero. Construction reuses cached generators where the kind allows
// it. On error the previous stack stays in place.
func (c *Coordinator) Configure(config *api.RunConfig) error {
	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid run configuration")
	}
	cfg := config.Clone()
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		log.Infof("No seed given, drew %d from the wall clock", cfg.Seed)
	}

	gen, err := c.genCache.GetOrConstruct(cfg)
	if err != nil {
		return err
	}
	trigger, err := ParseTrigger(cfg.Trigger)
	if err != nil {
		return err
	}
	var embed *embedProvider
	if cfg.EmbedIntoFile != "" {
		embed, err = newEmbedProvider(cfg.EmbedIntoFile)
		if err != nil {
			return err
		}
	}

	c.config = cfg
	c.runID = util.NewULID()
	c.rng = util.NewThreadsafeRand(cfg.Seed)
	c.gen = gen
	c.trigger = trigger
	c.embed = embed
	c.eventsProduced = 0

	log.WithFields(log.Fields{
		"run":       c.runID,
		"generator": cfg.Generator,
		"events":    cfg.MaxEvents,
		"seed":      cfg.Seed,
	}).Info("Generation stack configured")
	return nil
}

// Config returns a copy of the effective run configuration, with the drawn
// seed filled in.
func (c *Coordinator) Config() *api.RunConfig {
	return c.config.Clone()
}

// RunID identifies the current configuration cycle.
func (c *Coordinator) RunID() string {
	return c.runID
}

// BaseSeed returns the effective base seed of the run, after any wall clock
// replacement. Chunk seeds are derived from it.
func (c *Coordinator) BaseSeed() int64 {
	return c.config.Seed
}

// ProduceEvent generates the next event: it runs the generator until the
// trigger fires, then applies embedding and stamps the header.
func (c *Coordinator) ProduceEvent() (*Event, error) {
	var particles []api.Particle
	for attempt := 1; ; attempt++ {
		generated, err := c.gen.Generate(c.rng)
		if err != nil {
			return nil, errors.Wrap(err, "event generation failed")
		}
		if c.trigger == nil || c.trigger.Fired(generated) {
			if attempt > 1 {
				log.Debugf("Trigger fired after %d attempts", attempt)
			}
			particles = generated
			break
		}
		if attempt >= maxTriggerAttempts {
			return nil, errors.Errorf("trigger %q did not fire within %d attempts", c.config.Trigger, maxTriggerAttempts)
		}
	}

	c.eventsProduced++
	header := api.EventHeader{
		RunID:       c.runID,
		EventNumber: c.eventsProduced,
		Generator:   c.config.Generator,
		NPrimaries:  len(particles),
	}

	if c.embed != nil {
		v, index := c.embed.NextVertex()
		for i := range particles {
			particles[i].Vx += v.X
			particles[i].Vy += v.Y
			particles[i].Vz += v.Z
		}
		header.VertexX = v.X
		header.VertexY = v.Y
		header.VertexZ = v.Z
		header.Embedded = true
		header.BackgroundIndex = index
	}

	return &Event{Header: header, Particles: particles}, nil
}
