package api

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/hashicorp/go-multierror"
)

// RunConfig is the full generation configuration of a run. The server owns
// the authoritative copy; workers fetch a read-only snapshot over the work
// channel before constructing their engines.
type RunConfig struct {
	// Generator selects the primary generator. Registered kinds are
	// "box", "gun", "spectrum", "extkin" and "extkinchain".
	Generator string `json:"generator" yaml:"generator"`

	// Trigger optionally names a trigger condition applied to generated
	// events, e.g. "minmult:50". Empty means untriggered.
	Trigger string `json:"trigger,omitempty" yaml:"trigger,omitempty"`

	// Engine names the transport engine workers should run. The server does
	// not interpret it.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// MaxEvents is the event budget of the run.
	MaxEvents int `json:"max_events" yaml:"maxEvents"`

	// ChunkSize is the maximum number of primaries per served chunk.
	ChunkSize int `json:"chunk_size" yaml:"chunkSize"`

	// Multiplicity is the number of primaries per event for generators that
	// honour it (box, gun, spectrum).
	Multiplicity int `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`

	// Seed is the base random seed. Zero asks the server to draw one from
	// the wall clock, so that the effective seed is never zero.
	Seed int64 `json:"seed" yaml:"seed"`

	// EmbedIntoFile optionally points at a background event file whose
	// vertices signal events should adopt.
	EmbedIntoFile string `json:"embed_into_file,omitempty" yaml:"embedIntoFile,omitempty"`

	// ExtKinFile is the kinematics file read by the extkin generator, or the
	// chain manifest read by extkinchain.
	ExtKinFile string `json:"ext_kin_file,omitempty" yaml:"extKinFile,omitempty"`

	// SpectrumFile is the YAML spectrum table read by the spectrum generator.
	SpectrumFile string `json:"spectrum_file,omitempty" yaml:"spectrumFile,omitempty"`

	// Params carries free-form generator parameters, e.g. pdg code or
	// momentum range for the box generator.
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate checks the configuration for internal consistency. All problems
// are reported, not just the first.
func (c *RunConfig) Validate() error {
	var result *multierror.Error
	if c.Generator == "" {
		result = multierror.Append(result, fmt.Errorf("generator must be specified"))
	}
	if c.MaxEvents < 0 {
		result = multierror.Append(result, fmt.Errorf("maxEvents must be non-negative, got %d", c.MaxEvents))
	}
	if c.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("chunkSize must be positive, got %d", c.ChunkSize))
	}
	if c.Multiplicity < 0 {
		result = multierror.Append(result, fmt.Errorf("multiplicity must be non-negative, got %d", c.Multiplicity))
	}
	if c.Generator == "extkin" || c.Generator == "extkinchain" {
		if c.ExtKinFile == "" {
			result = multierror.Append(result, fmt.Errorf("generator %q requires extKinFile", c.Generator))
		}
	}
	if c.Generator == "spectrum" && c.SpectrumFile == "" {
		result = multierror.Append(result, fmt.Errorf("generator %q requires spectrumFile", c.Generator))
	}
	return result.ErrorOrNil()
}

// Digest returns a stable hash of the configuration, used as part of the
// generator cache key so that runs with identical settings share constructed
// generators. It hashes the canonical JSON encoding; map keys are sorted by
// the encoder, so digests are insensitive to Params insertion order.
func (c *RunConfig) Digest() string {
	data, err := json.Marshal(c)
	if err != nil {
		// Marshalling a struct of plain fields cannot fail.
		panic(err)
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Clone returns a deep copy.
func (c *RunConfig) Clone() *RunConfig {
	clone := *c
	if c.Params != nil {
		clone.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			clone.Params[k] = v
		}
	}
	return &clone
}
