package api

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReconfigRequest is the decoded form of a control-channel command. Every
// field is optional; nil means "keep the current value". Commands are textual
// so they can be produced by hand or by beamlinectl alike.
type ReconfigRequest struct {
	// Stop requests a shutdown instead of a reconfiguration. A stop command
	// carries no other fields.
	Stop bool `yaml:"stop,omitempty"`

	// ConfigFile loads a whole run configuration from a YAML file before the
	// remaining overrides are applied.
	ConfigFile *string `yaml:"configFile,omitempty"`

	Generator     *string `yaml:"generator,omitempty"`
	Trigger       *string `yaml:"trigger,omitempty"`
	Engine        *string `yaml:"engine,omitempty"`
	Seed          *int64  `yaml:"seed,omitempty"`
	MaxEvents     *int    `yaml:"maxEvents,omitempty"`
	ChunkSize     *int    `yaml:"chunkSize,omitempty"`
	Multiplicity  *int    `yaml:"multiplicity,omitempty"`
	ExtKinFile    *string `yaml:"extKinFile,omitempty"`
	EmbedIntoFile *string `yaml:"embedIntoFile,omitempty"`
	SpectrumFile  *string `yaml:"spectrumFile,omitempty"`

	Params map[string]string `yaml:"params,omitempty"`
}

const paramKeyPrefix = "param."

// ParseReconfigCommand decodes the textual command form, a whitespace
// separated list of key=value assignments. The bare word "stop" is accepted
// as shorthand for stop=true. Generator parameters use the key form
// "param.<name>".
func ParseReconfigCommand(command string) (*ReconfigRequest, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty control command")
	}
	request := &ReconfigRequest{}
	for _, field := range fields {
		if field == "stop" {
			request.Stop = true
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, errors.Errorf("malformed assignment %q, expected key=value", field)
		}
		if strings.HasPrefix(key, paramKeyPrefix) {
			name := strings.TrimPrefix(key, paramKeyPrefix)
			if name == "" {
				return nil, errors.Errorf("malformed parameter key %q", key)
			}
			if request.Params == nil {
				request.Params = map[string]string{}
			}
			request.Params[name] = value
			continue
		}
		if err := request.assign(key, value); err != nil {
			return nil, err
		}
	}
	if request.Stop && !request.onlyStop() {
		return nil, errors.New("stop command cannot carry overrides")
	}
	return request, nil
}

func (r *ReconfigRequest) assign(key, value string) error {
	switch key {
	case "stop":
		stop, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Errorf("invalid stop value %q", value)
		}
		r.Stop = stop
	case "config_file":
		r.ConfigFile = &value
	case "generator":
		r.Generator = &value
	case "trigger":
		r.Trigger = &value
	case "engine":
		r.Engine = &value
	case "seed":
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid seed %q", value)
		}
		r.Seed = &seed
	case "events":
		events, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("invalid events value %q", value)
		}
		r.MaxEvents = &events
	case "chunk_size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("invalid chunk_size value %q", value)
		}
		r.ChunkSize = &size
	case "multiplicity":
		mult, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("invalid multiplicity value %q", value)
		}
		r.Multiplicity = &mult
	case "ext_kin_file":
		r.ExtKinFile = &value
	case "embed_into":
		r.EmbedIntoFile = &value
	case "spectrum_file":
		r.SpectrumFile = &value
	default:
		return errors.Errorf("unknown control key %q", key)
	}
	return nil
}

func (r *ReconfigRequest) onlyStop() bool {
	return r.ConfigFile == nil &&
		r.Generator == nil &&
		r.Trigger == nil &&
		r.Engine == nil &&
		r.Seed == nil &&
		r.MaxEvents == nil &&
		r.ChunkSize == nil &&
		r.Multiplicity == nil &&
		r.ExtKinFile == nil &&
		r.EmbedIntoFile == nil &&
		r.SpectrumFile == nil &&
		len(r.Params) == 0
}

// Command renders the request back into its textual wire form. Parse and
// Command round-trip.
func (r *ReconfigRequest) Command() string {
	if r.Stop {
		return "stop"
	}
	var fields []string
	appendString := func(key string, value *string) {
		if value != nil {
			fields = append(fields, fmt.Sprintf("%s=%s", key, *value))
		}
	}
	appendString("config_file", r.ConfigFile)
	appendString("generator", r.Generator)
	appendString("trigger", r.Trigger)
	appendString("engine", r.Engine)
	if r.Seed != nil {
		fields = append(fields, fmt.Sprintf("seed=%d", *r.Seed))
	}
	if r.MaxEvents != nil {
		fields = append(fields, fmt.Sprintf("events=%d", *r.MaxEvents))
	}
	if r.ChunkSize != nil {
		fields = append(fields, fmt.Sprintf("chunk_size=%d", *r.ChunkSize))
	}
	if r.Multiplicity != nil {
		fields = append(fields, fmt.Sprintf("multiplicity=%d", *r.Multiplicity))
	}
	appendString("ext_kin_file", r.ExtKinFile)
	appendString("embed_into", r.EmbedIntoFile)
	appendString("spectrum_file", r.SpectrumFile)

	paramNames := make([]string, 0, len(r.Params))
	for name := range r.Params {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)
	for _, name := range paramNames {
		fields = append(fields, fmt.Sprintf("%s%s=%s", paramKeyPrefix, name, r.Params[name]))
	}
	return strings.Join(fields, " ")
}

// Apply overlays the request onto a base configuration and returns the
// result. The base is not modified.
func (r *ReconfigRequest) Apply(base *RunConfig) *RunConfig {
	merged := base.Clone()
	if r.Generator != nil {
		merged.Generator = *r.Generator
	}
	if r.Trigger != nil {
		merged.Trigger = *r.Trigger
	}
	if r.Engine != nil {
		merged.Engine = *r.Engine
	}
	if r.Seed != nil {
		merged.Seed = *r.Seed
	}
	if r.MaxEvents != nil {
		merged.MaxEvents = *r.MaxEvents
	}
	if r.ChunkSize != nil {
		merged.ChunkSize = *r.ChunkSize
	}
	if r.Multiplicity != nil {
		merged.Multiplicity = *r.Multiplicity
	}
	if r.ExtKinFile != nil {
		merged.ExtKinFile = *r.ExtKinFile
	}
	if r.EmbedIntoFile != nil {
		merged.EmbedIntoFile = *r.EmbedIntoFile
	}
	if r.SpectrumFile != nil {
		merged.SpectrumFile = *r.SpectrumFile
	}
	for name, value := range r.Params {
		if merged.Params == nil {
			merged.Params = map[string]string{}
		}
		merged.Params[name] = value
	}
	return merged
}
