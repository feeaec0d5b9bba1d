package generator

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
)

// kinRecord is one line of a kinematics file: the primaries of one
// pre-generated event.
type kinRecord struct {
	Particles []api.Particle `json:"particles"`
}

// maxKinLineBytes bounds a single kinematics record. High multiplicity heavy
// ion events run to a few MB of JSON.
const maxKinLineBytes = 16 * 1024 * 1024

// readKinematicsFile loads a whole kinematics file, one JSON record per line.
// Blank lines are skipped.
func readKinematicsFile(path string) ([][]api.Particle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open kinematics file %s", path)
	}
	defer f.Close()

	var events [][]api.Particle
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxKinLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record kinRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, errors.Wrapf(err, "kinematics file %s line %d", path, line)
		}
		events = append(events, record.Particles)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read kinematics file %s", path)
	}
	if len(events) == 0 {
		return nil, errors.Errorf("kinematics file %s contains no events", path)
	}
	return events, nil
}
