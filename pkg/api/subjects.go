package api

// Subjects names the broker subjects the protocol runs on. Server, workers
// and tooling must agree on them.
type Subjects struct {
	// Work answers work and config requests.
	Work string
	// Status answers state probes.
	Status string
	// Control receives reconfiguration and stop commands.
	Control string
	// Notify carries human-readable server status lines.
	Notify string
	// Completions carries per-chunk worker completion records.
	Completions string
}

func DefaultSubjects() Subjects {
	return Subjects{
		Work:        "beamline.work",
		Status:      "beamline.status",
		Control:     "beamline.control",
		Notify:      "beamline.notify",
		Completions: "beamline.completions",
	}
}
