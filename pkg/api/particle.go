package api

import "math"

// Particle is one primary particle as handed to a transport engine. Momenta
// are in GeV/c, energies in GeV, vertex coordinates in cm and time in ns.
type Particle struct {
	PdgCode      int32   `json:"pdg_code"`
	StatusCode   int32   `json:"status_code"`
	FirstMother  int32   `json:"first_mother"`
	SecondMother int32   `json:"second_mother"`
	Px           float64 `json:"px"`
	Py           float64 `json:"py"`
	Pz           float64 `json:"pz"`
	Energy       float64 `json:"energy"`
	Vx           float64 `json:"vx"`
	Vy           float64 `json:"vy"`
	Vz           float64 `json:"vz"`
	Time         float64 `json:"time"`
	Weight       float64 `json:"weight"`
}

// P returns the magnitude of the particle momentum.
func (p *Particle) P() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

// Pt returns the transverse momentum.
func (p *Particle) Pt() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py)
}

// EventHeader is the summary record generated alongside every event. A copy
// travels with each chunk so workers can reconstruct event context without a
// second round trip.
type EventHeader struct {
	// RunID identifies the generation cycle that produced the event. It is
	// reassigned on every (re)configuration.
	RunID string `json:"run_id"`

	// EventNumber counts produced events within the cycle, starting at 1.
	EventNumber int `json:"event_number"`

	Generator  string  `json:"generator"`
	NPrimaries int     `json:"n_primaries"`
	VertexX    float64 `json:"vertex_x"`
	VertexY    float64 `json:"vertex_y"`
	VertexZ    float64 `json:"vertex_z"`

	// Embedded is true when the vertex was adopted from a background
	// interaction, in which case BackgroundIndex is the ordinal of the
	// background event used.
	Embedded        bool `json:"embedded,omitempty"`
	BackgroundIndex int  `json:"background_index,omitempty"`
}
