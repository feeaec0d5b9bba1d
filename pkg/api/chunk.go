package api

// EndOfWorkEventID marks a reply that carries no work. Workers receiving it
// terminate their processing loop.
const EndOfWorkEventID = -1

// SubEventInfo describes where a chunk sits inside its event and inside the
// overall run. Part numbering is 1-based on the wire.
type SubEventInfo struct {
	EventID   int `json:"event_id"`
	MaxEvents int `json:"max_events"`
	Part      int `json:"part"`
	NParts    int `json:"n_parts"`

	// StartIndex is the offset of the chunk's first particle within the
	// event's primary list.
	StartIndex int `json:"start_index"`

	// Seed is the seed workers feed to their transport engine, the event
	// ordinal plus the run's base seed. All parts of one event share it.
	Seed int64 `json:"seed"`

	Header EventHeader `json:"header"`
}

// Chunk is the unit of work served on the work channel: a contiguous slice of
// one event's primaries plus the bookkeeping workers need to process it.
type Chunk struct {
	Info      SubEventInfo `json:"info"`
	Particles []Particle   `json:"particles"`
}

// EndOfWork returns the sentinel chunk sent once the run is exhausted.
func EndOfWork() *Chunk {
	return &Chunk{Info: SubEventInfo{EventID: EndOfWorkEventID}}
}

// IsEndOfWork reports whether the chunk is the exhaustion sentinel.
func (c *Chunk) IsEndOfWork() bool {
	return c.Info.EventID == EndOfWorkEventID && len(c.Particles) == 0
}
