package api

import "time"

// Completion is the record a worker publishes after processing one chunk.
type Completion struct {
	WorkerID   int       `json:"worker_id"`
	RunID      string    `json:"run_id"`
	EventID    int       `json:"event_id"`
	Part       int       `json:"part"`
	NParts     int       `json:"n_parts"`
	NParticles int       `json:"n_particles"`
	Engine     string    `json:"engine"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
