package events

// JobEvent is the payload for per-job lifecycle events.
type JobEvent struct {
	JobID   string `json:"job_id"`
	Command string `json:"command,omitempty"`
	Status  string `json:"status"`
}

// LoadEvent is the payload for a jobs.loaded event.
type LoadEvent struct {
	Count  int    `json:"count"`
	Source string `json:"source,omitempty"` // file path, console, api
}

// ClearEvent is the payload for a queue.cleared event.
type ClearEvent struct {
	Dropped int `json:"dropped"`
}
