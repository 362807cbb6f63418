package job

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a job. The string values are the ones
// spoken on the wire, so they must not change.
type Status string

const (
	StatusPending Status = "pending"
	StatusInWork  Status = "in_work"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is a single shell command tracked by the coordinator. ID and Command
// are immutable after creation; only the registry mutates Status.
type Job struct {
	ID          string
	Command     string
	Status      Status
	Detail      string // captured stdout/stderr payload for failed jobs
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Assignment is a job handed to a worker.
type Assignment struct {
	ID      string
	Command string
}

// Stats is a point-in-time view of the registry, used by the console and
// the status API.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InWork    int `json:"in_work"`
	Done      int `json:"done"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"` // pending + in_work
}

var (
	// ErrUnknownJob is returned when a report references an id the registry
	// has never seen. Callers log and discard the report.
	ErrUnknownJob = errors.New("unknown job id")

	// ErrBadTransition is returned when a report arrives for a job that is
	// not currently in work. It indicates a protocol violation by the peer
	// and aborts only that peer's connection loop.
	ErrBadTransition = errors.New("invalid job status transition")
)
