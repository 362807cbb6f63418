package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTakeBackoff is how long TakeNext sleeps between checks of an empty
// pending queue.
const DefaultTakeBackoff = 5 * time.Second

// Registry owns every job the coordinator knows about, plus the queue of ids
// still waiting for a worker. The pending queue is kept separately so that
// finding unassigned work never requires scanning the whole map.
//
// All access is serialized by one mutex; connection goroutines share a single
// Registry. The mutex is never held across a sleep.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	pending []string

	backoff time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithTakeBackoff overrides the empty-queue retry interval.
func WithTakeBackoff(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:    make(map[string]*Job),
		backoff: DefaultTakeBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load inserts one pending job per command string and returns the new ids in
// input order. The registry and queue only ever grow; nothing is overwritten.
func (r *Registry) Load(commands []string) []string {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(commands))
	for _, command := range commands {
		id := uuid.NewString()
		r.jobs[id] = &Job{
			ID:        id,
			Command:   command,
			Status:    StatusPending,
			CreatedAt: now,
		}
		r.pending = append(r.pending, id)
		ids = append(ids, id)
	}
	return ids
}

// TakeNext pops a job off the pending queue, marks it in work, and returns
// it. The most recently loaded job is dispatched first (LIFO); this mirrors
// the wire peers' expectations and is deliberate, not an accident of
// implementation.
//
// When the queue is empty the calling goroutine sleeps for the configured
// backoff and retries; it never returns an empty result. Only ctx
// cancellation makes it give up.
func (r *Registry) TakeNext(ctx context.Context) (Assignment, error) {
	for {
		if a, ok := r.tryTake(); ok {
			return a, nil
		}

		select {
		case <-ctx.Done():
			return Assignment{}, ctx.Err()
		case <-time.After(r.backoff):
		}
	}
}

func (r *Registry) tryTake() (Assignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return Assignment{}, false
	}

	id := r.pending[len(r.pending)-1]
	r.pending = r.pending[:len(r.pending)-1]

	j := r.jobs[id]
	now := time.Now().UTC()
	j.Status = StatusInWork
	j.StartedAt = &now

	return Assignment{ID: id, Command: j.Command}, true
}

// Report records a terminal outcome for a job. The job must currently be in
// work: reports for unknown ids return ErrUnknownJob and reports for jobs in
// any other state return ErrBadTransition, both without mutating anything.
func (r *Registry) Report(id string, outcome Status, detail string) error {
	if !outcome.Terminal() {
		return fmt.Errorf("%w: outcome %q is not terminal", ErrBadTransition, outcome)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if j.Status != StatusInWork {
		return fmt.Errorf("%w: job %s is %s, want %s", ErrBadTransition, id, j.Status, StatusInWork)
	}

	now := time.Now().UTC()
	j.Status = outcome
	j.Detail = detail
	j.CompletedAt = &now
	return nil
}

// Snapshot returns per-status counts.
func (r *Registry) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Stats
	s.Total = len(r.jobs)
	for _, j := range r.jobs {
		switch j.Status {
		case StatusPending:
			s.Pending++
		case StatusInWork:
			s.InWork++
		case StatusDone:
			s.Done++
		case StatusFailed:
			s.Failed++
		}
	}
	s.Remaining = s.Pending + s.InWork
	return s
}

// Jobs returns a copy of every job, newest first not guaranteed; callers
// sort if they care about order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	return out
}

// Get returns a copy of one job.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// ClearPending empties the pending queue and returns how many entries were
// dropped. Jobs already handed to a worker are untouched; the cleared jobs
// stay in the registry as pending but will never be assigned.
func (r *Registry) ClearPending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.pending)
	r.pending = nil
	return n
}

// PendingDepth returns the current length of the pending queue.
func (r *Registry) PendingDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
