package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/mattjoyce/parbreak/internal/coordinator"
	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
	"github.com/mattjoyce/parbreak/internal/worker"
)

// Full loop: coordinator hands real commands to a real worker over TCP, the
// worker runs them through the shell and reports back.
func TestCoordinatorWorkerRoundTrip(t *testing.T) {
	t.Parallel()

	registry := job.NewRegistry(job.WithTakeBackoff(10 * time.Millisecond))
	hub := events.NewHub(32)
	server := coordinator.New(coordinator.Config{Listen: "127.0.0.1:0"}, registry, hub)

	if err := server.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Start(ctx) }()

	registry.Load([]string{
		"echo all good",
		"echo partial; echo nope 1>&2; exit 1",
	})

	workerDone := make(chan error, 1)
	go func() { workerDone <- worker.New(server.Addr().String()).Run(ctx) }()

	// Wait for both jobs to reach a terminal state.
	deadline := time.After(10 * time.Second)
	for {
		stats := registry.Snapshot()
		if stats.Done == 1 && stats.Failed == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("jobs never finished: %#v", stats)
		case <-time.After(20 * time.Millisecond):
		}
	}

	// The failed job carries the shell's captured output.
	var failed job.Job
	for _, j := range registry.Jobs() {
		if j.Status == job.StatusFailed {
			failed = j
		}
	}
	if failed.ID == "" {
		t.Fatal("no failed job recorded")
	}
	if failed.Detail == "" {
		t.Fatal("failed job has no captured output")
	}

	// Shutdown drains both sides.
	cancel()
	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	select {
	case err := <-workerDone:
		if err != nil {
			t.Fatalf("worker: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
