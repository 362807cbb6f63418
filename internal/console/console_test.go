package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
)

func runScript(t *testing.T, registry *job.Registry, script string) (string, bool) {
	t.Helper()

	hub := events.NewHub(16)
	shutdownCalled := false

	c := New(registry, hub, func() { shutdownCalled = true })
	var out bytes.Buffer
	c.in = strings.NewReader(script)
	c.out = &out

	c.Run(context.Background())
	return out.String(), shutdownCalled
}

func TestProgressReportsRemaining(t *testing.T) {
	t.Parallel()

	registry := job.NewRegistry()
	registry.Load([]string{"a", "b", "c"})

	out, _ := runScript(t, registry, "progress\n")
	if !strings.Contains(out, "Progress: 3 left") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAddLoadsCommandFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.txt")
	if err := os.WriteFile(path, []byte("echo one\necho two\n"), 0o644); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}

	registry := job.NewRegistry()
	out, _ := runScript(t, registry, "add "+path+"\n")

	if !strings.Contains(out, "Loading 2 commands...") {
		t.Fatalf("unexpected output %q", out)
	}
	if stats := registry.Snapshot(); stats.Pending != 2 {
		t.Fatalf("expected 2 pending jobs, got %#v", stats)
	}
}

func TestAddMissingFile(t *testing.T) {
	t.Parallel()

	registry := job.NewRegistry()
	out, _ := runScript(t, registry, "add /definitely/not/there\n")

	if !strings.Contains(out, "Unable to load file") {
		t.Fatalf("unexpected output %q", out)
	}
	if stats := registry.Snapshot(); stats.Total != 0 {
		t.Fatalf("registry mutated: %#v", stats)
	}
}

func TestClearEmptiesQueue(t *testing.T) {
	t.Parallel()

	registry := job.NewRegistry()
	registry.Load([]string{"a", "b"})

	out, _ := runScript(t, registry, "clear\n")
	if !strings.Contains(out, "Cleared 2 pending jobs") {
		t.Fatalf("unexpected output %q", out)
	}
	if depth := registry.PendingDepth(); depth != 0 {
		t.Fatalf("queue not cleared, depth %d", depth)
	}
}

func TestExitInvokesShutdown(t *testing.T) {
	t.Parallel()

	_, shutdown := runScript(t, job.NewRegistry(), "exit\n")
	if !shutdown {
		t.Fatal("exit did not invoke shutdown")
	}
}

func TestUnknownAndEmptyInputIgnored(t *testing.T) {
	t.Parallel()

	out, shutdown := runScript(t, job.NewRegistry(), "\nbogus command\n   \n")
	if shutdown {
		t.Fatal("shutdown invoked unexpectedly")
	}
	// Only prompts, no errors.
	if strings.Contains(out, "Usage") {
		t.Fatalf("unexpected output %q", out)
	}
}
