package worker

import (
	"context"
	"strings"
	"testing"
)

func TestRunCommandSuccess(t *testing.T) {
	t.Parallel()

	res := RunCommand(context.Background(), "echo hi")
	if !res.OK() {
		t.Fatalf("expected success, got %#v", res)
	}
	if res.Stdout != "hi\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if res.Stderr != "" {
		t.Fatalf("unexpected stderr %q", res.Stderr)
	}
}

func TestRunCommandCapturesBothStreams(t *testing.T) {
	t.Parallel()

	res := RunCommand(context.Background(), "echo out; echo err 1>&2; exit 3")
	if res.OK() {
		t.Fatalf("expected failure, got %#v", res)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Fatalf("unexpected stderr %q", res.Stderr)
	}
}

func TestRunCommandMissingBinary(t *testing.T) {
	t.Parallel()

	res := RunCommand(context.Background(), "definitely-not-a-real-binary-xyz")
	if res.OK() {
		t.Fatalf("expected failure, got %#v", res)
	}
	if !strings.Contains(res.Stderr, "not found") {
		t.Fatalf("expected shell error on stderr, got %q", res.Stderr)
	}
}
