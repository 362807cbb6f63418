package worker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mattjoyce/parbreak/internal/protocol"
)

// fakeCoordinator accepts one worker connection and scripts an exchange.
func fakeCoordinator(t *testing.T, script func(t *testing.T, conn net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		script(t, conn)
	}()

	return ln.Addr().String()
}

func readReport(t *testing.T, conn net.Conn) *protocol.Report {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg, err := protocol.ReadMessage(conn, nil)
	if err != nil {
		t.Errorf("read report: %v", err)
		return &protocol.Report{}
	}
	rep, err := protocol.DecodeReport(msg)
	if err != nil {
		t.Errorf("decode report: %v", err)
		return &protocol.Report{}
	}
	return rep
}

func TestWorkerExecutesAndReportsDone(t *testing.T) {
	t.Parallel()

	done := make(chan *protocol.Report, 1)
	addr := fakeCoordinator(t, func(t *testing.T, conn net.Conn) {
		if rep := readReport(t, conn); !rep.IsProbe() {
			t.Errorf("expected probe, got %#v", rep)
		}
		if err := protocol.WriteMessage(conn, &protocol.Assignment{Next: "job-1", Command: "echo hi"}); err != nil {
			t.Errorf("send assignment: %v", err)
		}
		done <- readReport(t, conn)
		// Closing ends the worker loop.
	})

	if err := New(addr).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rep := <-done
	if rep.Done != "job-1" {
		t.Fatalf("expected done report for job-1, got %#v", rep)
	}
}

func TestWorkerReportsFailureWithCapturedOutput(t *testing.T) {
	t.Parallel()

	done := make(chan *protocol.Report, 1)
	addr := fakeCoordinator(t, func(t *testing.T, conn net.Conn) {
		readReport(t, conn) // probe
		err := protocol.WriteMessage(conn, &protocol.Assignment{
			Next:    "job-2",
			Command: "echo some progress; echo broke 1>&2; exit 2",
		})
		if err != nil {
			t.Errorf("send assignment: %v", err)
		}
		done <- readReport(t, conn)
	})

	if err := New(addr).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rep := <-done
	if rep.Failed != "job-2" || rep.Done != "" {
		t.Fatalf("expected failed report for job-2, got %#v", rep)
	}

	detail, err := protocol.ParseFailureDetail(rep.Reason)
	if err != nil {
		t.Fatalf("ParseFailureDetail: %v", err)
	}
	if detail.Stdout != "some progress\n" {
		t.Fatalf("unexpected stdout %q", detail.Stdout)
	}
	if detail.Stderr != "broke\n" {
		t.Fatalf("unexpected stderr %q", detail.Stderr)
	}
}

func TestWorkerExitsCleanlyOnGarbage(t *testing.T) {
	t.Parallel()

	addr := fakeCoordinator(t, func(t *testing.T, conn net.Conn) {
		readReport(t, conn) // probe
		if _, err := conn.Write([]byte("not json at all")); err != nil {
			t.Errorf("write garbage: %v", err)
		}
	})

	// A parse error is the worker's normal exit, not a failure.
	if err := New(addr).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWorkerDialFailureIsAnError(t *testing.T) {
	t.Parallel()

	// Grab a port and close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if err := New(addr).Run(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
}
