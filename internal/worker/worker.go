package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/mattjoyce/parbreak/internal/log"
	"github.com/mattjoyce/parbreak/internal/protocol"
)

// Worker connects to a coordinator once and works jobs until the connection
// dies.
type Worker struct {
	addr   string
	logger *slog.Logger
}

// New creates a worker that will dial addr.
func New(addr string) *Worker {
	return &Worker{
		addr:   addr,
		logger: log.WithComponent("worker"),
	}
}

// Run is the fetch-execute-report loop. Failing to dial is an error; after
// that, any read, parse or write failure is the worker's normal way out and
// Run returns nil. There is no "no more work" message from the coordinator,
// so a worker on a healthy connection runs forever.
func (w *Worker) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", w.addr)
	if err != nil {
		return fmt.Errorf("connect to coordinator at %s: %w", w.addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	w.logger.Info("connected", "coordinator", w.addr)

	// An empty report asks for the first job.
	if err := protocol.WriteMessage(conn, &protocol.Report{}); err != nil {
		w.logger.Info("done", "error", err)
		return nil
	}

	buf := make([]byte, protocol.MaxMessageSize)
	for {
		msg, err := protocol.ReadMessage(conn, buf)
		if err != nil {
			w.logger.Info("done", "error", err)
			return nil
		}

		assignment, err := protocol.DecodeAssignment(msg)
		if err != nil {
			w.logger.Info("done", "error", err)
			return nil
		}

		rep := w.work(ctx, assignment)

		if err := protocol.WriteMessage(conn, rep); err != nil {
			w.logger.Info("done", "error", err)
			return nil
		}
	}
}

// work runs one assignment and builds its report.
func (w *Worker) work(ctx context.Context, assignment *protocol.Assignment) *protocol.Report {
	jobLogger := log.WithJob(assignment.Next)
	jobLogger.Info("running command", "command", assignment.Command)

	res := RunCommand(ctx, assignment.Command)
	jobLogger.Info("command finished", "exit_code", res.ExitCode)

	if res.OK() {
		return protocol.DoneReport(assignment.Next)
	}
	return protocol.FailedReport(assignment.Next, protocol.FailureDetail{
		Stdout: res.Stdout,
		Stderr: res.Stderr,
	})
}
