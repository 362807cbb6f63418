package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
	"github.com/mattjoyce/parbreak/internal/log"
	"github.com/mattjoyce/parbreak/internal/protocol"
)

// serveConn is the dispatch loop for one worker connection: read a report,
// record it, hand back the next pending job, repeat until the transport
// fails or the worker violates the protocol.
//
// A worker that drops mid-job leaves that job in_work forever. That is the
// documented behavior; there is no reassignment.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	logger := log.WithConn(conn.RemoteAddr().String())
	logger.Info("worker connected")

	defer conn.Close()

	// Shutdown unblocks any in-flight read or write.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	buf := make([]byte, s.config.ReadBuffer)
	for {
		msg, err := protocol.ReadMessage(conn, buf)
		if err != nil {
			logger.Info("worker disconnected", "error", err)
			return
		}

		// A malformed message is logged and discarded; the exchange still
		// answers with work, exactly as a probe would.
		rep, err := protocol.DecodeReport(msg)
		if err != nil {
			logger.Warn("unable to parse report", "error", err)
		} else if !rep.IsProbe() {
			if err := s.applyReport(logger, rep); err != nil {
				logger.Error("dropping connection after protocol violation", "error", err)
				return
			}
		}

		next, err := s.registry.TakeNext(ctx)
		if err != nil {
			// Only cancellation gets us here; the server is shutting down.
			return
		}

		s.hub.Publish(events.TypeJobAssigned, events.JobEvent{
			JobID:   next.ID,
			Command: next.Command,
			Status:  string(job.StatusInWork),
		})
		logger.Debug("assigning job", "job_id", next.ID)

		if err := protocol.WriteMessage(conn, &protocol.Assignment{
			Next:    next.ID,
			Command: next.Command,
		}); err != nil {
			logger.Warn("failed to send assignment", "job_id", next.ID, "error", err)
			return
		}
	}
}

// applyReport records a worker's outcome. Unknown job ids are discarded with
// a warning and return nil; an invalid status transition returns the error
// so the caller can drop just this connection.
func (s *Server) applyReport(logger *slog.Logger, rep *protocol.Report) error {
	id := rep.Done
	outcome := job.StatusDone
	if rep.Failed != "" {
		id = rep.Failed
		outcome = job.StatusFailed
	}

	if outcome == job.StatusFailed {
		logger.Warn("job failed", "job_id", id)
		if detail, err := protocol.ParseFailureDetail(rep.Reason); err == nil {
			logger.Warn("job output", "job_id", id, "stdout", detail.Stdout, "stderr", detail.Stderr)
		}
	}

	if err := s.registry.Report(id, outcome, rep.Reason); err != nil {
		if errors.Is(err, job.ErrUnknownJob) {
			logger.Warn("report for a job we are not in control of", "job_id", id)
			return nil
		}
		return err
	}

	eventType := events.TypeJobDone
	if outcome == job.StatusFailed {
		eventType = events.TypeJobFailed
	}
	s.hub.Publish(eventType, events.JobEvent{JobID: id, Status: string(outcome)})
	return nil
}
