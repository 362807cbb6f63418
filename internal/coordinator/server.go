package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
	"github.com/mattjoyce/parbreak/internal/log"
)

// Config holds coordinator server settings.
type Config struct {
	Listen     string
	ReadBuffer int
}

// Server accepts worker connections and runs one dispatch loop per
// connection. All connections share one job registry; the registry's mutex
// is the only synchronization between them.
type Server struct {
	config   Config
	registry *job.Registry
	hub      *events.Hub
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a new coordinator server.
func New(config Config, registry *job.Registry, hub *events.Hub) *Server {
	if config.ReadBuffer <= 0 {
		config.ReadBuffer = 2048
	}
	return &Server{
		config:   config,
		registry: registry,
		hub:      hub,
		logger:   log.WithComponent("coordinator"),
	}
}

// Listen binds the TCP listener without accepting yet. Start calls it if it
// hasn't run; tests call it directly to learn the bound port.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Listen, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start runs the accept loop until ctx is cancelled, then waits for every
// connection loop to wind down. Blocking.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	// Cancellation closes the listener, which unblocks Accept.
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.logger.Info("serving", "listen", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}

	s.logger.Info("closing down, draining connections")
	s.wg.Wait()
	return nil
}
