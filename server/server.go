package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
)

// Server serves the workflow procedures over HTTP until its context ends.
type Server struct {
	addr     string
	timeouts timeouts
	handler  http.Handler
	observer observability.Observer
}

// New validates cfg and builds a Server around runner.
func New(cfg Config, runner Runner, observer observability.Observer) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	t, _ := cfg.timeouts()

	return &Server{
		addr:     cfg.Addr,
		timeouts: t,
		handler:  NewHandler(runner, observer),
		observer: observer,
	}, nil
}

// Handler returns the procedure mux, for mounting or for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the shutdown timeout. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.timeouts.readHeader,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventListen,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "server",
		Data:      map[string]any{"addr": ln.Addr().String()},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.shutdown)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventShutdown,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "server",
		Data:      map[string]any{"error": err != nil},
	})

	if err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
