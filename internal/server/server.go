package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/go-logr/logr"

	"github.com/CSroseX/mock-http-server/internal/observability"
)

// DefaultShutdownTimeout bounds how long in-flight requests may drain.
const DefaultShutdownTimeout = 30 * time.Second

// Options configures the listeners.
type Options struct {
	Addr      string
	AdminAddr string // empty disables the admin listener

	// Workers is the number of OS threads running request goroutines in
	// parallel. Zero leaves the runtime default.
	Workers int

	ShutdownTimeout time.Duration
}

// Server owns the mock listener and the optional admin listener.
type Server struct {
	opts   Options
	logger logr.Logger

	server  *http.Server
	ln      net.Listener
	admin   *http.Server
	adminLn net.Listener
}

// New prepares a server routing every request to handler. admin may be nil.
// No read or write timeouts are set: a response may take as long as the
// configured delay.
func New(opts Options, handler, admin http.Handler, logger logr.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		server: &http.Server{Handler: handler},
	}
	if admin != nil && opts.AdminAddr != "" {
		s.admin = &http.Server{
			Handler:      admin,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		}
	}
	return s
}

// Bind sizes the worker pool and opens the listeners. Errors here are
// startup errors.
func (s *Server) Bind() error {
	if s.opts.Workers > 0 {
		runtime.GOMAXPROCS(s.opts.Workers)
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.opts.Addr, err)
	}
	s.ln = ln

	if s.admin != nil {
		adminLn, err := net.Listen("tcp", s.opts.AdminAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("binding admin %s: %w", s.opts.AdminAddr, err)
		}
		s.adminLn = adminLn
	}
	return nil
}

// Addr is the bound mock address, nil before Bind.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// AdminAddr is the bound admin address, nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	if s.adminLn == nil {
		return nil
	}
	return s.adminLn.Addr()
}

// Run serves until ctx is cancelled or a listener fails, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Bind(); err != nil {
			return err
		}
	}

	serveErr := make(chan error, 2)
	go func() {
		s.logger.V(observability.VInfo).Info("Server starting to listen", "addr", s.ln.Addr().String(), "workers", runtime.GOMAXPROCS(0))
		serveErr <- s.server.Serve(s.ln)
	}()
	if s.admin != nil {
		go func() {
			s.logger.V(observability.VInfo).Info("Admin endpoints listening", "addr", s.adminLn.Addr().String())
			serveErr <- s.admin.Serve(s.adminLn)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.V(observability.VInfo).Info("Shutting down", "timeout", s.opts.ShutdownTimeout.String())
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serving: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutting down: %w", err)
	}
	if s.admin != nil {
		if err := s.admin.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("shutting down admin: %w", err)
		}
	}
	return runErr
}
