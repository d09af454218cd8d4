// Package httpserver wires the public submission API and the admin listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"appforge/internal/config"
	derrors "appforge/internal/foundation/errors"
	"appforge/internal/server/handlers"
	smw "appforge/internal/server/middleware"
)

// Options carries the collaborators the server exposes over HTTP.
type Options struct {
	Orchestrator   handlers.Orchestrator
	Journal        handlers.JournalReader
	MetricsHandler http.Handler
	StartTime      time.Time
}

// Server manages the API and admin HTTP listeners.
type Server struct {
	apiServer    *http.Server
	adminServer  *http.Server
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	submissionHandlers *handlers.SubmissionHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs the HTTP server wiring.
func New(cfg *config.Config, opts Options) *Server {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.submissionHandlers = handlers.NewSubmissionHandlers(opts.Orchestrator)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Journal, opts.StartTime)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Start binds both listeners up front so startup fails fast with aggregate
// errors instead of partial initialization, then serves.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", addr: s.cfg.Server.Addr},
		{name: "admin", addr: s.cfg.Server.AdminAddr},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s addr %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.apiServer = &http.Server{
		Handler:           s.mchain(s.apiMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.adminServer = &http.Server{
		Handler:           s.mchain(s.adminMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.serveOn("api", s.apiServer, binds[0].ln)
	s.serveOn("admin", s.adminServer, binds[1].ln)

	slog.Info("HTTP servers started",
		slog.String("api_addr", s.cfg.Server.Addr),
		slog.String("admin_addr", s.cfg.Server.AdminAddr))
	return nil
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	slog.Info("HTTP servers stopped")
	return nil
}

func (s *Server) apiMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.submissionHandlers.HandleInfo)
	mux.HandleFunc("/api-endpoint", s.submissionHandlers.HandleSubmit)
	return mux
}

func (s *Server) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("/status", s.monitoringHandlers.HandleStatus)
	if s.opts.MetricsHandler != nil {
		mux.Handle("/metrics", s.opts.MetricsHandler)
	}
	return mux
}

func (s *Server) serveOn(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
}
