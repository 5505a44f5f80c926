package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/refresh"
	"janitorr-hq/overseer/pkg/security/auth"
	"janitorr-hq/overseer/pkg/security/tls"
	"janitorr-hq/overseer/pkg/server/middleware"
	"janitorr-hq/overseer/pkg/telemetry/health"
	"janitorr-hq/overseer/pkg/telemetry/metrics"
	"janitorr-hq/overseer/pkg/telemetry/tracing"
)

// Options wires the server to the rest of the dashboard.
type Options struct {
	// Config returns the current configuration. Nil uses config.GetConfig.
	Config func() *config.Config

	// SettingsPath is the dashboard's own configuration file, written by
	// the gui-service section form.
	SettingsPath string

	// Source reconstructs the schedule. Required.
	Source *refresh.Source

	// Checker runs the status checks. Required.
	Checker *health.Checker

	// Sessions stores logins. Required.
	Sessions *auth.SessionStore

	// Authenticator checks logins. Nil builds one from the current auth
	// configuration on every login, so mode changes apply immediately.
	Authenticator auth.Authenticator

	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// HTTPClient is used for Jellyfin. Nil uses a client with the
	// configured request timeout.
	HTTPClient *http.Client

	// OnSettingsChanged runs after the dashboard settings file is written.
	OnSettingsChanged func()

	// TLS wraps the listener when set, serving HTTPS.
	TLS *tls.Reloader

	Version   string
	Commit    string
	BuildTime string

	Logger *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("server: schedule source is required")
	}
	if opts.Checker == nil {
		return nil, errors.New("server: health checker is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("server: session store is required")
	}
	if opts.Config == nil {
		opts.Config = config.GetConfig
	}
	if opts.Config() == nil {
		return nil, errors.New("server: configuration not initialized")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		opts:         opts,
		logger:       opts.Logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}, nil
}

func (s *Server) config() *config.Config {
	return s.opts.Config()
}

// Start starts the HTTP server and blocks until ctx is cancelled, a
// termination signal arrives, Stop is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	cfg := s.config().Server
	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress, err)
	}

	scheme := "http"
	if s.opts.TLS != nil {
		ln = s.opts.TLS.Listen(ln)
		scheme = "https"
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting dashboard server",
			"address", ln.Addr().String(),
			"scheme", scheme,
			"auth_mode", s.config().Auth.Mode,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config().Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("dashboard server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)

	var routed http.Handler = middleware.CaptureRoute(mux)
	if s.opts.Tracer != nil {
		routed = tracing.HTTPMiddleware(s.opts.Tracer)(routed)
	}

	return middleware.Chain(routed,
		middleware.Recovery,
		middleware.Logging(s.opts.Logger),
		middleware.RequestID,
		middleware.Metrics(s.opts.Metrics),
		middleware.Timeout(s.config().Server.RequestTimeout),
	)
}

func (s *Server) routes(mux *http.ServeMux) {
	session := auth.RequireSession(s.opts.Sessions)
	admin := func(h http.HandlerFunc) http.Handler {
		return session(auth.RequireAdmin(h))
	}
	user := func(h http.HandlerFunc) http.Handler {
		return session(h)
	}

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	health.Register(mux, s.opts.Checker, s.opts.Version, s.opts.Commit, s.opts.BuildTime)
	if s.opts.Metrics.Enabled() {
		mux.Handle("GET "+s.config().Telemetry.Metrics.Path, s.opts.Metrics.Handler())
	}

	mux.Handle("GET /api/session", user(s.handleSession))
	mux.Handle("GET /api/dashboard", user(s.handleDashboard))
	mux.Handle("GET /api/schedule", user(s.handleSchedule))
	mux.Handle("GET /api/logs/recent", user(s.handleRecentLogs))
	mux.Handle("GET /api/status", user(s.handleStatus))
	mux.Handle("GET /api/media/{id}/info", user(s.handleMediaInfo))
	mux.Handle("GET /jellyfin/Items/{id}/Images/{type}", user(s.handleImage))

	mux.Handle("GET /api/config", admin(s.handleGetConfig))
	mux.Handle("PUT /api/config", admin(s.handlePutConfig))
	mux.Handle("POST /api/config/section", admin(s.handleConfigSection))
	mux.Handle("POST /api/config/preview", admin(s.handleConfigPreview))
}
