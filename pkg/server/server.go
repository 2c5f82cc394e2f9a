package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"

	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/policypack"
	"mercator-hq/prgate/pkg/security/auth"
	"mercator-hq/prgate/pkg/server/middleware"
	"mercator-hq/prgate/pkg/telemetry/health"
	"mercator-hq/prgate/pkg/telemetry/metrics"
	"mercator-hq/prgate/pkg/telemetry/tracing"
)

// PolicySource supplies the active policy pack.
type PolicySource interface {
	Current() *policypack.Pack
	Status() policypack.Status
}

// Dependencies are the collaborators a Server serves. Engine is required;
// the rest are optional. When server.auth is enabled and Auth is nil, the
// key store is built from the config.
type Dependencies struct {
	Engine  *gate.Engine
	Policy  PolicySource
	Health  *health.Checker
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Auth    auth.KeyStore
	Logger  *slog.Logger
}

// Server is the prgate HTTP API server.
type Server struct {
	config        config.ServerConfig
	metricsConfig config.MetricsConfig
	deps          Dependencies
	logger        *slog.Logger
	handler       http.Handler

	mu           sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	running      bool
	shutdownOnce sync.Once
}

// New creates a server. It does not start listening.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if deps.Engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	if cfg.Server.Auth.Enabled && deps.Auth == nil {
		validator, err := auth.FromConfig(cfg.Server.Auth, os.LookupEnv)
		if err != nil {
			return nil, err
		}
		deps.Auth = validator
	}

	s := &Server{
		config:        cfg.Server,
		metricsConfig: cfg.Telemetry.Metrics,
		deps:          deps,
		logger:        deps.Logger.With("component", "server"),
	}
	s.registerChecks()
	s.handler = s.setupRoutes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once the server is listening.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv := s.httpServer
		s.mu.RUnlock()
		if srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown: %w", err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.logger.Info("API server stopped")
	})
	return shutdownErr
}

func (s *Server) registerChecks() {
	s.deps.Health.RegisterCheck("comparators", func(context.Context) error {
		if s.deps.Engine.Registry().Len() == 0 {
			return errors.New("no comparators registered")
		}
		return nil
	})
	if s.deps.Policy != nil {
		s.deps.Health.RegisterCheck("policy_pack", func(context.Context) error {
			if s.deps.Policy.Current() == nil {
				if st := s.deps.Policy.Status(); st.LastError != "" {
					return fmt.Errorf("%w: %s", policypack.ErrNoPack, st.LastError)
				}
				return policypack.ErrNoPack
			}
			return nil
		})
	}
}

// setupRoutes builds the mux and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /v1/evaluate", "/v1/evaluate", http.HandlerFunc(s.handleEvaluate))
	s.handle(mux, "GET /v1/comparators", "/v1/comparators", http.HandlerFunc(s.handleComparators))
	s.handle(mux, "GET /v1/policy", "/v1/policy", http.HandlerFunc(s.handlePolicy))
	mux.Handle("GET /health", s.deps.Health.LivenessHandler())
	mux.Handle("GET /ready", s.deps.Health.ReadinessHandler())
	if s.deps.Metrics != nil && s.metricsConfig.Enabled {
		mux.Handle("GET "+s.metricsConfig.Path, s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.BodyLimit(s.config.MaxBodyBytes)(handler)
	handler = middleware.CORS(s.config.CORS)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}

// handle registers an API route with authentication, per-route metrics and
// tracing.
func (s *Server) handle(mux *http.ServeMux, pattern, route string, h http.Handler) {
	if s.config.Auth.Enabled && s.deps.Auth != nil {
		h = auth.Middleware(s.deps.Auth, s.config.Auth.Header, s.logger)(h)
	}
	if s.deps.Tracer != nil {
		h = tracing.HTTPMiddleware(s.deps.Tracer, route, h)
	}
	var rec middleware.HTTPRecorder
	if s.deps.Metrics != nil {
		rec = s.deps.Metrics
	}
	mux.Handle(pattern, middleware.Metrics(rec, route)(h))
}
