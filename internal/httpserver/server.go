package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"authapi/backend/internal/config"
	authusecase "authapi/backend/internal/usecase/auth"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         *http.ServeMux
	authService    *authusecase.Service
	store          Pinger
	logger         *slog.Logger
	metrics        *Metrics
	allowedOrigins []string
	addr           string
}

// NewServer constructs a new Server with configured dependencies. metrics may
// be nil, in which case /metrics is not served.
func NewServer(cfg config.Config, logger *slog.Logger, authService *authusecase.Service, store Pinger, metrics *Metrics) *Server {
	mux := http.NewServeMux()
	addr := cfg.Addr()

	srv := &Server{
		router:         mux,
		authService:    authService,
		store:          store,
		logger:         logger,
		metrics:        metrics,
		allowedOrigins: cfg.AllowedOrigins,
		addr:           addr,
	}

	handler := withRequestID(srv.withLogging(withCORS(mux, cfg.AllowedOrigins)))
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the provided address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
