package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/config"
	"github.com/hongminglow/agent-market-be/internal/http/handlers"
	"github.com/hongminglow/agent-market-be/internal/middleware"
	"github.com/hongminglow/agent-market-be/internal/service"
	"github.com/hongminglow/agent-market-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner  *http.Server
	logger *zap.Logger
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *Server {
	hasher := auth.NewHasher(cfg.BcryptCost)
	guard := auth.NewGuard(store, tokens)
	users := service.NewUserService(store, hasher, tokens, logger.Named("users"))
	agents := service.NewAgentService(store, logger.Named("agents"))

	mux := http.NewServeMux()
	handlers.NewRootHandler(cfg).Register(mux)
	handlers.NewHealthHandler(time.Now(), store, logger).Register(mux, cfg.APIPrefix)
	handlers.NewAuthHandler(users, guard, logger).Register(mux, cfg.APIPrefix)
	handlers.NewProtectedHandler(guard, logger).Register(mux, cfg.APIPrefix)
	handlers.NewAgentHandler(agents, guard, logger).Register(mux, cfg.APIPrefix)
	handlers.NewAdminHandler(users, guard, logger).Register(mux, cfg.APIPrefix)

	httpLogger := logger.Named("http")
	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORSOrigins, handler)
	handler = middleware.Logging(httpLogger, handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recover(httpLogger, handler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(httpLogger),
	}

	return &Server{inner: httpServer, logger: logger}
}

// Handler exposes the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
