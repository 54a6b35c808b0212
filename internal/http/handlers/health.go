package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/http/respond"
)

const dbPingTimeout = 3 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Uptime  string `json:"uptime,omitempty"`
}

// HealthHandler serves liveness and database readiness checks.
type HealthHandler struct {
	startedAt time.Time
	db        Pinger
	logger    *zap.Logger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, db: db, logger: logger}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/health", h.handle)
	mux.HandleFunc(prefix+"/health/db", h.handleDB)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Message: "API is running",
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

// handleDB always answers 200; an unreachable store is reported in the body.
func (h *HealthHandler) handleDB(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		respond.JSON(w, http.StatusOK, healthResponse{Status: "unhealthy", Message: "Database connection failed"})
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "healthy", Message: "Database connection is working"})
}
