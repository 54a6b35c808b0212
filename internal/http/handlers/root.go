package handlers

import (
	"net/http"

	"github.com/hongminglow/agent-market-be/internal/config"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
)

type rootResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// RootHandler greets clients hitting "/".
type RootHandler struct {
	cfg config.Config
}

func NewRootHandler(cfg config.Config) *RootHandler {
	return &RootHandler{cfg: cfg}
}

// Register matches "/" exactly so unknown paths still 404.
func (h *RootHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", h.handle)
}

func (h *RootHandler) handle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	respond.JSON(w, http.StatusOK, rootResponse{
		Message:     "Welcome to " + h.cfg.APITitle,
		Version:     h.cfg.APIVersion,
		Environment: h.cfg.Environment,
	})
}
