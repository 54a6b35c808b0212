package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
	"github.com/hongminglow/agent-market-be/internal/middleware"
	"github.com/hongminglow/agent-market-be/internal/service"
)

// AdminHandler lets superusers toggle other accounts.
type AdminHandler struct {
	users  *service.UserService
	guard  *auth.Guard
	logger *zap.Logger
}

func NewAdminHandler(users *service.UserService, guard *auth.Guard, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, guard: guard, logger: logger}
}

func (h *AdminHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/admin/users/{id}/deactivate", onlyMethods(middleware.RequireSuperuser(h.guard, h.logger, h.handleDeactivate), http.MethodPost))
	mux.HandleFunc(prefix+"/admin/users/{id}/activate", onlyMethods(middleware.RequireSuperuser(h.guard, h.logger, h.handleActivate), http.MethodPost))
}

func (h *AdminHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	update := h.users.Activate
	if !active {
		update = h.users.Deactivate
	}
	user, err := update(r.Context(), id)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	h.logger.Info("admin changed user status",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("user_id", user.ID),
		zap.Bool("active", active),
	)
	respond.JSON(w, http.StatusOK, user)
}
