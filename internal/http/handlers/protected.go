package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
	"github.com/hongminglow/agent-market-be/internal/middleware"
)

type profileView struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	IsActive bool    `json:"is_active"`
}

type adminView struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

type userProfileResponse struct {
	Message string      `json:"message"`
	User    profileView `json:"user"`
}

type adminOnlyResponse struct {
	Message string    `json:"message"`
	Admin   adminView `json:"admin"`
}

// ProtectedHandler serves sample routes behind the active-user and superuser gates.
type ProtectedHandler struct {
	guard  *auth.Guard
	logger *zap.Logger
}

func NewProtectedHandler(guard *auth.Guard, logger *zap.Logger) *ProtectedHandler {
	return &ProtectedHandler{guard: guard, logger: logger}
}

func (h *ProtectedHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/protected/user-profile", onlyMethods(middleware.RequireUser(h.guard, h.logger, h.handleUserProfile), http.MethodGet))
	mux.HandleFunc(prefix+"/protected/admin-only", onlyMethods(middleware.RequireSuperuser(h.guard, h.logger, h.handleAdminOnly), http.MethodGet))
}

func (h *ProtectedHandler) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	respond.JSON(w, http.StatusOK, userProfileResponse{
		Message: "This is a protected route",
		User: profileView{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			IsActive: user.IsActive,
		},
	})
}

func (h *ProtectedHandler) handleAdminOnly(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	respond.JSON(w, http.StatusOK, adminOnlyResponse{
		Message: "This is an admin-only route",
		Admin: adminView{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		},
	})
}
