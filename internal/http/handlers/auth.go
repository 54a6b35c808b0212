package handlers

import (
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
	"github.com/hongminglow/agent-market-be/internal/middleware"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/service"
)

// AuthHandler owns the signup, login and profile endpoints.
type AuthHandler struct {
	users  *service.UserService
	guard  *auth.Guard
	logger *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users *service.UserService, guard *auth.Guard, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, guard: guard, logger: logger}
}

// Register attaches auth routes under prefix.
func (h *AuthHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/auth/signup", h.handleSignup)
	mux.HandleFunc(prefix+"/auth/login", h.handleLogin)
	mux.HandleFunc(prefix+"/auth/me", onlyMethods(middleware.RequireUser(h.guard, h.logger, h.handleMe), http.MethodGet, http.MethodPut))
	mux.HandleFunc(prefix+"/auth/logout", h.handleLogout)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	created, err := h.users.Signup(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// handleLogin accepts the OAuth2 password form and, for API clients, the
// same fields as JSON.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid form payload")
			return
		}
		req = dto.LoginRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
	}

	token, err := h.users.Login(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, token)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if r.Method == http.MethodGet {
		respond.JSON(w, http.StatusOK, user)
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// handleLogout acknowledges the request; tokens are discarded client-side.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Successfully logged out"})
}
