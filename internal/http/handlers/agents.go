package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
	"github.com/hongminglow/agent-market-be/internal/middleware"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/service"
)

// AgentHandler exposes marketplace listings. Reads are public; writes need an
// active user and, for existing agents, ownership or superuser rights.
type AgentHandler struct {
	agents *service.AgentService
	guard  *auth.Guard
	logger *zap.Logger
}

func NewAgentHandler(agents *service.AgentService, guard *auth.Guard, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, guard: guard, logger: logger}
}

func (h *AgentHandler) Register(mux *http.ServeMux, prefix string) {
	list := middleware.OptionalUser(h.guard, h.handleList)
	create := middleware.RequireUser(h.guard, h.logger, h.handleCreate)
	mux.HandleFunc(prefix+"/agents", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet, http.MethodPost) {
			return
		}
		if r.Method == http.MethodGet {
			list(w, r)
			return
		}
		create(w, r)
	})

	get := middleware.OptionalUser(h.guard, h.handleGet)
	update := middleware.RequireUser(h.guard, h.logger, h.handleUpdate)
	remove := middleware.RequireUser(h.guard, h.logger, h.handleDelete)
	mux.HandleFunc(prefix+"/agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			get(w, r)
		case http.MethodPut:
			update(w, r)
		default:
			remove(w, r)
		}
	})
}

func (h *AgentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultPageLimit)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	skip, limit = service.Page(skip, limit)

	agents, err := h.agents.List(r.Context(), viewer(r), skip, limit)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AgentListResponse{Items: agents, Skip: skip, Limit: limit})
}

func (h *AgentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	agent, err := h.agents.Get(r.Context(), viewer(r), id)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	owner, _ := auth.UserFromContext(r.Context())
	agent, err := h.agents.Create(r.Context(), owner, req)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	var req dto.UpdateAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	actor, _ := auth.UserFromContext(r.Context())
	agent, err := h.agents.Update(r.Context(), actor, id, req)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	actor, _ := auth.UserFromContext(r.Context())
	if err := h.agents.Delete(r.Context(), actor, id); err != nil {
		respond.FromError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// viewer returns the optional caller attached by OptionalUser.
func viewer(r *http.Request) *models.User {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return &user
	}
	return nil
}
