package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/storage"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var (
	ErrAgentNotFound  = apperr.NotFound("Agent not found")
	ErrAgentNameTaken = apperr.Conflict("Agent name already exists")
)

// AgentService manages marketplace listings.
type AgentService struct {
	agents storage.AgentStore
	logger *zap.Logger
}

func NewAgentService(agents storage.AgentStore, logger *zap.Logger) *AgentService {
	return &AgentService{agents: agents, logger: logger}
}

// Page clamps pagination input: skip is never negative and limit stays in [1, MaxPageLimit].
func Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit
}

// Get returns an agent. Inactive agents are only visible to their owner and superusers.
func (s *AgentService) Get(ctx context.Context, viewer *models.User, id int64) (models.Agent, error) {
	agent, err := s.find(ctx, id)
	if err != nil {
		return models.Agent{}, err
	}
	if !agent.IsActive && !canManage(viewer, agent) {
		return models.Agent{}, ErrAgentNotFound
	}
	return agent, nil
}

// List returns one page of agents visible to viewer, which may be nil.
func (s *AgentService) List(ctx context.Context, viewer *models.User, skip, limit int) ([]models.Agent, error) {
	skip, limit = Page(skip, limit)
	filter := storage.AgentFilter{Skip: skip, Limit: limit}
	if viewer != nil {
		filter.ViewerID = viewer.ID
		filter.IncludeInactive = viewer.IsSuperuser
	}
	agents, err := s.agents.ListAgents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// Create registers an agent owned by owner.
func (s *AgentService) Create(ctx context.Context, owner models.User, req dto.CreateAgentRequest) (models.Agent, error) {
	if err := req.Validate(); err != nil {
		return models.Agent{}, apperr.Validation(err.Error(), err)
	}
	version := models.DefaultAgentVersion
	if req.Version != nil {
		version = *req.Version
	}

	agent, err := s.agents.CreateAgent(ctx, models.Agent{
		Name:        req.Name,
		Description: req.Description,
		Version:     version,
		Author:      req.Author,
		IsActive:    true,
		OwnerID:     &owner.ID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Agent{}, ErrAgentNameTaken
		}
		return models.Agent{}, fmt.Errorf("create agent: %w", err)
	}

	s.logger.Info("agent created", zap.Int64("agent_id", agent.ID), zap.Int64("owner_id", owner.ID))
	return agent, nil
}

// Update applies the enumerated field changes in req. Only the owner or a
// superuser may update.
func (s *AgentService) Update(ctx context.Context, actor models.User, id int64, req dto.UpdateAgentRequest) (models.Agent, error) {
	if err := req.Validate(); err != nil {
		return models.Agent{}, apperr.Validation(err.Error(), err)
	}
	agent, err := s.findManaged(ctx, actor, id)
	if err != nil {
		return models.Agent{}, err
	}
	if req.Empty() {
		return agent, nil
	}

	updated, err := s.agents.UpdateAgent(ctx, id, storage.AgentChanges{
		Name:        req.Name,
		Description: req.Description,
		Version:     req.Version,
		Author:      req.Author,
		IsActive:    req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return models.Agent{}, ErrAgentNameTaken
		case errors.Is(err, storage.ErrNotFound):
			return models.Agent{}, ErrAgentNotFound
		}
		return models.Agent{}, fmt.Errorf("update agent: %w", err)
	}
	return updated, nil
}

// Delete removes an agent. Only the owner or a superuser may delete.
func (s *AgentService) Delete(ctx context.Context, actor models.User, id int64) error {
	if _, err := s.findManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.agents.DeleteAgent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAgentNotFound
		}
		return fmt.Errorf("delete agent: %w", err)
	}
	s.logger.Info("agent deleted", zap.Int64("agent_id", id), zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *AgentService) find(ctx context.Context, id int64) (models.Agent, error) {
	agent, err := s.agents.FindAgent(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Agent{}, ErrAgentNotFound
		}
		return models.Agent{}, fmt.Errorf("find agent: %w", err)
	}
	return agent, nil
}

// findManaged loads an agent actor may change. Inactive agents the actor
// cannot manage read as missing, the same as on Get.
func (s *AgentService) findManaged(ctx context.Context, actor models.User, id int64) (models.Agent, error) {
	agent, err := s.find(ctx, id)
	if err != nil {
		return models.Agent{}, err
	}
	if !canManage(&actor, agent) {
		if !agent.IsActive {
			return models.Agent{}, ErrAgentNotFound
		}
		return models.Agent{}, auth.ErrNotSuperuser
	}
	return agent, nil
}

func canManage(user *models.User, agent models.Agent) bool {
	if user == nil {
		return false
	}
	return user.IsSuperuser || agent.OwnedBy(user.ID)
}
