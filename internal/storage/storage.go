package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/agent-market-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserChanges lists the profile fields that may be rewritten. Nil fields are kept.
type UserChanges struct {
	Email    *string
	FullName *string
}

// AgentChanges lists the agent fields that may be rewritten. Nil fields are kept.
type AgentChanges struct {
	Name        *string
	Description *string
	Version     *string
	Author      *string
	IsActive    *bool
}

// AgentFilter narrows an agent listing. Inactive agents are only returned when
// IncludeInactive is set or they belong to ViewerID.
type AgentFilter struct {
	IncludeInactive bool
	ViewerID        int64
	Skip            int
	Limit           int
}

// UserStore captures persistence operations needed by the auth core.
// Every method is a single atomic statement.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	UpdateUser(ctx context.Context, id int64, changes UserChanges) (models.User, error)
	UpdateEmail(ctx context.Context, id int64, email string) (models.User, error)
	UpdateName(ctx context.Context, id int64, name string) (models.User, error)
	SetActive(ctx context.Context, id int64, active bool) (models.User, error)
	SetSuperuser(ctx context.Context, id int64, superuser bool) (models.User, error)
}

// AgentStore captures persistence operations for marketplace agents.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error)
	FindAgent(ctx context.Context, id int64) (models.Agent, error)
	ListAgents(ctx context.Context, filter AgentFilter) ([]models.Agent, error)
	UpdateAgent(ctx context.Context, id int64, changes AgentChanges) (models.Agent, error)
	DeleteAgent(ctx context.Context, id int64) error
}

// Store is the full backing store used by the server.
type Store interface {
	UserStore
	AgentStore
	Ping(ctx context.Context) error
	Close()
}
