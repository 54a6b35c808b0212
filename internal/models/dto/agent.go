package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/hongminglow/agent-market-be/internal/models"
)

type CreateAgentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Version     *string `json:"version"`
	Author      *string `json:"author"`
}

func (r CreateAgentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Version, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&r.Author, validation.Length(0, 255)),
	)
}

// UpdateAgentRequest enumerates the only agent fields a client may change.
// Nil fields are left untouched.
type UpdateAgentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Version     *string `json:"version"`
	Author      *string `json:"author"`
	IsActive    *bool   `json:"is_active"`
}

func (r UpdateAgentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Version, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&r.Author, validation.Length(0, 255)),
	)
}

// Empty reports whether the request changes nothing.
func (r UpdateAgentRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Version == nil && r.Author == nil && r.IsActive == nil
}

type AgentListResponse struct {
	Items []models.Agent `json:"items"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}
