package models

import "time"

// DefaultAgentVersion is assigned when an agent is created without a version.
const DefaultAgentVersion = "1.0.0"

// Agent is a marketplace listing, optionally owned by a user.
type Agent struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Version       string    `json:"version"`
	Author        *string   `json:"author"`
	IsActive      bool      `json:"is_active"`
	Rating        float64   `json:"rating"`
	DownloadCount int64     `json:"download_count"`
	OwnerID       *int64    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID owns the agent.
func (a Agent) OwnedBy(userID int64) bool {
	return a.OwnerID != nil && *a.OwnerID == userID
}
