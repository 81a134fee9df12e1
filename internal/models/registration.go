package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is the canonical record that a user entered an event. TeamID
// is nil for individual-mode registrations.
type Registration struct {
	ID        uuid.UUID    `json:"id"`
	EventID   uuid.UUID    `json:"event_id"`
	UserID    uuid.UUID    `json:"user_id"`
	TeamID    *uuid.UUID   `json:"team_id,omitempty"`
	Profile   MemberFields `json:"profile"`
	CreatedAt time.Time    `json:"created_at"`
}

func (r *Registration) IsForTeam(teamID uuid.UUID) bool {
	return r.TeamID != nil && *r.TeamID == teamID
}
