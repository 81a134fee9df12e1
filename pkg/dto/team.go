package dto

import (
	"time"

	"github.com/google/uuid"
)

// MemberFields is the editable profile carried by members and
// registrations.
type MemberFields struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Mobile       string `json:"mobile"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
}

type RegisterTeamRequest struct {
	Name        string       `json:"name"`
	CapacityMin int          `json:"capacity_min"`
	CapacityMax int          `json:"capacity_max"`
	Fields      MemberFields `json:"fields"`
}

type RegisterIndividualRequest struct {
	Fields MemberFields `json:"fields"`
}

type TeamResponse struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	Name         string    `json:"name"`
	LeaderUserID uuid.UUID `json:"leader_user_id"`
	CapacityMin  int       `json:"capacity_min"`
	CapacityMax  int       `json:"capacity_max"`
	CurrentSize  int       `json:"current_size"`
	IsCompleted  bool      `json:"is_completed"`
}

type TeamMemberResponse struct {
	ID       uuid.UUID    `json:"id"`
	TeamID   uuid.UUID    `json:"team_id"`
	UserID   *uuid.UUID   `json:"user_id,omitempty"`
	Email    string       `json:"email,omitempty"`
	Fields   MemberFields `json:"fields"`
	IsLeader bool         `json:"is_leader"`
	Status   string       `json:"status"`
	JoinedAt *time.Time   `json:"joined_at,omitempty"`
}

type RegistrationResponse struct {
	ID      uuid.UUID  `json:"id"`
	EventID uuid.UUID  `json:"event_id"`
	UserID  uuid.UUID  `json:"user_id"`
	TeamID  *uuid.UUID `json:"team_id,omitempty"`
}

type MembershipResponse struct {
	EventID  uuid.UUID  `json:"event_id"`
	State    string     `json:"state"`
	TeamID   *uuid.UUID `json:"team_id,omitempty"`
	MemberID *uuid.UUID `json:"member_id,omitempty"`
	IsLeader bool       `json:"is_leader"`
	DemoMode bool       `json:"demo_mode,omitempty"`
}
