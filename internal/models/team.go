package models

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	Name         string    `json:"name"`
	LeaderUserID uuid.UUID `json:"leader_user_id"`
	CapacityMin  int       `json:"capacity_min"`
	CapacityMax  int       `json:"capacity_max"`
	CurrentSize  int       `json:"current_size"`
	IsCompleted  bool      `json:"is_completed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRoomFor reports whether n more accepted members fit under CapacityMax.
func (t *Team) HasRoomFor(n int) bool {
	return t.CurrentSize+n <= t.CapacityMax
}

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

func (s MemberStatus) Valid() bool {
	return s == MemberStatusPending || s == MemberStatusAccepted
}

// MemberFields are the identifying details a participant confirms before
// their membership is accepted.
type MemberFields struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Mobile       string `json:"mobile"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
}

type TeamMember struct {
	ID        uuid.UUID    `json:"id"`
	TeamID    uuid.UUID    `json:"team_id"`
	UserID    *uuid.UUID   `json:"user_id,omitempty"`
	Email     string       `json:"email"`
	Fields    MemberFields `json:"fields"`
	IsLeader  bool         `json:"is_leader"`
	Status    MemberStatus `json:"status"`
	JoinedAt  *time.Time   `json:"joined_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *TeamMember) IsAccepted() bool {
	return m.Status == MemberStatusAccepted
}

// LinkedTo reports whether the member row is bound to userID.
func (m *TeamMember) LinkedTo(userID uuid.UUID) bool {
	return m.UserID != nil && *m.UserID == userID
}
