package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusRejected  InvitationStatus = "rejected"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationStatusPending
}

type MergeInvitation struct {
	ID             uuid.UUID        `json:"id"`
	EventID        uuid.UUID        `json:"event_id"`
	SenderTeamID   uuid.UUID        `json:"sender_team_id"`
	ReceiverTeamID uuid.UUID        `json:"receiver_team_id"`
	SenderUserID   uuid.UUID        `json:"sender_user_id"`
	Message        string           `json:"message"`
	Status         InvitationStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`
}

type MergeAction string

const (
	MergeActionAccept MergeAction = "accept"
	MergeActionReject MergeAction = "reject"
)

func (a MergeAction) Valid() bool {
	return a == MergeActionAccept || a == MergeActionReject
}
