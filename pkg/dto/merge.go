package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMergeInvitationRequest struct {
	SenderTeamID   uuid.UUID `json:"sender_team_id"`
	ReceiverTeamID uuid.UUID `json:"receiver_team_id"`
	Message        string    `json:"message"`
}

type RespondMergeInvitationRequest struct {
	Action string `json:"action"`
}

type MergeInvitationResponse struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	SenderTeamID   uuid.UUID  `json:"sender_team_id"`
	ReceiverTeamID uuid.UUID  `json:"receiver_team_id"`
	SenderUserID   uuid.UUID  `json:"sender_user_id"`
	Message        string     `json:"message,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
}

type MergeResponse struct {
	Invitation   MergeInvitationResponse `json:"invitation"`
	Team         *TeamResponse           `json:"team,omitempty"`
	MovedMembers int64                   `json:"moved_members"`
}

type TeamInvitationsResponse struct {
	Incoming []MergeInvitationResponse `json:"incoming"`
	Outgoing []MergeInvitationResponse `json:"outgoing"`
}
