package handlers

import (
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/google/uuid"
)

func toFields(f dto.MemberFields) models.MemberFields {
	return models.MemberFields(f)
}

func fromFields(f models.MemberFields) dto.MemberFields {
	return dto.MemberFields(f)
}

func toTeamResponse(t *models.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:           t.ID,
		EventID:      t.EventID,
		Name:         t.Name,
		LeaderUserID: t.LeaderUserID,
		CapacityMin:  t.CapacityMin,
		CapacityMax:  t.CapacityMax,
		CurrentSize:  t.CurrentSize,
		IsCompleted:  t.IsCompleted,
	}
}

func toMemberResponse(m *models.TeamMember) dto.TeamMemberResponse {
	return dto.TeamMemberResponse{
		ID:       m.ID,
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Email:    m.Email,
		Fields:   fromFields(m.Fields),
		IsLeader: m.IsLeader,
		Status:   string(m.Status),
		JoinedAt: m.JoinedAt,
	}
}

func toInvitationResponse(inv *models.MergeInvitation) dto.MergeInvitationResponse {
	return dto.MergeInvitationResponse{
		ID:             inv.ID,
		EventID:        inv.EventID,
		SenderTeamID:   inv.SenderTeamID,
		ReceiverTeamID: inv.ReceiverTeamID,
		SenderUserID:   inv.SenderUserID,
		Message:        inv.Message,
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt,
		RespondedAt:    inv.RespondedAt,
	}
}

func toInvitationList(invs []models.MergeInvitation) []dto.MergeInvitationResponse {
	out := make([]dto.MergeInvitationResponse, len(invs))
	for i := range invs {
		out[i] = toInvitationResponse(&invs[i])
	}
	return out
}

func toMembershipResponse(eventID uuid.UUID, m models.Membership) dto.MembershipResponse {
	resp := dto.MembershipResponse{
		EventID:  eventID,
		State:    m.State.String(),
		IsLeader: m.IsLeader,
	}
	if m.TeamID != uuid.Nil {
		teamID := m.TeamID
		resp.TeamID = &teamID
	}
	if m.MemberID != uuid.Nil {
		memberID := m.MemberID
		resp.MemberID = &memberID
	}
	return resp
}
