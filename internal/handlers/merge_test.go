package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/dimitrije/hackteams-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupMergeTest(t *testing.T) (*testutil.MockMergeService, http.Handler, *services.JWTService) {
	t.Helper()
	mockMergeService := new(testutil.MockMergeService)
	handler := NewMergeHandler(mockMergeService, testLog)
	jwtSvc := newTestJWTService()
	app := newTestApp(jwtSvc,
		route{http.MethodPost, "/events/:eventId/merge-invitations", handler.Send},
		route{http.MethodPost, "/merge-invitations/:invitationId/respond", handler.Respond},
		route{http.MethodDelete, "/merge-invitations/:invitationId", handler.Cancel},
		route{http.MethodGet, "/teams/:teamId/merge-invitations", handler.List},
	)
	return mockMergeService, app, jwtSvc
}

func pendingInvitation(eventID, sender, receiver, senderUser uuid.UUID) *models.MergeInvitation {
	return &models.MergeInvitation{
		ID:             uuid.New(),
		EventID:        eventID,
		SenderTeamID:   sender,
		ReceiverTeamID: receiver,
		SenderUserID:   senderUser,
		Message:        "join forces?",
		Status:         models.InvitationStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestMergeHandler_Send_Success(t *testing.T) {
	mockMergeService, app, jwtSvc := setupMergeTest(t)

	userID := uuid.New()
	eventID := uuid.New()
	sender, receiver := uuid.New(), uuid.New()
	inv := pendingInvitation(eventID, sender, receiver, userID)

	mockMergeService.On("SendInvite", mock.Anything, services.SendInviteRequest{
		EventID:        eventID,
		SenderTeamID:   sender,
		ReceiverTeamID: receiver,
		CallerID:       userID,
		Message:        "join forces?",
	}).Return(inv, nil)

	token := generateTestToken(t, jwtSvc, userID, "ana@example.com")
	rec := do(t, app, http.MethodPost, "/events/"+eventID.String()+"/merge-invitations", token, dto.SendMergeInvitationRequest{
		SenderTeamID:   sender,
		ReceiverTeamID: receiver,
		Message:        "join forces?",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[dto.MergeInvitationResponse](t, rec)
	assert.Equal(t, inv.ID, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Nil(t, resp.RespondedAt)
	mockMergeService.AssertExpectations(t)
}

func TestMergeHandler_Send_MissingTeams(t *testing.T) {
	_, app, jwtSvc := setupMergeTest(t)

	token := generateTestToken(t, jwtSvc, uuid.New(), "ana@example.com")
	rec := do(t, app, http.MethodPost, "/events/"+uuid.NewString()+"/merge-invitations", token,
		dto.SendMergeInvitationRequest{SenderTeamID: uuid.New()})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMergeHandler_Send_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate pending", services.ErrDuplicatePendingInvitation, http.StatusConflict, "duplicate_pending_invitation"},
		{"not leader", services.ErrNotTeamLeader, http.StatusForbidden, "not_team_leader"},
		{"self invite", services.ErrInvalidInvitation, http.StatusUnprocessableEntity, "invalid_invitation"},
		{"locked", services.ErrTeamLocked, http.StatusConflict, "team_locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMergeService, app, jwtSvc := setupMergeTest(t)
			mockMergeService.On("SendInvite", mock.Anything, mock.Anything).Return(nil, tt.err)

			token := generateTestToken(t, jwtSvc, uuid.New(), "ana@example.com")
			rec := do(t, app, http.MethodPost, "/events/"+uuid.NewString()+"/merge-invitations", token,
				dto.SendMergeInvitationRequest{SenderTeamID: uuid.New(), ReceiverTeamID: uuid.New()})

			assert.Equal(t, tt.status, rec.Code)
			resp := decode[dto.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestMergeHandler_Respond_Accept(t *testing.T) {
	mockMergeService, app, jwtSvc := setupMergeTest(t)

	userID := uuid.New()
	inv := pendingInvitation(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	now := time.Now().UTC()
	inv.Status, inv.RespondedAt = models.InvitationStatusAccepted, &now

	mockMergeService.On("Respond", mock.Anything, inv.ID, userID, models.MergeActionAccept).Return(&services.MergeResult{
		Invitation:   *inv,
		Team:         &models.Team{ID: inv.ReceiverTeamID, LeaderUserID: userID, CurrentSize: 4, CapacityMax: 4},
		MovedMembers: 2,
	}, nil)

	token := generateTestToken(t, jwtSvc, userID, "jelena@example.com")
	rec := do(t, app, http.MethodPost, "/merge-invitations/"+inv.ID.String()+"/respond", token,
		dto.RespondMergeInvitationRequest{Action: "accept"})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.MergeResponse](t, rec)
	assert.Equal(t, "accepted", resp.Invitation.Status)
	require.NotNil(t, resp.Team)
	assert.Equal(t, 4, resp.Team.CurrentSize)
	assert.Equal(t, int64(2), resp.MovedMembers)
	mockMergeService.AssertExpectations(t)
}

func TestMergeHandler_Respond_RejectHasNoTeam(t *testing.T) {
	mockMergeService, app, jwtSvc := setupMergeTest(t)

	userID := uuid.New()
	inv := pendingInvitation(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	inv.Status = models.InvitationStatusRejected

	mockMergeService.On("Respond", mock.Anything, inv.ID, userID, models.MergeActionReject).
		Return(&services.MergeResult{Invitation: *inv}, nil)

	token := generateTestToken(t, jwtSvc, userID, "jelena@example.com")
	rec := do(t, app, http.MethodPost, "/merge-invitations/"+inv.ID.String()+"/respond", token,
		dto.RespondMergeInvitationRequest{Action: "reject"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"team"`)
}

func TestMergeHandler_Respond_Errors(t *testing.T) {
	tests := []struct {
		name   string
		action string
		err    error
		status int
	}{
		{"capacity", "accept", services.ErrCapacityExceeded, http.StatusConflict},
		{"already responded", "accept", services.ErrAlreadyResponded, http.StatusConflict},
		{"unknown action", "maybe", services.ErrInvalidAction, http.StatusUnprocessableEntity},
		{"missing invitation", "reject", services.ErrInvitationNotFound, http.StatusNotFound},
		{"wrong leader", "accept", services.ErrNotTeamLeader, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMergeService, app, jwtSvc := setupMergeTest(t)
			invID := uuid.New()
			userID := uuid.New()
			mockMergeService.On("Respond", mock.Anything, invID, userID, models.MergeAction(tt.action)).Return(nil, tt.err)

			token := generateTestToken(t, jwtSvc, userID, "jelena@example.com")
			rec := do(t, app, http.MethodPost, "/merge-invitations/"+invID.String()+"/respond", token,
				dto.RespondMergeInvitationRequest{Action: tt.action})

			assert.Equal(t, tt.status, rec.Code)
			mockMergeService.AssertExpectations(t)
		})
	}
}

func TestMergeHandler_Cancel(t *testing.T) {
	mockMergeService, app, jwtSvc := setupMergeTest(t)

	userID := uuid.New()
	inv := pendingInvitation(uuid.New(), uuid.New(), uuid.New(), userID)
	inv.Status = models.InvitationStatusCancelled

	mockMergeService.On("CancelInvite", mock.Anything, inv.ID, userID).Return(inv, nil)

	token := generateTestToken(t, jwtSvc, userID, "ana@example.com")
	rec := do(t, app, http.MethodDelete, "/merge-invitations/"+inv.ID.String(), token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.MergeInvitationResponse](t, rec)
	assert.Equal(t, "cancelled", resp.Status)
}

func TestMergeHandler_List(t *testing.T) {
	mockMergeService, app, jwtSvc := setupMergeTest(t)

	userID := uuid.New()
	teamID := uuid.New()
	eventID := uuid.New()
	incoming := pendingInvitation(eventID, uuid.New(), teamID, uuid.New())

	mockMergeService.On("ListInvites", mock.Anything, teamID, userID).Return(&services.TeamInvitations{
		Incoming: []models.MergeInvitation{*incoming},
		Outgoing: []models.MergeInvitation{},
	}, nil)

	token := generateTestToken(t, jwtSvc, userID, "ana@example.com")
	rec := do(t, app, http.MethodGet, "/teams/"+teamID.String()+"/merge-invitations", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.TeamInvitationsResponse](t, rec)
	require.Len(t, resp.Incoming, 1)
	assert.Equal(t, incoming.ID, resp.Incoming[0].ID)
	assert.NotNil(t, resp.Outgoing)
	assert.Empty(t, resp.Outgoing)
}
