package handlers

import (
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type MergeHandler struct {
	mergeService MergeServiceInterface
	log          *zap.Logger
}

func NewMergeHandler(mergeService MergeServiceInterface, log *zap.Logger) *MergeHandler {
	return &MergeHandler{
		mergeService: mergeService,
		log:          log,
	}
}

func (h *MergeHandler) Send(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	eventID, ok := parseID(c, "eventId")
	if !ok {
		return
	}

	var req dto.SendMergeInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.SenderTeamID == uuid.Nil || req.ReceiverTeamID == uuid.Nil {
		c.BadRequest("sender_team_id and receiver_team_id are required")
		return
	}

	inv, err := h.mergeService.SendInvite(c.Request.Context(), services.SendInviteRequest{
		EventID:        eventID,
		SenderTeamID:   req.SenderTeamID,
		ReceiverTeamID: req.ReceiverTeamID,
		CallerID:       userID,
		Message:        req.Message,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(201, toInvitationResponse(inv))
}

func (h *MergeHandler) Respond(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	invitationID, ok := parseID(c, "invitationId")
	if !ok {
		return
	}

	var req dto.RespondMergeInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res, err := h.mergeService.Respond(c.Request.Context(), invitationID, userID, models.MergeAction(req.Action))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := dto.MergeResponse{
		Invitation:   toInvitationResponse(&res.Invitation),
		MovedMembers: res.MovedMembers,
	}
	if res.Team != nil {
		team := toTeamResponse(res.Team)
		resp.Team = &team
	}

	_ = c.JSON(200, resp)
}

func (h *MergeHandler) Cancel(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	invitationID, ok := parseID(c, "invitationId")
	if !ok {
		return
	}

	inv, err := h.mergeService.CancelInvite(c.Request.Context(), invitationID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, toInvitationResponse(inv))
}

func (h *MergeHandler) List(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	invs, err := h.mergeService.ListInvites(c.Request.Context(), teamID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, dto.TeamInvitationsResponse{
		Incoming: toInvitationList(invs.Incoming),
		Outgoing: toInvitationList(invs.Outgoing),
	})
}
