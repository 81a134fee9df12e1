package handlers

import (
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teamService TeamServiceInterface
	joinService JoinServiceInterface
	log         *zap.Logger
}

func NewTeamHandler(teamService TeamServiceInterface, joinService JoinServiceInterface, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		joinService: joinService,
		log:         log,
	}
}

func (h *TeamHandler) Register(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	eventID, ok := parseID(c, "eventId")
	if !ok {
		return
	}

	var req dto.RegisterTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	team, err := h.teamService.RegisterTeam(c.Request.Context(), services.RegisterTeamRequest{
		EventID:     eventID,
		LeaderID:    userID,
		Name:        req.Name,
		CapacityMin: req.CapacityMin,
		CapacityMax: req.CapacityMax,
		Fields:      toFields(req.Fields),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(201, toTeamResponse(team))
}

func (h *TeamHandler) RegisterIndividual(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	eventID, ok := parseID(c, "eventId")
	if !ok {
		return
	}

	var req dto.RegisterIndividualRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	reg, err := h.teamService.RegisterIndividual(c.Request.Context(), eventID, userID, toFields(req.Fields))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(201, dto.RegistrationResponse{
		ID:      reg.ID,
		EventID: reg.EventID,
		UserID:  reg.UserID,
		TeamID:  reg.TeamID,
	})
}

func (h *TeamHandler) Get(c *drift.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	team, err := h.teamService.GetByID(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, toTeamResponse(team))
}

func (h *TeamHandler) GetMembers(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	members, err := h.teamService.GetMembers(c.Request.Context(), teamID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response := make([]dto.TeamMemberResponse, len(members))
	for i := range members {
		response[i] = toMemberResponse(&members[i])
	}

	_ = c.JSON(200, response)
}

// Complete sets the terminal lock on the caller's team.
func (h *TeamHandler) Complete(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	team, err := h.joinService.CompleteTeam(c.Request.Context(), teamID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, toTeamResponse(team))
}
