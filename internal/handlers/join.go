package handlers

import (
	"fmt"
	"strings"

	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/dimitrije/hackteams-api/internal/middleware"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const outcomeVerificationRequired = "verification_required"

type JoinHandler struct {
	joinService JoinServiceInterface
	runtime     config.RuntimeConfig
	log         *zap.Logger
}

func NewJoinHandler(joinService JoinServiceInterface, runtime config.RuntimeConfig, log *zap.Logger) *JoinHandler {
	return &JoinHandler{
		joinService: joinService,
		runtime:     runtime,
		log:         log,
	}
}

// Join links the caller to a team through its shared link.
func (h *JoinHandler) Join(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	eventID, ok := parseID(c, "eventId")
	if !ok {
		return
	}
	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	var req dto.JoinTeamRequest
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.BadRequest("invalid request body")
			return
		}
	}
	email, ok := joinEmail(c, req.Email)
	if !ok {
		return
	}

	res, err := h.joinService.JoinViaInvite(c.Request.Context(), services.JoinRequest{
		EventID:  eventID,
		TeamID:   teamID,
		CallerID: userID,
		Email:    email,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := 200
	if res.Created {
		status = 201
	}

	_ = c.JSON(status, dto.JoinTeamResponse{
		Outcome:        outcomeVerificationRequired,
		Team:           toTeamResponse(&res.Team),
		Member:         toMemberResponse(&res.Member),
		RequiredFields: res.RequiredFields,
		Created:        res.Created,
		ConfirmURL:     h.confirmURL(res.Member.ID.String()),
	})
}

// joinEmail picks the email a join is matched on. A token email is
// authoritative: a body email may only repeat it. Tokens without one fall
// back to the body.
func joinEmail(c *drift.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	tokenEmail := middleware.GetUserEmail(c)
	if tokenEmail == "" {
		return requested, true
	}
	if requested != "" && !strings.EqualFold(requested, tokenEmail) {
		_ = c.JSON(403, dto.ErrorResponse{
			Code:    "email_mismatch",
			Message: "email must match the signed-in account",
		})
		return "", false
	}
	return tokenEmail, true
}

func (h *JoinHandler) confirmURL(memberID string) string {
	return fmt.Sprintf("%s/api/v1/members/%s/confirm", strings.TrimRight(h.runtime.BaseURL, "/"), memberID)
}

func (h *JoinHandler) Confirm(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	var req dto.ConfirmJoinRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	member, err := h.joinService.ConfirmJoin(c.Request.Context(), memberID, userID, toFields(req.Fields))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, toMemberResponse(member))
}

func (h *JoinHandler) SeedInvitee(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	teamID, ok := parseID(c, "teamId")
	if !ok {
		return
	}

	var req dto.SeedInviteeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		c.BadRequest("email is required")
		return
	}

	member, err := h.joinService.SeedInvitee(c.Request.Context(), services.SeedRequest{
		TeamID:   teamID,
		CallerID: userID,
		Email:    req.Email,
		Fields:   toFields(req.Fields),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(201, toMemberResponse(member))
}
