package handlers

import (
	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type MembershipHandler struct {
	resolver MembershipServiceInterface
	runtime  config.RuntimeConfig
	log      *zap.Logger
}

func NewMembershipHandler(resolver MembershipServiceInterface, runtime config.RuntimeConfig, log *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		resolver: resolver,
		runtime:  runtime,
		log:      log,
	}
}

func (h *MembershipHandler) Get(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	eventID, ok := parseID(c, "eventId")
	if !ok {
		return
	}

	membership, err := h.resolver.Resolve(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := toMembershipResponse(eventID, membership)
	resp.DemoMode = h.runtime.DemoMode
	_ = c.JSON(200, resp)
}
