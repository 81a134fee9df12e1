package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/hackteams-api/internal/middleware"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTransactionFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a coordinator error as {code, message, missing, invalid}.
// Store failures are logged and reported without their cause.
func respondError(c *drift.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	resp := dto.ErrorResponse{
		Code:    services.ErrorCode(err),
		Message: err.Error(),
	}

	var fe *services.FieldsError
	if errors.As(err, &fe) {
		resp.Missing = fe.Missing
		resp.Invalid = fe.Invalid
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		resp.Message = "temporarily unable to complete the request, try again"
		if status == http.StatusInternalServerError {
			resp.Message = "internal error"
		}
	}

	_ = c.JSON(status, resp)
}

func parseID(c *drift.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.BadRequest("invalid " + paramLabel(name))
		return uuid.Nil, false
	}
	return id, true
}

var paramLabels = map[string]string{
	"eventId":      "event id",
	"teamId":       "team id",
	"memberId":     "member id",
	"invitationId": "invitation id",
}

func paramLabel(name string) string {
	if l, ok := paramLabels[name]; ok {
		return l
	}
	return name
}

func callerID(c *drift.Context) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}
