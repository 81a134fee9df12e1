package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/pkg/dto"
	"github.com/dimitrije/hackteams-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupMembershipTest(t *testing.T, runtime config.RuntimeConfig) (*testutil.MockMembershipService, http.Handler, *services.JWTService) {
	t.Helper()
	mockResolver := new(testutil.MockMembershipService)
	handler := NewMembershipHandler(mockResolver, runtime, testLog)
	jwtSvc := newTestJWTService()
	app := newTestApp(jwtSvc, route{http.MethodGet, "/events/:eventId/membership", handler.Get})
	return mockResolver, app, jwtSvc
}

func TestMembershipHandler_Get_AcceptedLeader(t *testing.T) {
	mockResolver, app, jwtSvc := setupMembershipTest(t, config.RuntimeConfig{DemoMode: true})

	userID := uuid.New()
	eventID := uuid.New()
	teamID := uuid.New()
	memberID := uuid.New()

	mockResolver.On("Resolve", mock.Anything, eventID, userID).Return(models.Membership{
		State:    models.MembershipAcceptedTeamMember,
		TeamID:   teamID,
		MemberID: memberID,
		IsLeader: true,
	}, nil)

	token := generateTestToken(t, jwtSvc, userID, "leader@example.com")
	rec := do(t, app, http.MethodGet, "/events/"+eventID.String()+"/membership", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.MembershipResponse](t, rec)
	assert.Equal(t, "accepted_team_member", resp.State)
	require.NotNil(t, resp.TeamID)
	assert.Equal(t, teamID, *resp.TeamID)
	require.NotNil(t, resp.MemberID)
	assert.Equal(t, memberID, *resp.MemberID)
	assert.True(t, resp.IsLeader)
	assert.True(t, resp.DemoMode)

	mockResolver.AssertExpectations(t)
}

func TestMembershipHandler_Get_UnregisteredOmitsTeam(t *testing.T) {
	mockResolver, app, jwtSvc := setupMembershipTest(t, config.RuntimeConfig{})

	userID := uuid.New()
	eventID := uuid.New()

	mockResolver.On("Resolve", mock.Anything, eventID, userID).Return(models.Membership{}, nil)

	token := generateTestToken(t, jwtSvc, userID, "user@example.com")
	rec := do(t, app, http.MethodGet, "/events/"+eventID.String()+"/membership", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "team_id")
	resp := decode[dto.MembershipResponse](t, rec)
	assert.Equal(t, "unregistered", resp.State)
}

func TestMembershipHandler_Get_InvalidEventID(t *testing.T) {
	_, app, jwtSvc := setupMembershipTest(t, config.RuntimeConfig{})

	token := generateTestToken(t, jwtSvc, uuid.New(), "user@example.com")
	rec := do(t, app, http.MethodGet, "/events/not-a-uuid/membership", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid event id")
}

func TestMembershipHandler_Get_NotAuthenticated(t *testing.T) {
	_, app, _ := setupMembershipTest(t, config.RuntimeConfig{})

	rec := do(t, app, http.MethodGet, "/events/"+uuid.NewString()+"/membership", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMembershipHandler_Get_StoreFailureIsRetryable(t *testing.T) {
	mockResolver, app, jwtSvc := setupMembershipTest(t, config.RuntimeConfig{})

	userID := uuid.New()
	eventID := uuid.New()
	cause := fmt.Errorf("resolve membership: %w: %w", services.ErrTransactionFailure, errors.New("pool closed"))
	mockResolver.On("Resolve", mock.Anything, eventID, userID).Return(models.Membership{}, cause)

	token := generateTestToken(t, jwtSvc, userID, "user@example.com")
	rec := do(t, app, http.MethodGet, "/events/"+eventID.String()+"/membership", token, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[dto.ErrorResponse](t, rec)
	assert.Equal(t, "transaction_failure", resp.Code)
	assert.NotContains(t, resp.Message, "pool closed")
}
