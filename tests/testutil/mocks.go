package testutil

import (
	"context"
	"sync"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMembershipService mocks the MembershipResolver
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Resolve(ctx context.Context, eventID, userID uuid.UUID) (models.Membership, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Get(0).(models.Membership), args.Error(1)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) RegisterTeam(ctx context.Context, req services.RegisterTeamRequest) (*models.Team, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) RegisterIndividual(ctx context.Context, eventID, userID uuid.UUID, fields models.MemberFields) (*models.Registration, error) {
	args := m.Called(ctx, eventID, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockTeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetMembers(ctx context.Context, teamID, callerID uuid.UUID) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

// MockJoinService mocks the JoinCoordinator
type MockJoinService struct {
	mock.Mock
}

func (m *MockJoinService) JoinViaInvite(ctx context.Context, req services.JoinRequest) (*services.JoinResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.JoinResult), args.Error(1)
}

func (m *MockJoinService) ConfirmJoin(ctx context.Context, memberID, callerID uuid.UUID, fields models.MemberFields) (*models.TeamMember, error) {
	args := m.Called(ctx, memberID, callerID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockJoinService) SeedInvitee(ctx context.Context, req services.SeedRequest) (*models.TeamMember, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockJoinService) CompleteTeam(ctx context.Context, teamID, callerID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, teamID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

// MockMergeService mocks the MergeCoordinator
type MockMergeService struct {
	mock.Mock
}

func (m *MockMergeService) SendInvite(ctx context.Context, req services.SendInviteRequest) (*models.MergeInvitation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MergeInvitation), args.Error(1)
}

func (m *MockMergeService) Respond(ctx context.Context, invitationID, callerID uuid.UUID, action models.MergeAction) (*services.MergeResult, error) {
	args := m.Called(ctx, invitationID, callerID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MergeResult), args.Error(1)
}

func (m *MockMergeService) CancelInvite(ctx context.Context, invitationID, callerID uuid.UUID) (*models.MergeInvitation, error) {
	args := m.Called(ctx, invitationID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MergeInvitation), args.Error(1)
}

func (m *MockMergeService) ListInvites(ctx context.Context, teamID, callerID uuid.UUID) (*services.TeamInvitations, error) {
	args := m.Called(ctx, teamID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TeamInvitations), args.Error(1)
}

// RecordingNotifier collects notifications instead of delivering them
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *RecordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of every notification recorded so far
func (r *RecordingNotifier) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Templates returns the template of every recorded notification, in order
func (r *RecordingNotifier) Templates() []notify.Template {
	sent := r.Sent()
	out := make([]notify.Template, len(sent))
	for i, n := range sent {
		out[i] = n.Template
	}
	return out
}
