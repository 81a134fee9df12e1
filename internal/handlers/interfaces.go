package handlers

import (
	"context"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/google/uuid"
)

// MembershipServiceInterface defines the methods used by handlers from MembershipResolver
type MembershipServiceInterface interface {
	Resolve(ctx context.Context, eventID, userID uuid.UUID) (models.Membership, error)
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	RegisterTeam(ctx context.Context, req services.RegisterTeamRequest) (*models.Team, error)
	RegisterIndividual(ctx context.Context, eventID, userID uuid.UUID, fields models.MemberFields) (*models.Registration, error)
	GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	GetMembers(ctx context.Context, teamID, callerID uuid.UUID) ([]models.TeamMember, error)
}

// JoinServiceInterface defines the methods used by handlers from JoinCoordinator
type JoinServiceInterface interface {
	JoinViaInvite(ctx context.Context, req services.JoinRequest) (*services.JoinResult, error)
	ConfirmJoin(ctx context.Context, memberID, callerID uuid.UUID, fields models.MemberFields) (*models.TeamMember, error)
	SeedInvitee(ctx context.Context, req services.SeedRequest) (*models.TeamMember, error)
	CompleteTeam(ctx context.Context, teamID, callerID uuid.UUID) (*models.Team, error)
}

// MergeServiceInterface defines the methods used by handlers from MergeCoordinator
type MergeServiceInterface interface {
	SendInvite(ctx context.Context, req services.SendInviteRequest) (*models.MergeInvitation, error)
	Respond(ctx context.Context, invitationID, callerID uuid.UUID, action models.MergeAction) (*services.MergeResult, error)
	CancelInvite(ctx context.Context, invitationID, callerID uuid.UUID) (*models.MergeInvitation, error)
	ListInvites(ctx context.Context, teamID, callerID uuid.UUID) (*services.TeamInvitations, error)
}

var (
	_ MembershipServiceInterface = (*services.MembershipResolver)(nil)
	_ TeamServiceInterface       = (*services.TeamService)(nil)
	_ JoinServiceInterface       = (*services.JoinCoordinator)(nil)
	_ MergeServiceInterface      = (*services.MergeCoordinator)(nil)
)
