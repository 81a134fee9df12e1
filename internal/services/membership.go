package services

import (
	"context"
	"errors"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
)

// MembershipResolver answers what a user currently is within an event. It
// only reads; coordinators use it to reject redundant requests early.
type MembershipResolver struct {
	store store.Reader
}

func NewMembershipResolver(st store.Reader) *MembershipResolver {
	return &MembershipResolver{store: st}
}

func (r *MembershipResolver) Resolve(ctx context.Context, eventID, userID uuid.UUID) (models.Membership, error) {
	m, err := resolveMembership(ctx, r.store, eventID, userID)
	if err != nil {
		return models.Membership{}, classify("resolve membership", err)
	}
	return m, nil
}

// resolveMembership works against any reader so transactions can re-resolve
// against their own view.
func resolveMembership(ctx context.Context, r store.Reader, eventID, userID uuid.UUID) (models.Membership, error) {
	member, err := r.FindMemberForUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Membership{}, err
	}
	if member != nil && member.IsAccepted() {
		return models.Membership{
			State:    models.MembershipAcceptedTeamMember,
			TeamID:   member.TeamID,
			MemberID: member.ID,
			IsLeader: member.IsLeader,
		}, nil
	}

	reg, err := r.GetRegistration(ctx, eventID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Membership{}, err
	}
	if reg != nil {
		if reg.TeamID == nil {
			return models.Membership{State: models.MembershipRegisteredIndividual}, nil
		}
		// The registration is canonical even without a matching member row.
		return models.Membership{
			State:  models.MembershipAcceptedTeamMember,
			TeamID: *reg.TeamID,
		}, nil
	}

	if member != nil {
		return models.Membership{
			State:    models.MembershipPendingTeamMember,
			TeamID:   member.TeamID,
			MemberID: member.ID,
		}, nil
	}
	return models.Membership{State: models.MembershipUnregistered}, nil
}
