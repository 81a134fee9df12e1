package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
)

type RegisterTeamRequest struct {
	EventID     uuid.UUID
	LeaderID    uuid.UUID
	Name        string
	CapacityMin int
	CapacityMax int
	Fields      models.MemberFields
}

// TeamService creates teams and individual registrations and serves team
// reads. Membership changes after creation go through the coordinators.
type TeamService struct {
	store    store.Store
	resolver *MembershipResolver
	now      func() time.Time
}

func NewTeamService(st store.Store) *TeamService {
	return &TeamService{store: st, resolver: NewMembershipResolver(st), now: time.Now}
}

// RegisterTeam creates a team led by req.LeaderID, with the leader as its
// first accepted member and a registration pointing at it.
func (s *TeamService) RegisterTeam(ctx context.Context, req RegisterTeamRequest) (*models.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || hasControl(name) || req.CapacityMin < 1 || req.CapacityMin > req.CapacityMax {
		return nil, ErrInvalidTeam
	}
	fields := normalizeFields(req.Fields)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	var team models.Team
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		leader, err := tx.GetUser(ctx, req.LeaderID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		membership, err := resolveMembership(ctx, tx, req.EventID, req.LeaderID)
		if err != nil {
			return err
		}
		if membership.Registered() {
			return ErrConflictingRegistration
		}

		team = models.Team{
			ID:           uuid.New(),
			EventID:      req.EventID,
			Name:         name,
			LeaderUserID: leader.ID,
			CapacityMin:  req.CapacityMin,
			CapacityMax:  req.CapacityMax,
			CurrentSize:  1,
		}
		if err := tx.InsertTeam(ctx, &team); err != nil {
			return err
		}

		now := s.now().UTC()
		leaderID := leader.ID
		if err := tx.InsertMember(ctx, &models.TeamMember{
			ID:       uuid.New(),
			TeamID:   team.ID,
			UserID:   &leaderID,
			Email:    normalizeEmail(leader.Email),
			Fields:   fields,
			IsLeader: true,
			Status:   models.MemberStatusAccepted,
			JoinedAt: &now,
		}); err != nil {
			return err
		}

		teamID := team.ID
		err = tx.InsertRegistration(ctx, &models.Registration{
			ID:      uuid.New(),
			EventID: req.EventID,
			UserID:  leader.ID,
			TeamID:  &teamID,
			Profile: fields,
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrConflictingRegistration
		}
		return err
	})
	if err != nil {
		return nil, classify("register team", err)
	}
	return &team, nil
}

// RegisterIndividual enters the user into the event without a team.
func (s *TeamService) RegisterIndividual(ctx context.Context, eventID, userID uuid.UUID, fields models.MemberFields) (*models.Registration, error) {
	fields = normalizeFields(fields)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	reg := models.Registration{ID: uuid.New(), EventID: eventID, UserID: userID, Profile: fields}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		membership, err := resolveMembership(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if membership.Registered() {
			return ErrConflictingRegistration
		}
		err = tx.InsertRegistration(ctx, &reg)
		if errors.Is(err, store.ErrDuplicate) {
			return ErrConflictingRegistration
		}
		return err
	})
	if err != nil {
		return nil, classify("register individual", err)
	}
	return &reg, nil
}

func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, classify("get team", err)
	}
	return team, nil
}

// GetMembers lists a team's members for one of its accepted members.
func (s *TeamService) GetMembers(ctx context.Context, teamID, callerID uuid.UUID) ([]models.TeamMember, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	membership, err := s.resolver.Resolve(ctx, team.EventID, callerID)
	if err != nil {
		return nil, err
	}
	if !membership.IsAcceptedIn(team.ID) {
		return nil, ErrNotTeamLeader
	}
	members, err := s.store.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, classify("list team members", err)
	}
	return members, nil
}
