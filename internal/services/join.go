package services

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/hackteams-api/internal/metrics"
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errMemberMoved aborts a confirm whose member row changed teams between the
// unlocked read and the lock. It surfaces as a retryable transaction failure.
var errMemberMoved = errors.New("member moved to another team")

type JoinRequest struct {
	EventID  uuid.UUID
	TeamID   uuid.UUID
	CallerID uuid.UUID
	Email    string
}

// JoinResult is the VerificationRequired outcome of a join: the caller must
// review Member.Fields and confirm them before becoming accepted.
type JoinResult struct {
	Team           models.Team
	Member         models.TeamMember
	RequiredFields []string
	// Created is set when no member row existed for the email and one was
	// created from the caller's profile.
	Created bool
}

type SeedRequest struct {
	TeamID   uuid.UUID
	CallerID uuid.UUID
	Email    string
	Fields   models.MemberFields
}

type JoinCoordinator struct {
	store    store.Store
	resolver *MembershipResolver
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewJoinCoordinator(st store.Store, notifier notify.Notifier, m *metrics.Metrics, log *zap.Logger) *JoinCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &JoinCoordinator{
		store:    st,
		resolver: NewMembershipResolver(st),
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// JoinViaInvite starts a join into req.TeamID. A pending row the caller
// already holds in the team is returned as is. Otherwise an existing row for
// the email is bound to the caller, or a pending row is created from the
// caller's profile. Either way the member stays pending until ConfirmJoin.
func (c *JoinCoordinator) JoinViaInvite(ctx context.Context, req JoinRequest) (res *JoinResult, err error) {
	defer func() { c.metrics.ObserveJoin("join", outcome(err)) }()

	email := normalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	team, err := c.store.GetTeam(ctx, req.TeamID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && team.EventID != req.EventID) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, classify("join team", err)
	}

	membership, err := c.resolver.Resolve(ctx, req.EventID, req.CallerID)
	if err != nil {
		return nil, err
	}
	if membership.IsAcceptedIn(team.ID) {
		return nil, ErrAlreadyMember
	}
	if membership.Registered() {
		return nil, ErrConflictingRegistration
	}
	if team.IsCompleted {
		return nil, ErrTeamLocked
	}
	if !team.HasRoomFor(1) {
		return nil, ErrTeamFull
	}

	result := &JoinResult{RequiredFields: RequiredMemberFields}
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.LockTeam(ctx, team.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		if err != nil {
			return err
		}

		caller := req.CallerID
		existing, err := callerRowIn(ctx, tx, locked.ID, caller)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.IsAccepted() {
				return ErrAlreadyMember
			}
			result.Team = *locked
			result.Member = *existing
			return nil
		}

		member, err := tx.FindMemberByEmail(ctx, locked.ID, email)
		switch {
		case err == nil:
			if member.IsAccepted() {
				return ErrAlreadyMember
			}
			if !member.LinkedTo(caller) {
				if member.UserID != nil {
					c.log.Warn("member row re-bound to another user",
						zap.String("member_id", member.ID.String()),
						zap.String("previous_user_id", member.UserID.String()),
						zap.String("user_id", caller.String()))
				}
				member.UserID = &caller
				if err := tx.UpdateMember(ctx, member); err != nil {
					return err
				}
			}
		case errors.Is(err, store.ErrNotFound):
			user, err := tx.GetUser(ctx, caller)
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			if err != nil {
				return err
			}
			member = &models.TeamMember{
				ID:     uuid.New(),
				TeamID: locked.ID,
				UserID: &caller,
				Email:  email,
				Fields: user.Fields(),
				Status: models.MemberStatusPending,
			}
			if err := tx.InsertMember(ctx, member); err != nil {
				return err
			}
			result.Created = true
		default:
			return err
		}

		result.Team = *locked
		result.Member = *member
		return nil
	})
	if err != nil {
		return nil, classify("join team", err)
	}

	c.log.Info("join started",
		zap.String("team_id", result.Team.ID.String()),
		zap.String("member_id", result.Member.ID.String()),
		zap.Bool("created", result.Created))
	return result, nil
}

// ConfirmJoin accepts a pending member once its required fields are filled
// in. Capacity and the one-registration-per-event rule are re-checked under
// the team lock.
func (c *JoinCoordinator) ConfirmJoin(ctx context.Context, memberID, callerID uuid.UUID, fields models.MemberFields) (confirmed *models.TeamMember, err error) {
	defer func() { c.metrics.ObserveJoin("confirm", outcome(err)) }()

	fields = normalizeFields(fields)

	current, err := c.store.GetMember(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, classify("confirm join", err)
	}

	var member models.TeamMember
	var team models.Team
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		t, err := tx.LockTeam(ctx, current.TeamID)
		if errors.Is(err, store.ErrNotFound) {
			return errMemberMoved
		}
		if err != nil {
			return err
		}
		m, err := tx.LockMember(ctx, memberID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}
		if m.TeamID != t.ID {
			return errMemberMoved
		}

		if !m.LinkedTo(callerID) {
			return ErrNotInvitee
		}
		if m.IsAccepted() {
			return ErrAlreadyMember
		}
		if err := validateFields(fields); err != nil {
			return err
		}
		if t.IsCompleted {
			return ErrTeamLocked
		}

		accepted, err := tx.CountAccepted(ctx, t.ID)
		if err != nil {
			return err
		}
		if accepted+1 > t.CapacityMax {
			return ErrTeamFull
		}

		reg, err := tx.GetRegistration(ctx, t.EventID, callerID)
		switch {
		case err == nil:
			if !reg.IsForTeam(t.ID) {
				return ErrConflictingRegistration
			}
		case errors.Is(err, store.ErrNotFound):
			reg = nil
		default:
			return err
		}
		other, err := tx.FindMemberForUser(ctx, t.EventID, callerID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if other != nil && other.IsAccepted() && other.ID != m.ID {
			if other.TeamID == t.ID {
				return ErrAlreadyMember
			}
			return ErrConflictingRegistration
		}

		now := c.now().UTC()
		m.Fields = fields
		m.Status = models.MemberStatusAccepted
		m.JoinedAt = &now
		if err := tx.UpdateMember(ctx, m); err != nil {
			return err
		}

		size, err := tx.CountAccepted(ctx, t.ID)
		if err != nil {
			return err
		}
		if err := tx.SetTeamSize(ctx, t.ID, size); err != nil {
			return err
		}
		t.CurrentSize = size

		if reg == nil {
			teamID := t.ID
			err := tx.InsertRegistration(ctx, &models.Registration{
				ID:      uuid.New(),
				EventID: t.EventID,
				UserID:  callerID,
				TeamID:  &teamID,
				Profile: fields,
			})
			if errors.Is(err, store.ErrDuplicate) {
				return ErrConflictingRegistration
			}
			if err != nil {
				return err
			}
		}

		member = *m
		team = *t
		return nil
	})
	if err != nil {
		return nil, classify("confirm join", err)
	}

	c.log.Info("member accepted",
		zap.String("team_id", team.ID.String()),
		zap.String("member_id", member.ID.String()),
		zap.Int("team_size", team.CurrentSize))

	if team.LeaderUserID != callerID {
		notifyUser(ctx, c.notifier, c.store, c.log, team.LeaderUserID, notify.TemplateMemberJoined, map[string]string{
			"team_id":     team.ID.String(),
			"team_name":   team.Name,
			"member_name": member.Fields.FirstName,
			"path":        teamPath(team.ID),
		})
	}
	return &member, nil
}

// callerRowIn returns the member row of teamID already linked to userID, or
// nil. A caller holds at most one row per team.
func callerRowIn(ctx context.Context, tx store.Tx, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	members, err := tx.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].LinkedTo(userID) {
			return &members[i], nil
		}
	}
	return nil, nil
}

// SeedInvitee lets a leader add a pending, unlinked member row for an
// email. The invitee later claims it through JoinViaInvite.
func (c *JoinCoordinator) SeedInvitee(ctx context.Context, req SeedRequest) (seeded *models.TeamMember, err error) {
	defer func() { c.metrics.ObserveJoin("seed", outcome(err)) }()

	email := normalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	fields := normalizeFields(req.Fields)
	if err := validateText(fields); err != nil {
		return nil, err
	}

	var member models.TeamMember
	var team models.Team
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		t, err := tx.LockTeam(ctx, req.TeamID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		if err != nil {
			return err
		}
		if t.LeaderUserID != req.CallerID {
			return ErrNotTeamLeader
		}
		if t.IsCompleted {
			return ErrTeamLocked
		}

		_, err = tx.FindMemberByEmail(ctx, t.ID, email)
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		m := &models.TeamMember{
			ID:     uuid.New(),
			TeamID: t.ID,
			Email:  email,
			Fields: fields,
			Status: models.MemberStatusPending,
		}
		if err := tx.InsertMember(ctx, m); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadyMember
			}
			return err
		}
		member = *m
		team = *t
		return nil
	})
	if err != nil {
		return nil, classify("seed invitee", err)
	}

	c.notifier.Notify(ctx, notify.Notification{
		Recipient: memberRecipient(member),
		Template:  notify.TemplateTeamInvite,
		Data: map[string]string{
			"team_id":   team.ID.String(),
			"event_id":  team.EventID.String(),
			"team_name": team.Name,
			"path":      "/events/" + team.EventID.String() + teamPath(team.ID) + "/join",
		},
	})
	return &member, nil
}

// CompleteTeam locks the caller's team against further joins and merges.
func (c *JoinCoordinator) CompleteTeam(ctx context.Context, teamID, callerID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		t, err := tx.LockTeam(ctx, teamID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		if err != nil {
			return err
		}
		if t.LeaderUserID != callerID {
			return ErrNotTeamLeader
		}
		if t.IsCompleted {
			return ErrTeamLocked
		}
		if t.CurrentSize < t.CapacityMin {
			return ErrInvalidTeam
		}
		if err := tx.SetTeamCompleted(ctx, t.ID, true); err != nil {
			return err
		}
		t.IsCompleted = true
		team = *t
		return nil
	})
	if err != nil {
		return nil, classify("complete team", err)
	}
	return &team, nil
}

// SetCompleted sets or clears the completed flag without the leader and
// minimum size checks. It backs the operator CLI.
func (c *JoinCoordinator) SetCompleted(ctx context.Context, teamID uuid.UUID, completed bool) error {
	err := c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.LockTeam(ctx, teamID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		return tx.SetTeamCompleted(ctx, teamID, completed)
	})
	return classify("set team completed", err)
}
