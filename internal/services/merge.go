package services

import (
	"bytes"
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/dimitrije/hackteams-api/internal/metrics"
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxInvitationMessage = 1000

type SendInviteRequest struct {
	EventID        uuid.UUID
	SenderTeamID   uuid.UUID
	ReceiverTeamID uuid.UUID
	CallerID       uuid.UUID
	Message        string
}

// MergeResult reports a response. Team is the receiver after an accepted
// merge and nil after a rejection.
type MergeResult struct {
	Invitation   models.MergeInvitation
	Team         *models.Team
	MovedMembers int64
}

type TeamInvitations struct {
	Incoming []models.MergeInvitation
	Outgoing []models.MergeInvitation
}

// MergeCoordinator runs the merge invitation lifecycle. An accepted
// invitation moves every sender member and registration into the receiver
// and deletes the sender team, all in one transaction.
type MergeCoordinator struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewMergeCoordinator(st store.Store, notifier notify.Notifier, m *metrics.Metrics, log *zap.Logger) *MergeCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &MergeCoordinator{
		store:    st,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// lockPair locks both teams in id order so that concurrent merges touching
// the same teams cannot deadlock. It returns them in argument order.
func lockPair(ctx context.Context, tx store.Tx, a, b uuid.UUID) (*models.Team, *models.Team, error) {
	first, second := a, b
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	locked := make(map[uuid.UUID]*models.Team, 2)
	for _, id := range []uuid.UUID{first, second} {
		t, err := tx.LockTeam(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		if err != nil {
			return nil, nil, err
		}
		locked[id] = t
	}
	return locked[a], locked[b], nil
}

// lockInvitation locks the invitation's teams and then the invitation
// itself, the same order a merge uses when it cancels a deleted team's
// invitations. A pending invitation never names a deleted team, so a team
// that vanished while waiting means the invitation was closed.
func lockInvitation(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.MergeInvitation, *models.Team, *models.Team, error) {
	inv, err := tx.GetInvitation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if inv.Status.IsTerminal() {
		return nil, nil, nil, ErrAlreadyResponded
	}

	s, r, err := lockPair(ctx, tx, inv.SenderTeamID, inv.ReceiverTeamID)
	if errors.Is(err, ErrTeamNotFound) {
		return nil, nil, nil, ErrAlreadyResponded
	}
	if err != nil {
		return nil, nil, nil, err
	}

	inv, err = tx.LockInvitation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if inv.Status.IsTerminal() {
		return nil, nil, nil, ErrAlreadyResponded
	}
	return inv, s, r, nil
}

func (c *MergeCoordinator) SendInvite(ctx context.Context, req SendInviteRequest) (sent *models.MergeInvitation, err error) {
	defer func() { c.metrics.ObserveMerge("send", outcome(err)) }()

	if req.SenderTeamID == req.ReceiverTeamID {
		return nil, ErrInvalidInvitation
	}
	if utf8.RuneCountInString(req.Message) > maxInvitationMessage {
		return nil, ErrInvalidInvitation
	}

	var inv models.MergeInvitation
	var sender, receiver models.Team
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		s, r, err := lockPair(ctx, tx, req.SenderTeamID, req.ReceiverTeamID)
		if err != nil {
			return err
		}
		if s.EventID != req.EventID || r.EventID != req.EventID {
			return ErrInvalidInvitation
		}
		if s.LeaderUserID != req.CallerID {
			return ErrNotTeamLeader
		}
		if s.IsCompleted || r.IsCompleted {
			return ErrTeamLocked
		}

		_, err = tx.FindPendingInvitation(ctx, req.EventID, s.ID, r.ID)
		if err == nil {
			return ErrDuplicatePendingInvitation
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.DeleteClosedInvitations(ctx, req.EventID, s.ID, r.ID); err != nil {
			return err
		}

		inv = models.MergeInvitation{
			ID:             uuid.New(),
			EventID:        req.EventID,
			SenderTeamID:   s.ID,
			ReceiverTeamID: r.ID,
			SenderUserID:   req.CallerID,
			Message:        req.Message,
			Status:         models.InvitationStatusPending,
		}
		if err := tx.InsertInvitation(ctx, &inv); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicatePendingInvitation
			}
			return err
		}
		sender, receiver = *s, *r
		return nil
	})
	if err != nil {
		return nil, classify("send merge invitation", err)
	}

	c.log.Info("merge invitation sent",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("sender_team_id", sender.ID.String()),
		zap.String("receiver_team_id", receiver.ID.String()))

	notifyUser(ctx, c.notifier, c.store, c.log, receiver.LeaderUserID, notify.TemplateMergeInviteReceived, map[string]string{
		"invitation_id":    inv.ID.String(),
		"team_name":        receiver.Name,
		"sender_team_name": sender.Name,
		"message":          inv.Message,
		"path":             teamPath(receiver.ID) + "/merge-invitations",
	})
	return &inv, nil
}

// Respond applies the receiver leader's decision. A terminal invitation
// always yields ErrAlreadyResponded, whoever asks.
func (c *MergeCoordinator) Respond(ctx context.Context, invitationID, callerID uuid.UUID, action models.MergeAction) (res *MergeResult, err error) {
	defer func() { c.metrics.ObserveMerge(string(action), outcome(err)) }()

	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	result := &MergeResult{}
	var sender, receiver models.Team
	var members []models.TeamMember
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, s, r, err := lockInvitation(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		if r.LeaderUserID != callerID {
			return ErrNotTeamLeader
		}
		sender, receiver = *s, *r

		now := c.now().UTC()
		if action == models.MergeActionReject {
			if err := tx.SetInvitationStatus(ctx, inv.ID, models.InvitationStatusRejected, now); err != nil {
				return err
			}
			inv.Status, inv.RespondedAt = models.InvitationStatusRejected, &now
			result.Invitation = *inv
			return nil
		}

		if s.IsCompleted || r.IsCompleted {
			return ErrTeamLocked
		}
		if s.CurrentSize+r.CurrentSize > r.CapacityMax {
			return ErrCapacityExceeded
		}

		moved, err := tx.MoveMembers(ctx, s.ID, r.ID)
		if err != nil {
			return err
		}
		if _, err := tx.MoveRegistrations(ctx, inv.EventID, s.ID, r.ID); err != nil {
			return err
		}
		if _, err := tx.CancelPendingInvitations(ctx, s.ID, inv.ID, now); err != nil {
			return err
		}
		if err := tx.DeleteTeam(ctx, s.ID); err != nil {
			return err
		}
		if err := tx.SetInvitationStatus(ctx, inv.ID, models.InvitationStatusAccepted, now); err != nil {
			return err
		}

		size, err := tx.CountAccepted(ctx, r.ID)
		if err != nil {
			return err
		}
		if size > r.CapacityMax {
			return ErrCapacityExceeded
		}
		if err := tx.SetTeamSize(ctx, r.ID, size); err != nil {
			return err
		}
		r.CurrentSize = size

		members, err = tx.ListMembers(ctx, r.ID)
		if err != nil {
			return err
		}

		inv.Status, inv.RespondedAt = models.InvitationStatusAccepted, &now
		result.Invitation = *inv
		result.Team = r
		result.MovedMembers = moved
		return nil
	})
	if err != nil {
		return nil, classify("respond to merge invitation", err)
	}

	if result.Team == nil {
		c.log.Info("merge invitation rejected", zap.String("invitation_id", invitationID.String()))
		notifyUser(ctx, c.notifier, c.store, c.log, result.Invitation.SenderUserID, notify.TemplateMergeInviteRejected, map[string]string{
			"invitation_id":      invitationID.String(),
			"team_name":          sender.Name,
			"receiver_team_name": receiver.Name,
		})
		return result, nil
	}

	c.log.Info("teams merged",
		zap.String("invitation_id", invitationID.String()),
		zap.String("sender_team_id", sender.ID.String()),
		zap.String("receiver_team_id", result.Team.ID.String()),
		zap.Int64("moved_members", result.MovedMembers),
		zap.Int("team_size", result.Team.CurrentSize))

	data := map[string]string{
		"team_id":          result.Team.ID.String(),
		"team_name":        result.Team.Name,
		"sender_team_name": sender.Name,
		"path":             teamPath(result.Team.ID),
	}
	for _, m := range members {
		c.notifier.Notify(ctx, notify.Notification{
			Recipient: memberRecipient(m),
			Template:  notify.TemplateMergeCompleted,
			Data:      data,
		})
	}
	return result, nil
}

// CancelInvite withdraws a pending invitation. Only the sender team's
// current leader may cancel.
func (c *MergeCoordinator) CancelInvite(ctx context.Context, invitationID, callerID uuid.UUID) (cancelled *models.MergeInvitation, err error) {
	defer func() { c.metrics.ObserveMerge("cancel", outcome(err)) }()

	var inv models.MergeInvitation
	var sender, receiver models.Team
	err = c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, s, r, err := lockInvitation(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		if s.LeaderUserID != callerID {
			return ErrNotTeamLeader
		}

		now := c.now().UTC()
		if err := tx.SetInvitationStatus(ctx, locked.ID, models.InvitationStatusCancelled, now); err != nil {
			return err
		}
		locked.Status, locked.RespondedAt = models.InvitationStatusCancelled, &now
		inv = *locked
		sender, receiver = *s, *r
		return nil
	})
	if err != nil {
		return nil, classify("cancel merge invitation", err)
	}

	notifyUser(ctx, c.notifier, c.store, c.log, receiver.LeaderUserID, notify.TemplateMergeInviteCancelled, map[string]string{
		"invitation_id":    inv.ID.String(),
		"team_name":        receiver.Name,
		"sender_team_name": sender.Name,
	})
	return &inv, nil
}

// ListInvites returns the team's pending invitations split by direction.
// Any accepted member of the team may list them.
func (c *MergeCoordinator) ListInvites(ctx context.Context, teamID, callerID uuid.UUID) (*TeamInvitations, error) {
	team, err := c.store.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, classify("list merge invitations", err)
	}

	membership, err := resolveMembership(ctx, c.store, team.EventID, callerID)
	if err != nil {
		return nil, classify("list merge invitations", err)
	}
	if !membership.IsAcceptedIn(team.ID) && team.LeaderUserID != callerID {
		return nil, ErrNotTeamLeader
	}

	pending, err := c.store.ListPendingInvitations(ctx, team.ID)
	if err != nil {
		return nil, classify("list merge invitations", err)
	}
	out := &TeamInvitations{
		Incoming: []models.MergeInvitation{},
		Outgoing: []models.MergeInvitation{},
	}
	for _, inv := range pending {
		if inv.ReceiverTeamID == team.ID {
			out.Incoming = append(out.Incoming, inv)
		} else {
			out.Outgoing = append(out.Outgoing, inv)
		}
	}
	return out, nil
}
