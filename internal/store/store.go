// Package store is the persistence boundary for teams, members,
// registrations and merge invitations. Coordinators run every multi-row
// change through Store.WithTx; rows read with a Lock* method stay locked
// against concurrent transactions until the transaction ends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate record")
)

// Reader holds the read-only queries available inside and outside a
// transaction.
type Reader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error)
	// FindMemberByEmail matches case-insensitively, preferring accepted rows.
	FindMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (*models.TeamMember, error)
	// FindMemberForUser returns the user's member row in any team of the
	// event, preferring accepted rows.
	FindMemberForUser(ctx context.Context, eventID, userID uuid.UUID) (*models.TeamMember, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)
	GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error)
	GetInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error)
	FindPendingInvitation(ctx context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (*models.MergeInvitation, error)
	ListPendingInvitations(ctx context.Context, teamID uuid.UUID) ([]models.MergeInvitation, error)
}

// Tx is a unit of work. Nothing it writes is visible to others until the
// surrounding WithTx returns nil.
type Tx interface {
	Reader

	LockTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	LockMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error)
	LockInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error)

	InsertUser(ctx context.Context, u *models.User) error
	InsertTeam(ctx context.Context, t *models.Team) error
	SetTeamSize(ctx context.Context, teamID uuid.UUID, size int) error
	SetTeamCompleted(ctx context.Context, teamID uuid.UUID, completed bool) error
	DeleteTeam(ctx context.Context, teamID uuid.UUID) error

	InsertMember(ctx context.Context, m *models.TeamMember) error
	UpdateMember(ctx context.Context, m *models.TeamMember) error
	CountAccepted(ctx context.Context, teamID uuid.UUID) (int, error)
	// MoveMembers re-assigns every member of from to to and clears is_leader
	// on the moved rows.
	MoveMembers(ctx context.Context, from, to uuid.UUID) (int64, error)

	InsertRegistration(ctx context.Context, r *models.Registration) error
	MoveRegistrations(ctx context.Context, eventID, from, to uuid.UUID) (int64, error)

	InsertInvitation(ctx context.Context, inv *models.MergeInvitation) error
	SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt time.Time) error
	// DeleteClosedInvitations removes rejected and cancelled invitations for
	// the ordered pair.
	DeleteClosedInvitations(ctx context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (int64, error)
	// CancelPendingInvitations closes every pending invitation that names
	// teamID on either side, except keep.
	CancelPendingInvitations(ctx context.Context, teamID, keep uuid.UUID, at time.Time) (int64, error)
}

type Store interface {
	Reader
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. The error from fn is returned unchanged.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
