package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/hackteams-api/internal/database"
	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	userColumns = `id, email, first_name, last_name, mobile, organization, location, created_at, updated_at`

	teamColumns = `id, event_id, name, leader_user_id, capacity_min, capacity_max,
		current_size, is_completed, created_at, updated_at`

	memberColumns = `tm.id, tm.team_id, tm.user_id, tm.email, tm.first_name, tm.last_name,
		tm.mobile, tm.organization, tm.location, tm.is_leader, tm.status, tm.joined_at, tm.created_at`

	registrationColumns = `id, event_id, user_id, team_id, first_name, last_name,
		mobile, organization, location, created_at`

	invitationColumns = `id, event_id, sender_team_id, receiver_team_id, sender_user_id,
		message, status, created_at, responded_at`
)

// querier is satisfied by both the pool and an open pgx.Tx, so one set of
// queries serves reads outside and inside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Postgres is the Store backed by PostgreSQL. Row locks use SELECT ... FOR
// UPDATE under the default READ COMMITTED isolation.
type Postgres struct {
	pgQueries
	db *database.DB
}

func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{pgQueries: pgQueries{q: db.Pool}, db: db}
}

func (s *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgQueries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgQueries struct {
	q querier
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Mobile,
		&u.Organization, &u.Location, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func scanTeam(row scanner) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.LeaderUserID, &t.CapacityMin, &t.CapacityMax,
		&t.CurrentSize, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func scanMember(row scanner) (*models.TeamMember, error) {
	var m models.TeamMember
	err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Email,
		&m.Fields.FirstName, &m.Fields.LastName, &m.Fields.Mobile, &m.Fields.Organization, &m.Fields.Location,
		&m.IsLeader, &m.Status, &m.JoinedAt, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func scanRegistration(row scanner) (*models.Registration, error) {
	var r models.Registration
	err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.TeamID,
		&r.Profile.FirstName, &r.Profile.LastName, &r.Profile.Mobile, &r.Profile.Organization, &r.Profile.Location,
		&r.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func scanInvitation(row scanner) (*models.MergeInvitation, error) {
	var inv models.MergeInvitation
	err := row.Scan(&inv.ID, &inv.EventID, &inv.SenderTeamID, &inv.ReceiverTeamID, &inv.SenderUserID,
		&inv.Message, &inv.Status, &inv.CreatedAt, &inv.RespondedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (p *pgQueries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(p.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *pgQueries) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return scanTeam(p.q.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
}

func (p *pgQueries) LockTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return scanTeam(p.q.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id))
}

func (p *pgQueries) GetMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error) {
	return scanMember(p.q.QueryRow(ctx, `SELECT `+memberColumns+` FROM team_members tm WHERE tm.id = $1`, id))
}

func (p *pgQueries) LockMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error) {
	return scanMember(p.q.QueryRow(ctx, `SELECT `+memberColumns+` FROM team_members tm WHERE tm.id = $1 FOR UPDATE`, id))
}

func (p *pgQueries) FindMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (*models.TeamMember, error) {
	return scanMember(p.q.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members tm
		WHERE tm.team_id = $1 AND lower(tm.email) = lower($2)
		ORDER BY (tm.status = 'accepted') DESC, tm.created_at
		LIMIT 1
	`, teamID, strings.TrimSpace(email)))
}

func (p *pgQueries) FindMemberForUser(ctx context.Context, eventID, userID uuid.UUID) (*models.TeamMember, error) {
	return scanMember(p.q.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE t.event_id = $1 AND tm.user_id = $2
		ORDER BY (tm.status = 'accepted') DESC, tm.created_at
		LIMIT 1
	`, eventID, userID))
}

func (p *pgQueries) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+memberColumns+`
		FROM team_members tm
		WHERE tm.team_id = $1
		ORDER BY tm.created_at
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (p *pgQueries) CountAccepted(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := p.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND status = 'accepted'
	`, teamID).Scan(&n)
	return n, err
}

func (p *pgQueries) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	return scanRegistration(p.q.QueryRow(ctx, `
		SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2
	`, eventID, userID))
}

func (p *pgQueries) GetInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error) {
	return scanInvitation(p.q.QueryRow(ctx, `SELECT `+invitationColumns+` FROM merge_invitations WHERE id = $1`, id))
}

func (p *pgQueries) LockInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error) {
	return scanInvitation(p.q.QueryRow(ctx, `SELECT `+invitationColumns+` FROM merge_invitations WHERE id = $1 FOR UPDATE`, id))
}

func (p *pgQueries) FindPendingInvitation(ctx context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (*models.MergeInvitation, error) {
	return scanInvitation(p.q.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM merge_invitations
		WHERE event_id = $1 AND sender_team_id = $2 AND receiver_team_id = $3 AND status = 'pending'
	`, eventID, senderTeamID, receiverTeamID))
}

func (p *pgQueries) ListPendingInvitations(ctx context.Context, teamID uuid.UUID) ([]models.MergeInvitation, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM merge_invitations
		WHERE status = 'pending' AND (sender_team_id = $1 OR receiver_team_id = $1)
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.MergeInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func (p *pgQueries) InsertUser(ctx context.Context, u *models.User) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, mobile, organization, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.FirstName, u.LastName, u.Mobile, u.Organization, u.Location).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (p *pgQueries) InsertTeam(ctx context.Context, t *models.Team) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO teams (id, event_id, name, leader_user_id, capacity_min, capacity_max, current_size, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, t.ID, t.EventID, t.Name, t.LeaderUserID, t.CapacityMin, t.CapacityMax, t.CurrentSize, t.IsCompleted).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (p *pgQueries) SetTeamSize(ctx context.Context, teamID uuid.UUID, size int) error {
	return p.execOne(ctx, `UPDATE teams SET current_size = $2, updated_at = NOW() WHERE id = $1`, teamID, size)
}

func (p *pgQueries) SetTeamCompleted(ctx context.Context, teamID uuid.UUID, completed bool) error {
	return p.execOne(ctx, `UPDATE teams SET is_completed = $2, updated_at = NOW() WHERE id = $1`, teamID, completed)
}

func (p *pgQueries) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	return p.execOne(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
}

func (p *pgQueries) InsertMember(ctx context.Context, m *models.TeamMember) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO team_members (id, team_id, user_id, email, first_name, last_name,
			mobile, organization, location, is_leader, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, m.ID, m.TeamID, m.UserID, m.Email, m.Fields.FirstName, m.Fields.LastName,
		m.Fields.Mobile, m.Fields.Organization, m.Fields.Location, m.IsLeader, m.Status, m.JoinedAt).
		Scan(&m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func (p *pgQueries) UpdateMember(ctx context.Context, m *models.TeamMember) error {
	return p.execOne(ctx, `
		UPDATE team_members
		SET user_id = $2, email = $3, first_name = $4, last_name = $5,
			mobile = $6, organization = $7, location = $8, status = $9, joined_at = $10
		WHERE id = $1
	`, m.ID, m.UserID, m.Email, m.Fields.FirstName, m.Fields.LastName,
		m.Fields.Mobile, m.Fields.Organization, m.Fields.Location, m.Status, m.JoinedAt)
}

func (p *pgQueries) MoveMembers(ctx context.Context, from, to uuid.UUID) (int64, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE team_members SET team_id = $2, is_leader = FALSE WHERE team_id = $1
	`, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to move members: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *pgQueries) InsertRegistration(ctx context.Context, r *models.Registration) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO registrations (id, event_id, user_id, team_id, first_name, last_name,
			mobile, organization, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, r.ID, r.EventID, r.UserID, r.TeamID, r.Profile.FirstName, r.Profile.LastName,
		r.Profile.Mobile, r.Profile.Organization, r.Profile.Location).Scan(&r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

func (p *pgQueries) MoveRegistrations(ctx context.Context, eventID, from, to uuid.UUID) (int64, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE registrations SET team_id = $3 WHERE event_id = $1 AND team_id = $2
	`, eventID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to move registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *pgQueries) InsertInvitation(ctx context.Context, inv *models.MergeInvitation) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO merge_invitations (id, event_id, sender_team_id, receiver_team_id, sender_user_id, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, inv.ID, inv.EventID, inv.SenderTeamID, inv.ReceiverTeamID, inv.SenderUserID, inv.Message, inv.Status).
		Scan(&inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

func (p *pgQueries) SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt time.Time) error {
	return p.execOne(ctx, `
		UPDATE merge_invitations SET status = $2, responded_at = $3 WHERE id = $1
	`, id, status, respondedAt)
}

func (p *pgQueries) DeleteClosedInvitations(ctx context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (int64, error) {
	tag, err := p.q.Exec(ctx, `
		DELETE FROM merge_invitations
		WHERE event_id = $1 AND sender_team_id = $2 AND receiver_team_id = $3
		AND status IN ('rejected', 'cancelled')
	`, eventID, senderTeamID, receiverTeamID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete closed invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *pgQueries) CancelPendingInvitations(ctx context.Context, teamID, keep uuid.UUID, at time.Time) (int64, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE merge_invitations SET status = 'cancelled', responded_at = $3
		WHERE status = 'pending' AND id <> $2 AND (sender_team_id = $1 OR receiver_team_id = $1)
	`, teamID, keep, at)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// execOne runs a single-row statement and reports ErrNotFound when it
// touched nothing.
func (p *pgQueries) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ Store = (*Postgres)(nil)
	_ Tx    = (*pgQueries)(nil)
)
