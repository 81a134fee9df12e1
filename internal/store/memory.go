package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

const (
	tableUser         = "user"
	tableTeam         = "team"
	tableMember       = "member"
	tableRegistration = "registration"
	tableInvitation   = "invitation"

	indexID = "id"
)

// Rows are stored with string keys because memdb indexers work on string
// fields. Stored rows are never mutated in place; updates insert a copy.
type userRow struct {
	Key   string
	Email string
	User  models.User
}

type teamRow struct {
	Key  string
	Team models.Team
}

type memberRow struct {
	Key     string
	TeamKey string
	UserKey string
	Email   string
	Member  models.TeamMember
}

type registrationRow struct {
	Key          string
	EventUserKey string
	TeamKey      string
	Registration models.Registration
}

type invitationRow struct {
	Key         string
	PairKey     string
	SenderKey   string
	ReceiverKey string
	Invitation  models.MergeInvitation
}

func stringIndex(name, field string, unique, allowMissing bool) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		Unique:       unique,
		AllowMissing: allowMissing,
		Indexer:      &memdb.StringFieldIndex{Field: field},
	}
}

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUser: {
				Name: tableUser,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: stringIndex(indexID, "Key", true, false),
					"email": stringIndex("email", "Email", true, false),
				},
			},
			tableTeam: {
				Name: tableTeam,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: stringIndex(indexID, "Key", true, false),
				},
			},
			tableMember: {
				Name: tableMember,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: stringIndex(indexID, "Key", true, false),
					"team":  stringIndex("team", "TeamKey", false, false),
					"user":  stringIndex("user", "UserKey", false, true),
				},
			},
			tableRegistration: {
				Name: tableRegistration,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:      stringIndex(indexID, "Key", true, false),
					"event_user": stringIndex("event_user", "EventUserKey", true, false),
					"team":       stringIndex("team", "TeamKey", false, true),
				},
			},
			tableInvitation: {
				Name: tableInvitation,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:    stringIndex(indexID, "Key", true, false),
					"pair":     stringIndex("pair", "PairKey", false, false),
					"sender":   stringIndex("sender", "SenderKey", false, false),
					"receiver": stringIndex("receiver", "ReceiverKey", false, false),
				},
			},
		},
	}
}

func eventUserKey(eventID, userID uuid.UUID) string {
	return eventID.String() + "/" + userID.String()
}

func pairKey(eventID, sender, receiver uuid.UUID) string {
	return eventID.String() + "/" + sender.String() + "/" + receiver.String()
}

func optionalKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// Memory is a Store held in process memory. go-memdb admits one write
// transaction at a time, so every WithTx is serialized; reads outside a
// transaction see the last committed snapshot.
type Memory struct {
	db  *memdb.MemDB
	now func() time.Time
}

func NewMemory() (*Memory, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, err
	}
	return &Memory{db: db, now: time.Now}, nil
}

func (s *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(ctx, &memTxn{txn: txn, now: s.now}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Memory) read() (*memTxn, func()) {
	txn := s.db.Txn(false)
	return &memTxn{txn: txn, now: s.now}, txn.Abort
}

func (s *Memory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r, done := s.read()
	defer done()
	return r.GetUser(ctx, id)
}

func (s *Memory) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	r, done := s.read()
	defer done()
	return r.GetTeam(ctx, id)
}

func (s *Memory) GetMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error) {
	r, done := s.read()
	defer done()
	return r.GetMember(ctx, id)
}

func (s *Memory) FindMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (*models.TeamMember, error) {
	r, done := s.read()
	defer done()
	return r.FindMemberByEmail(ctx, teamID, email)
}

func (s *Memory) FindMemberForUser(ctx context.Context, eventID, userID uuid.UUID) (*models.TeamMember, error) {
	r, done := s.read()
	defer done()
	return r.FindMemberForUser(ctx, eventID, userID)
}

func (s *Memory) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	r, done := s.read()
	defer done()
	return r.ListMembers(ctx, teamID)
}

func (s *Memory) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	r, done := s.read()
	defer done()
	return r.GetRegistration(ctx, eventID, userID)
}

func (s *Memory) GetInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error) {
	r, done := s.read()
	defer done()
	return r.GetInvitation(ctx, id)
}

func (s *Memory) FindPendingInvitation(ctx context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (*models.MergeInvitation, error) {
	r, done := s.read()
	defer done()
	return r.FindPendingInvitation(ctx, eventID, senderTeamID, receiverTeamID)
}

func (s *Memory) ListPendingInvitations(ctx context.Context, teamID uuid.UUID) ([]models.MergeInvitation, error) {
	r, done := s.read()
	defer done()
	return r.ListPendingInvitations(ctx, teamID)
}

type memTxn struct {
	txn *memdb.Txn
	now func() time.Time
}

func (t *memTxn) first(table, index string, args ...any) (any, error) {
	raw, err := t.txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return raw, nil
}

// all drains the iterator before returning so callers may write to the
// table while walking the result.
func (t *memTxn) all(table, index string, args ...any) ([]any, error) {
	it, err := t.txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var out []any
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw)
	}
	return out, nil
}

func (t *memTxn) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	raw, err := t.first(tableUser, indexID, id.String())
	if err != nil {
		return nil, err
	}
	u := raw.(*userRow).User
	return &u, nil
}

func (t *memTxn) GetTeam(_ context.Context, id uuid.UUID) (*models.Team, error) {
	raw, err := t.first(tableTeam, indexID, id.String())
	if err != nil {
		return nil, err
	}
	team := raw.(*teamRow).Team
	return &team, nil
}

func (t *memTxn) LockTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return t.GetTeam(ctx, id)
}

func (t *memTxn) GetMember(_ context.Context, id uuid.UUID) (*models.TeamMember, error) {
	raw, err := t.first(tableMember, indexID, id.String())
	if err != nil {
		return nil, err
	}
	m := raw.(*memberRow).Member
	return &m, nil
}

func (t *memTxn) LockMember(ctx context.Context, id uuid.UUID) (*models.TeamMember, error) {
	return t.GetMember(ctx, id)
}

func (t *memTxn) membersOf(teamID uuid.UUID) ([]models.TeamMember, error) {
	raws, err := t.all(tableMember, "team", teamID.String())
	if err != nil {
		return nil, err
	}
	members := make([]models.TeamMember, 0, len(raws))
	for _, raw := range raws {
		members = append(members, raw.(*memberRow).Member)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

// preferAccepted picks the first accepted member, falling back to the first.
func preferAccepted(members []models.TeamMember) *models.TeamMember {
	if len(members) == 0 {
		return nil
	}
	for i := range members {
		if members[i].IsAccepted() {
			return &members[i]
		}
	}
	return &members[0]
}

func (t *memTxn) FindMemberByEmail(_ context.Context, teamID uuid.UUID, email string) (*models.TeamMember, error) {
	members, err := t.membersOf(teamID)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	var matches []models.TeamMember
	for _, m := range members {
		if strings.EqualFold(m.Email, email) {
			matches = append(matches, m)
		}
	}
	if m := preferAccepted(matches); m != nil {
		return m, nil
	}
	return nil, ErrNotFound
}

func (t *memTxn) FindMemberForUser(ctx context.Context, eventID, userID uuid.UUID) (*models.TeamMember, error) {
	raws, err := t.all(tableMember, "user", userID.String())
	if err != nil {
		return nil, err
	}
	var matches []models.TeamMember
	for _, raw := range raws {
		m := raw.(*memberRow).Member
		team, err := t.GetTeam(ctx, m.TeamID)
		if err != nil {
			continue
		}
		if team.EventID == eventID {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if m := preferAccepted(matches); m != nil {
		return m, nil
	}
	return nil, ErrNotFound
}

func (t *memTxn) ListMembers(_ context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	return t.membersOf(teamID)
}

func (t *memTxn) CountAccepted(_ context.Context, teamID uuid.UUID) (int, error) {
	members, err := t.membersOf(teamID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if m.IsAccepted() {
			n++
		}
	}
	return n, nil
}

func (t *memTxn) GetRegistration(_ context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	raw, err := t.first(tableRegistration, "event_user", eventUserKey(eventID, userID))
	if err != nil {
		return nil, err
	}
	r := raw.(*registrationRow).Registration
	return &r, nil
}

func (t *memTxn) GetInvitation(_ context.Context, id uuid.UUID) (*models.MergeInvitation, error) {
	raw, err := t.first(tableInvitation, indexID, id.String())
	if err != nil {
		return nil, err
	}
	inv := raw.(*invitationRow).Invitation
	return &inv, nil
}

func (t *memTxn) LockInvitation(ctx context.Context, id uuid.UUID) (*models.MergeInvitation, error) {
	return t.GetInvitation(ctx, id)
}

func (t *memTxn) FindPendingInvitation(_ context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (*models.MergeInvitation, error) {
	raws, err := t.all(tableInvitation, "pair", pairKey(eventID, senderTeamID, receiverTeamID))
	if err != nil {
		return nil, err
	}
	for _, raw := range raws {
		inv := raw.(*invitationRow).Invitation
		if inv.Status == models.InvitationStatusPending {
			return &inv, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTxn) invitationsOf(teamID uuid.UUID) ([]models.MergeInvitation, error) {
	var out []models.MergeInvitation
	for _, index := range []string{"sender", "receiver"} {
		raws, err := t.all(tableInvitation, index, teamID.String())
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			out = append(out, raw.(*invitationRow).Invitation)
		}
	}
	return out, nil
}

func (t *memTxn) ListPendingInvitations(_ context.Context, teamID uuid.UUID) ([]models.MergeInvitation, error) {
	all, err := t.invitationsOf(teamID)
	if err != nil {
		return nil, err
	}
	var pending []models.MergeInvitation
	for _, inv := range all {
		if inv.Status == models.InvitationStatusPending {
			pending = append(pending, inv)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

func (t *memTxn) InsertUser(_ context.Context, u *models.User) error {
	if raw, _ := t.txn.First(tableUser, indexID, u.ID.String()); raw != nil {
		return ErrDuplicate
	}
	if raw, _ := t.txn.First(tableUser, "email", strings.ToLower(u.Email)); raw != nil {
		return ErrDuplicate
	}
	now := t.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return t.txn.Insert(tableUser, &userRow{Key: u.ID.String(), Email: strings.ToLower(u.Email), User: *u})
}

func (t *memTxn) putTeam(team models.Team) error {
	return t.txn.Insert(tableTeam, &teamRow{Key: team.ID.String(), Team: team})
}

func (t *memTxn) InsertTeam(_ context.Context, team *models.Team) error {
	if raw, _ := t.txn.First(tableTeam, indexID, team.ID.String()); raw != nil {
		return ErrDuplicate
	}
	now := t.now().UTC()
	team.CreatedAt, team.UpdatedAt = now, now
	return t.putTeam(*team)
}

func (t *memTxn) updateTeam(ctx context.Context, teamID uuid.UUID, mutate func(*models.Team)) error {
	team, err := t.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	mutate(team)
	team.UpdatedAt = t.now().UTC()
	return t.putTeam(*team)
}

func (t *memTxn) SetTeamSize(ctx context.Context, teamID uuid.UUID, size int) error {
	return t.updateTeam(ctx, teamID, func(team *models.Team) { team.CurrentSize = size })
}

func (t *memTxn) SetTeamCompleted(ctx context.Context, teamID uuid.UUID, completed bool) error {
	return t.updateTeam(ctx, teamID, func(team *models.Team) { team.IsCompleted = completed })
}

func (t *memTxn) DeleteTeam(_ context.Context, teamID uuid.UUID) error {
	raw, err := t.first(tableTeam, indexID, teamID.String())
	if err != nil {
		return err
	}
	return t.txn.Delete(tableTeam, raw)
}

func (t *memTxn) putMember(m models.TeamMember) error {
	return t.txn.Insert(tableMember, &memberRow{
		Key:     m.ID.String(),
		TeamKey: m.TeamID.String(),
		UserKey: optionalKey(m.UserID),
		Email:   strings.ToLower(m.Email),
		Member:  m,
	})
}

func (t *memTxn) InsertMember(_ context.Context, m *models.TeamMember) error {
	if raw, _ := t.txn.First(tableMember, indexID, m.ID.String()); raw != nil {
		return ErrDuplicate
	}
	if raw, _ := t.txn.First(tableTeam, indexID, m.TeamID.String()); raw == nil {
		return ErrNotFound
	}
	m.CreatedAt = t.now().UTC()
	return t.putMember(*m)
}

func (t *memTxn) UpdateMember(ctx context.Context, m *models.TeamMember) error {
	current, err := t.GetMember(ctx, m.ID)
	if err != nil {
		return err
	}
	updated := *current
	updated.UserID = m.UserID
	updated.Email = m.Email
	updated.Fields = m.Fields
	updated.Status = m.Status
	updated.JoinedAt = m.JoinedAt
	return t.putMember(updated)
}

func (t *memTxn) MoveMembers(_ context.Context, from, to uuid.UUID) (int64, error) {
	members, err := t.membersOf(from)
	if err != nil {
		return 0, err
	}
	for _, m := range members {
		m.TeamID = to
		m.IsLeader = false
		if err := t.putMember(m); err != nil {
			return 0, err
		}
	}
	return int64(len(members)), nil
}

func (t *memTxn) InsertRegistration(_ context.Context, r *models.Registration) error {
	key := eventUserKey(r.EventID, r.UserID)
	if raw, _ := t.txn.First(tableRegistration, "event_user", key); raw != nil {
		return ErrDuplicate
	}
	r.CreatedAt = t.now().UTC()
	return t.txn.Insert(tableRegistration, &registrationRow{
		Key:          r.ID.String(),
		EventUserKey: key,
		TeamKey:      optionalKey(r.TeamID),
		Registration: *r,
	})
}

func (t *memTxn) MoveRegistrations(_ context.Context, eventID, from, to uuid.UUID) (int64, error) {
	raws, err := t.all(tableRegistration, "team", from.String())
	if err != nil {
		return 0, err
	}
	var moved int64
	for _, raw := range raws {
		row := *raw.(*registrationRow)
		if row.Registration.EventID != eventID {
			continue
		}
		target := to
		row.Registration.TeamID = &target
		row.TeamKey = to.String()
		if err := t.txn.Insert(tableRegistration, &row); err != nil {
			return 0, err
		}
		moved++
	}
	return moved, nil
}

func (t *memTxn) putInvitation(inv models.MergeInvitation) error {
	return t.txn.Insert(tableInvitation, &invitationRow{
		Key:         inv.ID.String(),
		PairKey:     pairKey(inv.EventID, inv.SenderTeamID, inv.ReceiverTeamID),
		SenderKey:   inv.SenderTeamID.String(),
		ReceiverKey: inv.ReceiverTeamID.String(),
		Invitation:  inv,
	})
}

func (t *memTxn) InsertInvitation(ctx context.Context, inv *models.MergeInvitation) error {
	if inv.Status == models.InvitationStatusPending {
		if _, err := t.FindPendingInvitation(ctx, inv.EventID, inv.SenderTeamID, inv.ReceiverTeamID); err == nil {
			return ErrDuplicate
		}
	}
	inv.CreatedAt = t.now().UTC()
	return t.putInvitation(*inv)
}

func (t *memTxn) SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt time.Time) error {
	inv, err := t.GetInvitation(ctx, id)
	if err != nil {
		return err
	}
	inv.Status = status
	inv.RespondedAt = &respondedAt
	return t.putInvitation(*inv)
}

func (t *memTxn) DeleteClosedInvitations(_ context.Context, eventID, senderTeamID, receiverTeamID uuid.UUID) (int64, error) {
	raws, err := t.all(tableInvitation, "pair", pairKey(eventID, senderTeamID, receiverTeamID))
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, raw := range raws {
		status := raw.(*invitationRow).Invitation.Status
		if status != models.InvitationStatusRejected && status != models.InvitationStatusCancelled {
			continue
		}
		if err := t.txn.Delete(tableInvitation, raw); err != nil {
			return 0, err
		}
		deleted++
	}
	return deleted, nil
}

func (t *memTxn) CancelPendingInvitations(_ context.Context, teamID, keep uuid.UUID, at time.Time) (int64, error) {
	invitations, err := t.invitationsOf(teamID)
	if err != nil {
		return 0, err
	}
	var cancelled int64
	for _, inv := range invitations {
		if inv.ID == keep || inv.Status != models.InvitationStatusPending {
			continue
		}
		inv.Status = models.InvitationStatusCancelled
		respondedAt := at
		inv.RespondedAt = &respondedAt
		if err := t.putInvitation(inv); err != nil {
			return 0, err
		}
		cancelled++
	}
	return cancelled, nil
}

var (
	_ Store = (*Memory)(nil)
	_ Tx    = (*memTxn)(nil)
)
