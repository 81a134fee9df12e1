package services

import (
	"testing"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamService_RegisterTeam(t *testing.T) {
	f := newFixture(t)
	leader := f.user("leader")

	team, err := f.teams.RegisterTeam(f.ctx, RegisterTeamRequest{
		EventID: f.eventID, LeaderID: leader.ID, Name: "  Owls ",
		CapacityMin: 2, CapacityMax: 4, Fields: leader.Fields(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Owls", team.Name)
	assert.Equal(t, 1, team.CurrentSize)
	assert.False(t, team.IsCompleted)

	members, err := f.teams.GetMembers(f.ctx, team.ID, leader.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.True(t, members[0].IsLeader)
	assert.True(t, members[0].IsAccepted())

	reg, err := f.store.GetRegistration(f.ctx, f.eventID, leader.ID)
	require.NoError(t, err)
	assert.True(t, reg.IsForTeam(team.ID))
}

func TestTeamService_RegisterTeam_Invalid(t *testing.T) {
	f := newFixture(t)
	leader := f.user("leader")

	for _, req := range []RegisterTeamRequest{
		{Name: "", CapacityMin: 1, CapacityMax: 4},
		{Name: "Owls", CapacityMin: 0, CapacityMax: 4},
		{Name: "Owls", CapacityMin: 5, CapacityMax: 4},
		{Name: "Evil\r\nBcc: victim@example.com", CapacityMin: 1, CapacityMax: 4},
	} {
		req.EventID, req.LeaderID, req.Fields = f.eventID, leader.ID, leader.Fields()
		_, err := f.teams.RegisterTeam(f.ctx, req)
		assert.ErrorIs(t, err, ErrInvalidTeam)
	}

	_, err := f.teams.RegisterTeam(f.ctx, RegisterTeamRequest{
		EventID: f.eventID, LeaderID: leader.ID, Name: "Owls", CapacityMin: 1, CapacityMax: 4,
	})
	assert.ErrorIs(t, err, ErrInvalidFields)

	_, err = f.teams.RegisterTeam(f.ctx, RegisterTeamRequest{
		EventID: f.eventID, LeaderID: uuid.New(), Name: "Owls", CapacityMin: 1, CapacityMax: 4, Fields: profile("x"),
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTeamService_RegisterTeam_AlreadyRegistered(t *testing.T) {
	f := newFixture(t)
	leader := f.user("leader")
	f.team(leader, "Owls", 4)

	_, err := f.teams.RegisterTeam(f.ctx, RegisterTeamRequest{
		EventID: f.eventID, LeaderID: leader.ID, Name: "Second", CapacityMin: 1, CapacityMax: 4, Fields: leader.Fields(),
	})
	assert.ErrorIs(t, err, ErrConflictingRegistration)

	_, err = f.teams.RegisterIndividual(f.ctx, f.eventID, leader.ID, leader.Fields())
	assert.ErrorIs(t, err, ErrConflictingRegistration)

	// A different event is independent.
	other := f.teamIn(uuid.New(), leader, "Elsewhere", 4)
	assert.NotEqual(t, f.eventID, other.EventID)
}

func TestTeamService_GetMembers_NonMember(t *testing.T) {
	f := newFixture(t)
	leader := f.user("leader")
	outsider := f.user("outsider")
	team := f.team(leader, "Owls", 4)

	_, err := f.teams.GetMembers(f.ctx, team.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.teams.GetByID(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestUserService_Create(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.Create(f.ctx, &models.User{Email: " Ana@Example.com", FirstName: "Ana"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = f.users.Create(f.ctx, &models.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := f.users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = f.users.GetByID(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestControlCharactersRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.user("leader")
	team := f.team(leader, "Owls", 4)

	fields := leader.Fields()
	fields.LastName = "Tester\nBcc: victim@example.com"
	_, err := f.teams.RegisterIndividual(f.ctx, uuid.New(), leader.ID, fields)
	var fe *FieldsError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"last_name"}, fe.Invalid)
	assert.Empty(t, fe.Missing)

	_, err = f.joins.SeedInvitee(f.ctx, SeedRequest{
		TeamID:   team.ID,
		CallerID: leader.ID,
		Email:    "ana@example.com",
		Fields:   models.MemberFields{FirstName: "Ana\r\nX-Injected: 1"},
	})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"first_name"}, fe.Invalid)

	_, err = f.joins.SeedInvitee(f.ctx, SeedRequest{
		TeamID:   team.ID,
		CallerID: leader.ID,
		Email:    "ana@example.com\r\nBcc: victim@example.com",
	})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"email"}, fe.Invalid)

	_, err = f.users.Create(f.ctx, &models.User{Email: "eve@example.com", FirstName: "Eve\r\nBcc: x"})
	assert.ErrorIs(t, err, ErrInvalidFields)

	members, err := f.store.ListMembers(f.ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
