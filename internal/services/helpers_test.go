package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) byTemplate(tmpl notify.Template) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.sent {
		if n.Template == tmpl {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	eventID  uuid.UUID
	store    *store.Memory
	notifier *recordingNotifier
	users    *UserService
	teams    *TeamService
	joins    *JoinCoordinator
	merges   *MergeCoordinator
	resolver *MembershipResolver
	teamIDs  []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)

	n := &recordingNotifier{}
	log := zap.NewNop()
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		eventID:  uuid.New(),
		store:    st,
		notifier: n,
		users:    NewUserService(st),
		teams:    NewTeamService(st),
		joins:    NewJoinCoordinator(st, n, nil, log),
		merges:   NewMergeCoordinator(st, n, nil, log),
		resolver: NewMembershipResolver(st),
	}
}

func profile(name string) models.MemberFields {
	return models.MemberFields{
		FirstName: name,
		LastName:  "Tester",
		Mobile:    "+381600000000",
		Location:  "Belgrade",
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	p := profile(name)
	u, err := f.users.Create(f.ctx, &models.User{
		Email:     name + "@example.com",
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Mobile:    p.Mobile,
		Location:  p.Location,
	})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) team(leader *models.User, name string, capacityMax int) *models.Team {
	f.t.Helper()
	return f.teamIn(f.eventID, leader, name, capacityMax)
}

func (f *fixture) teamIn(eventID uuid.UUID, leader *models.User, name string, capacityMax int) *models.Team {
	f.t.Helper()
	team, err := f.teams.RegisterTeam(f.ctx, RegisterTeamRequest{
		EventID:     eventID,
		LeaderID:    leader.ID,
		Name:        name,
		CapacityMin: 1,
		CapacityMax: capacityMax,
		Fields:      leader.Fields(),
	})
	require.NoError(f.t, err)
	f.teamIDs = append(f.teamIDs, team.ID)
	return team
}

// join runs both join steps for u with their own email.
func (f *fixture) join(team *models.Team, u *models.User) *models.TeamMember {
	f.t.Helper()
	res, err := f.joins.JoinViaInvite(f.ctx, JoinRequest{
		EventID:  team.EventID,
		TeamID:   team.ID,
		CallerID: u.ID,
		Email:    u.Email,
	})
	require.NoError(f.t, err)
	m, err := f.joins.ConfirmJoin(f.ctx, res.Member.ID, u.ID, u.Fields())
	require.NoError(f.t, err)
	return m
}

func (f *fixture) reload(teamID uuid.UUID) *models.Team {
	f.t.Helper()
	team, err := f.store.GetTeam(f.ctx, teamID)
	require.NoError(f.t, err)
	return team
}

func (f *fixture) membership(u *models.User) models.Membership {
	f.t.Helper()
	m, err := f.resolver.Resolve(f.ctx, f.eventID, u.ID)
	require.NoError(f.t, err)
	return m
}

// assertConsistent checks every surviving team: the cached size matches
// the accepted rows and fits capacity, there is one leader, and every
// linked accepted member is registered for that team.
func (f *fixture) assertConsistent() {
	f.t.Helper()
	for _, id := range f.teamIDs {
		team, err := f.store.GetTeam(f.ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		require.NoError(f.t, err)

		members, err := f.store.ListMembers(f.ctx, id)
		require.NoError(f.t, err)

		accepted, leaders := 0, 0
		for _, m := range members {
			if m.IsLeader {
				leaders++
			}
			if !m.IsAccepted() {
				continue
			}
			accepted++
			if m.UserID == nil {
				continue
			}
			reg, err := f.store.GetRegistration(f.ctx, team.EventID, *m.UserID)
			require.NoError(f.t, err, "accepted member %s has no registration", m.Email)
			assert.True(f.t, reg.IsForTeam(team.ID), "registration of %s points elsewhere", m.Email)
		}
		assert.Equal(f.t, accepted, team.CurrentSize, "team %s size", team.Name)
		assert.LessOrEqual(f.t, team.CurrentSize, team.CapacityMax, "team %s capacity", team.Name)
		assert.Equal(f.t, 1, leaders, "team %s leaders", team.Name)
	}
}
