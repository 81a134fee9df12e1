package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data on any Store
type Fixtures struct {
	users   *services.UserService
	teams   *services.TeamService
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(st store.Store) *Fixtures {
	return &Fixtures{
		users: services.NewUserService(st),
		teams: services.NewTeamService(st),
	}
}

// CreateUser creates a test user with a complete profile
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:     fmt.Sprintf("user%d@example.com", f.counter),
		FirstName: fmt.Sprintf("User%d", f.counter),
		LastName:  "Tester",
		Mobile:    fmt.Sprintf("+38160%07d", f.counter),
		Location:  "Novi Sad",
	}

	for _, opt := range opts {
		opt(user)
	}

	created, err := f.users.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return created
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithoutMobile clears the user's mobile so confirmation needs input
func WithoutMobile() UserOption {
	return func(u *models.User) {
		u.Mobile = ""
	}
}

// CreateTeam registers a team for eventID led by leader
func (f *Fixtures) CreateTeam(t *testing.T, eventID uuid.UUID, leader *models.User, opts ...TeamOption) *models.Team {
	t.Helper()
	f.counter++

	req := services.RegisterTeamRequest{
		EventID:     eventID,
		LeaderID:    leader.ID,
		Name:        fmt.Sprintf("Test Team %d", f.counter),
		CapacityMin: 1,
		CapacityMax: 4,
		Fields:      leader.Fields(),
	}

	for _, opt := range opts {
		opt(&req)
	}

	team, err := f.teams.RegisterTeam(context.Background(), req)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}
	return team
}

// TeamOption configures a test team
type TeamOption func(*services.RegisterTeamRequest)

// WithTeamName sets the team's name
func WithTeamName(name string) TeamOption {
	return func(r *services.RegisterTeamRequest) {
		r.Name = name
	}
}

// WithCapacity sets the team's capacity bounds
func WithCapacity(min, max int) TeamOption {
	return func(r *services.RegisterTeamRequest) {
		r.CapacityMin = min
		r.CapacityMax = max
	}
}
