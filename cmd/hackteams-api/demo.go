package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var demoEventID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://hackteams.dev/events/demo"))

var demoUsers = []models.User{
	{Email: "ana@demo.hackteams.dev", FirstName: "Ana", LastName: "Petrovic", Mobile: "+381601111111", Location: "Belgrade", Organization: "ETF"},
	{Email: "marko@demo.hackteams.dev", FirstName: "Marko", LastName: "Jovanovic", Location: "Belgrade"},
	{Email: "jelena@demo.hackteams.dev", FirstName: "Jelena", LastName: "Nikolic", Mobile: "+381602222222", Location: "Novi Sad", Organization: "FTN"},
	{Email: "nikola@demo.hackteams.dev", FirstName: "Nikola", LastName: "Ilic", Mobile: "+381603333333", Location: "Nis"},
}

// seedDemo creates a demo event with two teams and a pre-seeded invitee,
// and logs a bearer token for every demo user.
func seedDemo(ctx context.Context, logger *zap.Logger, jwt *services.JWTService, users *services.UserService, teams *services.TeamService, joins *services.JoinCoordinator) error {
	created := make([]*models.User, len(demoUsers))
	for i := range demoUsers {
		u := demoUsers[i]
		got, err := users.Create(ctx, &u)
		if i == 0 && errors.Is(err, services.ErrEmailTaken) {
			logger.Info("Demo data already present", zap.String("event_id", demoEventID.String()))
			return nil
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", u.Email, err)
		}
		created[i] = got
	}
	ana, marko, jelena := created[0], created[1], created[2]

	builders, err := teams.RegisterTeam(ctx, services.RegisterTeamRequest{
		EventID:     demoEventID,
		LeaderID:    ana.ID,
		Name:        "Builders",
		CapacityMin: 2,
		CapacityMax: 4,
		Fields:      ana.Fields(),
	})
	if err != nil {
		return fmt.Errorf("register team: %w", err)
	}
	if _, err := teams.RegisterTeam(ctx, services.RegisterTeamRequest{
		EventID:     demoEventID,
		LeaderID:    jelena.ID,
		Name:        "Night Owls",
		CapacityMin: 2,
		CapacityMax: 4,
		Fields:      jelena.Fields(),
	}); err != nil {
		return fmt.Errorf("register team: %w", err)
	}

	if _, err := joins.SeedInvitee(ctx, services.SeedRequest{
		TeamID:   builders.ID,
		CallerID: ana.ID,
		Email:    marko.Email,
		Fields:   models.MemberFields{FirstName: marko.FirstName, LastName: marko.LastName},
	}); err != nil {
		return fmt.Errorf("seed invitee: %w", err)
	}

	logger.Info("Demo data seeded", zap.String("event_id", demoEventID.String()))
	for _, u := range created {
		token, err := jwt.GenerateAccessToken(u.ID, u.Email)
		if err != nil {
			return err
		}
		logger.Info("Demo user", zap.String("email", u.Email), zap.String("token", token))
	}
	return nil
}
