package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/dimitrije/hackteams-api/internal/database"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	unlock := flag.Bool("unlock", false, "clear the lock instead of setting it")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lock-team [--unlock] <team-id>")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	teamID, err := uuid.Parse(flag.Arg(0))
	if err != nil {
		log.Fatalf("Invalid team id %q: %v", flag.Arg(0), err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	joins := services.NewJoinCoordinator(store.NewPostgres(db), notify.Nop{}, nil, zap.NewNop())

	if err := joins.SetCompleted(ctx, teamID, !*unlock); err != nil {
		log.Fatalf("Failed to update team %s: %v", teamID, err)
	}

	if *unlock {
		fmt.Printf("Successfully unlocked team %s\n", teamID)
		return
	}
	fmt.Printf("Successfully locked team %s\n", teamID)
}
