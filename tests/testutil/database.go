package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/hackteams-api/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// membershipTables lists every table the coordinators write to.
var membershipTables = []string{
	"merge_invitations",
	"registrations",
	"team_members",
	"teams",
	"users",
}

// TestDB is a migrated Postgres running in a container.
type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

var shared struct {
	once sync.Once
	db   *TestDB
	err  error
}

// SetupTestDB returns the test binary's Postgres, starting it on first use
// and emptying it before every test. It skips the test in -short mode.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	shared.once.Do(func() {
		shared.db, shared.err = startPostgres(context.Background())
	})
	if shared.err != nil {
		t.Fatalf("failed to start test database: %v", shared.err)
	}

	shared.db.CleanTables(t)
	return shared.db
}

// TerminateTestDB stops the container started by SetupTestDB, if any.
func TerminateTestDB() error {
	if shared.db == nil {
		return nil
	}
	shared.db.DB.Close()
	return shared.db.Container.Terminate(context.Background())
}

func startPostgres(ctx context.Context) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "hackteams_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container port: %w", err)
	}

	db, err := database.New(ctx, fmt.Sprintf("postgres://test:test@%s:%s/hackteams_test?sslmode=disable", host, port.Port()))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &TestDB{DB: db, Container: container}, nil
}

// CleanTables empties every membership table in one statement.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(membershipTables, ", ") + " CASCADE"
	if _, err := tdb.DB.Pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
