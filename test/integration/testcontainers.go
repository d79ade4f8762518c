package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/config"
	"github.com/keyfoldhq/keyfold/pkg/db"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/endpoints"
)

// TestContext holds the resources shared by the integration tests: a
// PostgreSQL testcontainer with migrations applied and an in-process server.
type TestContext struct {
	Container   testcontainers.Container
	DB          *gorm.DB
	DatabaseURL string
	Server      *server.Server
	HTTP        *httptest.Server
}

// NewTestContext starts a PostgreSQL container, runs the migrations from
// db/migrations, and serves the full API in-process.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("keyfold_test"),
		tcpostgres.WithUsername("keyfold"),
		tcpostgres.WithPassword("keyfold"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://keyfold:keyfold@%s:%s/keyfold_test?sslmode=disable", host, port.Port())

	if err := runMigrations(connStr, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.Connect(db.Config{URL: connStr})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := &config.Config{
		DatabaseURL:       connStr,
		TokenSalt:         "integration-salt",
		SessionTokenTTL:   config.DefaultSessionTokenTTL,
		MaxReferenceDepth: config.DefaultMaxReferenceDepth,
		AuditEnabled:      true,
		LogLevel:          "error",
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := server.NewServer(cfg, database, log)
	endpoints.RegisterAll(s)

	return &TestContext{
		Container:   pgContainer,
		DB:          database,
		DatabaseURL: connStr,
		Server:      s,
		HTTP:        httptest.NewServer(s.Router),
	}, nil
}

// Close tears down the HTTP server and the database container.
func (tc *TestContext) Close(ctx context.Context) {
	if tc.HTTP != nil {
		tc.HTTP.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

func runMigrations(dbURL, migrationsDir string) error {
	m, err := migrate.New("file://"+migrationsDir, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// findProjectRoot walks up from the working directory until it finds go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}
