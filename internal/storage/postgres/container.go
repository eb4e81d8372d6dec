package postgres

import (
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/bookpoll-api/internal/config"
	"github.com/gravadigital/bookpoll-api/internal/logger"
)

// Container bundles the poll store repositories behind one handle
type Container struct {
	db  *gorm.DB
	log *log.Logger

	Polls       PollRepository
	Nominations NominationRepository
	Votes       VoteRepository
	Sessions    BallotSessionRepository
}

// NewContainer connects to the database, migrates the schema and wires up
// all repositories.
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)
	container.log = log

	if err := container.Health(); err != nil {
		log.Error("Container health check failed", "error", err)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized")
	return container, nil
}

// NewContainerWithDB wires repositories over an existing connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:          db,
		log:         logger.Repository("postgres_container"),
		Polls:       NewPollRepository(db),
		Nominations: NewNominationRepository(db),
		Votes:       NewVoteRepository(db),
		Sessions:    NewBallotSessionRepository(db),
	}
}

// Health checks the underlying database connection
func (c *Container) Health() error {
	return HealthCheck(c.db)
}

// DB exposes the underlying connection for the HTTP health endpoint
func (c *Container) DB() *gorm.DB {
	return c.db
}
