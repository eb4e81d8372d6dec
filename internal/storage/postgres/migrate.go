package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
)

// AutoMigrate creates or updates the schema for all poll tables. GORM
// builds the partial unique index on nominations and the composite unique
// index on votes from the struct tags; the uniqueness guarantees the
// services rely on live here, not in application-level checks.
func AutoMigrate(db *gorm.DB) error {
	log := logger.Database()
	log.Info("Running schema migration")

	if err := db.AutoMigrate(
		&poll.Poll{},
		&poll.Nomination{},
		&poll.Vote{},
		&poll.BallotSession{},
	); err != nil {
		log.Error("Schema migration failed", "error", err)
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Schema migration completed")
	return nil
}
