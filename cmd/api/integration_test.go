//go:build integration
// +build integration

package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/bookpoll-api/internal/config"
	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// Integration tests that require a real PostgreSQL database
// Run with: go test -tags=integration

func testConfig() *config.Config {
	cfg := config.Load()
	if testDB := os.Getenv("TEST_DB_NAME"); testDB != "" {
		cfg.DB.Name = testDB
	}
	return cfg
}

func TestDatabaseConnection(t *testing.T) {
	db, err := postgres.Connect(testConfig())
	assert.NoError(t, err, "Should be able to connect to test database")

	if err == nil {
		sqlDB, err := db.DB()
		assert.NoError(t, err)

		err = sqlDB.Ping()
		assert.NoError(t, err, "Should be able to ping the database")

		sqlDB.Close()
	}
}

func TestDatabaseMigration(t *testing.T) {
	db, err := postgres.Connect(testConfig())
	assert.NoError(t, err, "Should be able to connect to test database")

	if err == nil {
		err = postgres.AutoMigrate(db)
		assert.NoError(t, err, "Should be able to run migrations")

		sqlDB, _ := db.DB()
		sqlDB.Close()
	}
}

// TestDuplicateNominationIndex verifies the partial unique index that
// backs the one-nomination-per-user rule.
func TestDuplicateNominationIndex(t *testing.T) {
	db, err := postgres.Connect(testConfig())
	require.NoError(t, err)
	require.NoError(t, postgres.AutoMigrate(db))

	repos := postgres.NewContainerWithDB(db)

	p := poll.NewPoll("guild-it", "channel-it", "Integration poll", "creator-it",
		poll.MethodRankedChoice,
		time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, repos.Polls.Create(p))
	defer repos.Polls.Delete(p.ID)

	first := poll.NewNomination(p.ID, "First Book", "", "", "member-it", "member-it", false)
	require.NoError(t, repos.Nominations.Create(first))

	second := poll.NewNomination(p.ID, "Second Book", "", "", "member-it", "member-it", false)
	err = repos.Nominations.Create(second)
	assert.ErrorIs(t, err, poll.ErrDuplicateNomination)

	// Privileged nominations are exempt from the index.
	adminFirst := poll.NewNomination(p.ID, "Admin Book 1", "", "", "admin-it", "admin-it", true)
	adminSecond := poll.NewNomination(p.ID, "Admin Book 2", "", "", "admin-it", "admin-it", true)
	assert.NoError(t, repos.Nominations.Create(adminFirst))
	assert.NoError(t, repos.Nominations.Create(adminSecond))

	sqlDB, _ := db.DB()
	sqlDB.Close()
}
