package main

import (
	"fmt"
	"os"

	"github.com/gravadigital/bookpoll-api/internal/config"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize("info")
	log := logger.Database()

	log.Info("Starting migration process")

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.AutoMigrate(db); err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	log.Info("Migrations completed successfully")
	fmt.Println("Migration process completed!")
}
