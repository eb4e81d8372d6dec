package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/bookpoll-api/internal/config"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/notifier"
	"github.com/gravadigital/bookpoll-api/internal/scheduler"
	"github.com/gravadigital/bookpoll-api/internal/server"
	"github.com/gravadigital/bookpoll-api/internal/services"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel)
	log := logger.Get()

	log.Info("Starting Bookpoll API")

	repos, err := postgres.NewContainer(cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	ntf := notifier.NewWebhook(cfg.Notifier.WebhookBaseURL, cfg.Notifier.Timeout)
	svc := services.NewServices(repos, ntf, cfg.Sessions.TTL)

	sweeper := scheduler.New(svc.Lifecycle, repos.Polls, repos.Sessions)
	if err := sweeper.Start(cfg.Scheduler.SweepSchedule); err != nil {
		log.Error("Failed to start deadline scheduler", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, repos, svc)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
