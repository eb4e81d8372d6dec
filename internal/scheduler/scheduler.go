package scheduler

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron"

	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/services"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// Scheduler periodically sweeps all active polls and drives overdue ones
// through the lifecycle. The sweep is idempotent: transitions are guarded
// by the lifecycle's compare-and-swap, so racing an explicit command on
// the same deadline is safe.
type Scheduler struct {
	lifecycle *services.LifecycleService
	polls     postgres.PollRepository
	sessions  postgres.BallotSessionRepository
	cron      *cron.Cron
	log       *log.Logger
}

// New creates a scheduler over the given lifecycle and repositories
func New(lifecycle *services.LifecycleService, polls postgres.PollRepository, sessions postgres.BallotSessionRepository) *Scheduler {
	return &Scheduler{
		lifecycle: lifecycle,
		polls:     polls,
		sessions:  sessions,
		cron:      cron.New(),
		log:       logger.Scheduler(),
	}
}

// Start launches the periodic sweep on the given cron schedule
// (e.g. "@every 1m").
func (s *Scheduler) Start(schedule string) error {
	if err := s.cron.AddFunc(schedule, func() {
		s.Sweep(time.Now())
	}); err != nil {
		return fmt.Errorf("failed to register sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.log.Info("deadline sweep scheduled", "schedule", schedule)
	return nil
}

// Stop halts the periodic sweep
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("deadline sweep stopped")
}

// Sweep finds polls whose deadline has passed and advances them. A failure
// on one poll is logged and does not abort the rest of the sweep; the
// failed poll is retried on the next sweep. Expired ballot sessions are
// purged at the end.
func (s *Scheduler) Sweep(now time.Time) {
	s.log.Debug("starting sweep", "now", now)

	polls, err := s.polls.ListActive("")
	if err != nil {
		s.log.Error("sweep failed to list active polls", "error", err)
		return
	}

	advanced := 0
	for _, p := range polls {
		if err := s.lifecycle.AdvanceOverdue(p, now); err != nil {
			s.log.Error("failed to advance overdue poll", "poll_id", p.ID, "phase", p.Phase.String(), "error", err)
			continue
		}
		advanced++
	}

	if _, err := s.sessions.DeleteExpired(now); err != nil {
		s.log.Error("failed to purge expired ballot sessions", "error", err)
	}

	s.log.Debug("sweep finished", "polls", len(polls), "processed", advanced)
}
