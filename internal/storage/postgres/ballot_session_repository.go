package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
)

// PostgresBallotSessionRepository implements BallotSessionRepository using GORM
type PostgresBallotSessionRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewBallotSessionRepository creates a new PostgreSQL ballot session repository
func NewBallotSessionRepository(db *gorm.DB) *PostgresBallotSessionRepository {
	return &PostgresBallotSessionRepository{
		db:  db,
		log: logger.Repository("ballot_session"),
	}
}

func (r *PostgresBallotSessionRepository) Create(s *poll.BallotSession) error {
	r.log.Debug("creating ballot session", "session_id", s.ID, "poll_id", s.PollID, "voter_id", s.VoterID)

	ctx, cancel := storeContext()
	defer cancel()

	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two Start calls raced; the loser retries against the
			// session the winner created.
			return fmt.Errorf("concurrent ballot session for poll %s: %w", s.PollID, poll.ErrAmbiguousTarget)
		}
		r.log.Error("failed to create ballot session", "error", err, "session_id", s.ID)
		return storeError("create ballot session", err)
	}

	return nil
}

func (r *PostgresBallotSessionRepository) Get(pollID uuid.UUID, voterID string) (*poll.BallotSession, error) {
	r.log.Debug("retrieving ballot session", "poll_id", pollID, "voter_id", voterID)

	ctx, cancel := storeContext()
	defer cancel()

	var s poll.BallotSession
	if err := r.db.WithContext(ctx).
		First(&s, "poll_id = ? AND voter_id = ?", pollID, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ballot session for poll %s: %w", pollID, poll.ErrNotFound)
		}
		r.log.Error("failed to retrieve ballot session", "poll_id", pollID, "voter_id", voterID, "error", err)
		return nil, storeError("get ballot session", err)
	}

	return &s, nil
}

func (r *PostgresBallotSessionRepository) Update(s *poll.BallotSession) error {
	r.log.Debug("updating ballot session", "session_id", s.ID)

	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&poll.BallotSession{}).
		Where("id = ?", s.ID).
		Update("selections", s.Selections)
	if res.Error != nil {
		r.log.Error("failed to update ballot session", "session_id", s.ID, "error", res.Error)
		return storeError("update ballot session", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("ballot session %s: %w", s.ID, poll.ErrNotFound)
	}

	return nil
}

func (r *PostgresBallotSessionRepository) Delete(id uuid.UUID) error {
	r.log.Debug("deleting ballot session", "session_id", id)

	ctx, cancel := storeContext()
	defer cancel()

	if err := r.db.WithContext(ctx).Delete(&poll.BallotSession{}, "id = ?", id).Error; err != nil {
		r.log.Error("failed to delete ballot session", "session_id", id, "error", err)
		return storeError("delete ballot session", err)
	}

	return nil
}

// DeleteExpired purges sessions past their expiry; the scheduler calls this
// on every sweep.
func (r *PostgresBallotSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&poll.BallotSession{})
	if res.Error != nil {
		r.log.Error("failed to purge expired ballot sessions", "error", res.Error)
		return 0, storeError("purge ballot sessions", res.Error)
	}

	if res.RowsAffected > 0 {
		r.log.Info("expired ballot sessions purged", "count", res.RowsAffected)
	}

	return res.RowsAffected, nil
}
