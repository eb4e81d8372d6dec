package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
)

// PostgresVoteRepository implements VoteRepository using GORM
type PostgresVoteRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewVoteRepository creates a new PostgreSQL vote repository
func NewVoteRepository(db *gorm.DB) *PostgresVoteRepository {
	return &PostgresVoteRepository{
		db:  db,
		log: logger.Repository("vote"),
	}
}

// Create inserts the vote. The unique index on (poll_id, voter_id) makes
// the duplicate check and the insert one atomic unit at the store, so two
// concurrent submissions from the same voter cannot both succeed.
func (r *PostgresVoteRepository) Create(v *poll.Vote) error {
	r.log.Debug("creating new vote", "vote_id", v.ID, "poll_id", v.PollID, "voter_id", v.VoterID)

	if err := v.Validate(); err != nil {
		r.log.Error("vote validation failed", "error", err, "vote_id", v.ID)
		return fmt.Errorf("vote validation failed: %w", err)
	}

	ctx, cancel := storeContext()
	defer cancel()

	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("duplicate vote rejected", "poll_id", v.PollID, "voter_id", v.VoterID)
			return fmt.Errorf("poll %s: %w", v.PollID, poll.ErrDuplicateVote)
		}
		r.log.Error("failed to create vote", "error", err, "vote_id", v.ID)
		return storeError("create vote", err)
	}

	r.log.Info("vote created successfully", "vote_id", v.ID, "poll_id", v.PollID, "voter_id", v.VoterID)
	return nil
}

// ListByPoll returns a poll's votes in submission order
func (r *PostgresVoteRepository) ListByPoll(pollID uuid.UUID) ([]*poll.Vote, error) {
	r.log.Debug("retrieving votes by poll", "poll_id", pollID)

	ctx, cancel := storeContext()
	defer cancel()

	var votes []*poll.Vote
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("submitted_at ASC, id ASC").
		Find(&votes).Error; err != nil {
		r.log.Error("failed to retrieve votes", "poll_id", pollID, "error", err)
		return nil, storeError("list votes", err)
	}

	r.log.Debug("votes retrieved successfully", "poll_id", pollID, "count", len(votes))
	return votes, nil
}

func (r *PostgresVoteRepository) HasVoted(pollID uuid.UUID, voterID string) (bool, error) {
	r.log.Debug("checking voting status", "poll_id", pollID, "voter_id", voterID)

	ctx, cancel := storeContext()
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		Count(&count).Error; err != nil {
		r.log.Error("failed to check voting status", "poll_id", pollID, "voter_id", voterID, "error", err)
		return false, storeError("check voting status", err)
	}

	return count > 0, nil
}
