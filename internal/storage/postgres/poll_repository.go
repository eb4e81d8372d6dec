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

// storeError wraps a driver or connectivity failure as a transient store
// failure so callers can tell it apart from input errors.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w (%v)", op, poll.ErrStoreUnavailable, err)
}

// PostgresPollRepository implements PollRepository using GORM
type PostgresPollRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPollRepository creates a new PostgreSQL poll repository
func NewPollRepository(db *gorm.DB) *PostgresPollRepository {
	return &PostgresPollRepository{
		db:  db,
		log: logger.Repository("poll"),
	}
}

func (r *PostgresPollRepository) Create(p *poll.Poll) error {
	r.log.Debug("creating new poll", "poll_id", p.ID, "guild_id", p.GuildID)

	if err := p.Validate(); err != nil {
		r.log.Error("poll validation failed", "error", err, "poll_id", p.ID)
		return fmt.Errorf("poll validation failed: %w", err)
	}

	ctx, cancel := storeContext()
	defer cancel()

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		r.log.Error("failed to create poll", "error", err, "poll_id", p.ID)
		return storeError("create poll", err)
	}

	r.log.Info("poll created successfully", "poll_id", p.ID, "guild_id", p.GuildID, "title", p.Title)
	return nil
}

func (r *PostgresPollRepository) GetByID(id uuid.UUID) (*poll.Poll, error) {
	r.log.Debug("retrieving poll by ID", "poll_id", id)

	ctx, cancel := storeContext()
	defer cancel()

	var p poll.Poll
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("poll not found", "poll_id", id)
			return nil, fmt.Errorf("poll %s: %w", id, poll.ErrNotFound)
		}
		r.log.Error("failed to retrieve poll", "poll_id", id, "error", err)
		return nil, storeError("get poll", err)
	}

	return &p, nil
}

func (r *PostgresPollRepository) ListByGuild(guildID string) ([]*poll.Poll, error) {
	r.log.Debug("retrieving polls by guild", "guild_id", guildID)

	ctx, cancel := storeContext()
	defer cancel()

	var polls []*poll.Poll
	if err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("created_at DESC").
		Find(&polls).Error; err != nil {
		r.log.Error("failed to retrieve polls by guild", "guild_id", guildID, "error", err)
		return nil, storeError("list polls", err)
	}

	r.log.Debug("polls retrieved successfully", "guild_id", guildID, "count", len(polls))
	return polls, nil
}

// ListActive returns polls that are not yet completed, newest first. An
// empty guildID lists active polls across all guilds, which is what the
// scheduler sweep needs.
func (r *PostgresPollRepository) ListActive(guildID string) ([]*poll.Poll, error) {
	r.log.Debug("retrieving active polls", "guild_id", guildID)

	ctx, cancel := storeContext()
	defer cancel()

	query := r.db.WithContext(ctx).Where("phase <> ?", poll.PhaseCompleted)
	if guildID != "" {
		query = query.Where("guild_id = ?", guildID)
	}

	var polls []*poll.Poll
	if err := query.Order("created_at DESC").Find(&polls).Error; err != nil {
		r.log.Error("failed to retrieve active polls", "guild_id", guildID, "error", err)
		return nil, storeError("list active polls", err)
	}

	return polls, nil
}

// UpdatePhase advances the phase only if the current value still matches
// `from`. It reports false when the poll had already moved on, which the
// lifecycle treats as an idempotent no-op.
func (r *PostgresPollRepository) UpdatePhase(pollID uuid.UUID, from, to poll.Phase) (bool, error) {
	r.log.Debug("updating poll phase", "poll_id", pollID, "from", from, "to", to)

	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("id = ? AND phase = ?", pollID, from).
		Update("phase", to)
	if res.Error != nil {
		r.log.Error("failed to update poll phase", "poll_id", pollID, "error", res.Error)
		return false, storeError("update poll phase", res.Error)
	}

	if res.RowsAffected == 0 {
		r.log.Debug("poll phase already moved on", "poll_id", pollID, "expected", from)
		return false, nil
	}

	r.log.Info("poll phase updated", "poll_id", pollID, "from", from.String(), "to", to.String())
	return true, nil
}

// UpdateResults stores a result snapshot only while the poll is still in
// `phase`. It reports false when the poll had already moved on, so a stale
// writer cannot clobber a snapshot a later operation has amended.
func (r *PostgresPollRepository) UpdateResults(pollID uuid.UUID, phase poll.Phase, results *poll.TallyResult) (bool, error) {
	r.log.Debug("updating poll results", "poll_id", pollID, "phase", phase)

	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("id = ? AND phase = ?", pollID, phase).
		Update("results", results)
	if res.Error != nil {
		r.log.Error("failed to update poll results", "poll_id", pollID, "error", res.Error)
		return false, storeError("update poll results", res.Error)
	}

	if res.RowsAffected == 0 {
		r.log.Debug("poll results write skipped", "poll_id", pollID, "expected_phase", phase)
		return false, nil
	}

	r.log.Info("poll results updated", "poll_id", pollID)
	return true, nil
}

// Delete removes the poll and everything scoped to it in one transaction
func (r *PostgresPollRepository) Delete(pollID uuid.UUID) error {
	r.log.Debug("deleting poll", "poll_id", pollID)

	ctx, cancel := storeContext()
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", pollID).Delete(&poll.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&poll.Nomination{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&poll.BallotSession{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&poll.Poll{}, "id = ?", pollID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("poll %s: %w", pollID, poll.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrNotFound) {
			return err
		}
		r.log.Error("failed to delete poll", "poll_id", pollID, "error", err)
		return storeError("delete poll", err)
	}

	r.log.Info("poll deleted", "poll_id", pollID)
	return nil
}
