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

// PostgresNominationRepository implements NominationRepository using GORM
type PostgresNominationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewNominationRepository creates a new PostgreSQL nomination repository
func NewNominationRepository(db *gorm.DB) *PostgresNominationRepository {
	return &PostgresNominationRepository{
		db:  db,
		log: logger.Repository("nomination"),
	}
}

// Create inserts the nomination. The partial unique index on
// (poll_id, nominator_id) WHERE NOT privileged makes the duplicate check
// and the insert one atomic unit at the store.
func (r *PostgresNominationRepository) Create(n *poll.Nomination) error {
	r.log.Debug("creating new nomination", "nomination_id", n.ID, "poll_id", n.PollID, "nominator_id", n.NominatorID)

	if err := n.Validate(); err != nil {
		r.log.Error("nomination validation failed", "error", err, "nomination_id", n.ID)
		return fmt.Errorf("nomination validation failed: %w", err)
	}

	ctx, cancel := storeContext()
	defer cancel()

	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("duplicate nomination rejected", "poll_id", n.PollID, "nominator_id", n.NominatorID)
			return fmt.Errorf("poll %s: %w", n.PollID, poll.ErrDuplicateNomination)
		}
		r.log.Error("failed to create nomination", "error", err, "nomination_id", n.ID)
		return storeError("create nomination", err)
	}

	r.log.Info("nomination created successfully", "nomination_id", n.ID, "poll_id", n.PollID, "title", n.Title)
	return nil
}

func (r *PostgresNominationRepository) GetByID(id uuid.UUID) (*poll.Nomination, error) {
	r.log.Debug("retrieving nomination by ID", "nomination_id", id)

	ctx, cancel := storeContext()
	defer cancel()

	var n poll.Nomination
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("nomination %s: %w", id, poll.ErrNotFound)
		}
		r.log.Error("failed to retrieve nomination", "nomination_id", id, "error", err)
		return nil, storeError("get nomination", err)
	}

	return &n, nil
}

// ListByPoll returns a poll's nominations in submission order, which is
// also the input order the tally engine uses for deterministic tie
// handling.
func (r *PostgresNominationRepository) ListByPoll(pollID uuid.UUID) ([]*poll.Nomination, error) {
	r.log.Debug("retrieving nominations by poll", "poll_id", pollID)

	ctx, cancel := storeContext()
	defer cancel()

	var nominations []*poll.Nomination
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at ASC, id ASC").
		Find(&nominations).Error; err != nil {
		r.log.Error("failed to retrieve nominations", "poll_id", pollID, "error", err)
		return nil, storeError("list nominations", err)
	}

	r.log.Debug("nominations retrieved successfully", "poll_id", pollID, "count", len(nominations))
	return nominations, nil
}

func (r *PostgresNominationRepository) ListByNominator(pollID uuid.UUID, nominatorID string) ([]*poll.Nomination, error) {
	r.log.Debug("retrieving nominations by nominator", "poll_id", pollID, "nominator_id", nominatorID)

	ctx, cancel := storeContext()
	defer cancel()

	var nominations []*poll.Nomination
	if err := r.db.WithContext(ctx).
		Where("poll_id = ? AND nominator_id = ?", pollID, nominatorID).
		Order("created_at ASC, id ASC").
		Find(&nominations).Error; err != nil {
		r.log.Error("failed to retrieve nominations by nominator", "poll_id", pollID, "nominator_id", nominatorID, "error", err)
		return nil, storeError("list nominations by nominator", err)
	}

	return nominations, nil
}

func (r *PostgresNominationRepository) Update(n *poll.Nomination) error {
	r.log.Debug("updating nomination", "nomination_id", n.ID)

	if err := n.Validate(); err != nil {
		return fmt.Errorf("nomination validation failed: %w", err)
	}

	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&poll.Nomination{}).
		Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"title":  n.Title,
			"author": n.Author,
			"link":   n.Link,
		})
	if res.Error != nil {
		r.log.Error("failed to update nomination", "nomination_id", n.ID, "error", res.Error)
		return storeError("update nomination", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("nomination %s: %w", n.ID, poll.ErrNotFound)
	}

	r.log.Info("nomination updated", "nomination_id", n.ID)
	return nil
}

func (r *PostgresNominationRepository) Delete(id uuid.UUID) error {
	r.log.Debug("deleting nomination", "nomination_id", id)

	ctx, cancel := storeContext()
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&poll.Nomination{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("failed to delete nomination", "nomination_id", id, "error", res.Error)
		return storeError("delete nomination", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("nomination %s: %w", id, poll.ErrNotFound)
	}

	r.log.Info("nomination deleted", "nomination_id", id)
	return nil
}
