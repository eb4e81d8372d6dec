package poll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// BallotSession is a short-lived record for a ballot being assembled
// pick-by-pick. It lives in the store rather than process memory so that a
// restart or a second process instance does not lose or duplicate an
// in-progress selection.
type BallotSession struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	PollID     uuid.UUID      `json:"poll_id" gorm:"type:uuid;not null;uniqueIndex:idx_ballot_sessions_poll_voter"`
	VoterID    string         `json:"voter_id" gorm:"not null;uniqueIndex:idx_ballot_sessions_poll_voter"`
	Selections pq.StringArray `json:"selections" gorm:"type:text[]"`
	ExpiresAt  time.Time      `json:"expires_at" gorm:"not null;index"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (BallotSession) TableName() string {
	return "ballot_sessions"
}

// BeforeCreate sets a UUID before creating the record
func (s *BallotSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewBallotSession creates an empty session that expires at the given instant
func NewBallotSession(pollID uuid.UUID, voterID string, expiresAt time.Time) *BallotSession {
	return &BallotSession{
		ID:         uuid.New(),
		PollID:     pollID,
		VoterID:    voterID,
		Selections: pq.StringArray{},
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}
}

// Expired reports whether the session has passed its expiry
func (s *BallotSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AddSelection appends a pick to the session ballot
func (s *BallotSession) AddSelection(nominationID uuid.UUID) error {
	idStr := nominationID.String()
	for _, existing := range s.Selections {
		if existing == idStr {
			return fmt.Errorf("%w: nomination already selected", ErrInvalidBallot)
		}
	}
	s.Selections = append(s.Selections, idStr)
	return nil
}

// SelectionUUIDs converts the stored selections back to []uuid.UUID,
// preserving pick order.
func (s *BallotSession) SelectionUUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Selections))
	for _, idStr := range s.Selections {
		if id, err := uuid.Parse(idStr); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
