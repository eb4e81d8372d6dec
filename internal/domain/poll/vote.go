package poll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MaxWeightedPicks is the number of scored positions under the weighted
// top-3 method.
const MaxWeightedPicks = 3

// Vote represents one voter's ballot: an ordered list of nomination ids
// expressing preference. Votes are immutable once accepted; the composite
// unique index on (poll_id, voter_id) rejects a second submission at the
// store.
type Vote struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	PollID      uuid.UUID      `json:"poll_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_poll_voter"`
	VoterID     string         `json:"voter_id" gorm:"not null;uniqueIndex:idx_votes_poll_voter"`
	Ballot      pq.StringArray `json:"ballot" gorm:"type:text[];not null"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Vote) TableName() string {
	return "votes"
}

// BeforeCreate sets a UUID before creating the record
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// NewVote creates a new vote with the given ballot
func NewVote(pollID uuid.UUID, voterID string, ballot []uuid.UUID) *Vote {
	stringIDs := make(pq.StringArray, len(ballot))
	for i, id := range ballot {
		stringIDs[i] = id.String()
	}

	return &Vote{
		ID:          uuid.New(),
		PollID:      pollID,
		VoterID:     voterID,
		Ballot:      stringIDs,
		SubmittedAt: time.Now(),
	}
}

// Validate checks if the vote data is valid
func (v *Vote) Validate() error {
	if v.PollID == uuid.Nil {
		return fmt.Errorf("poll_id is required")
	}
	if v.VoterID == "" {
		return fmt.Errorf("voter_id is required")
	}
	if len(v.Ballot) == 0 {
		return fmt.Errorf("ballot cannot be empty")
	}
	return nil
}

// BallotUUIDs converts the stored ballot back to []uuid.UUID, preserving
// preference order.
func (v *Vote) BallotUUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Ballot))
	for _, idStr := range v.Ballot {
		if id, err := uuid.Parse(idStr); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ValidateBallot checks a ballot's shape against the poll's tally method
// before acceptance. Invalid shapes are rejected at submission time, never
// during tallying.
func ValidateBallot(ballot []uuid.UUID, nominations []*Nomination, method Method) error {
	if len(ballot) == 0 {
		return fmt.Errorf("%w: ballot is empty", ErrInvalidBallot)
	}

	known := make(map[uuid.UUID]bool, len(nominations))
	for _, n := range nominations {
		known[n.ID] = true
	}

	seen := make(map[uuid.UUID]bool, len(ballot))
	for _, id := range ballot {
		if !known[id] {
			return fmt.Errorf("%w: unknown nomination %s", ErrInvalidBallot, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate pick %s", ErrInvalidBallot, id)
		}
		seen[id] = true
	}

	switch method {
	case MethodRankedChoice:
		if len(ballot) > len(nominations) {
			return fmt.Errorf("%w: ballot has more picks than nominations", ErrInvalidBallot)
		}
	case MethodWeightedTop3:
		limit := min(MaxWeightedPicks, len(nominations))
		if len(ballot) > limit {
			return fmt.Errorf("%w: at most %d picks are allowed", ErrInvalidBallot, limit)
		}
	default:
		return fmt.Errorf("%w: unknown tally method", ErrInvalidBallot)
	}

	return nil
}
