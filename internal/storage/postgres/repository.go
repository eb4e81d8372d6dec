package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
)

// PollRepository defines the store operations for polls. UpdatePhase is a
// compare-and-swap: it only moves the phase if the current value still
// matches `from`, so a scheduler sweep and an explicit command racing on
// the same deadline cannot double-apply a transition. UpdateResults is
// guarded the same way: the write only lands while the poll is still in
// `phase`, so a stale writer cannot overwrite a result set after the poll
// moved on.
type PollRepository interface {
	Create(p *poll.Poll) error
	GetByID(id uuid.UUID) (*poll.Poll, error)
	ListByGuild(guildID string) ([]*poll.Poll, error)
	ListActive(guildID string) ([]*poll.Poll, error)
	UpdatePhase(pollID uuid.UUID, from, to poll.Phase) (bool, error)
	UpdateResults(pollID uuid.UUID, phase poll.Phase, results *poll.TallyResult) (bool, error)
	Delete(pollID uuid.UUID) error
}

// NominationRepository defines the store operations for nominations.
// Create returns poll.ErrDuplicateNomination when the partial unique index
// on (poll_id, nominator_id) rejects the insert.
type NominationRepository interface {
	Create(n *poll.Nomination) error
	GetByID(id uuid.UUID) (*poll.Nomination, error)
	ListByPoll(pollID uuid.UUID) ([]*poll.Nomination, error)
	ListByNominator(pollID uuid.UUID, nominatorID string) ([]*poll.Nomination, error)
	Update(n *poll.Nomination) error
	Delete(id uuid.UUID) error
}

// VoteRepository defines the store operations for votes. Create returns
// poll.ErrDuplicateVote when the unique index on (poll_id, voter_id)
// rejects the insert.
type VoteRepository interface {
	Create(v *poll.Vote) error
	ListByPoll(pollID uuid.UUID) ([]*poll.Vote, error)
	HasVoted(pollID uuid.UUID, voterID string) (bool, error)
}

// BallotSessionRepository defines the store operations for in-progress
// ballot selections.
type BallotSessionRepository interface {
	Create(s *poll.BallotSession) error
	Get(pollID uuid.UUID, voterID string) (*poll.BallotSession, error)
	Update(s *poll.BallotSession) error
	Delete(id uuid.UUID) error
	DeleteExpired(now time.Time) (int64, error)
}
