package services

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// VoteService accepts ballots during the Voting phase. One vote per voter
// per poll, enforced by the store's unique index; votes are immutable and
// cannot be withdrawn.
type VoteService struct {
	polls       postgres.PollRepository
	nominations postgres.NominationRepository
	votes       postgres.VoteRepository
	log         *log.Logger
	now         func() time.Time
}

// NewVoteService creates a new vote service
func NewVoteService(polls postgres.PollRepository, nominations postgres.NominationRepository, votes postgres.VoteRepository) *VoteService {
	return &VoteService{
		polls:       polls,
		nominations: nominations,
		votes:       votes,
		log:         logger.Service("votes"),
		now:         time.Now,
	}
}

// SubmitVote validates the ballot against the poll's tally method and
// inserts it. The duplicate check and the insert are one atomic unit at
// the store.
func (s *VoteService) SubmitVote(pollID uuid.UUID, voterID string, ballot []uuid.UUID) (*poll.Vote, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if p.Phase != poll.PhaseVoting {
		return nil, fmt.Errorf("%w: poll is not accepting votes", poll.ErrWrongPhase)
	}

	if s.now().After(p.VotingDeadline) {
		return nil, fmt.Errorf("%w: the voting deadline has passed", poll.ErrWrongPhase)
	}

	nominations, err := s.nominations.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	if err := poll.ValidateBallot(ballot, nominations, p.Method); err != nil {
		return nil, err
	}

	v := poll.NewVote(p.ID, voterID, ballot)
	if err := s.votes.Create(v); err != nil {
		return nil, err
	}

	s.log.Info("vote submitted", "poll_id", p.ID, "voter_id", voterID, "picks", len(ballot))
	return v, nil
}

// CurrentStandings computes the standings for display. For a Completed
// poll it returns the persisted snapshot; during Voting it tallies
// speculatively without writing anything.
func (s *VoteService) CurrentStandings(pollID uuid.UUID) (*poll.TallyResult, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if p.Phase == poll.PhaseCompleted && p.Results != nil {
		return p.Results, nil
	}

	if p.Phase == poll.PhaseNomination {
		return nil, fmt.Errorf("%w: voting has not started", poll.ErrWrongPhase)
	}

	nominations, err := s.nominations.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	votes, err := s.votes.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	return poll.ComputeResults(nominations, votes, p.Method), nil
}

// HasVoted reports whether the voter already has a ballot in the poll
func (s *VoteService) HasVoted(pollID uuid.UUID, voterID string) (bool, error) {
	return s.votes.HasVoted(pollID, voterID)
}
