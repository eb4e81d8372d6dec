package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// BallotSessionService assembles a ballot pick by pick. The in-progress
// selection is a store-owned expiring record keyed by (poll, voter), so it
// survives restarts and stays correct across process instances.
type BallotSessionService struct {
	polls       postgres.PollRepository
	nominations postgres.NominationRepository
	sessions    postgres.BallotSessionRepository
	votes       *VoteService
	ttl         time.Duration
	log         *log.Logger
	now         func() time.Time
}

// NewBallotSessionService creates a new ballot session service
func NewBallotSessionService(polls postgres.PollRepository, nominations postgres.NominationRepository, sessions postgres.BallotSessionRepository, votes *VoteService, ttl time.Duration) *BallotSessionService {
	return &BallotSessionService{
		polls:       polls,
		nominations: nominations,
		sessions:    sessions,
		votes:       votes,
		ttl:         ttl,
		log:         logger.Service("ballot_sessions"),
		now:         time.Now,
	}
}

// Start opens a fresh selection session for the voter. An existing session
// for the same poll and voter is discarded and restarted.
func (s *BallotSessionService) Start(pollID uuid.UUID, voterID string) (*poll.BallotSession, error) {
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

	voted, err := s.votes.HasVoted(p.ID, voterID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, fmt.Errorf("poll %s: %w", p.ID, poll.ErrDuplicateVote)
	}

	if existing, err := s.sessions.Get(p.ID, voterID); err == nil {
		if err := s.sessions.Delete(existing.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, poll.ErrNotFound) {
		return nil, err
	}

	session := poll.NewBallotSession(p.ID, voterID, s.now().Add(s.ttl))
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	s.log.Debug("ballot session started", "poll_id", p.ID, "voter_id", voterID, "expires_at", session.ExpiresAt)
	return session, nil
}

// AddPick appends a nomination to the in-progress ballot, validating the
// partial ballot shape against the poll's tally method.
func (s *BallotSessionService) AddPick(pollID uuid.UUID, voterID string, nominationID uuid.UUID) (*poll.BallotSession, error) {
	session, err := s.activeSession(pollID, voterID)
	if err != nil {
		return nil, err
	}

	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	nominations, err := s.nominations.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	if err := session.AddSelection(nominationID); err != nil {
		return nil, err
	}

	if err := poll.ValidateBallot(session.SelectionUUIDs(), nominations, p.Method); err != nil {
		return nil, err
	}

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	s.log.Debug("ballot pick added", "poll_id", p.ID, "voter_id", voterID, "picks", len(session.Selections))
	return session, nil
}

// Submit turns the session's selections into a vote and discards the
// session. The vote path re-validates everything, so an expired poll or a
// concurrent duplicate still fails cleanly here.
func (s *BallotSessionService) Submit(pollID uuid.UUID, voterID string) (*poll.Vote, error) {
	session, err := s.activeSession(pollID, voterID)
	if err != nil {
		return nil, err
	}

	v, err := s.votes.SubmitVote(pollID, voterID, session.SelectionUUIDs())
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(session.ID); err != nil {
		// The vote is already in; the sweep will purge the leftover
		// session at expiry.
		s.log.Warn("failed to delete submitted ballot session", "session_id", session.ID, "error", err)
	}

	return v, nil
}

// Discard drops the voter's in-progress selection
func (s *BallotSessionService) Discard(pollID uuid.UUID, voterID string) error {
	session, err := s.sessions.Get(pollID, voterID)
	if err != nil {
		return err
	}
	return s.sessions.Delete(session.ID)
}

// activeSession fetches the voter's session, treating an expired one as
// absent.
func (s *BallotSessionService) activeSession(pollID uuid.UUID, voterID string) (*poll.BallotSession, error) {
	session, err := s.sessions.Get(pollID, voterID)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(session.ID); err != nil {
			s.log.Warn("failed to delete expired ballot session", "session_id", session.ID, "error", err)
		}
		return nil, fmt.Errorf("ballot session expired: %w", poll.ErrNotFound)
	}

	return session, nil
}
