package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/notifier"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
	"github.com/gravadigital/bookpoll-api/internal/validation"
)

// LifecycleService owns the poll phase state machine. It is the only
// writer of a poll's phase; both the HTTP command surface and the deadline
// scheduler funnel through it, and its transitions are compare-and-swap
// guarded so the two triggers can race safely on the same poll.
type LifecycleService struct {
	polls       postgres.PollRepository
	nominations postgres.NominationRepository
	votes       postgres.VoteRepository
	notifier    notifier.Notifier
	validator   validation.PollValidation
	log         *log.Logger
	now         func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(polls postgres.PollRepository, nominations postgres.NominationRepository, votes postgres.VoteRepository, ntf notifier.Notifier) *LifecycleService {
	return &LifecycleService{
		polls:       polls,
		nominations: nominations,
		votes:       votes,
		notifier:    ntf,
		validator:   validation.PollValidation{},
		log:         logger.Lifecycle(),
		now:         time.Now,
	}
}

// CreatePollRequest carries the fields of a create-poll command
type CreatePollRequest struct {
	Title              string
	Method             poll.Method
	NominationDeadline time.Time
	VotingDeadline     time.Time
}

// CreatePoll validates the schedule and creates a poll in the Nomination
// phase, scoped to the actor's guild and announcement channel.
func (s *LifecycleService) CreatePoll(actor poll.Actor, req CreatePollRequest) (*poll.Poll, error) {
	if err := s.validator.ValidateTitle(req.Title); err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
	}

	p := poll.NewPoll(actor.GuildID, actor.ChannelID, req.Title, actor.ID, req.Method, req.NominationDeadline, req.VotingDeadline)

	if err := p.ValidateSchedule(s.now()); err != nil {
		return nil, err
	}

	if err := s.polls.Create(p); err != nil {
		return nil, err
	}

	s.log.Info("poll created", "poll_id", p.ID, "guild_id", p.GuildID, "method", p.Method.String())
	return p, nil
}

// EndNominations moves the poll from Nomination to Voting on behalf of a
// privileged actor. Calling it on a poll that has already advanced is an
// idempotent no-op returning the current poll.
func (s *LifecycleService) EndNominations(pollID uuid.UUID, actor poll.Actor) (*poll.Poll, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if !actor.Privileged(p) {
		return nil, fmt.Errorf("%w: only the poll creator or an admin can end nominations", poll.ErrForbidden)
	}

	if p.Phase != poll.PhaseNomination {
		return p, nil
	}

	return s.startVoting(p)
}

// EndVoting moves the poll from Voting to Completed on behalf of a
// privileged actor, computing and persisting the tally snapshot. The
// transition is permitted even with zero votes, producing a no-winner
// result. Calling it on an already-Completed poll is an idempotent no-op.
func (s *LifecycleService) EndVoting(pollID uuid.UUID, actor poll.Actor) (*poll.Poll, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if !actor.Privileged(p) {
		return nil, fmt.Errorf("%w: only the poll creator or an admin can end voting", poll.ErrForbidden)
	}

	switch p.Phase {
	case poll.PhaseCompleted:
		return p, nil
	case poll.PhaseNomination:
		return nil, fmt.Errorf("%w: poll is still collecting nominations", poll.ErrInvalidTransition)
	}

	return s.completeVoting(p)
}

// AdvanceOverdue applies deadline-driven transitions to a single poll.
// The scheduler calls it for every active poll on each sweep; errors are
// returned for logging and the poll is simply retried on the next sweep.
func (s *LifecycleService) AdvanceOverdue(p *poll.Poll, now time.Time) error {
	switch {
	case p.NominationOverdue(now):
		_, err := s.startVoting(p)
		if errors.Is(err, poll.ErrInvalidTransition) {
			// Deadline passed with nothing nominated. The poll stays in
			// Nomination; there is nothing to vote on yet.
			s.log.Warn("nomination deadline passed with no nominations", "poll_id", p.ID)
			return nil
		}
		return err
	case p.VotingOverdue(now):
		_, err := s.completeVoting(p)
		return err
	}
	return nil
}

// ResolveTie designates one of the tied nominations as winner on a
// Completed poll. It is an audited exception to "Completed is terminal":
// it rewrites the persisted result's winner without recomputing scores and
// without touching the phase.
func (s *LifecycleService) ResolveTie(pollID, winnerID uuid.UUID, actor poll.Actor) (*poll.Poll, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if !actor.Privileged(p) {
		return nil, fmt.Errorf("%w: only the poll creator or an admin can resolve a tie", poll.ErrForbidden)
	}

	if p.Phase != poll.PhaseCompleted {
		return nil, fmt.Errorf("%w: poll is not completed", poll.ErrWrongPhase)
	}

	if p.Results == nil || !p.Results.Tie {
		return nil, fmt.Errorf("%w: poll has no unresolved tie", poll.ErrInvalidTransition)
	}

	if !slices.Contains(p.Results.TiedIDs, winnerID) {
		return nil, fmt.Errorf("%w: winner must be one of the tied nominations", poll.ErrInvalidTransition)
	}

	resolved := *p.Results
	resolved.WinnerID = &winnerID
	resolved.Tie = false

	stored, err := s.polls.UpdateResults(p.ID, poll.PhaseCompleted, &resolved)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, fmt.Errorf("poll %s: %w", p.ID, poll.ErrNotFound)
	}

	p.Results = &resolved
	s.log.Info("tie resolved", "poll_id", p.ID, "winner_id", winnerID, "actor_id", actor.ID)
	s.announce(p.ChannelID, notifier.TieResolvedMessage(p, &resolved))

	return p, nil
}

// ConfirmationToken derives the token a delete command must echo back
func ConfirmationToken(pollID uuid.UUID) string {
	return pollID.String()[:8]
}

// DeletePoll removes a poll and everything scoped to it. The confirmation
// token guards against deleting the wrong poll from a chat command.
func (s *LifecycleService) DeletePoll(pollID uuid.UUID, confirmationToken string, actor poll.Actor) error {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return err
	}

	if !actor.Privileged(p) {
		return fmt.Errorf("%w: only the poll creator or an admin can delete a poll", poll.ErrForbidden)
	}

	if confirmationToken != ConfirmationToken(p.ID) {
		return fmt.Errorf("%w: confirmation token does not match", poll.ErrForbidden)
	}

	if err := s.polls.Delete(p.ID); err != nil {
		return err
	}

	s.log.Info("poll deleted", "poll_id", p.ID, "actor_id", actor.ID)
	return nil
}

// startVoting applies the Nomination -> Voting transition. The nomination
// list is implicitly frozen by the phase change, so the announcement
// snapshot matches what voters will rank.
func (s *LifecycleService) startVoting(p *poll.Poll) (*poll.Poll, error) {
	nominations, err := s.nominations.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	if len(nominations) == 0 {
		return nil, fmt.Errorf("%w: poll has no nominations", poll.ErrInvalidTransition)
	}

	swapped, err := s.polls.UpdatePhase(p.ID, poll.PhaseNomination, poll.PhaseVoting)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Another trigger won the race; treat as success.
		return s.polls.GetByID(p.ID)
	}

	p.Phase = poll.PhaseVoting
	s.log.Info("voting started", "poll_id", p.ID, "nominations", len(nominations))
	s.announce(p.ChannelID, notifier.VotingStartedMessage(p, nominations))

	return p, nil
}

// completeVoting applies the Voting -> Completed transition. The snapshot
// is persisted before the phase flip, and the write is guarded by the
// Voting phase: once any writer completes the poll, a stale sweep can no
// longer re-persist a recomputed snapshot over one a tie-break has since
// amended. The CAS on the phase still gates the announcement exactly once.
func (s *LifecycleService) completeVoting(p *poll.Poll) (*poll.Poll, error) {
	nominations, err := s.nominations.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	votes, err := s.votes.ListByPoll(p.ID)
	if err != nil {
		return nil, err
	}

	result := poll.ComputeResults(nominations, votes, p.Method)

	stored, err := s.polls.UpdateResults(p.ID, poll.PhaseVoting, result)
	if err != nil {
		return nil, err
	}
	if !stored {
		// Another trigger already completed the poll.
		return s.polls.GetByID(p.ID)
	}

	swapped, err := s.polls.UpdatePhase(p.ID, poll.PhaseVoting, poll.PhaseCompleted)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return s.polls.GetByID(p.ID)
	}

	p.Phase = poll.PhaseCompleted
	p.Results = result
	s.log.Info("poll completed", "poll_id", p.ID, "ballots", result.TotalBallots, "tie", result.Tie)
	s.announce(p.ChannelID, notifier.PollCompletedMessage(p, result))

	return p, nil
}

// announce delivers a best-effort announcement. A failed delivery must
// never roll back or block the transition that produced it.
func (s *LifecycleService) announce(channelRef, content string) {
	if err := s.notifier.Post(channelRef, content); err != nil {
		s.log.Warn("announcement delivery failed", "channel", channelRef, "error", err)
	}
}
