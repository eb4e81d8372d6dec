package services

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
	"github.com/gravadigital/bookpoll-api/internal/validation"
)

// NominationService enforces the nomination rules: one active nomination
// per non-privileged user per poll, and no mutation once the poll leaves
// the Nomination phase.
type NominationService struct {
	polls       postgres.PollRepository
	nominations postgres.NominationRepository
	validator   validation.NominationValidation
	log         *log.Logger
}

// NewNominationService creates a new nomination service
func NewNominationService(polls postgres.PollRepository, nominations postgres.NominationRepository) *NominationService {
	return &NominationService{
		polls:       polls,
		nominations: nominations,
		validator:   validation.NominationValidation{},
		log:         logger.Service("nominations"),
	}
}

// NominateRequest carries the fields of a nominate command
type NominateRequest struct {
	Title    string
	Author   string
	Link     string
	Username string
}

// Nominate submits a nomination to a poll in the Nomination phase. The
// one-per-user rule is enforced by the store's unique index, not by a
// check-then-insert here, so concurrent duplicates cannot slip through.
func (s *NominationService) Nominate(pollID uuid.UUID, actor poll.Actor, req NominateRequest) (*poll.Nomination, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if p.Phase != poll.PhaseNomination {
		return nil, fmt.Errorf("%w: poll is no longer accepting nominations", poll.ErrWrongPhase)
	}

	if err := s.validator.ValidateTitle(req.Title); err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
	}
	if err := s.validator.ValidateAuthor(req.Author); err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
	}
	if err := s.validator.ValidateLink(req.Link); err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
	}

	n := poll.NewNomination(p.ID, req.Title, req.Author, req.Link, actor.ID, req.Username, actor.Privileged(p))
	if err := s.nominations.Create(n); err != nil {
		return nil, err
	}

	s.log.Info("nomination submitted", "poll_id", p.ID, "nomination_id", n.ID, "nominator_id", actor.ID)
	return n, nil
}

// EditNomination edits a nomination, targeted by explicit id or by unique
// match on the actor's own nomination. At least one field must actually
// change.
func (s *NominationService) EditNomination(pollID uuid.UUID, nominationID *uuid.UUID, edit poll.NominationEdit, actor poll.Actor) (*poll.Nomination, error) {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}

	if p.Phase != poll.PhaseNomination {
		return nil, fmt.Errorf("%w: nominations are immutable once voting begins", poll.ErrWrongPhase)
	}

	if edit.Empty() {
		return nil, fmt.Errorf("%w: no fields given", poll.ErrNoChange)
	}

	n, err := s.resolveTarget(p, nominationID, actor)
	if err != nil {
		return nil, err
	}

	if !n.IsNominator(actor.ID) && !actor.Privileged(p) {
		return nil, fmt.Errorf("%w: only the nominator or a privileged actor can edit a nomination", poll.ErrForbidden)
	}

	if edit.Title != nil {
		if err := s.validator.ValidateTitle(*edit.Title); err != nil {
			return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
		}
	}
	if edit.Link != nil {
		if err := s.validator.ValidateLink(*edit.Link); err != nil {
			return nil, fmt.Errorf("%w: %v", poll.ErrInvalidInput, err)
		}
	}

	if !n.Apply(edit) {
		return nil, poll.ErrNoChange
	}

	if err := s.nominations.Update(n); err != nil {
		return nil, err
	}

	s.log.Info("nomination edited", "poll_id", p.ID, "nomination_id", n.ID, "actor_id", actor.ID)
	return n, nil
}

// WithdrawNomination removes the actor's own nomination during the
// Nomination phase.
func (s *NominationService) WithdrawNomination(pollID uuid.UUID, actor poll.Actor) error {
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return err
	}

	if p.Phase != poll.PhaseNomination {
		return fmt.Errorf("%w: nominations can only be withdrawn before voting begins", poll.ErrWrongPhase)
	}

	n, err := s.resolveTarget(p, nil, actor)
	if err != nil {
		return err
	}

	if err := s.nominations.Delete(n.ID); err != nil {
		return err
	}

	s.log.Info("nomination withdrawn", "poll_id", p.ID, "nomination_id", n.ID, "nominator_id", actor.ID)
	return nil
}

// RemoveNomination removes a nomination by id. It is allowed for the
// nominator and for privileged actors, and only while the poll is still in
// the Nomination phase regardless of who asks.
func (s *NominationService) RemoveNomination(nominationID uuid.UUID, actor poll.Actor) error {
	n, err := s.nominations.GetByID(nominationID)
	if err != nil {
		return err
	}

	p, err := s.polls.GetByID(n.PollID)
	if err != nil {
		return err
	}

	if p.Phase != poll.PhaseNomination {
		return fmt.Errorf("%w: nominations can only be removed before voting begins", poll.ErrWrongPhase)
	}

	if !n.IsNominator(actor.ID) && !actor.Privileged(p) {
		return fmt.Errorf("%w: only the nominator or a privileged actor can remove a nomination", poll.ErrForbidden)
	}

	if err := s.nominations.Delete(n.ID); err != nil {
		return err
	}

	s.log.Info("nomination removed", "poll_id", p.ID, "nomination_id", n.ID, "actor_id", actor.ID)
	return nil
}

// ListNominations returns a poll's nominations in submission order
func (s *NominationService) ListNominations(pollID uuid.UUID) ([]*poll.Nomination, error) {
	return s.nominations.ListByPoll(pollID)
}

// resolveTarget finds the nomination an edit or removal refers to: the
// explicit id if one was given, otherwise the actor's single own
// nomination. More than one own nomination without an explicit id is
// ambiguous.
func (s *NominationService) resolveTarget(p *poll.Poll, nominationID *uuid.UUID, actor poll.Actor) (*poll.Nomination, error) {
	if nominationID != nil {
		n, err := s.nominations.GetByID(*nominationID)
		if err != nil {
			return nil, err
		}
		if n.PollID != p.ID {
			return nil, fmt.Errorf("nomination %s: %w", nominationID, poll.ErrNotFound)
		}
		return n, nil
	}

	own, err := s.nominations.ListByNominator(p.ID, actor.ID)
	if err != nil {
		return nil, err
	}

	switch len(own) {
	case 0:
		return nil, fmt.Errorf("no nomination by %s: %w", actor.ID, poll.ErrNotFound)
	case 1:
		return own[0], nil
	default:
		return nil, fmt.Errorf("%w: you have several nominations, name one by id", poll.ErrAmbiguousTarget)
	}
}
