package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// PollResolver resolves the implicit poll a command refers to: explicit id
// first, else the guild's single unambiguous active poll, else the most
// recent poll.
type PollResolver struct {
	polls postgres.PollRepository
}

// NewPollResolver creates a new poll resolver
func NewPollResolver(polls postgres.PollRepository) *PollResolver {
	return &PollResolver{polls: polls}
}

// AmbiguousPollError reports that several active polls match and carries
// the candidates for the disambiguation message.
type AmbiguousPollError struct {
	Candidates []*poll.Poll
}

func (e *AmbiguousPollError) Error() string {
	return fmt.Sprintf("%d active polls match, name one by id", len(e.Candidates))
}

func (e *AmbiguousPollError) Unwrap() error {
	return poll.ErrAmbiguousTarget
}

// Resolve finds the poll a command targets within a guild
func (r *PollResolver) Resolve(guildID string, explicit *uuid.UUID) (*poll.Poll, error) {
	if explicit != nil {
		p, err := r.polls.GetByID(*explicit)
		if err != nil {
			return nil, err
		}
		if p.GuildID != guildID {
			return nil, fmt.Errorf("poll %s: %w", explicit, poll.ErrNotFound)
		}
		return p, nil
	}

	active, err := r.polls.ListActive(guildID)
	if err != nil {
		return nil, err
	}

	switch len(active) {
	case 1:
		return active[0], nil
	case 0:
		// Fall through to the most recent poll, active or not.
	default:
		return nil, &AmbiguousPollError{Candidates: active}
	}

	all, err := r.polls.ListByGuild(guildID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no polls in this guild: %w", poll.ErrNotFound)
	}

	return all[0], nil
}
