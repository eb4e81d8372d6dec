package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
)

func TestResolveExplicitID(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedPoll("guild-1", poll.MethodRankedChoice)

	resolved, err := f.resolver.Resolve("guild-1", &p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, resolved.ID)
}

func TestResolveExplicitIDWrongGuild(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	_, err := f.resolver.Resolve("guild-other", &p.ID)
	assert.ErrorIs(t, err, poll.ErrNotFound, "polls are invisible outside their guild")
}

func TestResolveSingleActive(t *testing.T) {
	f := newFixture()
	completed := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.setPhase(completed, poll.PhaseCompleted)
	active := f.seedPoll("guild-1", poll.MethodRankedChoice)

	resolved, err := f.resolver.Resolve("guild-1", nil)
	require.NoError(t, err)
	assert.Equal(t, active.ID, resolved.ID)
}

func TestResolveAmbiguous(t *testing.T) {
	f := newFixture()
	f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedPoll("guild-1", poll.MethodRankedChoice)

	_, err := f.resolver.Resolve("guild-1", nil)
	assert.ErrorIs(t, err, poll.ErrAmbiguousTarget)

	var ambiguous *AmbiguousPollError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolveFallsBackToMostRecent(t *testing.T) {
	f := newFixture()
	older := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.setPhase(older, poll.PhaseCompleted)
	newer := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.setPhase(newer, poll.PhaseCompleted)

	resolved, err := f.resolver.Resolve("guild-1", nil)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, resolved.ID, "with no active poll the most recent one is the target")
}

func TestResolveNoPolls(t *testing.T) {
	f := newFixture()

	_, err := f.resolver.Resolve("guild-1", nil)
	assert.ErrorIs(t, err, poll.ErrNotFound)

	_, err = f.resolver.Resolve("guild-1", &uuid.UUID{})
	assert.Error(t, err)
}

func TestResolveScopedToGuild(t *testing.T) {
	f := newFixture()
	f.seedPoll("guild-1", poll.MethodRankedChoice)
	other := f.seedPoll("guild-2", poll.MethodRankedChoice)

	resolved, err := f.resolver.Resolve("guild-2", nil)
	require.NoError(t, err)
	assert.Equal(t, other.ID, resolved.ID)
}
