package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
)

func TestCreatePoll(t *testing.T) {
	f := newFixture()

	p, err := f.lifecycle.CreatePoll(creator, CreatePollRequest{
		Title:              "Next book",
		Method:             poll.MethodRankedChoice,
		NominationDeadline: time.Now().Add(time.Hour),
		VotingDeadline:     time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, poll.PhaseNomination, p.Phase)
	assert.Equal(t, "guild-1", p.GuildID)
	assert.Equal(t, "creator-1", p.CreatorID)

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseNomination, stored.Phase)
}

func TestCreatePollRejectsBadSchedule(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name       string
		nomination time.Time
		voting     time.Time
	}{
		{"nomination deadline in the past", time.Now().Add(-time.Hour), time.Now().Add(time.Hour)},
		{"voting deadline before nomination deadline", time.Now().Add(2 * time.Hour), time.Now().Add(time.Hour)},
		{"equal deadlines", time.Now().Add(time.Hour).Truncate(time.Second), time.Now().Add(time.Hour).Truncate(time.Second)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.lifecycle.CreatePoll(creator, CreatePollRequest{
				Title:              "Next book",
				Method:             poll.MethodRankedChoice,
				NominationDeadline: tc.nomination,
				VotingDeadline:     tc.voting,
			})
			assert.ErrorIs(t, err, poll.ErrInvalidSchedule)
		})
	}
}

func TestCreatePollRejectsBadTitle(t *testing.T) {
	f := newFixture()

	_, err := f.lifecycle.CreatePoll(creator, CreatePollRequest{
		Title:              "   ",
		Method:             poll.MethodRankedChoice,
		NominationDeadline: time.Now().Add(time.Hour),
		VotingDeadline:     time.Now().Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, poll.ErrInvalidInput)
}

func TestEndNominationsStartsVoting(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedNomination(p, "member-1", "Dune")

	updated, err := f.lifecycle.EndNominations(p.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseVoting, updated.Phase)
	assert.Equal(t, 1, f.notifier.count(), "voting start should be announced once")
}

func TestEndNominationsRequiresPrivilege(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedNomination(p, "member-1", "Dune")

	_, err := f.lifecycle.EndNominations(p.ID, member)
	assert.ErrorIs(t, err, poll.ErrForbidden)

	// Admins qualify even without being the creator.
	_, err = f.lifecycle.EndNominations(p.ID, admin)
	assert.NoError(t, err)
}

func TestEndNominationsWithoutNominations(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	_, err := f.lifecycle.EndNominations(p.ID, creator)
	assert.ErrorIs(t, err, poll.ErrInvalidTransition)
}

func TestEndNominationsIdempotent(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedNomination(p, "member-1", "Dune")

	_, err := f.lifecycle.EndNominations(p.ID, creator)
	require.NoError(t, err)

	again, err := f.lifecycle.EndNominations(p.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseVoting, again.Phase)
	assert.Equal(t, 1, f.notifier.count(), "repeat call must not announce again")
}

func TestEndVotingComputesAndPersistsResults(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	a := f.seedNomination(p, "member-1", "Dune")
	b := f.seedNomination(p, "member-2", "Solaris")
	f.setPhase(p, poll.PhaseVoting)

	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID, b.ID})))
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-2", []uuid.UUID{a.ID})))

	updated, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseCompleted, updated.Phase)
	require.NotNil(t, updated.Results)
	require.NotNil(t, updated.Results.WinnerID)
	assert.Equal(t, a.ID, *updated.Results.WinnerID)
	assert.Equal(t, 2, updated.Results.TotalBallots)

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Results)
	assert.Equal(t, a.ID, *stored.Results.WinnerID)
}

func TestEndVotingWithZeroVotes(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	f.seedNomination(p, "member-1", "Dune")
	f.setPhase(p, poll.PhaseVoting)

	updated, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseCompleted, updated.Phase)
	require.NotNil(t, updated.Results)
	assert.Nil(t, updated.Results.WinnerID)
	assert.False(t, updated.Results.Tie)
	assert.Zero(t, updated.Results.TotalBallots)
}

func TestEndVotingFromNomination(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	_, err := f.lifecycle.EndVoting(p.ID, creator)
	assert.ErrorIs(t, err, poll.ErrInvalidTransition)
}

func TestEndVotingIdempotent(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	a := f.seedNomination(p, "member-1", "Dune")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))

	first, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	announcements := f.notifier.count()

	second, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseCompleted, second.Phase)
	assert.Equal(t, *first.Results.WinnerID, *second.Results.WinnerID)
	assert.Equal(t, announcements, f.notifier.count(), "repeat call must not announce again")
}

func TestAdvanceOverdueNominationDeadline(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedNomination(p, "member-1", "Dune")

	require.NoError(t, f.lifecycle.AdvanceOverdue(p, p.NominationDeadline.Add(time.Minute)))

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseVoting, stored.Phase)
}

func TestAdvanceOverdueBeforeDeadline(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)
	f.seedNomination(p, "member-1", "Dune")

	require.NoError(t, f.lifecycle.AdvanceOverdue(p, time.Now()))

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseNomination, stored.Phase)
}

func TestAdvanceOverdueWithNoNominations(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	// The deadline passed with nothing to vote on. The poll stays put and
	// the sweep reports no error so other polls are unaffected.
	require.NoError(t, f.lifecycle.AdvanceOverdue(p, p.NominationDeadline.Add(time.Minute)))

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseNomination, stored.Phase)
}

func TestAdvanceOverdueVotingDeadline(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))

	require.NoError(t, f.lifecycle.AdvanceOverdue(p, p.VotingDeadline.Add(time.Minute)))

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.PhaseCompleted, stored.Phase)
	require.NotNil(t, stored.Results)
	assert.Equal(t, a.ID, *stored.Results.WinnerID)
}

func TestResolveTie(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	b := f.seedNomination(p, "member-2", "Solaris")
	f.setPhase(p, poll.PhaseVoting)

	// Two opposing ballots produce a clean 3-3 tie.
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-2", []uuid.UUID{b.ID})))

	completed, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	require.True(t, completed.Results.Tie)
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, completed.Results.TiedIDs)

	resolved, err := f.lifecycle.ResolveTie(p.ID, b.ID, creator)
	require.NoError(t, err)
	assert.False(t, resolved.Results.Tie)
	require.NotNil(t, resolved.Results.WinnerID)
	assert.Equal(t, b.ID, *resolved.Results.WinnerID)
	assert.Equal(t, poll.PhaseCompleted, resolved.Phase, "tie-break must not reopen the poll")
}

func TestResolveTieSurvivesStaleSweep(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	b := f.seedNomination(p, "member-2", "Solaris")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-2", []uuid.UUID{b.ID})))

	// A sweep lists the poll while it is still in Voting.
	stale, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	_, err = f.lifecycle.ResolveTie(p.ID, b.ID, creator)
	require.NoError(t, err)

	// The stale sweep fires after the tie-break. Its recomputed snapshot
	// must not overwrite the resolved winner.
	require.NoError(t, f.lifecycle.AdvanceOverdue(stale, p.VotingDeadline.Add(time.Minute)))

	stored, err := f.polls.GetByID(p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Results)
	assert.False(t, stored.Results.Tie)
	require.NotNil(t, stored.Results.WinnerID)
	assert.Equal(t, b.ID, *stored.Results.WinnerID)
}

func TestResolveTieRejectsOutsiders(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	b := f.seedNomination(p, "member-2", "Solaris")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-2", []uuid.UUID{b.ID})))
	_, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)

	_, err = f.lifecycle.ResolveTie(p.ID, a.ID, member)
	assert.ErrorIs(t, err, poll.ErrForbidden)
}

func TestResolveTieWinnerMustBeTied(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	b := f.seedNomination(p, "member-2", "Solaris")
	c := f.seedNomination(p, "member-3", "Neuromancer")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-2", []uuid.UUID{b.ID})))

	completed, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)
	require.True(t, completed.Results.Tie)

	_, err = f.lifecycle.ResolveTie(p.ID, c.ID, creator)
	assert.ErrorIs(t, err, poll.ErrInvalidTransition)
}

func TestResolveTieWithoutTie(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	f.seedNomination(p, "member-2", "Solaris")
	f.setPhase(p, poll.PhaseVoting)
	require.NoError(t, f.votes.Create(poll.NewVote(p.ID, "voter-1", []uuid.UUID{a.ID})))

	_, err := f.lifecycle.EndVoting(p.ID, creator)
	require.NoError(t, err)

	_, err = f.lifecycle.ResolveTie(p.ID, a.ID, creator)
	assert.ErrorIs(t, err, poll.ErrInvalidTransition)
}

func TestResolveTieRequiresCompletedPhase(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodWeightedTop3)
	a := f.seedNomination(p, "member-1", "Dune")
	f.setPhase(p, poll.PhaseVoting)

	_, err := f.lifecycle.ResolveTie(p.ID, a.ID, creator)
	assert.ErrorIs(t, err, poll.ErrWrongPhase)
}

func TestDeletePoll(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	err := f.lifecycle.DeletePoll(p.ID, ConfirmationToken(p.ID), creator)
	require.NoError(t, err)

	_, err = f.polls.GetByID(p.ID)
	assert.ErrorIs(t, err, poll.ErrNotFound)
}

func TestDeletePollBadToken(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	err := f.lifecycle.DeletePoll(p.ID, "wrong-tok", creator)
	assert.ErrorIs(t, err, poll.ErrForbidden)

	_, err = f.polls.GetByID(p.ID)
	assert.NoError(t, err, "poll must survive a failed confirmation")
}

func TestDeletePollRequiresPrivilege(t *testing.T) {
	f := newFixture()
	p := f.seedPoll("guild-1", poll.MethodRankedChoice)

	err := f.lifecycle.DeletePoll(p.ID, ConfirmationToken(p.ID), member)
	assert.ErrorIs(t, err, poll.ErrForbidden)
}
