package services

import (
	"time"

	"github.com/gravadigital/bookpoll-api/internal/notifier"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// Services bundles the poll services behind one handle for wiring into the
// HTTP server and the scheduler.
type Services struct {
	Lifecycle   *LifecycleService
	Nominations *NominationService
	Votes       *VoteService
	Sessions    *BallotSessionService
	Resolver    *PollResolver
}

// NewServices wires all services over the repository container
func NewServices(repos *postgres.Container, ntf notifier.Notifier, sessionTTL time.Duration) *Services {
	votes := NewVoteService(repos.Polls, repos.Nominations, repos.Votes)

	return &Services{
		Lifecycle:   NewLifecycleService(repos.Polls, repos.Nominations, repos.Votes, ntf),
		Nominations: NewNominationService(repos.Polls, repos.Nominations),
		Votes:       votes,
		Sessions:    NewBallotSessionService(repos.Polls, repos.Nominations, repos.Sessions, votes, sessionTTL),
		Resolver:    NewPollResolver(repos.Polls),
	}
}
