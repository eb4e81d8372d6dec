package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
)

// In-memory repositories for service tests. They enforce the same
// uniqueness rules as the real store, including the partial index that
// exempts privileged nominations.

type fakePollRepo struct {
	mu    sync.Mutex
	polls map[uuid.UUID]*poll.Poll
	order []uuid.UUID
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[uuid.UUID]*poll.Poll)}
}

func (r *fakePollRepo) Create(p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.polls[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakePollRepo) GetByID(id uuid.UUID) (*poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return nil, fmt.Errorf("poll %s: %w", id, poll.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePollRepo) ListByGuild(guildID string) ([]*poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*poll.Poll
	// Newest first, matching the store's created_at DESC ordering.
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.polls[r.order[i]]
		if p != nil && p.GuildID == guildID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePollRepo) ListActive(guildID string) ([]*poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*poll.Poll
	for _, id := range r.order {
		p := r.polls[id]
		if p == nil || !p.Active() {
			continue
		}
		if guildID != "" && p.GuildID != guildID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePollRepo) UpdatePhase(pollID uuid.UUID, from, to poll.Phase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok {
		return false, fmt.Errorf("poll %s: %w", pollID, poll.ErrNotFound)
	}
	if p.Phase != from {
		return false, nil
	}
	p.Phase = to
	return true, nil
}

func (r *fakePollRepo) UpdateResults(pollID uuid.UUID, phase poll.Phase, results *poll.TallyResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok {
		return false, fmt.Errorf("poll %s: %w", pollID, poll.ErrNotFound)
	}
	if p.Phase != phase {
		return false, nil
	}
	cp := *results
	p.Results = &cp
	return true, nil
}

func (r *fakePollRepo) Delete(pollID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[pollID]; !ok {
		return fmt.Errorf("poll %s: %w", pollID, poll.ErrNotFound)
	}
	delete(r.polls, pollID)
	return nil
}

type fakeNominationRepo struct {
	mu          sync.Mutex
	nominations map[uuid.UUID]*poll.Nomination
	order       []uuid.UUID
}

func newFakeNominationRepo() *fakeNominationRepo {
	return &fakeNominationRepo{nominations: make(map[uuid.UUID]*poll.Nomination)}
}

func (r *fakeNominationRepo) Create(n *poll.Nomination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !n.Privileged {
		for _, existing := range r.nominations {
			if existing.PollID == n.PollID && existing.NominatorID == n.NominatorID && !existing.Privileged {
				return fmt.Errorf("poll %s: %w", n.PollID, poll.ErrDuplicateNomination)
			}
		}
	}
	cp := *n
	r.nominations[n.ID] = &cp
	r.order = append(r.order, n.ID)
	return nil
}

func (r *fakeNominationRepo) GetByID(id uuid.UUID) (*poll.Nomination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nominations[id]
	if !ok {
		return nil, fmt.Errorf("nomination %s: %w", id, poll.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNominationRepo) ListByPoll(pollID uuid.UUID) ([]*poll.Nomination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*poll.Nomination
	for _, id := range r.order {
		n := r.nominations[id]
		if n != nil && n.PollID == pollID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNominationRepo) ListByNominator(pollID uuid.UUID, nominatorID string) ([]*poll.Nomination, error) {
	all, _ := r.ListByPoll(pollID)
	var out []*poll.Nomination
	for _, n := range all {
		if n.NominatorID == nominatorID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNominationRepo) Update(n *poll.Nomination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nominations[n.ID]; !ok {
		return fmt.Errorf("nomination %s: %w", n.ID, poll.ErrNotFound)
	}
	cp := *n
	r.nominations[n.ID] = &cp
	return nil
}

func (r *fakeNominationRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nominations[id]; !ok {
		return fmt.Errorf("nomination %s: %w", id, poll.ErrNotFound)
	}
	delete(r.nominations, id)
	return nil
}

type fakeVoteRepo struct {
	mu    sync.Mutex
	votes map[uuid.UUID]*poll.Vote
	order []uuid.UUID
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[uuid.UUID]*poll.Vote)}
}

func (r *fakeVoteRepo) Create(v *poll.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.votes {
		if existing.PollID == v.PollID && existing.VoterID == v.VoterID {
			return fmt.Errorf("poll %s: %w", v.PollID, poll.ErrDuplicateVote)
		}
	}
	cp := *v
	r.votes[v.ID] = &cp
	r.order = append(r.order, v.ID)
	return nil
}

func (r *fakeVoteRepo) ListByPoll(pollID uuid.UUID) ([]*poll.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*poll.Vote
	for _, id := range r.order {
		v := r.votes[id]
		if v != nil && v.PollID == pollID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) HasVoted(pollID uuid.UUID, voterID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.PollID == pollID && v.VoterID == voterID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*poll.BallotSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*poll.BallotSession)}
}

func (r *fakeSessionRepo) Create(s *poll.BallotSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) Get(pollID uuid.UUID, voterID string) (*poll.BallotSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.PollID == pollID && s.VoterID == voterID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("ballot session: %w", poll.ErrNotFound)
}

func (r *fakeSessionRepo) Update(s *poll.BallotSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return fmt.Errorf("ballot session %s: %w", s.ID, poll.ErrNotFound)
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("ballot session %s: %w", id, poll.ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	posts []string
}

func (n *fakeNotifier) Post(channelRef, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, content)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.posts)
}

// fixture bundles the services under test over fresh fakes
type fixture struct {
	polls       *fakePollRepo
	nominations *fakeNominationRepo
	votes       *fakeVoteRepo
	sessions    *fakeSessionRepo
	notifier    *fakeNotifier

	lifecycle      *LifecycleService
	nominationsSvc *NominationService
	votesSvc       *VoteService
	sessionsSvc    *BallotSessionService
	resolver       *PollResolver
}

func newFixture() *fixture {
	f := &fixture{
		polls:       newFakePollRepo(),
		nominations: newFakeNominationRepo(),
		votes:       newFakeVoteRepo(),
		sessions:    newFakeSessionRepo(),
		notifier:    &fakeNotifier{},
	}

	f.lifecycle = NewLifecycleService(f.polls, f.nominations, f.votes, f.notifier)
	f.nominationsSvc = NewNominationService(f.polls, f.nominations)
	f.votesSvc = NewVoteService(f.polls, f.nominations, f.votes)
	f.sessionsSvc = NewBallotSessionService(f.polls, f.nominations, f.sessions, f.votesSvc, 10*time.Minute)
	f.resolver = NewPollResolver(f.polls)

	return f
}

// a poll in the Nomination phase with future deadlines
func (f *fixture) seedPoll(guildID string, method poll.Method) *poll.Poll {
	p := poll.NewPoll(guildID, "channel-1", "Next book", "creator-1", method,
		time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err := f.polls.Create(p); err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) seedNomination(p *poll.Poll, nominatorID, title string) *poll.Nomination {
	n := poll.NewNomination(p.ID, title, "", "", nominatorID, nominatorID, false)
	if err := f.nominations.Create(n); err != nil {
		panic(err)
	}
	return n
}

func (f *fixture) setPhase(p *poll.Poll, phase poll.Phase) {
	f.polls.mu.Lock()
	defer f.polls.mu.Unlock()
	f.polls.polls[p.ID].Phase = phase
	p.Phase = phase
}

var (
	creator = poll.Actor{ID: "creator-1", GuildID: "guild-1", ChannelID: "channel-1"}
	admin   = poll.Actor{ID: "admin-1", GuildID: "guild-1", ChannelID: "channel-1", IsAdmin: true}
	member  = poll.Actor{ID: "member-1", GuildID: "guild-1", ChannelID: "channel-1"}
	member2 = poll.Actor{ID: "member-2", GuildID: "guild-1", ChannelID: "channel-1"}
)
