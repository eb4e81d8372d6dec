package poll

import (
	"sort"

	"github.com/google/uuid"
)

// Standing is one nomination's score in a tally: round counts for
// instant-runoff, summed points for weighted top-3.
type Standing struct {
	NominationID uuid.UUID `json:"nomination_id"`
	Title        string    `json:"title"`
	Score        int       `json:"score"`
}

// Round records one instant-runoff round: the per-nomination counts over
// the still-active set and the nomination eliminated at its end, if any.
type Round struct {
	Number     int        `json:"number"`
	Counts     []Standing `json:"counts"`
	Eliminated *uuid.UUID `json:"eliminated,omitempty"`
}

// TallyResult is the outcome of a poll tally. It is persisted as a snapshot
// when the poll completes so historical results stay stable even if the
// tally code later changes.
type TallyResult struct {
	Method       Method      `json:"method"`
	WinnerID     *uuid.UUID  `json:"winner_id,omitempty"`
	Tie          bool        `json:"tie"`
	TiedIDs      []uuid.UUID `json:"tied_ids,omitempty"`
	Standings    []Standing  `json:"standings"`
	Rounds       []Round     `json:"rounds,omitempty"`
	TotalBallots int         `json:"total_ballots"`
}

// ComputeResults computes a poll's result from its nominations and votes.
// It is pure and deterministic: identical inputs yield identical output,
// so it can be invoked speculatively for live standings without touching
// persisted state.
func ComputeResults(nominations []*Nomination, votes []*Vote, method Method) *TallyResult {
	switch method {
	case MethodWeightedTop3:
		return computeWeightedTop3(nominations, votes)
	default:
		return computeRankedChoice(nominations, votes)
	}
}

// computeRankedChoice runs instant-runoff voting: each round every active
// ballot counts for its highest-ranked non-eliminated nomination, a
// majority of counted ballots wins, otherwise the nomination with the
// fewest votes is eliminated (the last in input order when several share
// the fewest) and the round repeats.
func computeRankedChoice(nominations []*Nomination, votes []*Vote) *TallyResult {
	result := &TallyResult{
		Method:       MethodRankedChoice,
		Standings:    make([]Standing, 0, len(nominations)),
		TotalBallots: len(votes),
	}

	if len(nominations) == 0 {
		return result
	}

	titles := make(map[uuid.UUID]string, len(nominations))
	for _, n := range nominations {
		titles[n.ID] = n.Title
	}

	if len(nominations) == 1 {
		// A single nomination wins immediately with one trivial round
		// crediting it with every ballot.
		winner := nominations[0].ID
		result.WinnerID = &winner
		result.Rounds = []Round{{
			Number: 1,
			Counts: []Standing{{NominationID: winner, Title: titles[winner], Score: len(votes)}},
		}}
		result.Standings = append(result.Standings, Standing{NominationID: winner, Title: titles[winner], Score: len(votes)})
		return result
	}

	active := make([]uuid.UUID, len(nominations))
	activeSet := make(map[uuid.UUID]bool, len(nominations))
	for i, n := range nominations {
		active[i] = n.ID
		activeSet[n.ID] = true
	}

	// finalScore holds the votes each nomination carried in its last round
	// of participation, for the standings.
	finalScore := make(map[uuid.UUID]int, len(nominations))

	for len(active) > 0 {
		counts := make(map[uuid.UUID]int, len(active))
		counted := 0

		for _, v := range votes {
			for _, pref := range v.BallotUUIDs() {
				if activeSet[pref] {
					counts[pref]++
					counted++
					break
				}
			}
			// A ballot whose preferences are all eliminated or unknown
			// abstains for this round.
		}

		roundCounts := make([]Standing, 0, len(active))
		for _, id := range active {
			roundCounts = append(roundCounts, Standing{NominationID: id, Title: titles[id], Score: counts[id]})
			finalScore[id] = counts[id]
		}

		if counted == 0 {
			// No ballot expresses a remaining preference; there is nothing
			// left to decide between the active nominations.
			break
		}

		round := Round{Number: len(result.Rounds) + 1, Counts: roundCounts}
		majority := counted/2 + 1

		var winner *uuid.UUID
		for _, id := range active {
			if counts[id] >= majority {
				w := id
				winner = &w
				break
			}
		}

		if winner != nil {
			result.Rounds = append(result.Rounds, round)
			result.WinnerID = winner
			break
		}

		// Eliminate exactly one nomination: the last in input order among
		// those with the fewest votes this round.
		loser := active[0]
		for _, id := range active[1:] {
			if counts[id] <= counts[loser] {
				loser = id
			}
		}

		eliminated := loser
		round.Eliminated = &eliminated
		result.Rounds = append(result.Rounds, round)

		delete(activeSet, loser)
		next := make([]uuid.UUID, 0, len(active)-1)
		for _, id := range active {
			if id != loser {
				next = append(next, id)
			}
		}
		active = next
	}

	for _, n := range nominations {
		result.Standings = append(result.Standings, Standing{NominationID: n.ID, Title: n.Title, Score: finalScore[n.ID]})
	}
	sort.SliceStable(result.Standings, func(i, j int) bool {
		return result.Standings[i].Score > result.Standings[j].Score
	})

	return result
}

// computeWeightedTop3 sums 3/2/1 points for each ballot's first, second and
// third pick. The strictly highest total wins; a shared highest total is a
// tie carrying the full tied set, to be resolved by a privileged tie-break.
func computeWeightedTop3(nominations []*Nomination, votes []*Vote) *TallyResult {
	result := &TallyResult{
		Method:       MethodWeightedTop3,
		Standings:    make([]Standing, 0, len(nominations)),
		TotalBallots: len(votes),
	}

	if len(nominations) == 0 {
		return result
	}

	known := make(map[uuid.UUID]bool, len(nominations))
	points := make(map[uuid.UUID]int, len(nominations))
	for _, n := range nominations {
		known[n.ID] = true
	}

	for _, v := range votes {
		for position, id := range v.BallotUUIDs() {
			if position >= MaxWeightedPicks {
				break
			}
			if known[id] {
				points[id] += MaxWeightedPicks - position
			}
		}
	}

	for _, n := range nominations {
		result.Standings = append(result.Standings, Standing{NominationID: n.ID, Title: n.Title, Score: points[n.ID]})
	}
	sort.SliceStable(result.Standings, func(i, j int) bool {
		return result.Standings[i].Score > result.Standings[j].Score
	})

	if len(votes) == 0 {
		return result
	}

	top := result.Standings[0].Score
	var tied []uuid.UUID
	for _, n := range nominations {
		if points[n.ID] == top {
			tied = append(tied, n.ID)
		}
	}

	if len(tied) == 1 {
		winner := tied[0]
		result.WinnerID = &winner
	} else {
		result.Tie = true
		result.TiedIDs = tied
	}

	return result
}
