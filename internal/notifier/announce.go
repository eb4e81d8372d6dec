package notifier

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
)

// VotingStartedMessage builds the announcement emitted when a poll enters
// the Voting phase, carrying the now-frozen nomination list.
func VotingStartedMessage(p *poll.Poll, nominations []*poll.Nomination) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Voting has started for %q! Nominations:\n", p.Title)
	for i, n := range nominations {
		if n.Author != "" {
			fmt.Fprintf(&b, "%d. %s by %s (nominated by %s)\n", i+1, n.Title, n.Author, n.Username)
		} else {
			fmt.Fprintf(&b, "%d. %s (nominated by %s)\n", i+1, n.Title, n.Username)
		}
	}
	fmt.Fprintf(&b, "Voting closes at %s.", p.VotingDeadline.Format("2006-01-02 15:04 MST"))
	return b.String()
}

// PollCompletedMessage builds the announcement emitted when a poll enters
// the Completed phase: the winner, a tie notice, or a no-votes notice.
func PollCompletedMessage(p *poll.Poll, result *poll.TallyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Poll %q has ended. ", p.Title)

	switch {
	case result.WinnerID != nil:
		fmt.Fprintf(&b, "The winner is %s!", titleFor(result, *result.WinnerID))
	case result.Tie:
		titles := make([]string, 0, len(result.TiedIDs))
		for _, id := range result.TiedIDs {
			titles = append(titles, titleFor(result, id))
		}
		fmt.Fprintf(&b, "It's a tie between %s! A tie-break is needed.", strings.Join(titles, ", "))
	default:
		b.WriteString("No votes were cast, so there is no winner.")
	}

	fmt.Fprintf(&b, " (%d ballots counted)", result.TotalBallots)
	return b.String()
}

// TieResolvedMessage builds the announcement emitted after a privileged
// tie-break designates a winner.
func TieResolvedMessage(p *poll.Poll, result *poll.TallyResult) string {
	winner := "unknown"
	if result.WinnerID != nil {
		winner = titleFor(result, *result.WinnerID)
	}
	return fmt.Sprintf("The tie for %q has been resolved: the winner is %s!", p.Title, winner)
}

func titleFor(result *poll.TallyResult, id uuid.UUID) string {
	for _, s := range result.Standings {
		if s.NominationID == id {
			return s.Title
		}
	}
	return id.String()
}
