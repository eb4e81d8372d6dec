package poll

import "errors"

// Caller-input and permission errors are reported synchronously to the
// command's originator and never retried. ErrStoreUnavailable marks a
// transient store failure: the caller reports "try again" and the scheduler
// retries the affected poll on its next sweep.
var (
	ErrInvalidSchedule     = errors.New("invalid poll schedule")
	ErrInvalidTransition   = errors.New("invalid phase transition")
	ErrWrongPhase          = errors.New("poll is not in the required phase")
	ErrDuplicateNomination = errors.New("user already has an active nomination for this poll")
	ErrDuplicateVote       = errors.New("user has already voted in this poll")
	ErrInvalidBallot       = errors.New("ballot does not match the poll's tally method")
	ErrInvalidInput        = errors.New("invalid field value")
	ErrAmbiguousTarget     = errors.New("more than one candidate matches")
	ErrForbidden           = errors.New("actor is not allowed to perform this action")
	ErrNotFound            = errors.New("not found")
	ErrNoChange            = errors.New("no fields were changed")
	ErrStoreUnavailable    = errors.New("store temporarily unavailable")
)
