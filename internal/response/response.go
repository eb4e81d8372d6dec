package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/services"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response with a custom message
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}

// DomainError maps a domain error to its HTTP status and sends it. An
// ambiguous poll resolution additionally carries the candidate list so
// the caller can present a disambiguation menu.
func DomainError(c *gin.Context, err error) {
	var ambiguous *services.AmbiguousPollError
	if errors.As(err, &ambiguous) {
		c.JSON(http.StatusConflict, gin.H{
			"success":    false,
			"error":      ambiguous.Error(),
			"candidates": ambiguous.Candidates,
		})
		return
	}

	Error(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, poll.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, poll.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, poll.ErrDuplicateNomination),
		errors.Is(err, poll.ErrDuplicateVote),
		errors.Is(err, poll.ErrAmbiguousTarget):
		return http.StatusConflict
	case errors.Is(err, poll.ErrWrongPhase),
		errors.Is(err, poll.ErrInvalidTransition),
		errors.Is(err, poll.ErrInvalidSchedule),
		errors.Is(err, poll.ErrInvalidBallot),
		errors.Is(err, poll.ErrInvalidInput),
		errors.Is(err, poll.ErrNoChange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, poll.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
