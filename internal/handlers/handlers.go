package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	actormw "github.com/gravadigital/bookpoll-api/internal/middleware/actor"
	"github.com/gravadigital/bookpoll-api/internal/response"
	"github.com/gravadigital/bookpoll-api/internal/services"
)

// requireActor pulls the authenticated actor from the request context
func requireActor(c *gin.Context) (poll.Actor, bool) {
	a, ok := actormw.FromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "missing actor")
		return poll.Actor{}, false
	}
	return a, true
}

// resolvePoll resolves the poll a command targets: the explicit poll_id if
// one was given, otherwise the guild's single unambiguous active poll,
// otherwise the most recent poll. Writes the error response itself on
// failure.
func resolvePoll(c *gin.Context, resolver *services.PollResolver, a poll.Actor, pollIDStr string) (*poll.Poll, bool) {
	var explicit *uuid.UUID
	if pollIDStr != "" {
		id, err := uuid.Parse(pollIDStr)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid poll_id format")
			return nil, false
		}
		explicit = &id
	}

	p, err := resolver.Resolve(a.GuildID, explicit)
	if err != nil {
		response.DomainError(c, err)
		return nil, false
	}

	return p, true
}

// parseOptionalUUID parses an optional id field, distinguishing absent
// from malformed.
func parseOptionalUUID(c *gin.Context, value, fieldName string) (*uuid.UUID, bool) {
	if value == "" {
		return nil, true
	}

	id, err := uuid.Parse(value)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid "+fieldName+" format")
		return nil, false
	}

	return &id, true
}
