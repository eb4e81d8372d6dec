package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/response"
	"github.com/gravadigital/bookpoll-api/internal/services"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

type PollHandler struct {
	lifecycle   *services.LifecycleService
	nominations *services.NominationService
	resolver    *services.PollResolver
	polls       postgres.PollRepository
	log         *log.Logger
}

func NewPollHandler(svc *services.Services, polls postgres.PollRepository) *PollHandler {
	return &PollHandler{
		lifecycle:   svc.Lifecycle,
		nominations: svc.Nominations,
		resolver:    svc.Resolver,
		polls:       polls,
		log:         logger.Handler("polls"),
	}
}

type CreatePollRequest struct {
	Title              string `json:"title" binding:"required"`
	TallyMethod        string `json:"tally_method" binding:"required"`
	NominationDeadline string `json:"nomination_deadline" binding:"required"`
	VotingDeadline     string `json:"voting_deadline" binding:"required"`
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	method, valid := poll.MethodFromString(req.TallyMethod)
	if !valid {
		response.Error(c, http.StatusBadRequest, "Invalid tally_method: expected ranked_choice or weighted_top3")
		return
	}

	nominationDeadline, err := time.Parse(time.RFC3339, req.NominationDeadline)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid nomination_deadline format: expected RFC 3339")
		return
	}

	votingDeadline, err := time.Parse(time.RFC3339, req.VotingDeadline)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid voting_deadline format: expected RFC 3339")
		return
	}

	p, err := h.lifecycle.CreatePoll(actor, services.CreatePollRequest{
		Title:              req.Title,
		Method:             method,
		NominationDeadline: nominationDeadline,
		VotingDeadline:     votingDeadline,
	})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Poll created", p)
}

// ListPolls handles GET /api/polls
func (h *PollHandler) ListPolls(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var (
		polls []*poll.Poll
		err   error
	)
	if c.Query("active") == "true" {
		polls, err = h.polls.ListActive(actor.GuildID)
	} else {
		polls, err = h.polls.ListByGuild(actor.GuildID)
	}
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Polls retrieved", gin.H{
		"polls": polls,
		"count": len(polls),
	})
}

type pollStatus struct {
	Poll        *poll.Poll         `json:"poll"`
	Nominations []*poll.Nomination `json:"nominations"`
	Results     *poll.TallyResult  `json:"results,omitempty"`
}

// GetStatus handles GET /api/polls/status
func (h *PollHandler) GetStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, c.Query("poll_id"))
	if !ok {
		return
	}

	nominations, err := h.nominations.ListNominations(p.ID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	status := pollStatus{
		Poll:        p,
		Nominations: nominations,
	}
	if p.Phase == poll.PhaseCompleted {
		status.Results = p.Results
	}

	response.Success(c, http.StatusOK, "Poll status retrieved", status)
}

type DeletePollRequest struct {
	PollID            string `json:"poll_id"`
	ConfirmationToken string `json:"confirmation_token" binding:"required"`
}

// DeletePoll handles DELETE /api/polls. Deletion is destructive and
// requires the short confirmation token echoed back by the client.
func (h *PollHandler) DeletePoll(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req DeletePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	if err := h.lifecycle.DeletePoll(p.ID, req.ConfirmationToken, actor); err != nil {
		response.DomainError(c, err)
		return
	}

	h.log.Info("poll deleted", "poll_id", p.ID, "actor_id", actor.ID)
	response.Success(c, http.StatusOK, "Poll deleted", gin.H{"poll_id": p.ID})
}
