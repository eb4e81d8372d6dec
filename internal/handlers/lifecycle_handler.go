package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/response"
	"github.com/gravadigital/bookpoll-api/internal/services"
)

// LifecycleHandler exposes the phase transition commands. The same
// transitions also fire from the deadline scheduler; both paths go
// through LifecycleService so a manual command racing a sweep is a no-op
// for whichever loses.
type LifecycleHandler struct {
	lifecycle *services.LifecycleService
	resolver  *services.PollResolver
	log       *log.Logger
}

func NewLifecycleHandler(svc *services.Services) *LifecycleHandler {
	return &LifecycleHandler{
		lifecycle: svc.Lifecycle,
		resolver:  svc.Resolver,
		log:       logger.Handler("lifecycle"),
	}
}

type TransitionRequest struct {
	PollID string `json:"poll_id"`
}

// EndNominations handles POST /api/polls/end-nominations
func (h *LifecycleHandler) EndNominations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	updated, err := h.lifecycle.EndNominations(p.ID, actor)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Voting started", updated)
}

// EndVoting handles POST /api/polls/end-voting
func (h *LifecycleHandler) EndVoting(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	updated, err := h.lifecycle.EndVoting(p.ID, actor)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Poll completed", updated)
}

type TieBreakRequest struct {
	PollID           string `json:"poll_id"`
	WinnerNomination string `json:"winner_nomination_id" binding:"required"`
}

// BreakTie handles POST /api/polls/tie-break
func (h *LifecycleHandler) BreakTie(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req TieBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	winnerID, err := uuid.Parse(req.WinnerNomination)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid winner_nomination_id format")
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	updated, err := h.lifecycle.ResolveTie(p.ID, winnerID, actor)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Tie resolved", updated)
}
