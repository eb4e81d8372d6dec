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

type VoteHandler struct {
	votes    *services.VoteService
	sessions *services.BallotSessionService
	resolver *services.PollResolver
	log      *log.Logger
}

func NewVoteHandler(svc *services.Services) *VoteHandler {
	return &VoteHandler{
		votes:    svc.Votes,
		sessions: svc.Sessions,
		resolver: svc.Resolver,
		log:      logger.Handler("votes"),
	}
}

type SubmitVoteRequest struct {
	PollID string   `json:"poll_id"`
	Ballot []string `json:"ballot" binding:"required"`
}

// SubmitVote handles POST /api/votes. The ballot is an ordered list of
// nomination ids; its shape is validated against the poll's tally method.
func (h *VoteHandler) SubmitVote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	ballot := make([]uuid.UUID, 0, len(req.Ballot))
	for _, raw := range req.Ballot {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid nomination id in ballot: "+raw)
			return
		}
		ballot = append(ballot, id)
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	v, err := h.votes.SubmitVote(p.ID, actor.ID, ballot)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Vote recorded", v)
}

// Standings handles GET /api/votes/standings. During voting the result
// is a live tally over the ballots cast so far; after completion it is
// the persisted snapshot.
func (h *VoteHandler) Standings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, c.Query("poll_id"))
	if !ok {
		return
	}

	result, err := h.votes.CurrentStandings(p.ID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Standings retrieved", gin.H{
		"poll_id": p.ID,
		"phase":   p.Phase,
		"results": result,
	})
}

type SessionRequest struct {
	PollID string `json:"poll_id"`
}

// StartSession handles POST /api/ballot-sessions. A session lets a voter
// build a ballot one pick at a time before submitting it as a single vote.
func (h *VoteHandler) StartSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	session, err := h.sessions.Start(p.ID, actor.ID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Ballot session started", session)
}

type AddPickRequest struct {
	PollID       string `json:"poll_id"`
	NominationID string `json:"nomination_id" binding:"required"`
}

// AddPick handles POST /api/ballot-sessions/picks
func (h *VoteHandler) AddPick(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req AddPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	nominationID, err := uuid.Parse(req.NominationID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid nomination_id format")
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	session, err := h.sessions.AddPick(p.ID, actor.ID, nominationID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Pick added", session)
}

// SubmitSession handles POST /api/ballot-sessions/submit
func (h *VoteHandler) SubmitSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	v, err := h.sessions.Submit(p.ID, actor.ID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Vote recorded", v)
}

// DiscardSession handles DELETE /api/ballot-sessions
func (h *VoteHandler) DiscardSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, c.Query("poll_id"))
	if !ok {
		return
	}

	if err := h.sessions.Discard(p.ID, actor.ID); err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Ballot session discarded", gin.H{"poll_id": p.ID})
}
