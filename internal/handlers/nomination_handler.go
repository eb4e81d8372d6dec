package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/response"
	"github.com/gravadigital/bookpoll-api/internal/services"
)

type NominationHandler struct {
	nominations *services.NominationService
	resolver    *services.PollResolver
	log         *log.Logger
}

func NewNominationHandler(svc *services.Services) *NominationHandler {
	return &NominationHandler{
		nominations: svc.Nominations,
		resolver:    svc.Resolver,
		log:         logger.Handler("nominations"),
	}
}

type NominateRequest struct {
	PollID   string `json:"poll_id"`
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author"`
	Link     string `json:"link"`
	Username string `json:"username"`
}

// Nominate handles POST /api/nominations
func (h *NominationHandler) Nominate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req NominateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	username := req.Username
	if username == "" {
		username = actor.ID
	}

	n, err := h.nominations.Nominate(p.ID, actor, services.NominateRequest{
		Title:    req.Title,
		Author:   req.Author,
		Link:     req.Link,
		Username: username,
	})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Nomination submitted", n)
}

type EditNominationRequest struct {
	PollID       string  `json:"poll_id"`
	NominationID string  `json:"nomination_id"`
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Link         *string `json:"link"`
}

// EditNomination handles PATCH /api/nominations. Without a nomination_id
// the edit targets the caller's own nomination in the poll.
func (h *NominationHandler) EditNomination(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req EditNominationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	nominationID, ok := parseOptionalUUID(c, req.NominationID, "nomination_id")
	if !ok {
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	edit := poll.NominationEdit{
		Title:  req.Title,
		Author: req.Author,
		Link:   req.Link,
	}

	n, err := h.nominations.EditNomination(p.ID, nominationID, edit, actor)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Nomination updated", n)
}

type WithdrawRequest struct {
	PollID string `json:"poll_id"`
}

// Withdraw handles POST /api/nominations/withdraw. It always targets the
// caller's own nomination.
func (h *NominationHandler) Withdraw(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	p, ok := resolvePoll(c, h.resolver, actor, req.PollID)
	if !ok {
		return
	}

	if err := h.nominations.WithdrawNomination(p.ID, actor); err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Nomination withdrawn", gin.H{"poll_id": p.ID})
}

// Remove handles DELETE /api/nominations/:nomination_id. Only the
// nominator, the poll creator or an admin may remove a nomination, and
// only while the poll is still nominating.
func (h *NominationHandler) Remove(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	nominationID, err := uuid.Parse(c.Param("nomination_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid nomination_id format")
		return
	}

	if err := h.nominations.RemoveNomination(nominationID, actor); err != nil {
		response.DomainError(c, err)
		return
	}

	h.log.Info("nomination removed", "nomination_id", nominationID, "actor_id", actor.ID)
	response.Success(c, http.StatusOK, "Nomination removed", gin.H{"nomination_id": nominationID})
}

// List handles GET /api/nominations
func (h *NominationHandler) List(c *gin.Context) {
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

	response.Success(c, http.StatusOK, "Nominations retrieved", gin.H{
		"poll_id":     p.ID,
		"nominations": nominations,
		"count":       len(nominations),
	})
}
