package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/bookpoll-api/internal/config"
	"github.com/gravadigital/bookpoll-api/internal/handlers"
	"github.com/gravadigital/bookpoll-api/internal/logger"
	"github.com/gravadigital/bookpoll-api/internal/middleware/actor"
	"github.com/gravadigital/bookpoll-api/internal/middleware/events"
	"github.com/gravadigital/bookpoll-api/internal/services"
	"github.com/gravadigital/bookpoll-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	repos      *postgres.Container
	services   *services.Services
}

// New creates a new server instance
func New(cfg *config.Config, repos *postgres.Container, svc *services.Services) *Server {
	return &Server{
		config:   cfg,
		repos:    repos,
		services: svc,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(s.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(events.RequestLogger())

	corsConfig := cors.DefaultConfig()
	origins := strings.Split(s.config.CORS.AllowOrigins, ",")
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	router.Use(cors.New(corsConfig))

	pollHandler := handlers.NewPollHandler(s.services, s.repos.Polls)
	lifecycleHandler := handlers.NewLifecycleHandler(s.services)
	nominationHandler := handlers.NewNominationHandler(s.services)
	voteHandler := handlers.NewVoteHandler(s.services)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		if err := s.repos.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Bookpoll API is running",
			"status":  "healthy",
		})
	})

	s.setupAPIRoutes(router, pollHandler, lifecycleHandler, nominationHandler, voteHandler)

	return router
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	pollHandler *handlers.PollHandler,
	lifecycleHandler *handlers.LifecycleHandler,
	nominationHandler *handlers.NominationHandler,
	voteHandler *handlers.VoteHandler,
) {
	api := router.Group("/api")
	api.Use(actor.Middleware(s.config.Auth.TokenSecret))
	{
		polls := api.Group("/polls")
		{
			polls.POST("", pollHandler.CreatePoll)
			polls.GET("", pollHandler.ListPolls)
			polls.GET("/status", pollHandler.GetStatus)
			polls.DELETE("", pollHandler.DeletePoll)
			polls.POST("/end-nominations", lifecycleHandler.EndNominations)
			polls.POST("/end-voting", lifecycleHandler.EndVoting)
			polls.POST("/tie-break", lifecycleHandler.BreakTie)
		}

		nominations := api.Group("/nominations")
		{
			nominations.POST("", nominationHandler.Nominate)
			nominations.GET("", nominationHandler.List)
			nominations.PATCH("", nominationHandler.EditNomination)
			nominations.POST("/withdraw", nominationHandler.Withdraw)
			nominations.DELETE("/:nomination_id", nominationHandler.Remove)
		}

		votes := api.Group("/votes")
		{
			votes.POST("", voteHandler.SubmitVote)
			votes.GET("/standings", voteHandler.Standings)
		}

		sessions := api.Group("/ballot-sessions")
		{
			sessions.POST("", voteHandler.StartSession)
			sessions.POST("/picks", voteHandler.AddPick)
			sessions.POST("/submit", voteHandler.SubmitSession)
			sessions.DELETE("", voteHandler.DiscardSession)
		}
	}
}
