package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stakeduel/auth"
	"stakeduel/config"
	"stakeduel/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Services groups what the HTTP layer calls into
type Services struct {
	Matches  service.MatchService
	Results  service.ResultService
	Presence service.PresenceService
	Accounts service.AccountService
	Games    service.GameService
}

// Server is the player-facing HTTP API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	services Services
}

// NewServer wires the routes
func NewServer(cfg *config.Config, services Services) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware())

	s := &Server{
		router:   router,
		config:   cfg,
		services: services,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(cfg.JWTSecret))
	{
		v1.GET("/games", s.listGames)

		matches := v1.Group("/matches")
		matches.POST("", s.createMatch)
		matches.GET("/open", s.listOpenMatches)
		matches.GET("/share/:ref", s.getMatchByShareRef)
		matches.GET("/:id", s.getMatch)
		matches.POST("/:id/join-requests", s.requestJoin)
		matches.POST("/:id/join-requests/:requestId/accept", s.acceptJoinRequest)
		matches.POST("/:id/join-requests/:requestId/reject", s.rejectJoinRequest)
		matches.POST("/:id/cancel", s.cancelMatch)
		matches.POST("/:id/start", s.startMatch)
		matches.POST("/:id/results", s.submitResult)
		matches.POST("/:id/forfeit", s.forfeit)
		matches.POST("/:id/heartbeat", s.heartbeat)
		matches.GET("/:id/opponent", s.opponentStatus)

		me := v1.Group("/me")
		me.GET("/balance", s.getBalance)
		me.GET("/transactions", s.listTransactions)
		me.GET("/matches", s.listMyMatches)
	}

	return s
}

// Handler exposes the router for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.config.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
