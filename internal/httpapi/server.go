// Package httpapi exposes the interview controller to a browser front end.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/session"
)

// Interview is the controller surface the API drives.
type Interview interface {
	StartInterview(ctx context.Context, principal identity.Principal, job interview.Job) error
	StartAnswering(ctx context.Context) error
	StopAnswering(ctx context.Context) error
	NextQuestion(ctx context.Context) error
	ResetInterview(ctx context.Context) error
	ExitFullScreen(ctx context.Context)
	RestoreFullScreen(ctx context.Context)
	Snapshot() session.Snapshot
	Result() (interview.Result, bool)
}

// EventSource serves incremental event reads.
type EventSource interface {
	Since(seq int64) []events.Event
	Last() int64
}

// Config controls the listener and CORS policy.
type Config struct {
	Listen         string
	AllowedOrigins []string
}

// Server is the gin-backed HTTP API.
type Server struct {
	cfg       Config
	interview Interview
	events    EventSource
	auth      identity.Provider
	logger    *slog.Logger
	engine    *gin.Engine
}

// New builds the router. All routes except /api/v1/health require a bearer token.
func New(cfg Config, iv Interview, evs EventSource, auth identity.Provider, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		interview: iv,
		events:    evs,
		auth:      auth,
		logger:    logger,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if s.logger != nil {
		s.logger.Info("http api listening", "listen", s.cfg.Listen)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http api: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api/v1")
	{
		api.GET("/health", s.health)

		authed := api.Group("", s.authenticate())
		authed.GET("/state", s.state)
		authed.GET("/events", s.listEvents)
		authed.POST("/interview", s.requireRole(identity.Principal.CanInterview), s.startInterview)
		authed.POST("/answer", s.command(s.interview.StartAnswering))
		authed.POST("/stop", s.command(s.stopAnswering))
		authed.POST("/next", s.command(s.interview.NextQuestion))
		authed.POST("/reset", s.command(s.interview.ResetInterview))
		authed.POST("/fullscreen", s.fullScreen)
		authed.GET("/result", s.requireRole(identity.Principal.CanReview), s.result)
	}
	return r
}

// stopAnswering detaches from the request so a dropped connection does not
// abandon transcription and feedback midway.
func (s *Server) stopAnswering(ctx context.Context) error {
	return s.interview.StopAnswering(context.WithoutCancel(ctx))
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.logger == nil {
			return
		}
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
