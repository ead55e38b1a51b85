package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/version"
)

type startRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type fullScreenRequest struct {
	FullScreen *bool `json:"fullscreen" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "build": version.Current()})
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := identity.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		principal, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func (s *Server) requireRole(allowed func(identity.Principal) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := identity.FromContext(c.Request.Context())
		if !allowed(principal) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(principal.Role) + " is not permitted"})
			return
		}
		c.Next()
	}
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.interview.Snapshot())
}

func (s *Server) listEvents(c *gin.Context) {
	var since int64
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
			return
		}
		since = parsed
	}
	c.JSON(http.StatusOK, gin.H{
		"events": s.events.Since(since),
		"last":   s.events.Last(),
	})
}

func (s *Server) startInterview(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	principal, _ := identity.FromContext(c.Request.Context())
	job := interview.Job{Title: strings.TrimSpace(req.Title), Description: strings.TrimSpace(req.Description)}
	if err := s.interview.StartInterview(c.Request.Context(), principal, job); err != nil {
		s.conflict(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.interview.Snapshot())
}

func (s *Server) command(fn func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context()); err != nil {
			s.conflict(c, err)
			return
		}
		c.JSON(http.StatusOK, s.interview.Snapshot())
	}
}

func (s *Server) fullScreen(c *gin.Context) {
	var req fullScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if *req.FullScreen {
		s.interview.RestoreFullScreen(c.Request.Context())
	} else {
		s.interview.ExitFullScreen(c.Request.Context())
	}
	c.JSON(http.StatusOK, s.interview.Snapshot())
}

func (s *Server) result(c *gin.Context) {
	result, ok := s.interview.Result()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no finished interview"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// conflict reports a rejected command. A cancelled request maps to 408.
func (s *Server) conflict(c *gin.Context, err error) {
	status := http.StatusConflict
	if errors.Is(err, context.Canceled) {
		status = http.StatusRequestTimeout
	}
	c.JSON(status, gin.H{"error": err.Error(), "state": s.interview.Snapshot().State})
}
