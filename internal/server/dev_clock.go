package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type advanceClockRequest struct {
	Duration string `json:"duration"`
}

// registerDevRoutes adds time travel endpoints outside production.
func (s *Server) registerDevRoutes() {
	if s.cfg.IsProduction() || s.clock == nil {
		return
	}

	dev := s.engine.Group("/rest/v1/clock")
	dev.GET("", s.GetClock)
	dev.POST("/advance", s.AdvanceClock)
}

func (s *Server) GetClock(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.clockState()})
}

func (s *Server) AdvanceClock(c *gin.Context) {
	var req advanceClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	d, err := time.ParseDuration(strings.TrimSpace(req.Duration))
	if err != nil || d <= 0 {
		AbortWithError(c, fieldError("duration", "invalid_duration", "duration must be a positive Go duration"))
		return
	}

	s.clock.Advance(d)
	s.log.Info("clock.advanced",
		zap.Duration("by", d),
		zap.Duration("offset", s.clock.Offset()),
	)

	c.JSON(http.StatusOK, gin.H{"data": s.clockState()})
}

func (s *Server) clockState() gin.H {
	state := gin.H{
		"now":    s.clock.Now().UTC().Format(time.RFC3339),
		"offset": s.clock.Offset().String(),
	}
	if s.scheduler != nil {
		if next, err := s.scheduler.NextFireTime(); err == nil && !next.IsZero() {
			state["next_fire_time"] = next.UTC().Format(time.RFC3339)
		}
	}
	return state
}
