package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// TrackingHandler manages usage-tracking sessions
type TrackingHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(engine policy.EngineInterface, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{
		engine: engine,
		logger: logger,
	}
}

// StartTracking opens a new usage-tracking session
// POST /v1/tracking
func (h *TrackingHandler) StartTracking(c *gin.Context) {
	session := h.engine.StartTracking()

	c.JSON(http.StatusCreated, gin.H{
		"tracking_id": session.ID(),
		"started_at":  session.StartedAt(),
	})
}

// ListTracking returns all currently active tracking sessions
// GET /v1/tracking
func (h *TrackingHandler) ListTracking(c *gin.Context) {
	sessions := h.engine.ActiveTracking()
	if sessions == nil {
		sessions = []policy.TrackingInfo{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// StopTracking closes a tracking session and credits the elapsed minutes
// to today's usage
// DELETE /v1/tracking/:id
func (h *TrackingHandler) StopTracking(c *gin.Context) {
	id := c.Param("id")

	minutes, err := h.engine.StopTracking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, policy.ErrTrackingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Tracking session not found",
				"code":  "NOT_FOUND",
			})
			return
		}
		h.logger.Error("Failed to stop tracking session",
			"component", "api",
			"tracking_id", id,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record usage",
			"code":  "STORAGE_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracking_id":      id,
		"minutes_recorded": minutes,
	})
}
