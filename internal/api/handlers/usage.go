package handlers

import (
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// UsageHandler exposes accumulated usage totals
type UsageHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(engine policy.EngineInterface, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		engine: engine,
		logger: logger,
	}
}

// GetTodayUsage returns today's accumulated minutes against the daily limit
// GET /v1/usage/today
func (h *UsageHandler) GetTodayUsage(c *gin.Context) {
	summary, err := h.engine.UsageSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read usage",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read usage",
			"code":  "STORAGE_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
