package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles the parental-control settings screens
type SettingsHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(engine policy.EngineInterface, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		engine: engine,
		logger: logger,
	}
}

// GetSettings returns the full policy configuration. The parent password is
// never returned, only whether one is set.
// GET /v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	cfg := h.engine.Config()

	c.JSON(http.StatusOK, gin.H{
		"time_limit":          cfg.TimeLimit,
		"bedtime":             cfg.Bedtime,
		"content_filter":      cfg.ContentFilter,
		"blocked_users":       cfg.BlockedUsers,
		"parent_password_set": cfg.HasParentPassword(),
	})
}

// UpdateTimeLimit replaces the daily time-limit settings
// PUT /v1/settings/time-limit
func (h *SettingsHandler) UpdateTimeLimit(c *gin.Context) {
	var settings policy.TimeLimitSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if err := h.engine.UpdateTimeLimit(c.Request.Context(), settings); err != nil {
		h.respondUpdateError(c, "time limit", err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateBedtime replaces the bedtime window settings
// PUT /v1/settings/bedtime
func (h *SettingsHandler) UpdateBedtime(c *gin.Context) {
	var schedule policy.BedtimeSchedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if err := h.engine.UpdateBedtime(c.Request.Context(), schedule); err != nil {
		h.respondUpdateError(c, "bedtime", err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// UpdateContentFilter replaces the keyword list
// PUT /v1/settings/content-filter
func (h *SettingsHandler) UpdateContentFilter(c *gin.Context) {
	var settings policy.ContentFilterSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if err := h.engine.UpdateContentFilter(c.Request.Context(), settings); err != nil {
		h.respondUpdateError(c, "content filter", err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// parentPasswordRequest is the body for setting the parent password
type parentPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SetParentPassword stores a new parental password
// PUT /v1/settings/parent-password
func (h *SettingsHandler) SetParentPassword(c *gin.Context) {
	var req parentPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password is required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if err := h.engine.SetParentPassword(c.Request.Context(), req.Password); err != nil {
		h.logger.Error("Failed to set parent password",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save parent password",
			"code":  "STORAGE_ERROR",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// respondUpdateError maps engine update failures onto HTTP responses.
// Validation failures are the caller's fault; anything else is a storage
// write failure, surfaced so the settings UI can decide whether to retry.
func (h *SettingsHandler) respondUpdateError(c *gin.Context, section string, err error) {
	switch {
	case errors.Is(err, policy.ErrInvalidDailyLimit),
		errors.Is(err, policy.ErrInvalidTimeOfDay),
		errors.Is(err, policy.ErrEmptyKeyword):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "VALIDATION_FAILED",
		})
	default:
		h.logger.Error("Failed to update settings",
			"component", "api",
			"section", section,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save settings",
			"code":  "STORAGE_ERROR",
		})
	}
}
