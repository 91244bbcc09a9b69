package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// OverrideHandler handles parental override requests
type OverrideHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewOverrideHandler creates a new override handler
func NewOverrideHandler(engine policy.EngineInterface, logger *slog.Logger) *OverrideHandler {
	return &OverrideHandler{
		engine: engine,
		logger: logger,
	}
}

// overrideRequest is the body for an override attempt
type overrideRequest struct {
	Password string `json:"password"`
}

// RequestOverride verifies the parent password and installs the
// session-scoped bypass. "No password configured" is distinguished from
// "wrong password" so the UI can route to a setup flow instead of a retry.
// POST /v1/override
func (h *OverrideHandler) RequestOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	err := h.engine.RequestOverride(req.Password)
	switch {
	case errors.Is(err, policy.ErrPasswordNotConfigured):
		c.JSON(http.StatusConflict, gin.H{
			"error": "No parent password configured",
			"code":  "PASSWORD_NOT_CONFIGURED",
		})
	case errors.Is(err, policy.ErrPasswordMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Incorrect parent password",
			"code":  "PASSWORD_MISMATCH",
		})
	case err != nil:
		h.logger.Error("Override request failed",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process override",
			"code":  "INTERNAL_ERROR",
		})
	default:
		c.Status(http.StatusNoContent)
	}
}
