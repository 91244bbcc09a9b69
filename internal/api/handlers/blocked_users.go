package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// BlockedUsersHandler manages the per-child username block list
type BlockedUsersHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewBlockedUsersHandler creates a new blocked-users handler
func NewBlockedUsersHandler(engine policy.EngineInterface, logger *slog.Logger) *BlockedUsersHandler {
	return &BlockedUsersHandler{
		engine: engine,
		logger: logger,
	}
}

// ListBlockedUsers returns all blocked usernames
// GET /v1/blocked-users
func (h *BlockedUsersHandler) ListBlockedUsers(c *gin.Context) {
	users := h.engine.BlockedUsers()
	if users == nil {
		users = []policy.BlockedUser{}
	}

	c.JSON(http.StatusOK, gin.H{
		"blocked_users": users,
		"count":         len(users),
	})
}

// blockUserRequest is the body for blocking a username
type blockUserRequest struct {
	Username string `json:"username" binding:"required"`
}

// BlockUser adds a username to the block list. Blocking a username that is
// already blocked returns the existing entry.
// POST /v1/blocked-users
func (h *BlockedUsersHandler) BlockUser(c *gin.Context) {
	var req blockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Username is required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	user, err := h.engine.BlockUser(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, policy.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "VALIDATION_FAILED",
			})
			return
		}
		h.logger.Error("Failed to block user",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save block list",
			"code":  "STORAGE_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UnblockUser removes a blocked username by its identifier
// DELETE /v1/blocked-users/:id
func (h *BlockedUsersHandler) UnblockUser(c *gin.Context) {
	id := c.Param("id")

	if err := h.engine.UnblockUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, policy.ErrBlockedUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Blocked user not found",
				"code":  "NOT_FOUND",
			})
			return
		}
		h.logger.Error("Failed to unblock user",
			"component", "api",
			"user_id", id,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save block list",
			"code":  "STORAGE_ERROR",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
