package handlers

import (
	"log/slog"
	"net/http"

	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// VerdictHandler serves the current policy verdict and content screening
type VerdictHandler struct {
	engine policy.EngineInterface
	logger *slog.Logger
}

// NewVerdictHandler creates a new verdict handler
func NewVerdictHandler(engine policy.EngineInterface, logger *slog.Logger) *VerdictHandler {
	return &VerdictHandler{
		engine: engine,
		logger: logger,
	}
}

// GetVerdict returns the current verdict and any approaching-limit warning
// GET /v1/policy/verdict
func (h *VerdictHandler) GetVerdict(c *gin.Context) {
	ctx := c.Request.Context()

	response := gin.H{
		"verdict":         h.engine.Verdict(ctx),
		"override_active": h.engine.OverrideActive(),
	}
	if warning := h.engine.CurrentWarning(ctx); warning != nil {
		response["warning"] = warning
	}

	c.JSON(http.StatusOK, response)
}

// contentCheckRequest is the body for content screening
type contentCheckRequest struct {
	Text string `json:"text"`
}

// CheckContent screens text against the configured keyword filter
// POST /v1/policy/content-check
func (h *VerdictHandler) CheckContent(c *gin.Context) {
	var req contentCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	c.JSON(http.StatusOK, h.engine.CheckContent(req.Text))
}

// IsUserBlocked reports block-list membership for a username
// GET /v1/policy/blocked/:username
func (h *VerdictHandler) IsUserBlocked(c *gin.Context) {
	username := c.Param("username")

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"blocked":  h.engine.IsUserBlocked(username),
	})
}
