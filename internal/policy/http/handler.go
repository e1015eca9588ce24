package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/policy"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

// PromptPolicy is what the handler needs from the policy service.
type PromptPolicy interface {
	ShouldPromptForLogin(ctx context.Context, userID, projectID string) (*policy.Verdict, error)
}

type Handler struct {
	policy PromptPolicy
}

func NewHandler(p PromptPolicy) *Handler {
	return &Handler{policy: p}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/check-login-prompt", h.CheckLoginPrompt)
}

type checkLoginPromptReq struct {
	ProjectID string `json:"project_id"`
}

func (h *Handler) CheckLoginPrompt(c *gin.Context) {
	userID := identity.UserID(c)

	var req checkLoginPromptReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	verdict, err := h.policy.ShouldPromptForLogin(c.Request.Context(), userID, req.ProjectID)
	if err != nil {
		if errors.Is(err, projdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, verdict)
}
