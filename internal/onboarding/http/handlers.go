package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/onboarding/domain"
)

// LifecycleService is what the handlers need from the session lifecycle.
type LifecycleService interface {
	StartAnonymousSession(ctx context.Context) (*domain.StartResult, error)
	ConvertToRegisteredIdentity(ctx context.Context, anonymousUserID, newUserID, projectID string) error
	CurrentProject(ctx context.Context, userID string) (string, error)
}

type Handler struct {
	lifecycle LifecycleService
}

func NewHandler(lifecycle LifecycleService) *Handler {
	return &Handler{lifecycle: lifecycle}
}

// RegisterPublic mounts the unauthenticated onboarding surface.
func (h *Handler) RegisterPublic(r gin.IRouter) {
	r.POST("/onboarding-start", h.StartOnboarding)
	r.POST("/convert-user", h.ConvertUser)
}

// RegisterAuthenticated mounts the bearer-authenticated onboarding surface.
func (h *Handler) RegisterAuthenticated(r gin.IRouter) {
	r.GET("/onboarding-session", h.CurrentSession)
}

// StartOnboarding provisions a fresh anonymous identity, project and session.
func (h *Handler) StartOnboarding(c *gin.Context) {
	result, err := h.lifecycle.StartAnonymousSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    result.User.ID,
			"email": result.User.Email,
		},
		"project": gin.H{
			"id":    result.Project.ID,
			"stage": result.Project.Stage,
		},
		"session": gin.H{
			"access_token":  result.Session.AccessToken,
			"refresh_token": result.Session.RefreshToken,
			"expires_at":    result.Session.ExpiresAt,
		},
	})
}

type convertUserReq struct {
	AnonymousUserID string `json:"anonymous_user_id"`
	NewUserID       string `json:"new_user_id"`
	ProjectID       string `json:"project_id"`
}

// ConvertUser transfers an anonymous identity's project and messages to a
// registered identity.
func (h *Handler) ConvertUser(c *gin.Context) {
	var req convertUserReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.AnonymousUserID == "" || req.NewUserID == "" || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anonymous_user_id, new_user_id and project_id are required"})
		return
	}

	err := h.lifecycle.ConvertToRegisteredIdentity(c.Request.Context(), req.AnonymousUserID, req.NewUserID, req.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrOwnershipTransfer) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transfer project"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User converted successfully"})
}

// CurrentSession returns the caller's onboarding resume marker.
func (h *Handler) CurrentSession(c *gin.Context) {
	userID := identity.UserID(c)

	projectID, err := h.lifecycle.CurrentProject(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project_id": projectID})
}
