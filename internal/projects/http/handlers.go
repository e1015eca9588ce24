package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

// MetadataGenerator is what the handler needs from the metadata service.
type MetadataGenerator interface {
	GenerateProjectMetadata(ctx context.Context, ownerID, projectID string) (*domain.Project, error)
}

type Handler struct {
	metadata MetadataGenerator
}

func NewHandler(metadata MetadataGenerator) *Handler {
	return &Handler{metadata: metadata}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/name-project", h.NameProject)
}

type nameProjectReq struct {
	ProjectID string `json:"project_id"`
}

// NameProject assigns AI-generated metadata to a project the caller owns.
func (h *Handler) NameProject(c *gin.Context) {
	userID := identity.UserID(c)

	var req nameProjectReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	project, err := h.metadata.GenerateProjectMetadata(c.Request.Context(), userID, req.ProjectID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found or unauthorized"})
		case errors.Is(err, domain.ErrInsufficientHistory):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No conversation history found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}
