package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	"github.com/brandforge-ai/brandforge-backend/internal/chat/service"
	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

type Handler struct {
	chatService *service.ChatService
}

func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/chat", h.SendTurn)
	r.GET("/projects/:id/messages", h.ListMessages)
}

type sendTurnReq struct {
	ProjectID string `json:"project_id"`
	Message   string `json:"message"`
}

// SendTurn streams one assistant reply back to the caller as text/event-stream,
// mirroring the gateway's frames. Errors that occur before the first frame is
// written are reported as JSON; once streaming has begun the connection is
// simply dropped.
func (h *Handler) SendTurn(c *gin.Context) {
	userID := identity.UserID(c)

	var req sendTurnReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and message are required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	started := false
	emit := func(frame ai.Frame) error {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprintf(c.Writer, "%s\n\n", frame.Raw); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	_, err := h.chatService.SendTurn(c.Request.Context(), userID, req.ProjectID, req.Message, emit)
	if err == nil {
		return
	}
	if started {
		// Headers are out; nothing useful left to send.
		log.Printf("chat: stream aborted for project %s: %v", req.ProjectID, err)
		return
	}

	switch {
	case errors.Is(err, projdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found or unauthorized"})
	case errors.Is(err, ai.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
	case errors.Is(err, ai.ErrQuotaExhausted):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "AI credits exhausted. Please add credits."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListMessages returns the ordered transcript for an owned project.
func (h *Handler) ListMessages(c *gin.Context) {
	userID := identity.UserID(c)
	projectID := strings.TrimSpace(c.Param("id"))
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing project id"})
		return
	}

	items, err := h.chatService.History(c.Request.Context(), userID, projectID)
	if err != nil {
		if errors.Is(err, projdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found or unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": items})
}
