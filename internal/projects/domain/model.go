package domain

import (
	"errors"
	"time"
)

// Stage values for a project's coarse lifecycle phase. A project only moves
// forward along chat_started → login_prompted → completed. StageActive is used
// for projects created by already-registered users and sits outside that chain.
const (
	StageChatStarted   = "chat_started"
	StageLoginPrompted = "login_prompted"
	StageCompleted     = "completed"
	StageActive        = "active"
)

var (
	ErrNotFound            = errors.New("project not found")
	ErrInsufficientHistory = errors.New("no conversation history found")
)

// Project represents one branding conversation/workspace.
// It is storage-agnostic and shared across repository, service and HTTP layers.
type Project struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"user_id"`
	Name                *string   `json:"name"`
	Description         *string   `json:"description"`
	IndustryCategory    *string   `json:"industry_category"`
	Stage               string    `json:"stage"`
	MessageCount        int       `json:"message_count"`
	IsSpecialOnboarding bool      `json:"is_special_onboarding"`
	ConversationTopics  []string  `json:"conversation_topics"`
	KeyInsights         []string  `json:"key_insights"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Metadata is the AI-assigned naming payload applied to a project when its
// onboarding conversation is wrapped up.
type Metadata struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	IndustryCategory   string   `json:"industry_category"`
	ConversationTopics []string `json:"conversation_topics"`
	KeyInsights        []string `json:"key_insights"`
}

// FallbackMetadata is substituted whenever the gateway is unreachable or its
// reply cannot be decoded. Naming must never block the caller.
func FallbackMetadata() Metadata {
	return Metadata{
		Name:               "Brand Identity Project",
		Description:        "A new brand identity project",
		IndustryCategory:   "General",
		ConversationTopics: []string{"branding", "identity"},
		KeyInsights:        []string{"User wants to build a brand"},
	}
}
