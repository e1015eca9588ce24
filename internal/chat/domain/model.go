package domain

import "time"

// Roles a message can carry in a conversation transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one append-only entry in a project's conversation log. Assistant
// turns are stamped with the acting user's id, matching the projects'
// ownership model.
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	AuthorID  string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
