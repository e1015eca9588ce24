package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	chatdomain "github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
	"github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

const metadataSystemPrompt = `You are an AI that generates project metadata for branding projects. Based on the conversation, create:
1. A compelling project name (2-5 words, professional)
2. A brief description (1-2 sentences)
3. Industry category (e.g., "Food & Beverage", "Technology", "Healthcare", "Retail", etc.)
4. Key conversation topics (array of 3-5 topics)
5. Key brand insights (array of 2-3 insights)

Respond with ONLY a JSON object in this exact format:
{
  "name": "Project Name",
  "description": "Brief description of the brand",
  "industry_category": "Industry Category",
  "conversation_topics": ["topic1", "topic2", "topic3"],
  "key_insights": ["insight1", "insight2"]
}`

// ProjectStore is the subset of the project repository the metadata step needs.
type ProjectStore interface {
	GetOwned(ctx context.Context, projectID, ownerID string) (*domain.Project, error)
	ApplyMetadata(ctx context.Context, projectID string, m domain.Metadata) (*domain.Project, error)
}

// MessageStore supplies the transcript the naming prompt is built from.
type MessageStore interface {
	ListByProject(ctx context.Context, projectID string) ([]chatdomain.Message, error)
}

// Completer is the non-streamed face of the AI gateway.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// MetadataService assigns AI-generated name, description and insight metadata
// to a project and closes out its onboarding stage.
type MetadataService struct {
	projects ProjectStore
	messages MessageStore
	gateway  Completer
}

func NewMetadataService(projects ProjectStore, messages MessageStore, gateway Completer) *MetadataService {
	return &MetadataService{projects: projects, messages: messages, gateway: gateway}
}

// GenerateProjectMetadata names the project from its full transcript and sets
// stage=completed. A gateway failure or an undecodable reply falls back to a
// fixed metadata object; naming never blocks the caller beyond a missing
// transcript.
func (s *MetadataService) GenerateProjectMetadata(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	if _, err := s.projects.GetOwned(ctx, projectID, ownerID); err != nil {
		return nil, err
	}

	history, err := s.messages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if len(history) == 0 {
		return nil, domain.ErrInsufficientHistory
	}

	metadata := domain.FallbackMetadata()

	content, err := s.gateway.Complete(ctx, []ai.Message{
		{Role: chatdomain.RoleSystem, Content: metadataSystemPrompt},
		{Role: chatdomain.RoleUser, Content: "Analyze this branding conversation and generate project metadata:\n\n" + renderTranscript(history)},
	})
	if err != nil {
		log.Printf("name-project: gateway call failed, using fallback metadata: %v", err)
	} else if decodeErr := json.Unmarshal([]byte(content), &metadata); decodeErr != nil {
		metadata = domain.FallbackMetadata()
		log.Printf("name-project: undecodable gateway reply, using fallback metadata: %v", decodeErr)
	}

	updated, err := s.projects.ApplyMetadata(ctx, projectID, metadata)
	if err != nil {
		return nil, fmt.Errorf("apply metadata: %w", err)
	}
	return updated, nil
}

func renderTranscript(history []chatdomain.Message) string {
	parts := make([]string, 0, len(history))
	for _, m := range history {
		parts = append(parts, m.Role+": "+m.Content)
	}
	return strings.Join(parts, "\n\n")
}
