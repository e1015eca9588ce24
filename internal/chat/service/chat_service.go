package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	"github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

const personaPromptFormat = `You are BrandForge AI, an expert branding assistant. Help users create compelling brand identities by:
1. Understanding their business idea, target audience, and unique value proposition
2. Asking thoughtful questions to uncover their brand essence
3. Providing strategic guidance on naming, positioning, and visual identity
4. Being conversational, encouraging, and insightful
5. Keeping responses concise but impactful

Current project stage: %s
Industry: %s`

// ProjectStore is the subset of the project repository the exchange needs.
type ProjectStore interface {
	GetOwned(ctx context.Context, projectID, ownerID string) (*projdomain.Project, error)
	IncrementMessageCount(ctx context.Context, projectID string) error
}

// MessageStore persists and reads the conversation log.
type MessageStore interface {
	Insert(ctx context.Context, projectID, authorID, role, content string) (*domain.Message, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Message, error)
}

// Streamer is the streaming face of the AI gateway.
type Streamer interface {
	StreamCompletion(ctx context.Context, messages []ai.Message) (*ai.Stream, error)
}

// FrameWriter receives each decoded gateway frame as it arrives, in order.
// Returning an error abandons the stream.
type FrameWriter func(frame ai.Frame) error

// ChatService owns one turn of the streamed chat exchange: persist the user
// message, stream the assistant reply, persist the assembled reply once.
type ChatService struct {
	projects ProjectStore
	messages MessageStore
	gateway  Streamer
}

func NewChatService(projects ProjectStore, messages MessageStore, gateway Streamer) *ChatService {
	return &ChatService{projects: projects, messages: messages, gateway: gateway}
}

// SendTurn processes one user turn against an owned project.
//
// The user message is durable before the gateway is contacted, so an
// interrupted stream never loses the user's input. Deltas are coalesced into
// a single assistant message which is persisted exactly once, after the
// [DONE] sentinel. An interrupted or abandoned stream persists nothing and
// the partial buffer is discarded. The message counter moves once per turn,
// for the user message only.
func (s *ChatService) SendTurn(ctx context.Context, userID, projectID, message string, emit FrameWriter) (*domain.Message, error) {
	project, err := s.projects.GetOwned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.Insert(ctx, projectID, userID, domain.RoleUser, message); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	if err := s.projects.IncrementMessageCount(ctx, projectID); err != nil {
		return nil, fmt.Errorf("bump message count: %w", err)
	}

	history, err := s.messages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	stream, err := s.gateway.StreamCompletion(ctx, composePrompt(project, history))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var buf strings.Builder
	for {
		frame, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if emit != nil {
			if err := emit(frame); err != nil {
				return nil, fmt.Errorf("%w: %w", ai.ErrStreamInterrupted, err)
			}
		}
		if frame.Done {
			break
		}
		buf.WriteString(frame.Delta)
	}

	assistant, err := s.messages.Insert(ctx, projectID, userID, domain.RoleAssistant, buf.String())
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return assistant, nil
}

// History returns the ordered transcript of an owned project.
func (s *ChatService) History(ctx context.Context, userID, projectID string) ([]domain.Message, error) {
	if _, err := s.projects.GetOwned(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListByProject(ctx, projectID)
}

func composePrompt(project *projdomain.Project, history []domain.Message) []ai.Message {
	industry := "Not yet determined"
	if project.IndustryCategory != nil && *project.IndustryCategory != "" {
		industry = *project.IndustryCategory
	}

	out := make([]ai.Message, 0, len(history)+1)
	out = append(out, ai.Message{
		Role:    domain.RoleSystem,
		Content: fmt.Sprintf(personaPromptFormat, project.Stage, industry),
	})
	for _, m := range history {
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
