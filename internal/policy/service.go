package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	chatdomain "github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

const (
	// minMessagesForCheck short-circuits the gateway call until the
	// conversation has any substance at all.
	minMessagesForCheck = 3
	// fallbackPromptThreshold is the deterministic rule used when the AI
	// judgment is unavailable or unreadable.
	fallbackPromptThreshold = 5
	recentWindow            = 10

	gatewayDownConfidence = 70
	badReplyConfidence    = 60
)

const judgeSystemPrompt = `You are an AI assistant that analyzes branding conversations. Determine if we have gathered enough information about the user's brand to ask them to create an account. We need at least:
1. Basic business idea or concept
2. Target audience or market
3. Some sense of brand personality or values

Respond with ONLY a JSON object: {"shouldPrompt": true/false, "reason": "brief explanation", "confidence": 0-100}`

// Verdict is the policy's answer to "interrupt the anonymous flow now?".
type Verdict struct {
	ShouldPrompt bool   `json:"shouldPrompt"`
	Reason       string `json:"reason"`
	Confidence   int    `json:"confidence"`
}

// ProjectStore is the subset of the project repository the policy needs.
type ProjectStore interface {
	GetOwned(ctx context.Context, projectID, ownerID string) (*projdomain.Project, error)
	UpdateStage(ctx context.Context, projectID, stage string) error
}

// MessageStore supplies the recent window the judgment is made over.
type MessageStore interface {
	ListRecent(ctx context.Context, projectID string, limit int) ([]chatdomain.Message, error)
}

// Completer is the non-streamed face of the AI gateway.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// Service decides whether an anonymous conversation has accumulated enough
// brand context to interrupt it with an account-creation prompt.
type Service struct {
	projects ProjectStore
	messages MessageStore
	gateway  Completer
}

func NewService(projects ProjectStore, messages MessageStore, gateway Completer) *Service {
	return &Service{projects: projects, messages: messages, gateway: gateway}
}

// ShouldPromptForLogin evaluates the prompt policy for one project.
//
// The stage guard makes the "yes" transition one-shot: once the project has
// left chat_started every later call short-circuits to "no" without touching
// the gateway. A "no" verdict never mutates anything.
func (s *Service) ShouldPromptForLogin(ctx context.Context, userID, projectID string) (*Verdict, error) {
	project, err := s.projects.GetOwned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if project.Stage != projdomain.StageChatStarted {
		return &Verdict{ShouldPrompt: false, Reason: "Already prompted or completed"}, nil
	}

	recent, err := s.messages.ListRecent(ctx, projectID, recentWindow)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	if len(recent) < minMessagesForCheck {
		return &Verdict{ShouldPrompt: false, Reason: "Not enough conversation yet"}, nil
	}

	verdict := s.judge(ctx, recent)

	if verdict.ShouldPrompt {
		if err := s.projects.UpdateStage(ctx, projectID, projdomain.StageLoginPrompted); err != nil {
			return nil, fmt.Errorf("update stage: %w", err)
		}
	}

	return verdict, nil
}

func (s *Service) judge(ctx context.Context, recent []chatdomain.Message) *Verdict {
	var transcript strings.Builder
	for i, m := range recent {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		transcript.WriteString(m.Role + ": " + m.Content)
	}

	content, err := s.gateway.Complete(ctx, []ai.Message{
		{Role: chatdomain.RoleSystem, Content: judgeSystemPrompt},
		{Role: chatdomain.RoleUser, Content: fmt.Sprintf(
			"Conversation history (most recent first):\n%s\n\nShould we prompt for login/signup now?",
			transcript.String(),
		)},
	})
	if err != nil {
		log.Printf("check-login-prompt: gateway call failed, using count rule: %v", err)
		return &Verdict{
			ShouldPrompt: len(recent) >= fallbackPromptThreshold,
			Reason:       "Fallback to message count rule",
			Confidence:   gatewayDownConfidence,
		}
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		log.Printf("check-login-prompt: undecodable gateway reply, using count rule: %v", err)
		return &Verdict{
			ShouldPrompt: len(recent) >= fallbackPromptThreshold,
			Reason:       "AI response parsing failed, using fallback",
			Confidence:   badReplyConfidence,
		}
	}

	return &verdict
}
