package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	"github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

type fakeProjects struct {
	project    *projdomain.Project
	increments int
}

func (f *fakeProjects) GetOwned(_ context.Context, projectID, ownerID string) (*projdomain.Project, error) {
	if f.project == nil || f.project.ID != projectID || f.project.OwnerID != ownerID {
		return nil, projdomain.ErrNotFound
	}
	return f.project, nil
}

func (f *fakeProjects) IncrementMessageCount(_ context.Context, _ string) error {
	f.increments++
	return nil
}

type fakeMessages struct {
	stored []domain.Message
}

func (f *fakeMessages) Insert(_ context.Context, projectID, authorID, role, content string) (*domain.Message, error) {
	m := domain.Message{
		ID:        strconv.Itoa(len(f.stored) + 1),
		ProjectID: projectID,
		AuthorID:  authorID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.stored = append(f.stored, m)
	return &m, nil
}

func (f *fakeMessages) ListByProject(_ context.Context, projectID string) ([]domain.Message, error) {
	out := make([]domain.Message, 0, len(f.stored))
	for _, m := range f.stored {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) countByRole(role string) int {
	n := 0
	for _, m := range f.stored {
		if m.Role == role {
			n++
		}
	}
	return n
}

func chatProject() *projdomain.Project {
	return &projdomain.Project{
		ID:      "p1",
		OwnerID: "u1",
		Stage:   projdomain.StageChatStarted,
	}
}

func gatewayServing(t *testing.T, body string, status int) *ai.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return ai.NewClient(server.URL, "k", "m")
}

func TestSendTurn_PersistsOneUserAndOneAssistantMessage(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	gateway := gatewayServing(t,
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n"+
			"data: [DONE]\n\n",
		http.StatusOK,
	)

	svc := NewChatService(projects, messages, gateway)

	var frames []ai.Frame
	assistant, err := svc.SendTurn(context.Background(), "u1", "p1", "hello", func(f ai.Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", assistant.Content)
	assert.Equal(t, domain.RoleAssistant, assistant.Role)
	assert.Equal(t, "u1", assistant.AuthorID, "assistant turns are stamped with the acting user's id")

	assert.Equal(t, 1, messages.countByRole(domain.RoleUser))
	assert.Equal(t, 1, messages.countByRole(domain.RoleAssistant))
	assert.Equal(t, 1, projects.increments, "counter moves once per turn, for the user message only")

	require.Len(t, frames, 3)
	assert.True(t, frames[2].Done)
}

func TestSendTurn_UnownedProjectPersistsNothing(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	gateway := gatewayServing(t, "data: [DONE]\n\n", http.StatusOK)

	svc := NewChatService(projects, messages, gateway)

	_, err := svc.SendTurn(context.Background(), "intruder", "p1", "hello", nil)
	assert.ErrorIs(t, err, projdomain.ErrNotFound)
	assert.Empty(t, messages.stored)
	assert.Zero(t, projects.increments)
}

func TestSendTurn_RateLimitedKeepsUserMessage(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	gateway := gatewayServing(t, "", http.StatusTooManyRequests)

	svc := NewChatService(projects, messages, gateway)

	_, err := svc.SendTurn(context.Background(), "u1", "p1", "hello", nil)
	assert.ErrorIs(t, err, ai.ErrRateLimited)

	assert.Equal(t, 1, messages.countByRole(domain.RoleUser), "user turn is durable before the gateway call")
	assert.Zero(t, messages.countByRole(domain.RoleAssistant))
}

func TestSendTurn_QuotaExhausted(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	gateway := gatewayServing(t, "", http.StatusPaymentRequired)

	svc := NewChatService(projects, messages, gateway)

	_, err := svc.SendTurn(context.Background(), "u1", "p1", "hello", nil)
	assert.ErrorIs(t, err, ai.ErrQuotaExhausted)
	assert.Zero(t, messages.countByRole(domain.RoleAssistant))
}

func TestSendTurn_InterruptedStreamDiscardsBuffer(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	// Stream ends without the [DONE] sentinel.
	gateway := gatewayServing(t,
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n",
		http.StatusOK,
	)

	svc := NewChatService(projects, messages, gateway)

	_, err := svc.SendTurn(context.Background(), "u1", "p1", "hello", nil)
	assert.ErrorIs(t, err, ai.ErrStreamInterrupted)
	assert.Zero(t, messages.countByRole(domain.RoleAssistant))
}

func TestSendTurn_MalformedFrameIsSkipped(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	gateway := gatewayServing(t,
		"data: {garbled\n\n"+
			": keep-alive\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"clean\"}}]}\n\n"+
			"data: [DONE]\n\n",
		http.StatusOK,
	)

	svc := NewChatService(projects, messages, gateway)

	var raws []string
	assistant, err := svc.SendTurn(context.Background(), "u1", "p1", "hello", func(f ai.Frame) error {
		raws = append(raws, f.Raw)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "clean", assistant.Content)
	assert.Contains(t, raws, ": keep-alive", "gateway keep-alives are relayed to the caller")
}

func TestSendTurn_SystemPromptCarriesStageAndIndustry(t *testing.T) {
	industry := "Food & Beverage"
	project := chatProject()
	project.Stage = projdomain.StageLoginPrompted
	project.IndustryCategory = &industry

	history := []domain.Message{{ProjectID: "p1", Role: domain.RoleUser, Content: "hello"}}
	prompt := composePrompt(project, history)

	require.Len(t, prompt, 2)
	assert.Equal(t, domain.RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "Current project stage: login_prompted")
	assert.Contains(t, prompt[0].Content, "Industry: Food & Beverage")
	assert.Equal(t, "hello", prompt[1].Content)
}

func TestHistory_RequiresOwnership(t *testing.T) {
	projects := &fakeProjects{project: chatProject()}
	messages := &fakeMessages{}
	svc := NewChatService(projects, messages, gatewayServing(t, "", http.StatusOK))

	_, err := svc.History(context.Background(), "intruder", "p1")
	assert.ErrorIs(t, err, projdomain.ErrNotFound)
}
