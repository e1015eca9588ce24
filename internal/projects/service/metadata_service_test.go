package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	chatdomain "github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
	"github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

type stubProjects struct {
	project *domain.Project
	applied *domain.Metadata
}

func (s *stubProjects) GetOwned(_ context.Context, projectID, ownerID string) (*domain.Project, error) {
	if s.project == nil || s.project.ID != projectID || s.project.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return s.project, nil
}

func (s *stubProjects) ApplyMetadata(_ context.Context, _ string, m domain.Metadata) (*domain.Project, error) {
	s.applied = &m
	updated := *s.project
	updated.Name = &m.Name
	updated.Description = &m.Description
	updated.IndustryCategory = &m.IndustryCategory
	updated.ConversationTopics = m.ConversationTopics
	updated.KeyInsights = m.KeyInsights
	updated.Stage = domain.StageCompleted
	return &updated, nil
}

type stubMessages struct {
	history []chatdomain.Message
}

func (s *stubMessages) ListByProject(_ context.Context, _ string) ([]chatdomain.Message, error) {
	return s.history, nil
}

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(_ context.Context, _ []ai.Message) (string, error) {
	return s.reply, s.err
}

func namedProject() *domain.Project {
	return &domain.Project{ID: "p1", OwnerID: "u1", Stage: domain.StageLoginPrompted}
}

func someHistory() []chatdomain.Message {
	return []chatdomain.Message{
		{Role: chatdomain.RoleUser, Content: "I want to start a coffee roastery"},
		{Role: chatdomain.RoleAssistant, Content: "Tell me about your audience"},
	}
}

func TestGenerateProjectMetadata_ParsesGatewayReply(t *testing.T) {
	projects := &stubProjects{project: namedProject()}
	gateway := &stubCompleter{reply: `{
		"name": "Ember Roast Co",
		"description": "A small-batch coffee roastery brand.",
		"industry_category": "Food & Beverage",
		"conversation_topics": ["coffee", "roasting", "audience"],
		"key_insights": ["artisanal positioning", "local-first"]
	}`}

	svc := NewMetadataService(projects, &stubMessages{history: someHistory()}, gateway)

	updated, err := svc.GenerateProjectMetadata(context.Background(), "u1", "p1")
	require.NoError(t, err)

	require.NotNil(t, updated.Name)
	assert.Equal(t, "Ember Roast Co", *updated.Name)
	assert.Equal(t, domain.StageCompleted, updated.Stage)
	assert.Equal(t, []string{"coffee", "roasting", "audience"}, updated.ConversationTopics)
}

func TestGenerateProjectMetadata_NoHistory(t *testing.T) {
	projects := &stubProjects{project: namedProject()}
	svc := NewMetadataService(projects, &stubMessages{}, &stubCompleter{})

	_, err := svc.GenerateProjectMetadata(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
	assert.Nil(t, projects.applied, "nothing is written without a transcript")
}

func TestGenerateProjectMetadata_GatewayDownUsesFallback(t *testing.T) {
	projects := &stubProjects{project: namedProject()}
	gateway := &stubCompleter{err: errors.New("gateway unreachable")}

	svc := NewMetadataService(projects, &stubMessages{history: someHistory()}, gateway)

	updated, err := svc.GenerateProjectMetadata(context.Background(), "u1", "p1")
	require.NoError(t, err, "the caller still gets a named, completed project")

	require.NotNil(t, projects.applied)
	assert.Equal(t, domain.FallbackMetadata(), *projects.applied)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Brand Identity Project", *updated.Name)
	assert.Equal(t, domain.StageCompleted, updated.Stage)
}

func TestGenerateProjectMetadata_UnparseableReplyUsesFallback(t *testing.T) {
	projects := &stubProjects{project: namedProject()}
	gateway := &stubCompleter{reply: "Here is your project metadata:\n\n1. Name: ..."}

	svc := NewMetadataService(projects, &stubMessages{history: someHistory()}, gateway)

	_, err := svc.GenerateProjectMetadata(context.Background(), "u1", "p1")
	require.NoError(t, err)

	require.NotNil(t, projects.applied)
	assert.Equal(t, domain.FallbackMetadata(), *projects.applied)
}

func TestGenerateProjectMetadata_UnownedProject(t *testing.T) {
	projects := &stubProjects{project: namedProject()}
	svc := NewMetadataService(projects, &stubMessages{history: someHistory()}, &stubCompleter{})

	_, err := svc.GenerateProjectMetadata(context.Background(), "intruder", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
