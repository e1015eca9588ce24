package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

const projectColumns = `id::text, user_id, name, description, industry_category, stage,
message_count, is_special_onboarding, conversation_topics, key_insights, created_at, updated_at`

// ProjectRepository provides persistence operations for projects.
type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IndustryCategory, &p.Stage,
		&p.MessageCount, &p.IsSpecialOnboarding, &p.ConversationTopics, &p.KeyInsights,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateOnboarding inserts the single fast-path project for a fresh anonymous
// identity: unnamed, chat_started, flagged as special onboarding.
func (r *ProjectRepository) CreateOnboarding(ctx context.Context, ownerID string) (*domain.Project, error) {
	const q = `
insert into projects (user_id, name, description, stage, is_special_onboarding)
values ($1, null, null, $2, true)
returning ` + projectColumns + `;
`
	return scanProject(r.db.QueryRow(ctx, q, ownerID, domain.StageChatStarted))
}

// GetOwned returns the project only when it belongs to ownerID.
func (r *ProjectRepository) GetOwned(ctx context.Context, projectID, ownerID string) (*domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where id = $1::uuid and user_id = $2;
`
	return scanProject(r.db.QueryRow(ctx, q, projectID, ownerID))
}

// TransferOwner reassigns the project from one owner to another. The update is
// conditional on the expected current owner so a stale or repeated conversion
// cannot blindly overwrite ownership. Returns false when no row matched.
func (r *ProjectRepository) TransferOwner(ctx context.Context, projectID, fromOwnerID, toOwnerID string) (bool, error) {
	const q = `
update projects
set user_id = $3, updated_at = now()
where id = $1::uuid and user_id = $2;
`
	ct, err := r.db.Exec(ctx, q, projectID, fromOwnerID, toOwnerID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// IncrementMessageCount bumps the incrementally maintained counter and
// touches updated_at.
func (r *ProjectRepository) IncrementMessageCount(ctx context.Context, projectID string) error {
	const q = `
update projects
set message_count = message_count + 1, updated_at = now()
where id = $1::uuid;
`
	_, err := r.db.Exec(ctx, q, projectID)
	return err
}

// UpdateStage moves the project to the given stage.
func (r *ProjectRepository) UpdateStage(ctx context.Context, projectID, stage string) error {
	const q = `
update projects
set stage = $2, updated_at = now()
where id = $1::uuid;
`
	_, err := r.db.Exec(ctx, q, projectID, stage)
	return err
}

// ApplyMetadata writes the AI-assigned naming payload and marks the project
// completed.
func (r *ProjectRepository) ApplyMetadata(ctx context.Context, projectID string, m domain.Metadata) (*domain.Project, error) {
	const q = `
update projects
set name = $2,
    description = $3,
    industry_category = $4,
    conversation_topics = $5,
    key_insights = $6,
    stage = $7,
    updated_at = now()
where id = $1::uuid
returning ` + projectColumns + `;
`
	return scanProject(r.db.QueryRow(ctx, q,
		projectID, m.Name, m.Description, m.IndustryCategory,
		m.ConversationTopics, m.KeyInsights, domain.StageCompleted,
	))
}
