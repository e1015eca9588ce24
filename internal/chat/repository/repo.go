package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge-ai/brandforge-backend/internal/chat/domain"
)

const messageColumns = `id::text, project_id::text, user_id, role, content, created_at`

// MessageRepository provides persistence for the append-only message log.
type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends one message to a project's log.
func (r *MessageRepository) Insert(ctx context.Context, projectID, authorID, role, content string) (*domain.Message, error) {
	const q = `
insert into chat_messages (project_id, user_id, role, content)
values ($1::uuid, $2, $3, $4)
returning ` + messageColumns + `;
`
	var m domain.Message
	err := r.db.QueryRow(ctx, q, projectID, authorID, role, content).
		Scan(&m.ID, &m.ProjectID, &m.AuthorID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) collect(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	out := make([]domain.Message, 0, 16)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.AuthorID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListByProject returns the full ordered transcript, oldest first.
func (r *MessageRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Message, error) {
	const q = `
select ` + messageColumns + `
from chat_messages
where project_id = $1::uuid
order by created_at asc;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListRecent returns up to limit messages, newest first.
func (r *MessageRepository) ListRecent(ctx context.Context, projectID string, limit int) ([]domain.Message, error) {
	const q = `
select ` + messageColumns + `
from chat_messages
where project_id = $1::uuid
order by created_at desc
limit $2;
`
	rows, err := r.db.Query(ctx, q, projectID, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ReassignOwner restamps a project's messages from one identity to another
// during conversion. Returns the number of rows moved.
func (r *MessageRepository) ReassignOwner(ctx context.Context, projectID, fromOwnerID, toOwnerID string) (int64, error) {
	const q = `
update chat_messages
set user_id = $3
where project_id = $1::uuid and user_id = $2;
`
	ct, err := r.db.Exec(ctx, q, projectID, fromOwnerID, toOwnerID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
