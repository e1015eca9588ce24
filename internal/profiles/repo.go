package profiles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
)

// Repo persists profile rows mirroring identity-store users.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Profile struct {
	ID                  string  `json:"id"`
	Username            string  `json:"username"`
	DisplayName         string  `json:"display_name"`
	UserType            string  `json:"user_type"`
	ConvertedFromUserID *string `json:"converted_from_user_id,omitempty"`
}

// Create inserts a profile row for a freshly provisioned identity.
func (r *Repo) Create(ctx context.Context, id, username, displayName, userType string) error {
	if id == "" {
		return fmt.Errorf("profile id required")
	}

	const q = `
insert into profiles (id, username, display_name, user_type)
values ($1, $2, $3, $4);
`
	_, err := r.db.Exec(ctx, q, id, username, displayName, userType)
	return err
}

// MarkConverted flips an anonymous profile to converted and records the
// registered identity it was folded into. The user_type guard makes the
// transition one-shot.
func (r *Repo) MarkConverted(ctx context.Context, anonymousID, newUserID string) error {
	const q = `
update profiles
set user_type = $3, converted_from_user_id = $2
where id = $1 and user_type = $4;
`
	_, err := r.db.Exec(ctx, q, anonymousID, newUserID, identity.KindConverted, identity.KindAnonymous)
	return err
}

// Get returns a profile by identity id.
func (r *Repo) Get(ctx context.Context, id string) (*Profile, error) {
	const q = `
select id, username, display_name, user_type, converted_from_user_id
from profiles
where id = $1;
`
	var p Profile
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Username, &p.DisplayName, &p.UserType, &p.ConvertedFromUserID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
