package identity

import "context"

// User kinds recorded in profile metadata. Registered profiles are created by
// the normal signup flow outside this service; the lifecycle here only moves
// identities from anonymous to converted.
const (
	KindAnonymous = "anonymous"
	KindConverted = "converted"
)

// Credential is a throwaway or user-supplied email/password pair.
type Credential struct {
	Email    string
	Password string
}

// Metadata is the arbitrary string-keyed bag attached to an identity
// (is_anonymous, display_name, username).
type Metadata map[string]interface{}

// User is an identity as reported by the identity store.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Session is a live token pair for an authenticated identity.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Store is the identity collaborator boundary. The core consumes it and never
// implements it; tests substitute fakes.
type Store interface {
	// CreateUser provisions a new identity with the given credential and
	// metadata bag.
	CreateUser(ctx context.Context, cred Credential, meta Metadata) (*User, error)
	// SignIn exchanges a credential for a live session token pair.
	SignIn(ctx context.Context, cred Credential) (*Session, error)
	// Verify resolves a session access token to the identity id it belongs to.
	Verify(ctx context.Context, token string) (string, error)
}
