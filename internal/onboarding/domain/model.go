package domain

import (
	"errors"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

// Provisioning and conversion failure kinds. Each maps to one fallible step of
// the session lifecycle; any of them means the whole operation failed and no
// session was established.
var (
	ErrIdentityProvision = errors.New("failed to create anonymous user")
	ErrProfileProvision  = errors.New("failed to create profile")
	ErrProjectProvision  = errors.New("failed to create project")
	ErrSessionEstablish  = errors.New("failed to create session")
	ErrOwnershipTransfer = errors.New("failed to transfer project")
)

// StartResult is everything a fresh anonymous session consists of.
type StartResult struct {
	User    *identity.User      `json:"user"`
	Project *projdomain.Project `json:"project"`
	Session *identity.Session   `json:"session"`
}

// Repair records the non-fatal conversion steps that failed and still need to
// be replayed: message reassignment and/or the converted-profile flag. The
// ownership transfer itself is never repaired here; if it failed, the whole
// conversion failed.
type Repair struct {
	ProjectID        string `json:"project_id"`
	AnonymousUserID  string `json:"anonymous_user_id"`
	NewUserID        string `json:"new_user_id"`
	ReassignMessages bool   `json:"reassign_messages"`
	MarkProfile      bool   `json:"mark_profile"`
	Attempts         int    `json:"attempts"`
}
