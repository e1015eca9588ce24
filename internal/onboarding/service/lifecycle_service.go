package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/onboarding/domain"
	projdomain "github.com/brandforge-ai/brandforge-backend/internal/projects/domain"
)

const anonymousDisplayName = "Anonymous User"

// ProfileStore persists profile rows mirroring identity-store users.
type ProfileStore interface {
	Create(ctx context.Context, id, username, displayName, userType string) error
	MarkConverted(ctx context.Context, anonymousID, newUserID string) error
}

// ProjectStore is the subset of the project repository the lifecycle needs.
type ProjectStore interface {
	CreateOnboarding(ctx context.Context, ownerID string) (*projdomain.Project, error)
	TransferOwner(ctx context.Context, projectID, fromOwnerID, toOwnerID string) (bool, error)
}

// MessageStore restamps conversation rows during conversion.
type MessageStore interface {
	ReassignOwner(ctx context.Context, projectID, fromOwnerID, toOwnerID string) (int64, error)
}

// Namer is the best-effort project naming step run at the end of conversion.
type Namer interface {
	GenerateProjectMetadata(ctx context.Context, ownerID, projectID string) (*projdomain.Project, error)
}

// SessionStore keeps the resume marker and the conversion repair queue.
type SessionStore interface {
	SetCurrentProject(ctx context.Context, userID, projectID string) error
	CurrentProject(ctx context.Context, userID string) (string, error)
	ClearCurrentProject(ctx context.Context, userID string) error
	EnqueueRepair(ctx context.Context, repair domain.Repair) error
}

// LifecycleService owns the anonymous→registered transition state machine.
type LifecycleService struct {
	ids      identity.Store
	profiles ProfileStore
	projects ProjectStore
	messages MessageStore
	namer    Namer
	sessions SessionStore
}

func NewLifecycleService(ids identity.Store, profiles ProfileStore, projects ProjectStore, messages MessageStore, namer Namer, sessions SessionStore) *LifecycleService {
	return &LifecycleService{
		ids:      ids,
		profiles: profiles,
		projects: projects,
		messages: messages,
		namer:    namer,
		sessions: sessions,
	}
}

// StartAnonymousSession provisions a throwaway identity, its profile, exactly
// one onboarding project, and a live session, in that order. Any failure fails
// the whole operation; upstream partial writes are not rolled back. Calling it
// twice creates two independent sessions.
func (s *LifecycleService) StartAnonymousSession(ctx context.Context) (*domain.StartResult, error) {
	shortID := strings.SplitN(uuid.NewString(), "-", 2)[0]
	username := "anon_" + shortID
	cred := identity.Credential{
		Email:    username + "@brandforge.temp",
		Password: uuid.NewString(),
	}

	user, err := s.ids.CreateUser(ctx, cred, identity.Metadata{
		"username":     username,
		"display_name": anonymousDisplayName,
		"is_anonymous": true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityProvision, err)
	}
	log.Printf("onboarding: anonymous user created: %s", user.ID)

	if err := s.profiles.Create(ctx, user.ID, username, anonymousDisplayName, identity.KindAnonymous); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProfileProvision, err)
	}

	project, err := s.projects.CreateOnboarding(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProjectProvision, err)
	}

	session, err := s.ids.SignIn(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionEstablish, err)
	}

	if err := s.sessions.SetCurrentProject(ctx, user.ID, project.ID); err != nil {
		log.Printf("onboarding: session marker write failed for %s: %v", user.ID, err)
	}

	return &domain.StartResult{User: user, Project: project, Session: session}, nil
}

// ConvertToRegisteredIdentity fuses an anonymous identity's data into a
// registered one. The ownership transfer is the only hard-fail step; message
// reassignment and the converted-profile flag degrade to a queued repair, and
// naming is purely cosmetic.
func (s *LifecycleService) ConvertToRegisteredIdentity(ctx context.Context, anonymousUserID, newUserID, projectID string) error {
	moved, err := s.projects.TransferOwner(ctx, projectID, anonymousUserID, newUserID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrOwnershipTransfer, err)
	}
	if !moved {
		return domain.ErrOwnershipTransfer
	}

	repair := domain.Repair{
		ProjectID:       projectID,
		AnonymousUserID: anonymousUserID,
		NewUserID:       newUserID,
	}

	if _, err := s.messages.ReassignOwner(ctx, projectID, anonymousUserID, newUserID); err != nil {
		log.Printf("convert: message reassignment failed for project %s: %v", projectID, err)
		repair.ReassignMessages = true
	}

	if err := s.profiles.MarkConverted(ctx, anonymousUserID, newUserID); err != nil {
		log.Printf("convert: profile flag update failed for %s: %v", anonymousUserID, err)
		repair.MarkProfile = true
	}

	if repair.ReassignMessages || repair.MarkProfile {
		if err := s.sessions.EnqueueRepair(ctx, repair); err != nil {
			log.Printf("convert: repair enqueue failed for project %s: %v", projectID, err)
		}
	}

	if _, err := s.namer.GenerateProjectMetadata(ctx, newUserID, projectID); err != nil {
		log.Printf("convert: project naming failed for %s: %v", projectID, err)
	}

	if err := s.sessions.ClearCurrentProject(ctx, anonymousUserID); err != nil {
		log.Printf("convert: session marker clear failed for %s: %v", anonymousUserID, err)
	}

	return nil
}

// CurrentProject returns the identity's onboarding resume marker, "" if none.
func (s *LifecycleService) CurrentProject(ctx context.Context, userID string) (string, error) {
	return s.sessions.CurrentProject(ctx, userID)
}
