package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brandforge-ai/brandforge-backend/internal/onboarding/domain"
)

const (
	sessionKeyPrefix = "onboard:session:" // current project marker: onboard:session:{user_id}
	repairQueueKey   = "onboard:repairs"  // pending conversion repairs (list)
	sessionTTL       = 7 * 24 * time.Hour // markers outlive any realistic onboarding pause
)

// SessionRepository handles Redis operations for onboarding session state:
// the per-identity current-project marker and the conversion repair queue.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// SetCurrentProject records which project an identity's onboarding chat is
// bound to, so a reloaded client can resume it.
func (r *SessionRepository) SetCurrentProject(ctx context.Context, userID, projectID string) error {
	if err := r.client.Set(ctx, r.sessionKey(userID), projectID, sessionTTL).Err(); err != nil {
		return fmt.Errorf("set session marker: %w", err)
	}
	return nil
}

// CurrentProject returns the marker for an identity, or "" when none exists.
func (r *SessionRepository) CurrentProject(ctx context.Context, userID string) (string, error) {
	v, err := r.client.Get(ctx, r.sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session marker: %w", err)
	}
	return v, nil
}

// ClearCurrentProject drops the marker after conversion.
func (r *SessionRepository) ClearCurrentProject(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session marker: %w", err)
	}
	return nil
}

// EnqueueRepair appends a conversion repair record to the queue.
func (r *SessionRepository) EnqueueRepair(ctx context.Context, repair domain.Repair) error {
	data, err := json.Marshal(repair)
	if err != nil {
		return fmt.Errorf("marshal repair: %w", err)
	}
	if err := r.client.RPush(ctx, repairQueueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue repair: %w", err)
	}
	return nil
}

// DequeueRepair pops the oldest pending repair, or nil when the queue is empty.
func (r *SessionRepository) DequeueRepair(ctx context.Context) (*domain.Repair, error) {
	data, err := r.client.LPop(ctx, repairQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue repair: %w", err)
	}

	var repair domain.Repair
	if err := json.Unmarshal(data, &repair); err != nil {
		return nil, fmt.Errorf("unmarshal repair: %w", err)
	}
	return &repair, nil
}
