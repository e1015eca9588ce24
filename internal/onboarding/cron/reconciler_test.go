package cronjob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/onboarding/domain"
	"github.com/brandforge-ai/brandforge-backend/internal/profiles"
)

type memQueue struct {
	pending []domain.Repair
}

func (q *memQueue) DequeueRepair(_ context.Context) (*domain.Repair, error) {
	if len(q.pending) == 0 {
		return nil, nil
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	return &head, nil
}

func (q *memQueue) EnqueueRepair(_ context.Context, repair domain.Repair) error {
	q.pending = append(q.pending, repair)
	return nil
}

type replayMessages struct {
	err   error
	calls int
}

func (m *replayMessages) ReassignOwner(_ context.Context, _, _, _ string) (int64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return 3, nil
}

type replayProfiles struct {
	userType string
	getErr   error
	err      error
	calls    int
}

func (p *replayProfiles) Get(_ context.Context, id string) (*profiles.Profile, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	userType := p.userType
	if userType == "" {
		userType = identity.KindAnonymous
	}
	return &profiles.Profile{ID: id, UserType: userType}, nil
}

func (p *replayProfiles) MarkConverted(_ context.Context, _, _ string) error {
	p.calls++
	return p.err
}

func TestRunOnce_ReplaysAndClearsRepair(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:        "p1",
		AnonymousUserID:  "a1",
		NewUserID:        "n1",
		ReassignMessages: true,
		MarkProfile:      true,
	}}}
	messages := &replayMessages{}
	profiles := &replayProfiles{}

	NewReconciler(queue, messages, profiles).RunOnce(context.Background())

	assert.Equal(t, 1, messages.calls)
	assert.Equal(t, 1, profiles.calls)
	assert.Empty(t, queue.pending, "completed repairs are not re-enqueued")
}

func TestRunOnce_OnlyFlaggedStepsReplay(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:       "p1",
		AnonymousUserID: "a1",
		NewUserID:       "n1",
		MarkProfile:     true,
	}}}
	messages := &replayMessages{}
	profiles := &replayProfiles{}

	NewReconciler(queue, messages, profiles).RunOnce(context.Background())

	assert.Zero(t, messages.calls)
	assert.Equal(t, 1, profiles.calls)
}

func TestRunOnce_FailedReplayReenqueuesWithAttempt(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:        "p1",
		AnonymousUserID:  "a1",
		NewUserID:        "n1",
		ReassignMessages: true,
		MarkProfile:      true,
	}}}
	messages := &replayMessages{err: errors.New("still down")}
	profiles := &replayProfiles{}

	NewReconciler(queue, messages, profiles).RunOnce(context.Background())

	require.Len(t, queue.pending, 1)
	kept := queue.pending[0]
	assert.True(t, kept.ReassignMessages, "the failed step stays flagged")
	assert.False(t, kept.MarkProfile, "the recovered step is cleared")
	assert.Equal(t, 1, kept.Attempts)
}

func TestRunOnce_DropsRepairAfterMaxAttempts(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:        "p1",
		AnonymousUserID:  "a1",
		NewUserID:        "n1",
		ReassignMessages: true,
		Attempts:         maxRepairAttempts - 1,
	}}}
	messages := &replayMessages{err: errors.New("still down")}

	NewReconciler(queue, messages, &replayProfiles{}).RunOnce(context.Background())

	assert.Empty(t, queue.pending, "poisoned repairs are dropped, not retried forever")
}

func TestRunOnce_AlreadyConvertedProfileClearsFlag(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:       "p1",
		AnonymousUserID: "a1",
		NewUserID:       "n1",
		MarkProfile:     true,
	}}}
	profiles := &replayProfiles{userType: identity.KindConverted}

	NewReconciler(queue, &replayMessages{}, profiles).RunOnce(context.Background())

	assert.Zero(t, profiles.calls, "a profile that already left anonymous is not rewritten")
	assert.Empty(t, queue.pending, "the repair is considered done")
}

func TestRunOnce_ProfileLookupFailureRetries(t *testing.T) {
	queue := &memQueue{pending: []domain.Repair{{
		ProjectID:       "p1",
		AnonymousUserID: "a1",
		NewUserID:       "n1",
		MarkProfile:     true,
	}}}
	profiles := &replayProfiles{getErr: errors.New("db down")}

	NewReconciler(queue, &replayMessages{}, profiles).RunOnce(context.Background())

	require.Len(t, queue.pending, 1)
	assert.True(t, queue.pending[0].MarkProfile)
	assert.Equal(t, 1, queue.pending[0].Attempts)
}

func TestRunOnce_DrainsWholeBatch(t *testing.T) {
	queue := &memQueue{}
	for i := 0; i < 3; i++ {
		queue.pending = append(queue.pending, domain.Repair{
			ProjectID:        "p",
			AnonymousUserID:  "a",
			NewUserID:        "n",
			ReassignMessages: true,
		})
	}
	messages := &replayMessages{}

	NewReconciler(queue, messages, &replayProfiles{}).RunOnce(context.Background())

	assert.Equal(t, 3, messages.calls)
	assert.Empty(t, queue.pending)
}
