package cronjob

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	"github.com/brandforge-ai/brandforge-backend/internal/onboarding/domain"
	"github.com/brandforge-ai/brandforge-backend/internal/profiles"
)

const (
	maxRepairAttempts = 5
	maxBatchSize      = 32
)

// RepairQueue is the queue half of the onboarding session store.
type RepairQueue interface {
	DequeueRepair(ctx context.Context) (*domain.Repair, error)
	EnqueueRepair(ctx context.Context, repair domain.Repair) error
}

// MessageStore restamps conversation rows during a repair replay.
type MessageStore interface {
	ReassignOwner(ctx context.Context, projectID, fromOwnerID, toOwnerID string) (int64, error)
}

// ProfileStore reads and flips the converted flag during a repair replay.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*profiles.Profile, error)
	MarkConverted(ctx context.Context, anonymousID, newUserID string) error
}

// Reconciler replays conversion steps that degraded at convert time: message
// reassignment and the converted-profile flag. The ownership transfer itself
// is never replayed here. Records that keep failing are dropped after a
// bounded number of attempts so one poisoned repair cannot wedge the queue.
type Reconciler struct {
	queue    RepairQueue
	messages MessageStore
	profiles ProfileStore
	cron     *cron.Cron
}

func NewReconciler(queue RepairQueue, messages MessageStore, profiles ProfileStore) *Reconciler {
	return &Reconciler{
		queue:    queue,
		messages: messages,
		profiles: profiles,
		cron:     cron.New(),
	}
}

// Start schedules the repair sweep.
func (r *Reconciler) Start() {
	if _, err := r.cron.AddFunc("@every 1m", func() {
		r.RunOnce(context.Background())
	}); err != nil {
		log.Printf("reconciler: failed to schedule repair sweep: %v", err)
		return
	}

	log.Println("reconciler: conversion repair sweep scheduled (every 1m)")
	r.cron.Start()
}

// Stop halts the schedule; an in-flight sweep finishes.
func (r *Reconciler) Stop() {
	r.cron.Stop()
}

// RunOnce drains up to one batch of pending repairs. Records that still need
// work are re-enqueued only after the batch, so a failing repair is retried
// once per sweep rather than spinning through its attempts in one pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	var retry []domain.Repair

	for i := 0; i < maxBatchSize; i++ {
		repair, err := r.queue.DequeueRepair(ctx)
		if err != nil {
			log.Printf("reconciler: dequeue failed: %v", err)
			break
		}
		if repair == nil {
			break
		}
		if kept, again := r.replay(ctx, *repair); again {
			retry = append(retry, kept)
		}
	}

	for _, repair := range retry {
		if err := r.queue.EnqueueRepair(ctx, repair); err != nil {
			log.Printf("reconciler: re-enqueue failed for project %s: %v", repair.ProjectID, err)
		}
	}
}

func (r *Reconciler) replay(ctx context.Context, repair domain.Repair) (domain.Repair, bool) {
	if repair.ReassignMessages {
		if _, err := r.messages.ReassignOwner(ctx, repair.ProjectID, repair.AnonymousUserID, repair.NewUserID); err != nil {
			log.Printf("reconciler: message reassignment retry failed for project %s: %v", repair.ProjectID, err)
		} else {
			repair.ReassignMessages = false
		}
	}

	if repair.MarkProfile {
		if err := r.markProfile(ctx, repair); err != nil {
			log.Printf("reconciler: profile flag retry failed for %s: %v", repair.AnonymousUserID, err)
		} else {
			repair.MarkProfile = false
		}
	}

	if !repair.ReassignMessages && !repair.MarkProfile {
		log.Printf("reconciler: repair completed for project %s", repair.ProjectID)
		return repair, false
	}

	repair.Attempts++
	if repair.Attempts >= maxRepairAttempts {
		log.Printf("reconciler: dropping repair for project %s after %d attempts", repair.ProjectID, repair.Attempts)
		return repair, false
	}
	return repair, true
}

// markProfile flips the converted flag unless the profile already left the
// anonymous state, which means a late convert retry or an earlier replay got
// there first.
func (r *Reconciler) markProfile(ctx context.Context, repair domain.Repair) error {
	p, err := r.profiles.Get(ctx, repair.AnonymousUserID)
	if err != nil {
		return err
	}
	if p.UserType != identity.KindAnonymous {
		return nil
	}
	return r.profiles.MarkConverted(ctx, repair.AnonymousUserID, repair.NewUserID)
}
