// Package dispatch turns validated submissions into queued jobs.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"seiza/internal/metrics"
	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/queue"
	"seiza/internal/repositories"
)

const queueFullRetryAfter = 30 * time.Second

// Dispatcher creates jobs and hands their ids to the worker pool.
type Dispatcher struct {
	store repositories.JobStore
	queue queue.Queue
	log   *logger.Logger
	now   func() time.Time
}

func New(store repositories.JobStore, q queue.Queue, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store: store,
		queue: q,
		log:   log.WithComponent("dispatch"),
		now:   time.Now,
	}
}

// Submit creates a queued job for input and enqueues its id. It
// returns as soon as the id is durable; rendering happens later. On a
// full queue the fresh record is removed again so no unrunnable
// queued job lingers.
func (d *Dispatcher) Submit(ctx context.Context, ownerKey string, input models.JobInput) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.NewString(),
		State:     models.StateQueued,
		Input:     input,
		OwnerKey:  ownerKey,
		CreatedAt: d.now().UTC(),
	}

	if err := d.store.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, "dispatch.submit", "failed to create job")
	}

	if err := d.queue.Enqueue(ctx, job.ID); err != nil {
		if delErr := d.store.Delete(ctx, job.ID); delErr != nil {
			d.log.WithJobID(job.ID).WithError(delErr).Error("rollback after enqueue failure failed")
		}
		if errors.Is(err, queue.ErrQueueFull) {
			return nil, errors.CapacityExceeded("render queue", queueFullRetryAfter)
		}
		return nil, errors.Wrap(err, "dispatch.submit", "failed to enqueue job")
	}

	metrics.Submissions.Inc()
	d.log.WithJobID(job.ID).WithIdentity(ownerKey).Info("job submitted")
	return job, nil
}
