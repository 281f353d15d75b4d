// Package repositories holds the job store implementations. Every state
// mutation is a compare-and-set against the expected current state, so two
// workers can never both claim a job and no transition is applied twice.
package repositories

import (
	"context"
	"errors"
	"time"

	"seiza/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

// ErrStateConflict reports a lost compare-and-set: the job is not in the
// state the transition expects.
var ErrStateConflict = errors.New("job state conflict")

// JobStore is the persistence port for jobs. Implementations are safe for
// concurrent use from request handlers, workers, and the sweeper.
type JobStore interface {
	// Create inserts a new job in its initial state.
	Create(ctx context.Context, job *models.Job) error

	// Get returns the job by id, ErrJobNotFound if absent.
	Get(ctx context.Context, id string) (*models.Job, error)

	// MarkProcessing transitions queued -> processing and sets started_at.
	// Returns ErrStateConflict when the job is not queued.
	MarkProcessing(ctx context.Context, id string, startedAt time.Time) error

	// MarkCompleted transitions processing -> completed, publishing
	// finished_at and the artifact ref together.
	MarkCompleted(ctx context.Context, id string, finishedAt time.Time, artifactRef string) error

	// MarkFailed transitions processing -> failed, publishing finished_at
	// and the structured error together.
	MarkFailed(ctx context.Context, id string, finishedAt time.Time, jobErr models.JobError) error

	// Delete removes the record, ErrJobNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ListExpired returns terminal jobs whose finished_at is before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]models.Job, error)

	// ListTerminalByOwner returns terminal jobs owned by one identity,
	// regardless of age.
	ListTerminalByOwner(ctx context.Context, ownerKey string) ([]models.Job, error)
}
