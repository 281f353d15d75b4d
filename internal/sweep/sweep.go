// Package sweep enforces artifact retention: expired jobs lose their
// stored video and their record, and stray objects with no owning
// record are collected.
package sweep

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"seiza/internal/metrics"
	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/repositories"
	"seiza/internal/storage"
)

type Sweeper struct {
	store     repositories.JobStore
	storage   storage.Provider
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func New(store repositories.JobStore, provider storage.Provider, retention, interval time.Duration, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault()
	}

	return &Sweeper{
		store:     store,
		storage:   provider,
		retention: retention,
		interval:  interval,
		log:       log.WithComponent("sweeper"),
		now:       time.Now,
	}
}

// Run sweeps on every tick until ctx is done. A failed pass is logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("sweeper starting",
		"interval", s.interval.String(),
		"retention", s.retention.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopping")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.WithError(err).Error("sweep failed")
			}
		}
	}
}

// Sweep runs one expiry pass and one orphan pass. Item failures are
// logged and skipped so a single bad object cannot stall retention.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)

	expired, expErr := s.sweepExpired(ctx, cutoff)
	orphans, orphErr := s.sweepOrphans(ctx, cutoff)

	if expired+orphans > 0 {
		s.log.Info("sweep finished", "expired", expired, "orphans", orphans)
	}
	if expErr != nil {
		return expErr
	}
	return orphErr
}

// SweepOwner removes one identity's terminal jobs immediately,
// regardless of age. Queued and processing jobs are left to finish.
func (s *Sweeper) SweepOwner(ctx context.Context, ownerKey string) (int, error) {
	jobs, err := s.store.ListTerminalByOwner(ctx, ownerKey)
	if err != nil {
		return 0, errors.Wrap(err, "sweep.owner", "failed to list jobs for cleanup")
	}

	removed := 0
	for i := range jobs {
		if err := s.removeJob(ctx, &jobs[i]); err != nil {
			s.log.WithJobID(jobs[i].ID).WithError(err).Warn("failed to remove job on cleanup")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Sweeper) sweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	jobs, err := s.store.ListExpired(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "sweep.expired", "failed to list expired jobs")
	}

	removed := 0
	for i := range jobs {
		if err := s.removeJob(ctx, &jobs[i]); err != nil {
			s.log.WithJobID(jobs[i].ID).WithError(err).Warn("failed to remove expired job")
			continue
		}
		removed++
	}
	return removed, nil
}

// removeJob deletes the artifact before the record. A crash in between
// leaves a record the next pass retries; the reverse order would strand
// an object nothing owns.
func (s *Sweeper) removeJob(ctx context.Context, job *models.Job) error {
	if job.ArtifactRef != "" {
		if err := s.storage.DeleteObject(ctx, job.ArtifactRef); err != nil {
			return errors.Wrap(err, "sweep.artifact", "failed to delete artifact")
		}
		metrics.SweepRemovals.WithLabelValues("artifact").Inc()
	}

	if err := s.store.Delete(ctx, job.ID); err != nil && !errors.Is(err, repositories.ErrJobNotFound) {
		return errors.Wrap(err, "sweep.record", "failed to delete job record")
	}
	metrics.SweepRemovals.WithLabelValues("record").Inc()
	return nil
}

// sweepOrphans removes stored objects whose job record no longer
// exists. Objects newer than the cutoff are left alone: an upload can
// land before its completion write is visible.
func (s *Sweeper) sweepOrphans(ctx context.Context, cutoff time.Time) (int, error) {
	objects, err := s.storage.ListObjects(ctx, "")
	if err != nil {
		return 0, errors.Wrap(err, "sweep.orphans", "failed to list stored objects")
	}

	removed := 0
	for _, obj := range objects {
		if !obj.ModTime.IsZero() && obj.ModTime.After(cutoff) {
			continue
		}

		jobID := strings.TrimSuffix(obj.Name, filepath.Ext(obj.Name))
		if jobID == "" {
			continue
		}

		if _, err := s.store.Get(ctx, jobID); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrJobNotFound) {
			s.log.WithError(err).Warn("orphan check failed", "object", obj.Name)
			continue
		}

		if err := s.storage.DeleteObject(ctx, obj.Key); err != nil {
			s.log.WithError(err).Warn("failed to delete orphan object", "object", obj.Name)
			continue
		}
		metrics.SweepRemovals.WithLabelValues("orphan").Inc()
		removed++
	}
	return removed, nil
}
