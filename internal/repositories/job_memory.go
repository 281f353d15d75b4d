package repositories

import (
	"context"
	"sync"
	"time"

	"seiza/internal/models"
)

// MemoryJobStore keeps jobs in a mutex-guarded map. It backs the embedded
// topology where api, workers, and sweeper share one process.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryJobStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrStateConflict
	}
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryJobStore) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.State != models.StateQueued {
		return ErrStateConflict
	}
	job.State = models.StateProcessing
	job.StartedAt = &startedAt
	return nil
}

func (s *MemoryJobStore) MarkCompleted(ctx context.Context, id string, finishedAt time.Time, artifactRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.State != models.StateProcessing {
		return ErrStateConflict
	}
	job.State = models.StateCompleted
	job.FinishedAt = &finishedAt
	job.ArtifactRef = artifactRef
	return nil
}

func (s *MemoryJobStore) MarkFailed(ctx context.Context, id string, finishedAt time.Time, jobErr models.JobError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.State != models.StateProcessing {
		return ErrStateConflict
	}
	job.State = models.StateFailed
	job.FinishedAt = &finishedAt
	job.Error = &jobErr
	return nil
}

func (s *MemoryJobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryJobStore) ListExpired(ctx context.Context, cutoff time.Time) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Job
	for _, job := range s.jobs {
		if job.State.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *copyJob(job))
		}
	}
	return out, nil
}

func (s *MemoryJobStore) ListTerminalByOwner(ctx context.Context, ownerKey string) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Job
	for _, job := range s.jobs {
		if job.OwnerKey == ownerKey && job.State.Terminal() {
			out = append(out, *copyJob(job))
		}
	}
	return out, nil
}

// copyJob returns a deep copy so callers never alias store-owned memory.
func copyJob(job *models.Job) *models.Job {
	out := *job
	if job.StartedAt != nil {
		t := *job.StartedAt
		out.StartedAt = &t
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		out.FinishedAt = &t
	}
	if job.Error != nil {
		e := *job.Error
		out.Error = &e
	}
	return &out
}
