package sweep

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"seiza/internal/adapters/storage/localfs"
	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/ports"
	"seiza/internal/repositories"
	"seiza/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text", Output: io.Discard})
}

func putArtifact(t *testing.T, provider storage.Provider, key string) {
	t.Helper()
	_, err := provider.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "video/mp4",
		Reader:      strings.NewReader("video"),
		Size:        5,
	})
	if err != nil {
		t.Fatalf("PutObject(%s): %v", key, err)
	}
}

func seedCompleted(t *testing.T, store repositories.JobStore, provider storage.Provider, id, owner string, finished time.Time) {
	t.Helper()
	ctx := context.Background()
	err := store.Create(ctx, &models.Job{
		ID:        id,
		State:     models.StateQueued,
		Input:     models.JobInput{Name: "Jane", Birthday: "1990-01-15"},
		OwnerKey:  owner,
		CreatedAt: finished.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
	if err := store.MarkProcessing(ctx, id, finished.Add(-30*time.Second)); err != nil {
		t.Fatalf("MarkProcessing(%s): %v", id, err)
	}
	putArtifact(t, provider, id+".mp4")
	if err := store.MarkCompleted(ctx, id, finished, id+".mp4"); err != nil {
		t.Fatalf("MarkCompleted(%s): %v", id, err)
	}
}

func seedFailed(t *testing.T, store repositories.JobStore, id, owner string, finished time.Time) {
	t.Helper()
	ctx := context.Background()
	err := store.Create(ctx, &models.Job{
		ID:        id,
		State:     models.StateQueued,
		Input:     models.JobInput{Name: "Jane", Birthday: "1990-01-15"},
		OwnerKey:  owner,
		CreatedAt: finished.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
	if err := store.MarkProcessing(ctx, id, finished.Add(-30*time.Second)); err != nil {
		t.Fatalf("MarkProcessing(%s): %v", id, err)
	}
	jobErr := models.JobError{Code: "RENDER_FAILED", Message: "boom"}
	if err := store.MarkFailed(ctx, id, finished, jobErr); err != nil {
		t.Fatalf("MarkFailed(%s): %v", id, err)
	}
}

func seedProcessing(t *testing.T, store repositories.JobStore, id, owner string) {
	t.Helper()
	ctx := context.Background()
	err := store.Create(ctx, &models.Job{
		ID:        id,
		State:     models.StateQueued,
		Input:     models.JobInput{Name: "Jane", Birthday: "1990-01-15"},
		OwnerKey:  owner,
		CreatedAt: time.Now().UTC().Add(-3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
	if err := store.MarkProcessing(ctx, id, time.Now().UTC().Add(-3*time.Hour)); err != nil {
		t.Fatalf("MarkProcessing(%s): %v", id, err)
	}
}

func objectExists(provider storage.Provider, key string) bool {
	rc, _, _, err := provider.GetObject(context.Background(), key)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func TestSweepExpired(t *testing.T) {
	store := repositories.NewMemoryJobStore()
	provider := localfs.New(t.TempDir())
	s := New(store, provider, time.Hour, time.Minute, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	seedCompleted(t, store, provider, "old-done", "sess-1", now.Add(-2*time.Hour))
	seedCompleted(t, store, provider, "fresh-done", "sess-1", now)
	seedFailed(t, store, "old-failed", "sess-1", now.Add(-2*time.Hour))
	seedProcessing(t, store, "long-running", "sess-1")

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := store.Get(ctx, "old-done"); !errors.Is(err, repositories.ErrJobNotFound) {
		t.Errorf("old-done record survived the sweep: %v", err)
	}
	if objectExists(provider, "old-done.mp4") {
		t.Error("old-done artifact survived the sweep")
	}
	if _, err := store.Get(ctx, "old-failed"); !errors.Is(err, repositories.ErrJobNotFound) {
		t.Errorf("old-failed record survived the sweep: %v", err)
	}

	if _, err := store.Get(ctx, "fresh-done"); err != nil {
		t.Errorf("fresh-done removed before retention: %v", err)
	}
	if !objectExists(provider, "fresh-done.mp4") {
		t.Error("fresh-done artifact removed before retention")
	}
	if _, err := store.Get(ctx, "long-running"); err != nil {
		t.Errorf("processing job removed by sweep: %v", err)
	}
}

type stuckDeleteStorage struct {
	ports.StorageProvider
}

func (s *stuckDeleteStorage) DeleteObject(ctx context.Context, key string) error {
	return fmt.Errorf("backend unavailable")
}

func TestSweepKeepsRecordWhenArtifactDeleteFails(t *testing.T) {
	store := repositories.NewMemoryJobStore()
	provider := localfs.New(t.TempDir())
	s := New(store, &stuckDeleteStorage{StorageProvider: provider}, time.Hour, time.Minute, testLogger())
	ctx := context.Background()

	seedCompleted(t, store, provider, "old-done", "sess-1", time.Now().UTC().Add(-2*time.Hour))

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	// The record must survive so the next pass can retry the artifact.
	if _, err := store.Get(ctx, "old-done"); err != nil {
		t.Errorf("record deleted despite artifact delete failure: %v", err)
	}
}

func TestSweepOrphans(t *testing.T) {
	store := repositories.NewMemoryJobStore()
	root := t.TempDir()
	provider := localfs.New(root)
	s := New(store, provider, time.Hour, time.Minute, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	// An object with a live record, an old orphan, and a fresh orphan.
	seedCompleted(t, store, provider, "owned", "sess-1", now)
	putArtifact(t, provider, "ghost.mp4")
	putArtifact(t, provider, "fresh-ghost.mp4")

	old := now.Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(root, "ghost.mp4"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.Chtimes(filepath.Join(root, "owned.mp4"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if objectExists(provider, "ghost.mp4") {
		t.Error("old orphan survived the sweep")
	}
	if !objectExists(provider, "fresh-ghost.mp4") {
		t.Error("fresh orphan removed inside the grace window")
	}
	if !objectExists(provider, "owned.mp4") {
		t.Error("owned object removed while its record exists")
	}
}

func TestSweepOwner(t *testing.T) {
	store := repositories.NewMemoryJobStore()
	provider := localfs.New(t.TempDir())
	s := New(store, provider, time.Hour, time.Minute, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	seedCompleted(t, store, provider, "mine-done", "sess-1", now)
	seedFailed(t, store, "mine-failed", "sess-1", now)
	seedProcessing(t, store, "mine-running", "sess-1")
	seedCompleted(t, store, provider, "theirs-done", "sess-2", now)

	removed, err := s.SweepOwner(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SweepOwner: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	if _, err := store.Get(ctx, "mine-done"); !errors.Is(err, repositories.ErrJobNotFound) {
		t.Errorf("mine-done survived cleanup: %v", err)
	}
	if objectExists(provider, "mine-done.mp4") {
		t.Error("mine-done artifact survived cleanup")
	}
	if _, err := store.Get(ctx, "mine-running"); err != nil {
		t.Errorf("running job removed by cleanup: %v", err)
	}
	if _, err := store.Get(ctx, "theirs-done"); err != nil {
		t.Errorf("other owner's job removed: %v", err)
	}
	if !objectExists(provider, "theirs-done.mp4") {
		t.Error("other owner's artifact removed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := repositories.NewMemoryJobStore()
	provider := localfs.New(t.TempDir())
	s := New(store, provider, time.Hour, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
