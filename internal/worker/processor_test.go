package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"seiza/internal/adapters/storage/localfs"
	"seiza/internal/models"
	"seiza/internal/pkg/logger"
	"seiza/internal/ports"
	"seiza/internal/render"
	"seiza/internal/repositories"
	"seiza/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text", Output: io.Discard})
}

// fakeRenderer writes a small artifact file after an optional delay.
// The delay is interruptible so deadline tests behave like a real
// renderer that honors its context.
type fakeRenderer struct {
	dir   string
	delay time.Duration
	err   error

	mu       sync.Mutex
	calls    int
	lastPath string
}

func (f *fakeRenderer) Render(ctx context.Context, spec render.Spec) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}

	tmp, err := os.CreateTemp(f.dir, "fake-artifact-*.mp4")
	if err != nil {
		return "", err
	}
	if _, err := tmp.WriteString("rendered"); err != nil {
		tmp.Close()
		return "", err
	}
	tmp.Close()

	f.mu.Lock()
	f.lastPath = tmp.Name()
	f.mu.Unlock()
	return tmp.Name(), nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRenderer) renderedPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath
}

func createQueuedJob(t *testing.T, store repositories.JobStore, id string) {
	t.Helper()
	err := store.Create(context.Background(), &models.Job{
		ID:        id,
		State:     models.StateQueued,
		Input:     models.JobInput{Name: "Jane Smith", Birthday: "1990-01-15"},
		OwnerKey:  "sess-1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func newTestProcessor(t *testing.T, r render.Renderer, timeout time.Duration) (*Processor, repositories.JobStore, storage.Provider) {
	t.Helper()
	store := repositories.NewMemoryJobStore()
	provider := localfs.New(t.TempDir())
	p := NewProcessor(Deps{
		Store:         store,
		Renderer:      r,
		Storage:       provider,
		RenderTimeout: timeout,
		Log:           testLogger(),
	})
	return p, store, provider
}

func TestProcessJobCompletes(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p, store, provider := newTestProcessor(t, r, time.Minute)
	ctx := context.Background()
	createQueuedJob(t, store, "job-1")

	if err := p.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	job, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.State != models.StateCompleted {
		t.Fatalf("state = %q, want %q", job.State, models.StateCompleted)
	}
	if job.ArtifactRef != "job-1.mp4" {
		t.Errorf("ArtifactRef = %q, want %q", job.ArtifactRef, "job-1.mp4")
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Fatalf("timestamps missing: started=%v finished=%v", job.StartedAt, job.FinishedAt)
	}
	if job.FinishedAt.Before(*job.StartedAt) {
		t.Errorf("finished %v before started %v", job.FinishedAt, job.StartedAt)
	}

	rc, _, _, err := provider.GetObject(ctx, job.ArtifactRef)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "rendered" {
		t.Errorf("stored artifact = %q, want %q", data, "rendered")
	}

	if _, err := os.Stat(r.renderedPath()); !os.IsNotExist(err) {
		t.Errorf("local artifact %s still present after upload", r.renderedPath())
	}
}

func TestProcessJobRenderTimeout(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir(), delay: 500 * time.Millisecond}
	p, store, _ := newTestProcessor(t, r, 20*time.Millisecond)
	ctx := context.Background()
	createQueuedJob(t, store, "job-1")

	if err := p.ProcessJob(ctx, "job-1"); err == nil {
		t.Fatal("ProcessJob returned nil, want timeout error")
	}

	job, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.State != models.StateFailed {
		t.Fatalf("state = %q, want %q", job.State, models.StateFailed)
	}
	if job.Error == nil {
		t.Fatal("job.Error is nil")
	}
	if job.Error.Code != "RENDER_TIMEOUT" {
		t.Errorf("error code = %q, want RENDER_TIMEOUT", job.Error.Code)
	}
	if job.Error.Message == "" {
		t.Error("error message is empty")
	}
	if job.FinishedAt == nil {
		t.Error("FinishedAt not set on failure")
	}
}

func TestProcessJobRenderFailure(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir(), err: fmt.Errorf("ffmpeg exploded")}
	p, store, _ := newTestProcessor(t, r, time.Minute)
	ctx := context.Background()
	createQueuedJob(t, store, "job-1")

	if err := p.ProcessJob(ctx, "job-1"); err == nil {
		t.Fatal("ProcessJob returned nil, want render error")
	}

	job, _ := store.Get(ctx, "job-1")
	if job.State != models.StateFailed {
		t.Fatalf("state = %q, want %q", job.State, models.StateFailed)
	}
	if job.Error.Code != "RENDER_FAILED" {
		t.Errorf("error code = %q, want RENDER_FAILED", job.Error.Code)
	}
	if !strings.Contains(job.Error.Message, "ffmpeg exploded") {
		t.Errorf("error message %q does not mention the cause", job.Error.Message)
	}
}

func TestProcessJobClaimLost(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p, store, _ := newTestProcessor(t, r, time.Minute)
	ctx := context.Background()
	createQueuedJob(t, store, "job-1")

	// Another worker already claimed it.
	if err := store.MarkProcessing(ctx, "job-1", time.Now().UTC()); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	if err := p.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if r.callCount() != 0 {
		t.Errorf("renderer called %d times after a lost claim", r.callCount())
	}

	job, _ := store.Get(ctx, "job-1")
	if job.State != models.StateProcessing {
		t.Errorf("state = %q, want %q", job.State, models.StateProcessing)
	}
}

func TestProcessJobMissingJob(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p, _, _ := newTestProcessor(t, r, time.Minute)

	if err := p.ProcessJob(context.Background(), "no-such-job"); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if r.callCount() != 0 {
		t.Errorf("renderer called %d times for a missing job", r.callCount())
	}
}

type failingStorage struct {
	ports.StorageProvider
}

func (f *failingStorage) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	return ports.PutObjectOutput{}, fmt.Errorf("disk full")
}

func TestProcessJobUploadFailure(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	store := repositories.NewMemoryJobStore()
	p := NewProcessor(Deps{
		Store:         store,
		Renderer:      r,
		Storage:       &failingStorage{StorageProvider: localfs.New(t.TempDir())},
		RenderTimeout: time.Minute,
		Log:           testLogger(),
	})
	ctx := context.Background()
	createQueuedJob(t, store, "job-1")

	if err := p.ProcessJob(ctx, "job-1"); err == nil {
		t.Fatal("ProcessJob returned nil, want storage error")
	}

	job, _ := store.Get(ctx, "job-1")
	if job.State != models.StateFailed {
		t.Fatalf("state = %q, want %q", job.State, models.StateFailed)
	}
	if job.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("error code = %q, want INTERNAL_ERROR", job.Error.Code)
	}
}
