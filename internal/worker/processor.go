// Package worker drives queued jobs through the render state machine:
// claim, transliterate, render under deadline, store the artifact, and
// publish the terminal state.
package worker

import (
	"context"
	"os"
	"time"

	"seiza/internal/metrics"
	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/ports"
	"seiza/internal/render"
	"seiza/internal/repositories"
	"seiza/internal/storage"
	"seiza/internal/translit"
)

// terminalWriteTimeout bounds the detached store writes that publish a
// terminal state after the job context is gone.
const terminalWriteTimeout = 10 * time.Second

type Deps struct {
	Store         repositories.JobStore
	Renderer      render.Renderer
	Storage       storage.Provider
	RenderTimeout time.Duration
	Log           *logger.Logger
}

type Processor struct {
	store         repositories.JobStore
	renderer      render.Renderer
	storage       storage.Provider
	renderTimeout time.Duration
	log           *logger.Logger
	now           func() time.Time
}

func NewProcessor(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	return &Processor{
		store:         d.Store,
		renderer:      d.Renderer,
		storage:       d.Storage,
		renderTimeout: d.RenderTimeout,
		log:           log.WithComponent("processor"),
		now:           time.Now,
	}
}

// ProcessJob runs one dequeued id through the state machine. A lost
// claim or a vanished record is not an error: another worker owns the
// job, or the sweeper got there first.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			log.Warn("job vanished before claim, skipping")
			return nil
		}
		return errors.Wrap(err, "processor.fetch", "failed to fetch job")
	}

	if err := p.store.MarkProcessing(ctx, jobID, p.now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrStateConflict) || errors.Is(err, repositories.ErrJobNotFound) {
			log.Debug("claim lost, skipping")
			return nil
		}
		return errors.Wrap(err, "processor.claim", "failed to claim job")
	}

	birthDate, err := job.Input.BirthDate()
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.input", "stored birthday is malformed"))
	}

	tr := translit.Translate(job.Input.Name, birthDate)
	spec := render.NewSpec(job.ID, job.Input.Name, tr)

	renderCtx, cancel := context.WithTimeout(ctx, p.renderTimeout)
	defer cancel()

	log.Info("starting render", "timeout", p.renderTimeout.String())
	start := p.now()
	artifactPath, err := p.renderer.Render(renderCtx, spec)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return p.failJob(ctx, jobID, errors.RenderTimeout(p.renderTimeout))
		}
		return p.failJob(ctx, jobID, errors.RenderFailed(err))
	}
	log.Debug("render completed", "duration_ms", time.Since(start).Milliseconds())

	ref, err := p.storeArtifact(ctx, job, artifactPath)
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.store", "failed to store artifact"))
	}

	writeCtx, cancelWrite := detachedWriteCtx(ctx)
	defer cancelWrite()
	if err := p.store.MarkCompleted(writeCtx, jobID, p.now().UTC(), ref); err != nil {
		log.WithError(err).Error("failed to record completion")
		return errors.Wrap(err, "processor.complete", "failed to record completion")
	}

	metrics.Outcomes.WithLabelValues("completed").Inc()
	log.Info("job completed", "artifact_ref", ref)
	return nil
}

// storeArtifact uploads the rendered file and removes the local copy.
func (p *Processor) storeArtifact(ctx context.Context, job *models.Job, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}

	size := int64(0)
	if st, statErr := f.Stat(); statErr == nil {
		size = st.Size()
	}

	out, putErr := p.storage.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   job.ID + ".mp4",
		ContentType: "video/mp4",
		Reader:      f,
		Size:        size,
	})
	f.Close()
	os.Remove(path)

	if putErr != nil {
		return "", putErr
	}
	return out.ObjectKey, nil
}

func (p *Processor) failJob(ctx context.Context, jobID string, cause error) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	code := string(errors.GetCode(cause))
	msg := cause.Error()
	if len(msg) > 2000 {
		msg = msg[:2000]
	}

	var e *errors.Error
	if errors.As(cause, &e) {
		log.Error("job failed", "code", code, "op", e.Op, "message", e.Message)
	} else {
		log.Error("job failed", "error", msg)
	}

	writeCtx, cancel := detachedWriteCtx(ctx)
	defer cancel()
	if err := p.store.MarkFailed(writeCtx, jobID, p.now().UTC(), models.JobError{Code: code, Message: msg}); err != nil {
		log.WithError(err).Error("failed to record job failure")
		return cause
	}

	metrics.Outcomes.WithLabelValues("failed").Inc()
	return cause
}

// detachedWriteCtx survives cancellation of the job context so the
// terminal state still lands during shutdown.
func detachedWriteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
}
