package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/repositories"
)

// Download serves the artifact as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) error {
	return h.serveArtifact(w, r, "attachment")
}

// Video serves the artifact inline for playback. Range requests are
// honored when the storage object is seekable.
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) error {
	return h.serveArtifact(w, r, "inline")
}

func (h *Handler) serveArtifact(w http.ResponseWriter, r *http.Request, disposition string) error {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return errors.NotFound("job", jobID)
		}
		return errors.Wrap(err, "api.artifact", "failed to fetch job")
	}

	switch job.State {
	case models.StateCompleted:
	case models.StateFailed:
		return errors.NotFound("artifact", jobID)
	default:
		return errors.Conflict("job is still " + string(job.State))
	}

	rc, contentType, size, err := h.storage.GetObject(r.Context(), job.ArtifactRef)
	if err != nil {
		// Swept between the record check and the read.
		return errors.NotFound("artifact", jobID)
	}
	defer rc.Close()

	if contentType == "" {
		contentType = "video/mp4"
	}
	filename := job.ID + ".mp4"
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, filename, time.Time{}, rs)
		return nil
	}

	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; the client most likely went away.
		h.log.FromContext(r.Context()).WithJobID(jobID).Debug("artifact stream aborted", "error", err.Error())
	}
	return nil
}
