package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"seiza/internal/admission"
	"seiza/internal/dispatch"
	"seiza/internal/httpkit"
	"seiza/internal/models"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/repositories"
	"seiza/internal/translit"
)

type renderRequest struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

type cleanupRequest struct {
	SessionID string `json:"session_id"`
}

// previewData echoes the normalized input together with its
// transliteration. Preview is set only on the preview endpoint.
type previewData struct {
	Name      string   `json:"name"`
	Birthday  string   `json:"birthday"`
	Extracted []string `json:"extracted"`
	Japanese  []string `json:"japanese"`
	StarSign  string   `json:"star_sign"`
	Preview   string   `json:"preview,omitempty"`
}

type generateResponse struct {
	JobID     string      `json:"job_id"`
	SessionID string      `json:"session_id"`
	Data      previewData `json:"data"`
}

type statusResponse struct {
	Status      string           `json:"status"`
	ArtifactRef string           `json:"artifact_ref,omitempty"`
	DownloadURL string           `json:"download_url,omitempty"`
	VideoURL    string           `json:"video_url,omitempty"`
	Error       *models.JobError `json:"error,omitempty"`
}

func newPreviewData(input models.JobInput, tr translit.Result) previewData {
	return previewData{
		Name:      input.Name,
		Birthday:  input.Birthday,
		Extracted: tr.Extracted[:],
		Japanese:  tr.Japanese[:],
		StarSign:  tr.StarSign,
	}
}

// Preview validates and transliterates without creating a job.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) error {
	if err := h.admit(r, admission.DimPreview); err != nil {
		return err
	}

	var req renderRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil {
		return errors.Validation("invalid json body")
	}

	input, err := dispatch.ParseInput(req.Name, req.Birthday, time.Now().UTC())
	if err != nil {
		return err
	}
	birthDate, err := input.BirthDate()
	if err != nil {
		return errors.Wrap(err, "api.preview", "invalid normalized birthday")
	}

	tr := translit.Translate(input.Name, birthDate)
	data := newPreviewData(input, tr)
	data.Preview = tr.Display()

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
	return nil
}

// Generate admits, validates, and submits a render job. The response
// carries the transliteration so clients can show it while polling.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) error {
	if err := h.admit(r, admission.DimGenerate); err != nil {
		return err
	}

	var req renderRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil {
		return errors.Validation("invalid json body")
	}

	input, err := dispatch.ParseInput(req.Name, req.Birthday, time.Now().UTC())
	if err != nil {
		return err
	}
	birthDate, err := input.BirthDate()
	if err != nil {
		return errors.Wrap(err, "api.generate", "invalid normalized birthday")
	}

	identity := logger.IdentityFromContext(r.Context())
	job, err := h.dispatcher.Submit(r.Context(), identity, input)
	if err != nil {
		return err
	}

	tr := translit.Translate(input.Name, birthDate)
	httpkit.WriteJSON(w, http.StatusCreated, generateResponse{
		JobID:     job.ID,
		SessionID: job.OwnerKey,
		Data:      newPreviewData(input, tr),
	})
	return nil
}

// Status reports the job's current state. An unknown id is not found,
// whether it never existed or was already swept.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) error {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return errors.NotFound("job", jobID)
		}
		return errors.Wrap(err, "api.status", "failed to fetch job")
	}

	resp := statusResponse{Status: string(job.State), Error: job.Error}
	if job.State == models.StateCompleted {
		resp.ArtifactRef = job.ArtifactRef
		resp.DownloadURL = "/api/v0/download/" + job.ID
		resp.VideoURL = "/api/v0/video/" + job.ID
	}

	httpkit.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// Cleanup removes the caller's terminal jobs and their artifacts. A
// body with session_id overrides the resolved identity, so a client
// that stored its session can clean up from a new address.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) error {
	if err := h.admit(r, admission.DimCleanup); err != nil {
		return err
	}

	owner := logger.IdentityFromContext(r.Context())

	var req cleanupRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		return errors.Validation("invalid json body")
	}
	if sid := strings.TrimSpace(req.SessionID); sid != "" {
		owner = sid
	}

	removed, err := h.sweeper.SweepOwner(r.Context(), owner)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"removed": removed})
	return nil
}
