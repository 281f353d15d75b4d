package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	v0 "seiza/internal/contracts/renderer/v0"
)

// Backstop only; the caller's render deadline governs.
const httpClientTimeout = 15 * time.Minute

// HTTP renders through an external service: it POSTs the spec and
// streams the finished video from the response into a local file.
type HTTP struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpClientTimeout},
	}
}

func (h *HTTP) Render(ctx context.Context, spec Spec) (string, error) {
	body, err := json.Marshal(v0.RenderRequest{
		JobID: spec.JobID,
		Name:  spec.Name,
		Texts: spec.Texts[:],
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("renderer http %d", res.StatusCode)
	}

	out, err := os.CreateTemp("", "artifact-"+spec.JobID+"-*.mp4")
	if err != nil {
		return "", fmt.Errorf("artifact file: %w", err)
	}
	outPath := out.Name()

	if _, err := io.Copy(out, res.Body); err != nil {
		out.Close()
		os.Remove(outPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("renderer response: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}
