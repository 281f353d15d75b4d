// Package v0 holds the wire contract between the worker and an
// external renderer service.
package v0

// RenderRequest asks the service for one render: the job id, the
// submitted name, and the six overlay texts in timeline order. The
// service answers with the finished video as the response body.
type RenderRequest struct {
	JobID string   `json:"job_id"`
	Name  string   `json:"name"`
	Texts []string `json:"texts"`
}
