package models

import "time"

// State is the lifecycle position of a job. Transitions are monotonic:
// queued -> processing -> completed | failed.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobInput is the validated submission payload. Birthday is normalized to
// YYYY-MM-DD before the job is created.
type JobInput struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

// BirthDate parses the normalized birthday.
func (i JobInput) BirthDate() (time.Time, error) {
	return time.Parse("2006-01-02", i.Birthday)
}

// JobError is the structured failure recorded on a failed job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Job is one unit of asynchronous rendering work.
type Job struct {
	ID          string     `json:"id"`
	State       State      `json:"state"`
	Input       JobInput   `json:"input"`
	OwnerKey    string     `json:"owner_key"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ArtifactRef string     `json:"artifact_ref,omitempty"`
	Error       *JobError  `json:"error,omitempty"`
}
