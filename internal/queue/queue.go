// Package queue provides the bounded FIFO ingress queue between the
// dispatcher and the worker pool.
package queue

import (
	"context"
	"errors"
)

// ErrQueueFull reports that the queue is at capacity. Submit surfaces it as
// a capacity error instead of letting the backlog grow without bound.
var ErrQueueFull = errors.New("queue is full")

// Queue carries job ids from the dispatcher to the workers.
type Queue interface {
	// Enqueue adds a job id, failing fast with ErrQueueFull at capacity.
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks until an id is available or ctx is done.
	Dequeue(ctx context.Context) (string, error)

	// Depth reports the number of ids currently waiting.
	Depth(ctx context.Context) (int, error)
}
