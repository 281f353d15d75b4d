package queue

import "context"

// MemoryQueue is a buffered channel for the embedded topology. The channel
// buffer is the capacity bound.
type MemoryQueue struct {
	ch chan string
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan string, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case q.ch <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case jobID := <-q.ch:
		return jobID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *MemoryQueue) Depth(ctx context.Context) (int, error) {
	return len(q.ch), nil
}
