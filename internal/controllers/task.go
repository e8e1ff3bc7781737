package controllers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Task is the handle of one request cycle. A controller keeps only its
// latest task and cancels the previous one before starting a new cycle.
type Task struct {
	ID    string
	Query string

	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

// newTask derives a cycle context bounded by timeout from parent
func newTask(parent context.Context, query string, timeout time.Duration) *Task {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &Task{
		ID:     uuid.NewString(),
		Query:  query,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// completedTask returns an already finished task that never touched the network
func completedTask(query string) *Task {
	t := newTask(context.Background(), query, time.Minute)
	t.finish()
	return t
}

// Cancel aborts the cycle and releases its transport resources.
// Safe to call repeatedly and after completion.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether Cancel has been called
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the cycle's goroutine has returned
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the cycle's goroutine has returned or ctx ends
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish releases the context timer and marks the task done
func (t *Task) finish() {
	t.cancel()
	close(t.done)
}
