package analyzer

import (
	"context"
)

// Task is a report being collected on its own goroutine.
type Task struct {
	done   chan struct{}
	result *Result
	err    error
}

// Start runs Collect in the background. The walks inside stay sequential;
// only the caller is freed.
func (a *Analyzer) Start(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result, t.err = a.Collect(ctx)
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. Abandoning a task does
// not stop it; cancel the context passed to Start for that.
func (t *Task) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
