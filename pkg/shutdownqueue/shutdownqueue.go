// Package shutdownqueue provides a LIFO queue of cleanup tasks drained at
// the end of main:
//
//	shutdownqueue.Add(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	...
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	err := shutdownqueue.Shutdown(ctx)
//
// Tasks run once, in reverse order of registration. Panics are recovered.
// Shutdown is idempotent and returns an aggregated error via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

// Queue holds registered shutdown tasks. The zero value is ready to use.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

// Add registers a task to run on Shutdown, in LIFO order. Safe from any
// goroutine. Nil tasks and late registrations (after Shutdown started)
// are ignored.
func (q *Queue) Add(t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, t)
}

// Shutdown drains all registered tasks in LIFO order. It is safe to call
// multiple times; after the first run, subsequent calls are no-ops.
//
// If ctx is canceled mid-drain, Shutdown stops early and the returned error
// includes the context error alongside any task errors collected so far.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}

// defaultQueue backs the package-level Add/Shutdown used from main.
var defaultQueue Queue

// Add registers a task on the process-wide queue.
func Add(t Task) { defaultQueue.Add(t) }

// Shutdown drains the process-wide queue.
func Shutdown(ctx context.Context) error { return defaultQueue.Shutdown(ctx) }
