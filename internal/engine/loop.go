package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrLoopStopped is returned when work is posted to a loop that has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop schedules callbacks onto the goroutine that owns a Controller.
// Callbacks never run concurrently with each other.
type Loop interface {
	// After runs fn once, no sooner than d from now. The returned func
	// cancels the callback if it has not run yet.
	After(d time.Duration, fn func()) (cancel func())
}

// EventLoop is a single-goroutine task queue. Every Controller method is
// called from inside Run, either through Post/Do or from a timer.
type EventLoop struct {
	tasks chan func()
	done  chan struct{}
}

// NewEventLoop creates an idle loop. Call Run to start processing.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is canceled.
func (l *EventLoop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn. It reports false when the loop has exited.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *EventLoop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run returns.
func (l *EventLoop) Done() <-chan struct{} { return l.done }

// After implements Loop.
func (l *EventLoop) After(d time.Duration, fn func()) func() {
	var canceled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !canceled.Load() {
				fn()
			}
		})
	})
	return func() {
		canceled.Store(true)
		t.Stop()
	}
}
