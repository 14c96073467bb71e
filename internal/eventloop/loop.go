// Package eventloop provides the single-threaded event queue every
// reconciliation step and vendor callback runs on.
package eventloop

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher schedules fn to run on the event queue. Dispatch never blocks
// and never runs fn inline.
type Dispatcher interface {
	Dispatch(fn func())
}

// Loop is an unbounded FIFO queue drained by a single goroutine.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	stopped bool
	logger  *zap.Logger
}

// New creates a loop. Call Run to start draining it.
func New(logger *zap.Logger) *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Dispatch enqueues fn. Work dispatched after Run returns is dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.pending = nil
		l.mu.Unlock()
	}()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn, true
}

// run executes one task; a panicking task is logged and the loop keeps going.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Event handler panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Manual is a Dispatcher drained explicitly by the caller. Tests use it to
// step the engine deterministically.
type Manual struct {
	pending []func()
}

// Dispatch enqueues fn.
func (m *Manual) Dispatch(fn func()) {
	m.pending = append(m.pending, fn)
}

// Drain runs queued work, including work queued while draining, until the
// queue is empty. It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for len(m.pending) > 0 {
		fn := m.pending[0]
		m.pending = m.pending[1:]
		fn()
		n++
	}
	return n
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	return len(m.pending)
}
