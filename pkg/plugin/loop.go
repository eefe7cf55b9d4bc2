package plugin

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopClosed is returned when posting to a closed loop.
var ErrLoopClosed = errors.New("loop is closed")

// Loop is a cooperative scheduler. Posted tasks run on the goroutine that
// calls RunPending, one at a time, in FIFO order.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Post schedules fn to run on the next RunPending call.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)
	return nil
}

// RunPending runs queued tasks until none remain, including tasks posted by
// the tasks themselves, and returns how many ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.tasks[0]
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Close drops queued tasks and rejects new ones.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.tasks = nil
}

type loopKey struct{}

// WithLoop installs l as the active loop of ctx.
func WithLoop(ctx context.Context, l *Loop) context.Context {
	return context.WithValue(ctx, loopKey{}, l)
}

// LoopFrom returns the active loop installed by WithLoop.
func LoopFrom(ctx context.Context) (*Loop, bool) {
	l, ok := ctx.Value(loopKey{}).(*Loop)
	return l, ok
}
