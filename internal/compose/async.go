package compose

//
// Async task context, spec.md §9 "Callback lifetime": "each async
// chain owns its state through a future/task object; child steps move
// or borrow it; cancellation drops the task and with it all registered
// callbacks." Go's GC gives us the "released when the last callback
// returns" half of that for free; this type enforces the other half —
// no callback fires after Close — with an explicit flag, mirroring
// transport.Transport's same discipline (spec.md §5's cancellation
// rule).
//

import (
	"sync/atomic"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/reactor"
)

// Task is a cancellable async chain's shared context.
type Task struct {
	reactor *reactor.Reactor
	closed  atomic.Bool
}

// NewTask creates a Task driven by r.
func NewTask(r *reactor.Reactor) *Task {
	return &Task{reactor: r}
}

// Close cancels the task: subsequent Deliver calls are dropped.
func (t *Task) Close() {
	t.closed.Store(true)
}

// Closed reports whether Close has been called.
func (t *Task) Closed() bool {
	return t.closed.Load()
}

// Deliver schedules f via the owning reactor's call_soon, per spec.md
// §5's "callbacks never fire synchronously" policy, unless the task
// has been closed. A Task built with a nil reactor runs f inline,
// inside the Deliver call.
func (t *Task) Deliver(f func()) {
	if t.closed.Load() {
		return
	}
	wrapped := func() {
		if t.closed.Load() {
			return
		}
		f()
	}
	if t.reactor != nil {
		t.reactor.CallSoon(wrapped)
		return
	}
	wrapped()
}

// Callback is the (value, errback) pair every async stage delivers
// exactly once, per spec.md §4.9 policy (a): "callers either inspect
// the error or propagate it; never both silently succeed and carry an
// error."
type Callback[T any] func(value T, err *errs.Error)

// DeliverResult calls cb with value and err once, scheduled through
// task's reactor; if the task is closed first, cb is not called. Declared as a free function, not a method,
// because Go methods cannot carry their own type parameters.
func DeliverResult[T any](task *Task, cb Callback[T], value T, err *errs.Error) {
	task.Deliver(func() { cb(value, err) })
}
