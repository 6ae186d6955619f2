// Package reactor implements the single-threaded cooperative scheduler
// described in SPEC_FULL.md §6.1 (spec.md §4.1, C1).
//
// The design goal mirrors how the teacher funnels concurrent producers
// (resolver goroutines, dialer goroutines, I/O pumps) through a single
// consumer rather than letting them touch shared state directly — see
// internal/netxlite's logger/resolver decorator chain, which always
// hands results back through one call path. Here that single consumer
// is a dedicated goroutine draining a channel of closures, which gives
// us the "all callbacks registered on the reactor execute on the
// reactor's own thread" invariant without needing OS thread-affinity
// tricks that don't exist in Go's goroutine model.
package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// Reactor is a single-threaded event loop with timers and readiness
// callbacks. The zero value is not usable; construct with New.
type Reactor struct {
	soon    chan func()
	stopped chan struct{}

	mu      sync.Mutex
	timers  timerHeap
	newTimer chan *timerEntry

	stopOnce sync.Once
	runOnce  sync.Once
}

// New creates a Reactor. Per spec.md's invariant, at most one reactor
// should be running at a time in a given process, but nothing in this
// type enforces that globally — callers own that discipline, exactly as
// the teacher passes an explicit *Session/*Config through call chains
// instead of relying on a package-level default.
func New() *Reactor {
	return &Reactor{
		soon:     make(chan func(), 1024),
		stopped:  make(chan struct{}),
		newTimer: make(chan *timerEntry, 1024),
	}
}

// CallSoon enqueues f to run before the next I/O poll. f never runs
// synchronously from the call that scheduled it.
func (r *Reactor) CallSoon(f func()) {
	select {
	case r.soon <- f:
	case <-r.stopped:
	}
}

// CallLater runs f no earlier than delta seconds from now. Relative
// ordering of two timers with equal deadlines is unspecified but stable
// within a run (ties are broken by insertion order, see timerHeap.Less).
func (r *Reactor) CallLater(delta time.Duration, f func()) {
	entry := &timerEntry{deadline: time.Now().Add(delta), f: f}
	select {
	case r.newTimer <- entry:
	case <-r.stopped:
	}
}

// RunWithInitial calls CallSoon(f) then Run.
func (r *Reactor) RunWithInitial(f func()) {
	r.CallSoon(f)
	r.Run()
}

// Run blocks the calling goroutine, executing scheduled callbacks until
// Stop is called. Run must only be invoked once per Reactor.
func (r *Reactor) Run() {
	r.runOnce.Do(func() {
		r.loop()
	})
}

// Stop unblocks Run. A stop request is honored at the next safe point;
// any timers already due may or may not run.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopped)
	})
}

func (r *Reactor) loop() {
	var seq uint64
	for {
		var timerC <-chan time.Time
		var timer *time.Timer
		if len(r.timers) > 0 {
			d := time.Until(r.timers[0].deadline)
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			timerC = timer.C
		}

		select {
		case <-r.stopped:
			if timer != nil {
				timer.Stop()
			}
			return
		case f := <-r.soon:
			if timer != nil {
				timer.Stop()
			}
			f()
		case entry := <-r.newTimer:
			if timer != nil {
				timer.Stop()
			}
			seq++
			entry.seq = seq
			heap.Push(&r.timers, entry)
		case <-timerC:
			entry := heap.Pop(&r.timers).(*timerEntry)
			entry.f()
		}
	}
}

type timerEntry struct {
	deadline time.Time
	seq      uint64
	f        func()
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
