// Package transport implements the bidirectional Transport abstraction
// described in SPEC_FULL.md §6.4 (spec.md §4.4, C4): a net.Conn wrapped
// with an explicit lifecycle state machine and five callback slots,
// with all callback delivery centralized through a reactor so the
// "no callback fires after Close" and "at most one on_error/on_close"
// invariants (spec.md §8) hold by construction.
//
// Grounded on the teacher's decorator chain in internal/netxlite
// (dialerLogger, resolverLogger, …) which always routes results through
// one call path rather than letting multiple goroutines touch shared
// connection state directly.
package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/TheTorProject/libight/internal/buffer"
	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/reactor"
)

// State is the Transport lifecycle state, per spec.md §3.
type State int

const (
	Fresh State = iota
	Connecting
	Connected
	HalfClosed
	Closed
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case HalfClosed:
		return "half-closed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// EOF is the distinguished error meaning orderly peer close
// (spec.md §4.4's EofError); tests treat it as normal termination for
// body-ends-at-EOF HTTP responses.
var EOF = errs.EOF()

// Transport is a bidirectional byte stream produced by the connect
// pipeline (C5).
type Transport struct {
	conn        net.Conn
	r           *reactor.Reactor
	mu          sync.Mutex
	state       State
	closed      bool
	queueClosed bool

	onConnect func()
	onData    func([]byte)
	onFlush   func()
	onError   func(*errs.Error)
	onClose   func()

	writeQueue chan []byte
	writeDone  chan struct{}

	timeout   time.Duration
	timer     *time.Timer
	timerMu   sync.Mutex

	errorFired bool
	closeFired bool
}

// New wraps conn, owned by reactor r. The transport starts in the
// Connected state since conn is assumed already established; the
// connect pipeline (C5) is responsible for the Fresh/Connecting phase.
func New(r *reactor.Reactor, conn net.Conn) *Transport {
	t := &Transport{
		conn:       conn,
		r:          r,
		state:      Connected,
		writeQueue: make(chan []byte, 64),
		writeDone:  make(chan struct{}),
	}
	go t.readPump()
	go t.writePump()
	return t
}

// OnConnect, OnData, OnFlush, OnError, OnClose register callbacks. Per
// spec.md §4.4 these must be set before use is the caller's
// responsibility; setting them is not itself synchronized against
// concurrent delivery because all delivery happens via the reactor's
// single goroutine, where these setters are also expected to run.
func (t *Transport) OnConnect(f func())      { t.onConnect = f }
func (t *Transport) OnData(f func([]byte))   { t.onData = f }
func (t *Transport) OnFlush(f func())        { t.onFlush = f }
func (t *Transport) OnError(f func(*errs.Error)) { t.onError = f }
func (t *Transport) OnClose(f func())        { t.onClose = f }

// FireConnect notifies on_connect. Called by the connect pipeline (C5)
// once dial/SOCKS5/TLS negotiation has finished and the Transport is
// handed to the caller.
func (t *Transport) FireConnect() {
	t.deliver(func() {
		if t.onConnect != nil && !t.isClosed() {
			t.onConnect()
		}
	})
}

// State returns the current lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Write enqueues data to be sent. OnFlush fires once the write queue
// has drained after this call (and any prior queued writes).
func (t *Transport) Write(data []byte) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return
	}
	select {
	case t.writeQueue <- data:
	default:
		// Queue full: block the caller's goroutine rather than drop
		// data, matching "writes are queued and drained in order".
		t.writeQueue <- data
	}
}

func (t *Transport) writePump() {
	defer close(t.writeDone)
	for data := range t.writeQueue {
		if t.isClosed() {
			return
		}
		if _, err := t.conn.Write(data); err != nil {
			t.fail(errs.ClassifyGeneric(err))
			return
		}
		t.rearmTimeout()
		if len(t.writeQueue) == 0 {
			t.deliver(func() {
				if t.onFlush != nil && !t.isClosed() {
					t.onFlush()
				}
			})
		}
	}
}

func (t *Transport) readPump() {
	buf := make([]byte, 64*1024)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if isEOF(err) {
				t.fail(EOF)
			} else {
				t.fail(errs.ClassifyGeneric(err))
			}
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		t.rearmTimeout()
		t.deliver(func() {
			if t.onData != nil && !t.isClosed() {
				t.onData(chunk)
			}
		})
	}
}

func isEOF(err error) bool {
	return errors.Is(err, net.ErrClosed) == false && err.Error() == "EOF"
}

// deliver hands f to the reactor if one is attached, else runs it
// inline. Centralizing delivery through the reactor is what gives us
// the ordering invariants of spec.md §5 ("on_data chunks are delivered
// in arrival order; on_flush never interleaves with on_data").
func (t *Transport) deliver(f func()) {
	if t.r != nil {
		t.r.CallSoon(f)
		return
	}
	f()
}

func (t *Transport) fail(e *errs.Error) {
	t.mu.Lock()
	if t.closed || t.errorFired {
		t.mu.Unlock()
		return
	}
	t.errorFired = true
	t.state = Closed
	t.mu.Unlock()
	t.deliver(func() {
		if t.onError != nil {
			t.onError(e)
		}
	})
	t.shutdown()
}

// Close closes the transport. Idempotent; always ultimately invokes cb
// via CallSoon (inline when no reactor is attached), even on repeated
// calls, per spec.md §4.4.
func (t *Transport) Close(cb func()) {
	t.mu.Lock()
	already := t.closed
	t.closed = true
	t.state = Closed
	t.mu.Unlock()
	if !already {
		t.shutdown()
	}
	t.deliver(func() {
		if cb != nil {
			cb()
		}
		t.mu.Lock()
		fireClose := !t.closeFired
		t.closeFired = true
		t.mu.Unlock()
		if fireClose && t.onClose != nil {
			t.onClose()
		}
	})
}

func (t *Transport) shutdown() {
	t.ClearTimeout()
	t.conn.Close()
	t.closeWriteQueueOnce()
}

func (t *Transport) closeWriteQueueOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.queueClosed {
		t.queueClosed = true
		close(t.writeQueue)
	}
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// SetTimeout schedules a one-shot TimeoutError if neither a read
// completion nor a flush occurs within delta.
func (t *Transport) SetTimeout(delta time.Duration) {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	t.timeout = delta
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delta, func() {
		t.fail(errs.Timeout())
	})
}

// ClearTimeout disables the per-transport timeout.
func (t *Transport) ClearTimeout() {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	t.timeout = 0
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Transport) rearmTimeout() {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	if t.timeout <= 0 || t.timer == nil {
		return
	}
	t.timer.Reset(t.timeout)
}

// Underlying returns the wrapped net.Conn, used by the connect pipeline
// when layering SOCKS5/TLS stages before handing a finished Transport
// to callers.
func (t *Transport) Underlying() net.Conn {
	return t.conn
}

// bridgeRead is used by higher layers (httpengine) that want to feed a
// buffer.Buffer directly from OnData without re-implementing the
// chunk-copy dance.
func bridgeRead(buf *buffer.Buffer, chunk []byte) {
	buf.Append(chunk)
}
