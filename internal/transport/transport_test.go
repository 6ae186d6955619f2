package transport

import (
	"net"
	"testing"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
)

func pipeTransport(t *testing.T) (*Transport, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	tr := New(nil, client)
	t.Cleanup(func() { server.Close() })
	return tr, server
}

func TestOnDataDeliversWrittenBytes(t *testing.T) {
	tr, server := pipeTransport(t)
	got := make(chan []byte, 1)
	tr.OnData(func(b []byte) { got <- b })

	go server.Write([]byte("hello"))

	select {
	case b := <-got:
		if string(b) != "hello" {
			t.Fatalf("got %q, want %q", b, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for on_data")
	}
}

func TestOnFlushFiresAfterWrite(t *testing.T) {
	tr, server := pipeTransport(t)
	flushed := make(chan struct{}, 1)
	tr.OnFlush(func() { flushed <- struct{}{} })

	go func() {
		buf := make([]byte, 16)
		server.Read(buf)
	}()
	tr.Write([]byte("hi"))

	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for on_flush")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	tr, server := pipeTransport(t)
	server.Close()

	done := make(chan struct{})
	tr.Close(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close callback never fired")
	}

	done2 := make(chan struct{})
	tr.Close(func() { close(done2) })
	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("second Close callback never fired")
	}
}

func TestSetTimeoutFiresWhenIdle(t *testing.T) {
	tr, _ := pipeTransport(t)
	fired := make(chan *errs.Error, 1)
	tr.OnError(func(e *errs.Error) { fired <- e })
	tr.SetTimeout(30 * time.Millisecond)

	select {
	case e := <-fired:
		if e.Code != errs.TimeoutError {
			t.Fatalf("got code %v, want TimeoutError", e.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timeout error")
	}
}

func TestClearTimeoutPreventsFiring(t *testing.T) {
	tr, _ := pipeTransport(t)
	fired := make(chan struct{}, 1)
	tr.OnError(func(e *errs.Error) { fired <- struct{}{} })
	tr.SetTimeout(30 * time.Millisecond)
	tr.ClearTimeout()

	select {
	case <-fired:
		t.Fatal("timeout fired despite ClearTimeout")
	case <-time.After(80 * time.Millisecond):
	}
}
