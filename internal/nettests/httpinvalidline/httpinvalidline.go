// Package httpinvalidline implements the http_invalid_request_line
// measurement test named in SPEC_FULL.md §6.10 (spec.md §1, C10),
// restored from original_source/src/ooni's "invalid HTTP request line"
// probe: open a raw TCP connection to a backend that is known to echo
// whatever it receives, send a deliberately malformed request line,
// and compare the echoed bytes against what was sent. A middlebox that
// rewrites, truncates, or otherwise tampers with the malformed line on
// its way to (or from) the echo backend reveals itself by returning
// something other than an exact echo.
//
// Grounded on the teacher's nettests/http_invalid_request_line.go
// test_keys contract ("tampering" boolean), reimplemented here against
// this design's own transport/connect layers (C4/C5) rather than the
// teacher's MK-CLI experiment-builder indirection, since that
// indirection has no counterpart in this design.
package httpinvalidline

import (
	"bytes"
	"context"
	"math/rand"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
)

// DefaultBackend is the echo service used when settings don't name
// one, grounded on the original probe's well-known bouncing backend
// convention (host:port of a server that echoes raw bytes back).
const DefaultBackend = "example.org:80"

// invalidLines are malformed request lines drawn from the original
// implementation's fuzz corpus: a mix of truncated methods, stray
// control bytes, and an oversized method token.
var invalidLines = []string{
	"\x16\x03\x01\x00\xa5\x01\x00\x00",
	"GET\x00/ HTTP/1.1\r\n",
	"GET / HTTP/1.1\x00\r\n",
	"OPTIONS * HTTPS/1.1\r\n",
	string(bytes.Repeat([]byte("A"), 512)) + " / HTTP/1.1\r\n",
}

// Test implements measurement.Test for http_invalid_request_line.
type Test struct {
	Config *connect.Config
}

func (t *Test) Name() string     { return "http_invalid_request_line" }
func (t *Test) Version() string  { return "0.1.1" }
func (t *Test) NeedsInput() bool { return false }

// Main sends a randomly chosen malformed request line to the backend
// and emits {"sent": string, "received": string, "tampering": bool}.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	backend := settings.String("http_invalid_request_line/backend", DefaultBackend)
	line := invalidLines[rand.Intn(len(invalidLines))]

	ctx, cancel := context.WithTimeout(context.Background(), settings.Duration("net/timeout", 10*time.Second))
	defer cancel()

	cfg := *t.Config
	result, cerr := connect.Connect(ctx, &cfg, backend)
	if cerr != nil {
		emit(map[string]interface{}{
			"sent":      line,
			"failure":   cerr.OONIFailure,
			"tampering": false,
		})
		return nil
	}
	tr := result.Transport
	defer tr.Close(nil)

	received := make(chan []byte, 1)
	tr.OnData(func(b []byte) {
		select {
		case received <- append([]byte{}, b...):
		default:
		}
	})
	tr.Write([]byte(line))

	select {
	case got := <-received:
		emit(map[string]interface{}{
			"sent":      line,
			"received":  string(got),
			"tampering": !bytes.Equal(got, []byte(line)),
		})
	case <-ctx.Done():
		emit(map[string]interface{}{
			"sent":      line,
			"failure":   "generic_timeout_error",
			"tampering": false,
		})
	}
	return nil
}
