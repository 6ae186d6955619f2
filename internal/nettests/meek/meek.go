// Package meek implements the meek_fronted_requests measurement test
// named in SPEC_FULL.md §6.10 (spec.md §1, C10), restored from
// original_source/test/nettests/meek_fronted_requests.cpp (test name
// "meek_fronted_requests", driven by a meek_fronted_requests.txt input
// file of "front,real" pairs — one per line).
//
// Each input line names a CDN front domain (used for the TCP/TLS
// connection and the TLS SNI) and the real hidden service domain (sent
// only in the HTTP Host header once the TLS tunnel is up) — the
// domain-fronting technique meek's fronted mode relies on. Because the
// connect target (front) and the wire Host header (real) must differ,
// this test drives connect.Connect (C5) and httpengine's
// Serialize/ResponseParser (C6) directly rather than RequestCycle,
// which derives both from the same Url.
package meek

import (
	"context"
	"strings"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/httpengine"
	"github.com/TheTorProject/libight/internal/model"
)

// Test implements measurement.Test for meek_fronted_requests.
type Test struct {
	Config *connect.Config
}

func (t *Test) Name() string     { return "meek_fronted_requests" }
func (t *Test) Version() string  { return "0.1.0" }
func (t *Test) NeedsInput() bool { return true }

// Main parses input as "front,real" (or "front real"), connects to
// front with TLS SNI=front, then sends a GET whose wire Host header
// names real.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	front, real, perr := parseInput(input)
	if perr != nil {
		emit(map[string]interface{}{"failure": perr.Error(), "success": false})
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), settings.Duration("net/timeout", 15*time.Second))
	defer cancel()

	cfg := *t.Config
	cfg.TLS = true
	cfg.TLSServerName = front

	result, cerr := connect.Connect(ctx, &cfg, front+":443")
	if cerr != nil {
		emit(map[string]interface{}{"front": front, "real": real, "failure": cerr.OONIFailure, "success": false})
		return nil
	}
	tr := result.Transport
	defer tr.Close(nil)

	url := &httpengine.Url{Schema: "https", Host: real, Port: 443, Path: "/"}
	req := &httpengine.Request{Method: "GET", URL: url, Protocol: "HTTP/1.1", Headers: httpengine.NewHeader()}
	wire, serr := httpengine.Serialize(req, settings)
	if serr != nil {
		emit(map[string]interface{}{"front": front, "real": real, "failure": serr.OONIFailure, "success": false})
		return nil
	}

	parsed := make(chan *httpengine.Response, 1)
	parseErr := make(chan *errs.Error, 1)
	parser := httpengine.NewResponseParser(httpengine.Events{})
	tr.OnData(func(b []byte) {
		if err := parser.Feed(b); err != nil {
			select {
			case parseErr <- err:
			default:
			}
			return
		}
		if parser.Done() {
			select {
			case parsed <- parser.Response():
			default:
			}
		}
	})
	tr.OnError(func(e *errs.Error) {
		if e.Code == errs.EofError {
			if err := parser.FeedEOF(); err == nil {
				select {
				case parsed <- parser.Response():
				default:
				}
				return
			}
		}
		select {
		case parseErr <- e:
		default:
		}
	})
	tr.Write(wire)

	select {
	case resp := <-parsed:
		emit(map[string]interface{}{
			"front":       front,
			"real":        real,
			"status_code": resp.StatusCode,
			"success":     resp.StatusCode > 0 && resp.StatusCode < 500,
		})
	case err := <-parseErr:
		emit(map[string]interface{}{"front": front, "real": real, "failure": err.OONIFailure, "success": false})
	case <-ctx.Done():
		emit(map[string]interface{}{"front": front, "real": real, "failure": "generic_timeout_error", "success": false})
	}
	return nil
}

func parseInput(input string) (front, real string, err error) {
	sep := ","
	if !strings.Contains(input, ",") {
		sep = " "
	}
	parts := strings.SplitN(input, sep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errInvalidInput{input}
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

type errInvalidInput struct{ raw string }

func (e errInvalidInput) Error() string {
	return "invalid meek input, expected \"front,real\": " + e.raw
}
