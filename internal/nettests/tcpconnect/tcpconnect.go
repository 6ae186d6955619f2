// Package tcpconnect implements the tcp_connect measurement test named
// in SPEC_FULL.md §6.10/§2 (spec.md §1, C10): for each input
// "host:port", attempt a TCP connection through the connect pipeline
// (C5) and record whether it succeeded, how long it took, and the
// failure taxonomy when it did not.
//
// Grounded on the teacher's internal/tcpping/tcpping.go (TCP-connect
// measurement shape: one address per input line, test_keys carrying a
// "failure" field) adapted to this design's explicit connect.Config
// rather than *net.Dialer directly. Main builds that Config from the
// Test's Reactor, Resolver and Logger plus settings["net/timeout"]
// only; SOCKS5 and TLS options are not applied.
package tcpconnect

import (
	"context"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/reactor"
	"github.com/TheTorProject/libight/internal/resolver"
)

// Test implements measurement.Test for tcp_connect.
type Test struct {
	Reactor  *reactor.Reactor
	Resolver resolver.Backend
	Logger   model.Logger
}

func (t *Test) Name() string       { return "tcp_connect" }
func (t *Test) Version() string    { return "0.2.0" }
func (t *Test) NeedsInput() bool   { return true }

// Main dials input ("host:port") and emits the tcp_connect test_keys
// shape: {"success": bool, "failure": string|nil, "connect_time": float}.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	cfg := &connect.Config{
		Reactor:     t.Reactor,
		Resolver:    t.Resolver,
		Logger:      t.Logger,
		DialTimeout: settings.Duration("net/timeout", 10*time.Second),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+5*time.Second)
	defer cancel()

	started := time.Now()
	result, cerr := connect.Connect(ctx, cfg, input)
	elapsed := time.Since(started).Seconds()

	if cerr != nil {
		emit(map[string]interface{}{
			"success":      false,
			"failure":      cerr.OONIFailure,
			"connect_time": elapsed,
		})
		return nil
	}
	result.Transport.Close(nil)
	emit(map[string]interface{}{
		"success":      true,
		"failure":      nil,
		"connect_time": elapsed,
	})
	return nil
}
