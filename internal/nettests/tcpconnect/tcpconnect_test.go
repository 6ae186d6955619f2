package tcpconnect

import (
	"net"
	"testing"

	"github.com/TheTorProject/libight/internal/model"
)

func TestMainSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	test := &Test{}
	var got map[string]interface{}
	if err := test.Main(ln.Addr().String(), model.Settings{}, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["success"] != true {
		t.Fatalf("expected success=true, got %v", got)
	}
}

func TestMainFailure(t *testing.T) {
	test := &Test{}
	var got map[string]interface{}
	if err := test.Main("127.0.0.1:1", model.Settings{"net/timeout": "1"}, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["success"] != false {
		t.Fatalf("expected success=false, got %v", got)
	}
	if got["failure"] == nil {
		t.Fatal("expected a non-nil failure string")
	}
}

func TestNameVersionNeedsInput(t *testing.T) {
	test := &Test{}
	if test.Name() != "tcp_connect" {
		t.Fatalf("unexpected name %q", test.Name())
	}
	if test.Version() != "0.2.0" {
		t.Fatalf("unexpected version %q", test.Version())
	}
	if !test.NeedsInput() {
		t.Fatal("tcp_connect must need input")
	}
}
