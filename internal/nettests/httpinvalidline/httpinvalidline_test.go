package httpinvalidline

import (
	"net"
	"testing"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
)

func echoServer(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				n, err := conn.Read(buf)
				if err != nil {
					return
				}
				conn.Write(buf[:n])
			}()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestMainDetectsNoTampering(t *testing.T) {
	addr := echoServer(t)
	test := &Test{Config: &connect.Config{DialTimeout: 2 * time.Second}}
	var got map[string]interface{}
	settings := model.Settings{"http_invalid_request_line/backend": addr}
	if err := test.Main("", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["tampering"] != false {
		t.Fatalf("expected no tampering against a pure echo server, got %v", got)
	}
}

func TestNeedsInputFalse(t *testing.T) {
	test := &Test{}
	if test.NeedsInput() {
		t.Fatal("http_invalid_request_line does not need input")
	}
}
