package ndt

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/TheTorProject/libight/internal/model"
)

func newNDT7Server(t *testing.T, messages int) *httptest.Server {
	upgrader := websocket.Upgrader{Subprotocols: []string{wsSubProtocol}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		payload := make([]byte, 1<<12)
		for i := 0; i < messages; i++ {
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		}
	}))
}

func TestMainDownloadsSamples(t *testing.T) {
	srv := newNDT7Server(t, 200)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	test := &Test{}
	var got map[string]interface{}
	settings := model.Settings{"ndt7/url": wsURL, "ndt7/max_runtime": "1"}
	if err := test.Main("", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["success"] != true {
		t.Fatalf("expected success=true, got %v", got)
	}
	if _, ok := got["download_sample"].([]sample); !ok {
		t.Fatalf("expected download_sample, got %v", got["download_sample"])
	}
}

func TestMainWithUnreachableServerReportsFailure(t *testing.T) {
	test := &Test{}
	var got map[string]interface{}
	settings := model.Settings{"ndt7/url": "ws://127.0.0.1:1", "ndt7/max_runtime": "1"}
	if err := test.Main("", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["success"] != false {
		t.Fatalf("expected success=false, got %v", got)
	}
	if got["failure"] == nil {
		t.Fatal("expected a failure reason")
	}
}

func TestNameVersion(t *testing.T) {
	test := &Test{}
	if test.Name() != "ndt7" {
		t.Fatalf("unexpected name %q", test.Name())
	}
	if test.Version() != "0.1.0" {
		t.Fatalf("unexpected version %q", test.Version())
	}
	if test.NeedsInput() {
		t.Fatal("ndt7 does not need input")
	}
}
