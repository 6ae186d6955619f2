package dash

import (
	"testing"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
)

func TestMainWithUnreachableServerEmitsEmptySummary(t *testing.T) {
	test := &Test{Config: &connect.Config{}}
	var got map[string]interface{}
	settings := model.Settings{"dash/fqdn": "127.0.0.1:1", "net/timeout": "0.2"}
	if err := test.Main("", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected emit to be called")
	}
	simple, ok := got["simple"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected simple summary, got %v", got["simple"])
	}
	if simple["median_bitrate"] != int64(0) {
		t.Fatalf("expected zero median bitrate with no successful chunks, got %v", simple["median_bitrate"])
	}
}

func TestNameVersion(t *testing.T) {
	test := &Test{}
	if test.Name() != "dash" {
		t.Fatalf("unexpected name %q", test.Name())
	}
	if test.Version() != "0.1.0" {
		t.Fatalf("unexpected version %q", test.Version())
	}
	if test.NeedsInput() {
		t.Fatal("dash does not need input")
	}
}
