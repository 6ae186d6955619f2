package captiveportal

import (
	"testing"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
)

func TestMainWithUnreachableEndpointsReportsFailures(t *testing.T) {
	test := &Test{Config: &connect.Config{DialTimeout: 0}}
	var got map[string]interface{}
	settings := model.Settings{"net/timeout": "0.2"}
	if err := test.Main("", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if _, ok := got["captive_portal_detected"]; !ok {
		t.Fatal("expected captive_portal_detected key")
	}
	if got["google_captive"] != false {
		t.Fatalf("a failed probe should not be reported as captive, got %v", got["google_captive"])
	}
	if failure, _ := got["google_failure"].(string); failure == "" {
		t.Fatalf("expected a google_failure entry, got %v", got)
	}
}

func TestNameVersion(t *testing.T) {
	test := &Test{}
	if test.Name() != "captive_portal" {
		t.Fatalf("unexpected name %q", test.Name())
	}
	if test.Version() != "0.1.0" {
		t.Fatalf("unexpected version %q", test.Version())
	}
}
