package meek

import (
	"testing"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
)

func TestParseInputCommaSeparated(t *testing.T) {
	front, real, err := parseInput("cdn.example.com,hidden.example.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if front != "cdn.example.com" || real != "hidden.example.org" {
		t.Fatalf("got front=%q real=%q", front, real)
	}
}

func TestParseInputSpaceSeparated(t *testing.T) {
	front, real, err := parseInput("cdn.example.com hidden.example.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if front != "cdn.example.com" || real != "hidden.example.org" {
		t.Fatalf("got front=%q real=%q", front, real)
	}
}

func TestParseInputInvalid(t *testing.T) {
	if _, _, err := parseInput("not-a-valid-line"); err == nil {
		t.Fatal("expected an error for a line with no separator")
	}
}

func TestMainWithUnreachableFrontReportsFailure(t *testing.T) {
	test := &Test{Config: &connect.Config{}}
	var got map[string]interface{}
	settings := model.Settings{"net/timeout": "0.2"}
	if err := test.Main("front.invalid,real.invalid", settings, func(tk map[string]interface{}) { got = tk }); err != nil {
		t.Fatalf("Main returned error: %v", err)
	}
	if got["success"] != false {
		t.Fatalf("expected success=false, got %v", got)
	}
}
