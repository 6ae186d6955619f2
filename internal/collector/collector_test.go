package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenReportSubmitClose(t *testing.T) {
	var gotReportPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/report" && r.Method == http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openReportResponse{ReportID: "20260806T120000Z_fake_test", SupportedFormats: []string{"json"}})
		case r.Method == http.MethodPost:
			gotReportPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	ctx := context.Background()
	reportID, err := c.OpenReport(ctx, "fake_test", "0.1.0", "2026-08-06T120000Z", "AS0", "ZZ")
	if err != nil {
		t.Fatalf("OpenReport failed: %v", err)
	}
	if reportID == "" {
		t.Fatal("expected non-empty report id")
	}
	if err := c.SubmitMeasurement(ctx, reportID, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("SubmitMeasurement failed: %v", err)
	}
	if gotReportPath == "" {
		t.Fatal("expected collector to receive a submit request")
	}
	if err := c.CloseReport(ctx, reportID); err != nil {
		t.Fatalf("CloseReport failed: %v", err)
	}
}

func TestOpenReportFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.OpenReport(context.Background(), "fake_test", "0.1.0", "2026-08-06T120000Z", "AS0", "ZZ")
	if err == nil {
		t.Fatal("expected HttpRequestFailedError")
	}
}
