// Package collector implements the report-upload client described in
// SPEC_FULL.md §6.8 (spec.md §4.8, C8): open-report, submit-measurement,
// close-report over JSON-over-HTTPS.
//
// Grounded on the teacher's internal/probeservices.Client
// OpenReport/SubmitMeasurement trio (collector.go), adapted from its
// httpclientx.PostJSON generic helper to plain net/http +
// encoding/json, and from github.com/pkg/errors for contextual
// wrapping at the I/O boundary before classification into
// errs.HttpRequestFailedError.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/measurement"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/pkg/errors"
)

// DefaultBaseURL points at a testing collector so routine runs do not
// pollute production report storage, per spec.md §4.8.
const DefaultBaseURL = "https://ams-pg-test.ooni.org"

// Client is a collector API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     model.Logger
	UserAgent  string
}

// NewClient builds a Client, defaulting BaseURL to DefaultBaseURL and
// HTTPClient to a client with a sane per-request timeout.
func NewClient(baseURL string, logger model.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     model.ValidLoggerOrDefault(logger),
		UserAgent:  "libight/0.1.0",
	}
}

type openReportRequest struct {
	DataFormatVersion string `json:"data_format_version"`
	Format            string `json:"format"`
	ProbeASN          string `json:"probe_asn"`
	ProbeCC           string `json:"probe_cc"`
	SoftwareName      string `json:"software_name"`
	SoftwareVersion   string `json:"software_version"`
	TestName          string `json:"test_name"`
	TestStartTime     string `json:"test_start_time"`
	TestVersion       string `json:"test_version"`
}

type openReportResponse struct {
	ReportID         string   `json:"report_id"`
	SupportedFormats []string `json:"supported_formats"`
}

// OpenReport opens a report and returns its report_id, per
// spec.md §4.8.
func (c *Client) OpenReport(ctx context.Context, testName, testVersion, testStartTime, probeASN, probeCC string) (string, *errs.Error) {
	req := &openReportRequest{
		DataFormatVersion: "0.2.0",
		Format:            "json",
		ProbeASN:          probeASN,
		ProbeCC:           probeCC,
		SoftwareName:      "libight",
		SoftwareVersion:   "0.1.0",
		TestName:          testName,
		TestStartTime:     testStartTime,
		TestVersion:       testVersion,
	}
	var resp openReportResponse
	if err := c.postJSON(ctx, "/report", req, &resp); err != nil {
		return "", err
	}
	return resp.ReportID, nil
}

type updateRequest struct {
	Format  string      `json:"format"`
	Content interface{} `json:"content"`
}

// SubmitMeasurement appends entry to the report reportID, per
// spec.md §4.8.
func (c *Client) SubmitMeasurement(ctx context.Context, reportID string, entry interface{}) *errs.Error {
	req := &updateRequest{Format: "json", Content: entry}
	return c.postJSON(ctx, "/report/"+reportID, req, nil)
}

// CloseReport closes the report, per spec.md §4.8.
func (c *Client) CloseReport(ctx context.Context, reportID string) *errs.Error {
	return c.postJSON(ctx, "/report/"+reportID+"/close", struct{}{}, nil)
}

// SubmitReport implements measurement.Submitter: read every saved entry
// from path, open a report against the first entry's metadata, submit
// each entry, then close. This is the SPEC_FULL.md §6.7 hand-off point
// from the runner's End().
func (c *Client) SubmitReport(path string) error {
	entries, err := measurement.ReadEntries(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	ctx := context.Background()
	first := entries[0]
	reportID, oerr := c.OpenReport(ctx, first.TestName, first.TestVersion, first.TestStartTime, first.ProbeASN, first.ProbeCC)
	if oerr != nil {
		return oerr
	}
	for _, e := range entries {
		if serr := c.SubmitMeasurement(ctx, reportID, e); serr != nil {
			return serr
		}
	}
	if cerr := c.CloseReport(ctx, reportID); cerr != nil {
		return cerr
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) *errs.Error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errs.JSONParse(err.Error())
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return errs.HttpRequestFailed(0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		wrapped := errors.Wrap(err, "collector request failed")
		c.Logger.Debugf("collector: %+v", wrapped)
		return errs.HttpRequestFailed(0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := errs.HttpRequestFailed(resp.StatusCode)
		e.Reason = "http status " + strconv.Itoa(resp.StatusCode)
		return e
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.JSONParse(err.Error())
		}
	}
	return nil
}
