// Package captiveportal implements the captive_portal measurement test
// named in SPEC_FULL.md §6.10 (spec.md §1, C10), restored from
// original_source/src/libmeasurement_kit/nettests/captive_portal.cpp
// (test_name "captive_portal", test_version "0.0.1" there; this
// reimplementation bumps the version since the probe method changed).
// It issues an HTTP GET against a set of well-known captive-portal
// detection endpoints and flags a captive portal whenever the response
// does not match what an unconstrained Internet connection would
// produce (an unexpected status code, an injected redirect, or a body
// that doesn't match the expected empty/fixed content).
package captiveportal

import (
	"context"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/httpengine"
	"github.com/TheTorProject/libight/internal/model"
)

// probe names one detection endpoint and its expected uncaptured
// response, grounded on the well-known vendor connectivity-check
// contracts (Google's generate_204 returns 204 with an empty body;
// Apple's captive.apple.com returns a fixed "Success" body at 200).
type probe struct {
	name           string
	url            string
	expectedStatus int
	expectedBody   string
}

var probes = []probe{
	{"google", "http://connectivitycheck.gstatic.com/generate_204", 204, ""},
	{"apple", "http://captive.apple.com/hotspot-detect.html", 200, "Success"},
}

// Test implements measurement.Test for captive_portal.
type Test struct {
	Config *connect.Config
}

func (t *Test) Name() string     { return "captive_portal" }
func (t *Test) Version() string  { return "0.1.0" }
func (t *Test) NeedsInput() bool { return false }

// Main probes every endpoint and emits {"<name>_captive": bool,
// "<name>_status": int, "captive_portal_detected": bool}.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	ctx, cancel := context.WithTimeout(context.Background(), settings.Duration("net/timeout", 10*time.Second))
	defer cancel()

	keys := map[string]interface{}{}
	anyCaptive := false
	for _, p := range probes {
		captive, status, failure := t.checkProbe(ctx, settings, p)
		keys[p.name+"_captive"] = captive
		keys[p.name+"_status"] = status
		if failure != "" {
			keys[p.name+"_failure"] = failure
		}
		if captive {
			anyCaptive = true
		}
	}
	keys["captive_portal_detected"] = anyCaptive
	emit(keys)
	return nil
}

func (t *Test) checkProbe(ctx context.Context, settings model.Settings, p probe) (captive bool, status int, failure string) {
	url, uerr := httpengine.ParseUrl(p.url)
	if uerr != nil {
		return false, 0, uerr.OONIFailure
	}
	req := &httpengine.Request{Method: "GET", URL: url, Protocol: "HTTP/1.1", Headers: httpengine.NewHeader()}
	resp, rerr := httpengine.RequestCycle(ctx, t.Config, settings, req)
	if rerr != nil {
		return false, 0, rerr.OONIFailure
	}
	if resp.StatusCode != p.expectedStatus {
		return true, resp.StatusCode, ""
	}
	if p.expectedBody != "" && string(resp.Body) != p.expectedBody {
		return true, resp.StatusCode, ""
	}
	return false, resp.StatusCode, ""
}
