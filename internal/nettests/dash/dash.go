// Package dash implements the dash measurement test named in
// SPEC_FULL.md §6.10 (spec.md §1, C10): download a fixed number of
// simulated DASH video chunks of increasing size against an HTTP(S)
// negotiate/download server and summarize the per-chunk throughput.
// The adaptive bitrate *algorithm* itself is explicitly out of scope
// (SPEC_FULL.md §1 Non-goals carry spec.md's); this package only
// implements the composition that drives one download per iteration
// and reports the resulting rate distribution.
//
// Grounded on the teacher's internal/experiment/dash/download.go (one
// GET per iteration, requested byte count derived from a target
// bitrate, elapsed time measured from just before the request), with
// the negotiate/collect machinery collapsed into a single fixed-rate
// loop since the rate-adaptation state this design deliberately
// excludes is what the teacher's negotiate step exists to drive.
package dash

import (
	"context"
	"fmt"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/httpengine"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/montanaflynn/stats"
)

// DefaultFQDN mirrors the teacher's m-lab DASH endpoint convention.
const DefaultFQDN = "neubot.mlab-oti.measurementlab.net"

const downloadPath = "/dash/download/"

// numIterations and elapsedTarget are grounded on the teacher's
// defaultNumIterations/elapsedTarget constants in
// internal/experiment/dash/measurer.go.
const (
	numIterations = 15
	elapsedTarget = 2 // seconds
)

// chunkRates are the candidate bitrates (kbit/s), grounded on the
// teacher's rates table; since this design does not implement rate
// adaptation, every iteration walks this same fixed ladder.
var chunkRates = []int64{100, 400, 700, 1500, 2000, 3000}

// Test implements measurement.Test for dash.
type Test struct {
	Config *connect.Config
}

func (t *Test) Name() string     { return "dash" }
func (t *Test) Version() string  { return "0.1.0" }
func (t *Test) NeedsInput() bool { return false }

type chunkResult struct {
	Elapsed  float64 `json:"elapsed"`
	Received int64   `json:"received"`
	Rate     int64   `json:"requested_rate"`
}

// Main runs numIterations download chunks against fqdn and emits a
// receiver_data array plus simple summary statistics computed with
// montanaflynn/stats, grounded on the teacher's Simple{ConnectLatency,
// MedianBitrate, MinPlayoutDelay} summary shape.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	fqdn := settings.String("dash/fqdn", DefaultFQDN)
	begin := time.Now()

	var results []chunkResult
	var achievedRates []float64
	for i := 0; i < numIterations; i++ {
		rate := chunkRates[i%len(chunkRates)]
		ctx, cancel := context.WithTimeout(context.Background(), settings.Duration("net/timeout", 30*time.Second))
		result, err := t.downloadChunk(ctx, settings, fqdn, rate)
		cancel()
		if err != nil {
			continue
		}
		results = append(results, result)
		if result.Elapsed > 0 {
			achievedRates = append(achievedRates, float64(result.Received*8)/result.Elapsed/1000)
		}
	}

	median, merr := stats.Median(achievedRates)
	if merr != nil {
		median = 0
	}
	keys := map[string]interface{}{
		"receiver_data": results,
		"simple": map[string]interface{}{
			"median_bitrate": int64(median),
		},
		"server": map[string]interface{}{"hostname": fqdn},
		"begin":  begin.Unix(),
	}
	emit(keys)
	return nil
}

func (t *Test) downloadChunk(ctx context.Context, settings model.Settings, fqdn string, rate int64) (chunkResult, error) {
	nbytes := (rate * 1000 * elapsedTarget) >> 3
	rawURL := fmt.Sprintf("https://%s%s%d", fqdn, downloadPath, nbytes)
	url, uerr := httpengine.ParseUrl(rawURL)
	if uerr != nil {
		return chunkResult{}, uerr
	}

	req := &httpengine.Request{Method: "GET", URL: url, Protocol: "HTTP/1.1", Headers: httpengine.NewHeader()}
	started := time.Now()
	resp, rerr := httpengine.RequestCycle(ctx, t.Config, settings, req)
	elapsed := time.Since(started).Seconds()
	if rerr != nil {
		return chunkResult{}, rerr
	}
	return chunkResult{Elapsed: elapsed, Received: int64(len(resp.Body)), Rate: rate}, nil
}
