// Package measurement implements the measurement runner described in
// SPEC_FULL.md §6.7 (spec.md §4.7, C7): GeoIP lookup, report-file
// open/append/close with unique filename derivation, and input
// iteration that yields to the reactor between measurements.
//
// Grounded on the teacher's internal/engine.Experiment (newMeasurement,
// SaveMeasurement, OpenReportContext) and internal/engine/saver.go,
// adapted from its *model.Measurement/ProbeServices client pair to this
// design's ReportEntry/Collector pair.
package measurement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Entry is one report line, per spec.md §3's report-file key list.
type Entry struct {
	TestName             string                 `json:"test_name"`
	TestVersion          string                 `json:"test_version"`
	TestStartTime        string                 `json:"test_start_time"`
	ProbeIP              string                 `json:"probe_ip"`
	ProbeASN             string                 `json:"probe_asn"`
	ProbeCC              string                 `json:"probe_cc"`
	Input                string                 `json:"input,omitempty"`
	MeasurementStartTime string                 `json:"measurement_start_time"`
	TestRuntime          float64                `json:"test_runtime"`
	TestKeys             map[string]interface{} `json:"test_keys"`
}

const isoLayout = "2006-01-02T150405Z"

// OpenReportFile derives a unique "report-<name>-<ISO8601>-<n>.json"
// path under dir and creates it for appending, per spec.md §4.7 point
// 2: n is the lowest integer making the filename unique, found by
// probing os.Stat in a loop.
func OpenReportFile(dir, testName string, start time.Time) (*os.File, string, error) {
	stamp := start.UTC().Format(isoLayout)
	for n := 0; ; n++ {
		name := fmt.Sprintf("report-%s-%s-%d.json", testName, stamp, n)
		path := name
		if dir != "" {
			path = dir + "/" + name
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if err != nil {
				if os.IsExist(err) {
					continue // lost a race with another probe; try the next n
				}
				return nil, "", err
			}
			return f, path, nil
		}
	}
}

// AppendEntry writes one JSONL line for e to f, per spec.md §3.
func AppendEntry(f *os.File, e *Entry) error {
	encoded, err := json.Marshal(e)
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	_, err = f.Write(encoded)
	return err
}

// ReadEntries re-reads every JSON object from the report file at path,
// in insertion order, for round-trip tests (spec.md §8).
func ReadEntries(path string) ([]*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}
