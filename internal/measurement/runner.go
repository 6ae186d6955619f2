package measurement

import (
	"bufio"
	"os"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/geoip"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/reactor"
)

// Test is the interface a measurement test implements to plug into the
// Runner, per spec.md §4.7 point 3: "call the test's main(input,
// settings, emit)".
type Test interface {
	Name() string
	Version() string
	NeedsInput() bool
	Main(input string, settings model.Settings, emit func(testKeys map[string]interface{})) error
}

// Submitter uploads a finished report, per spec.md §4.7 point 4. It is
// satisfied by internal/collector.Client.
type Submitter interface {
	SubmitReport(path string) error
}

// Runner drives one test invocation end to end: Begin, OpenReport,
// Iterate, End — spec.md §4.7.
type Runner struct {
	Reactor   *reactor.Reactor
	Logger    model.Logger
	Settings  model.Settings
	Collector Submitter

	probeIP  string
	probeASN string
	probeCC  string

	testStartTime time.Time
	reportFile    *os.File
	reportPath    string
}

// Begin captures the test_start_time and performs best-effort GeoIP
// lookup, per spec.md §4.7 point 1.
func (r *Runner) Begin() {
	r.testStartTime = time.Now().UTC()
	r.probeIP = geoip.DefaultProbeIP
	r.probeASN = geoip.DefaultProbeASN
	r.probeCC = geoip.DefaultProbeCC

	if r.Settings == nil {
		return
	}
	ip := r.Settings.String("probe_ip", "")
	if ip == "" {
		return // resolver-IP lookup is external; nothing to look up from
	}
	r.probeIP = ip
	if asnPath := r.Settings.String("geoip_asn_path", ""); asnPath != "" {
		r.probeASN = geoip.LookupASN(asnPath, ip)
	}
	if ccPath := r.Settings.String("geoip_country_path", ""); ccPath != "" {
		r.probeCC = geoip.LookupCC(ccPath, ip)
	}
}

// OpenReport derives the report filename and creates the file, per
// spec.md §4.7 point 2.
func (r *Runner) OpenReport(testName string) error {
	dir := ""
	if r.Settings != nil {
		dir = r.Settings.String("report_dir", "")
	}
	f, path, err := OpenReportFile(dir, testName, r.testStartTime)
	if err != nil {
		return err
	}
	r.reportFile = f
	r.reportPath = path
	return nil
}

// Iterate runs test across every input, per spec.md §4.7 point 3: a
// single empty input when the test does not need_input, otherwise the
// lines of Settings["input_filepath"]. entryDone, if non-nil, is called
// after each entry is appended.
func (r *Runner) Iterate(test Test, entryDone func(*Entry)) *errs.Error {
	inputs, ierr := r.inputs(test)
	if ierr != nil {
		return ierr
	}
	for _, input := range inputs {
		entry := r.runOne(test, input)
		if err := AppendEntry(r.reportFile, entry); err != nil {
			return errs.FileIo(err.Error())
		}
		if entryDone != nil {
			entryDone(entry)
		}
		if r.Reactor != nil {
			done := make(chan struct{})
			r.Reactor.CallSoon(func() { close(done) })
			<-done
		}
	}
	return nil
}

func (r *Runner) inputs(test Test) ([]string, *errs.Error) {
	if !test.NeedsInput() {
		return []string{""}, nil
	}
	path := r.Settings.String("input_filepath", "")
	if path == "" {
		return nil, errs.MissingRequiredInputFile()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.CannotOpenInputFile(err.Error())
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *Runner) runOne(test Test, input string) *Entry {
	start := time.Now().UTC()
	testKeys := map[string]interface{}{}
	err := test.Main(input, r.Settings, func(tk map[string]interface{}) {
		for k, v := range tk {
			testKeys[k] = v
		}
	})
	if err != nil {
		if cerr, ok := err.(*errs.Error); ok {
			testKeys["failure"] = cerr.OONIFailure
		} else {
			testKeys["failure"] = err.Error()
		}
	}
	return &Entry{
		TestName:             test.Name(),
		TestVersion:          test.Version(),
		TestStartTime:        r.testStartTime.Format(isoLayout),
		ProbeIP:              r.probeIP,
		ProbeASN:             r.probeASN,
		ProbeCC:              r.probeCC,
		Input:                input,
		MeasurementStartTime: start.Format(isoLayout),
		TestRuntime:          time.Since(start).Seconds(),
		TestKeys:             testKeys,
	}
}

// End closes the report file and submits it to the collector, per
// spec.md §4.7 point 4.
func (r *Runner) End() error {
	if r.reportFile == nil {
		return nil
	}
	if err := r.reportFile.Close(); err != nil {
		return err
	}
	if r.Collector != nil {
		return r.Collector.SubmitReport(r.reportPath)
	}
	return nil
}
