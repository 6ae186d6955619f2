package measurement

import (
	"testing"
	"time"

	"github.com/TheTorProject/libight/internal/model"
)

type fakeTest struct {
	needsInput bool
	calls      []string
}

func (f *fakeTest) Name() string        { return "fake_test" }
func (f *fakeTest) Version() string     { return "0.1.0" }
func (f *fakeTest) NeedsInput() bool    { return f.needsInput }
func (f *fakeTest) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	f.calls = append(f.calls, input)
	emit(map[string]interface{}{"input_seen": input})
	return nil
}

func TestRunnerIterateSingleEmptyInput(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Settings: model.Settings{"report_dir": dir}}
	r.Begin()
	if err := r.OpenReport("fake_test"); err != nil {
		t.Fatalf("OpenReport failed: %v", err)
	}
	test := &fakeTest{}
	var entries []*Entry
	if err := r.Iterate(test, func(e *Entry) { entries = append(entries, e) }); err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if len(test.calls) != 1 || test.calls[0] != "" {
		t.Fatalf("expected one empty-input call, got %v", test.calls)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	saved, err := ReadEntries(r.reportPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(saved) != 1 || saved[0].TestName != "fake_test" {
		t.Fatalf("unexpected saved entries: %+v", saved)
	}
}

func TestRunnerNeedsInputMissingFile(t *testing.T) {
	r := &Runner{Settings: model.Settings{"report_dir": t.TempDir()}}
	r.Begin()
	if err := r.OpenReport("fake_test"); err != nil {
		t.Fatalf("OpenReport failed: %v", err)
	}
	test := &fakeTest{needsInput: true}
	err := r.Iterate(test, nil)
	if err == nil {
		t.Fatal("expected MissingRequiredInputFileError")
	}
}

func TestOpenReportFileDerivesUniqueName(t *testing.T) {
	dir := t.TempDir()
	start, err := time.Parse(isoLayout, "2026-08-06T120000Z")
	if err != nil {
		t.Fatalf("time.Parse failed: %v", err)
	}
	f1, path1, err := OpenReportFile(dir, "fake_test", start)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	f1.Close()
	f2, path2, err := OpenReportFile(dir, "fake_test", start)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	f2.Close()
	if path1 == path2 {
		t.Fatalf("expected distinct paths, got %q twice", path1)
	}
}

