package report

import (
	"os"
	"strings"
	"testing"

	"github.com/dl/goasan/internal/checker"
)

func newDiscardFile(t *testing.T) (*os.File, error) {
	t.Helper()
	return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
}

func TestRecordingReporter_RecordsViolation(t *testing.T) {
	r := &RecordingReporter{}
	r.Report(0x1000, 4, checker.Store)

	v, ok := r.Last()
	if !ok {
		t.Fatal("expected a recorded violation")
	}
	if v.Addr != 0x1000 || v.Width != 4 || v.Dir != checker.Store {
		t.Fatalf("Last() = %+v", v)
	}
}

func TestRecordingReporter_LastEmpty(t *testing.T) {
	r := &RecordingReporter{}
	if _, ok := r.Last(); ok {
		t.Fatal("expected Last() to report false on an empty reporter")
	}
}

func TestTextFormatter_ReportsDetection(t *testing.T) {
	f := NewTextFormatter(false)
	result := ScenarioResult{
		Name:       "S2",
		Violations: []Violation{{Addr: 0x1000, Width: 1, Dir: checker.Store}},
	}

	out := string(f.Format(nil, result))
	if !strings.Contains(out, "S2") || !strings.Contains(out, "detected") {
		t.Fatalf("Format() = %q", out)
	}
}

func TestTextFormatter_ReportsOK(t *testing.T) {
	f := NewTextFormatter(false)
	out := string(f.Format(nil, ScenarioResult{Name: "S1"}))
	if !strings.Contains(out, "S1") || !strings.Contains(out, "ok") {
		t.Fatalf("Format() = %q", out)
	}
}

func TestJSONFormatter_IncludesViolationFields(t *testing.T) {
	f := NewJSONFormatter()
	result := ScenarioResult{
		Name:       "S4",
		Violations: []Violation{{Addr: 0x2000, Width: 1, Dir: checker.Load}},
	}

	out := string(f.Format(nil, result))
	for _, want := range []string{`"name":"S4"`, `"detected":true`, `"addr":"0x2000"`, `"direction":"read"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("Format() = %q, missing %q", out, want)
		}
	}
}

func TestFatalReporter_CallsExitAndDoesNotPanic(t *testing.T) {
	w, err := newDiscardFile(t)
	if err != nil {
		t.Fatalf("newDiscardFile: %v", err)
	}
	defer w.Close()

	fr := NewFatalReporter(w, false, false)
	var exitCode int
	fr.Exit = func(code int) { exitCode = code }

	fr.Report(0x4000, 1, checker.Load)

	if exitCode != 1 {
		t.Fatalf("exitCode = %d, want 1", exitCode)
	}
}
