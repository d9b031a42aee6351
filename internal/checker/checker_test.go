package checker

import (
	"testing"

	"github.com/dl/goasan/internal/arena"
	"github.com/dl/goasan/internal/shadow"
)

type recordingReporter struct {
	calls []report
}

type report struct {
	addr  uintptr
	width int
	dir   Direction
}

func (r *recordingReporter) Report(addr uintptr, width int, dir Direction) {
	r.calls = append(r.calls, report{addr, width, dir})
}

func newTestChecker(t *testing.T) (*Checker, *shadow.Map, uintptr, *recordingReporter) {
	t.Helper()
	a, err := arena.New(4096)
	if err != nil {
		t.Fatalf("arena.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	s, err := shadow.New(a.Base(), a.Size(), shadow.Permissive)
	if err != nil {
		t.Fatalf("shadow.New: %v", err)
	}

	rec := &recordingReporter{}
	return New(s, rec), s, a.Base(), rec
}

func TestCheck_PermissiveByDefaultIsValid(t *testing.T) {
	c, _, base, rec := newTestChecker(t)

	if !c.CheckLoad1(base) {
		t.Fatal("expected valid load on freshly-permissive shadow")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("unexpected reports: %v", rec.calls)
	}
}

func TestCheck_PoisonedByteReportsOnStore(t *testing.T) {
	c, s, base, rec := newTestChecker(t)
	s.Poison(base, 8)

	if c.CheckStore4(base) {
		t.Fatal("expected poisoned store to fail")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("calls = %v, want 1 report", rec.calls)
	}
	got := rec.calls[0]
	if got.addr != base || got.width != 4 || got.dir != Store {
		t.Fatalf("report = %+v, want addr=%#x width=4 dir=Store", got, base)
	}
}

func TestCheck_PartialGranuleBoundary(t *testing.T) {
	c, s, base, _ := newTestChecker(t)
	s.Poison(base, 8)
	s.Unpoison(base, 5) // bytes [0,5) valid, [5,8) poisoned

	for i := uintptr(0); i < 5; i++ {
		if !c.CheckLoad1(base + i) {
			t.Fatalf("byte %d should be valid", i)
		}
	}
	for i := uintptr(5); i < 8; i++ {
		if c.CheckLoad1(base + i) {
			t.Fatalf("byte %d should be poisoned", i)
		}
	}
}

func TestCheck_UnmonitoredAddressAlwaysValid(t *testing.T) {
	c, _, base, rec := newTestChecker(t)

	if !c.CheckLoad8(base + 100000) {
		t.Fatal("expected out-of-range address to be treated as valid")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("unexpected reports: %v", rec.calls)
	}
}

func TestCheck_VariableWidthN(t *testing.T) {
	c, s, base, _ := newTestChecker(t)
	s.Poison(base, 16)
	s.Unpoison(base, 10)

	if !c.CheckLoadN(base, 10) {
		t.Fatal("expected valid load of the whole unpoisoned span")
	}
	if c.CheckStoreN(base+9, 2) {
		t.Fatal("expected poisoned store straddling into the poisoned tail")
	}
}

func TestCheck_ZeroSizeTreatedAsOne(t *testing.T) {
	c, s, base, _ := newTestChecker(t)
	s.Poison(base, 8)

	if c.CheckLoadN(base, 0) {
		t.Fatal("expected zero-size access at a poisoned byte to report poisoned")
	}
}
