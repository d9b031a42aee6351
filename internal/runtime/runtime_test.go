package runtime

import (
	"testing"

	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/report"
)

func newTestRuntime(t *testing.T, cfg config.Config) (*Runtime, *report.RecordingReporter) {
	t.Helper()
	rec := &report.RecordingReporter{}
	rt, err := New(cfg, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt, rec
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AppSize = 4096
	cfg.RedZoneBorder = 16
	cfg.QuarantineCapacity = 3
	return cfg
}

// S1 — in-bounds access: no report expected.
func TestScenario_S1_InBoundsAccess(t *testing.T) {
	rt, rec := newTestRuntime(t, testConfig())

	p, err := rt.Malloc(16)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	if !rt.CheckStore1(p) || !rt.CheckStore1(p+15) {
		t.Fatal("expected both boundary stores to be valid")
	}
	if len(rec.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", rec.Violations)
	}
}

// S2 — right overflow: store at p[16] after a 16-byte allocation reports.
func TestScenario_S2_RightOverflow(t *testing.T) {
	rt, rec := newTestRuntime(t, testConfig())

	p, err := rt.Malloc(16)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	if rt.CheckStore1(p + 16) {
		t.Fatal("expected right-overflow store to report")
	}
	if len(rec.Violations) != 1 {
		t.Fatalf("violations = %+v, want 1", rec.Violations)
	}
	v := rec.Violations[0]
	if v.Addr != p+16 || v.Width != 1 {
		t.Fatalf("violation = %+v, want addr=%#x width=1", v, p+16)
	}
}

// S3 — left underflow: store at p-1 reports.
func TestScenario_S3_LeftUnderflow(t *testing.T) {
	rt, rec := newTestRuntime(t, testConfig())

	p, err := rt.Malloc(16)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	if rt.CheckStore1(p - 1) {
		t.Fatal("expected left-underflow store to report")
	}
	if len(rec.Violations) != 1 {
		t.Fatalf("violations = %+v, want 1", rec.Violations)
	}
}

// S4 — use-after-free: load at p[0] after free reports.
func TestScenario_S4_UseAfterFree(t *testing.T) {
	rt, rec := newTestRuntime(t, testConfig())

	p, err := rt.Malloc(8)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	rt.Free(p)

	if rt.CheckLoad1(p) {
		t.Fatal("expected use-after-free load to report")
	}
	if len(rec.Violations) != 1 {
		t.Fatalf("violations = %+v, want 1", rec.Violations)
	}
	v := rec.Violations[0]
	if v.Dir.String() != "read" {
		t.Fatalf("violation direction = %v, want read", v.Dir)
	}
}

// S5 — quarantine delay: the freed block is still detectable as
// use-after-free through Q-1 further unrelated malloc/free cycles.
func TestScenario_S5_QuarantineDelay(t *testing.T) {
	cfg := testConfig()
	cfg.QuarantineCapacity = 3
	rt, rec := newTestRuntime(t, cfg)

	p, err := rt.Malloc(8)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	rt.Free(p)

	for i := 0; i < 2; i++ {
		q, err := rt.Malloc(8)
		if err != nil {
			t.Fatalf("Malloc cycle %d: %v", i, err)
		}
		rt.Free(q)
	}

	if rt.CheckLoad1(p) {
		t.Fatal("expected p to still report use-after-free while quarantined")
	}
	if len(rec.Violations) != 1 {
		t.Fatalf("violations = %+v, want 1", rec.Violations)
	}
}

// S6 — unmonitored pass-through: any address outside the arena is valid
// regardless of shadow state.
func TestScenario_S6_UnmonitoredPassThrough(t *testing.T) {
	rt, rec := newTestRuntime(t, testConfig())

	outside := rt.Base() + rt.Size() + 4096
	if !rt.CheckLoad8(outside) {
		t.Fatal("expected unmonitored address to be valid")
	}
	if len(rec.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", rec.Violations)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.AppSize = 3
	if _, err := New(cfg, &report.RecordingReporter{}); err == nil {
		t.Fatal("expected configuration error for unaligned app size")
	}
}

func TestGuarded_ConcurrentMallocFree(t *testing.T) {
	cfg := testConfig()
	cfg.AppSize = 1 << 16
	rt, _ := newTestRuntime(t, cfg)
	g := NewGuarded(rt)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 20; j++ {
				p, err := g.Malloc(32)
				if err != nil {
					continue
				}
				g.CheckStore1(p)
				g.Free(p)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
