// Package abi exposes the fixed callback symbol surface of spec.md §6
// (check_load1..8/N, check_store1..8/N, register_globals, stack_malloc_1..4,
// etc.) as Go functions bound to a single process-wide default Runtime.
//
// This is the pure-Go callable surface; cmd/libgoasan re-exports the same
// names with C linkage via cgo for callers that need the exact symbol
// names spec.md §9 says "must expose exactly those symbols with C linkage."
package abi

import (
	"fmt"
	"os"
	"sync"

	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/report"
	"github.com/dl/goasan/internal/runtime"
)

var (
	mu      sync.Mutex
	active  *runtime.Guarded
	fatalRp *report.FatalReporter
)

// Init constructs the process-wide default Runtime from cfg, reporting
// fatal violations via a report.FatalReporter writing to os.Stderr. It must
// be called once before any check_*/asan_malloc/asan_free symbol is used.
// Calling Init again replaces the previous runtime, closing it first.
func Init(cfg config.Config) error {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		active.Close()
	}

	fr := report.NewFatalReporter(os.Stderr, report.IsTerminal(os.Stderr.Fd()), cfg.Debug)
	rt, err := runtime.New(cfg, fr)
	if err != nil {
		return fmt.Errorf("abi: init: %w", err)
	}

	active = runtime.NewGuarded(rt)
	fatalRp = fr
	return nil
}

// Shutdown releases the process-wide default Runtime. Safe to call when
// Init was never called.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return nil
	}
	err := active.Close()
	active = nil
	fatalRp = nil
	return err
}

func current() *runtime.Guarded {
	mu.Lock()
	rt := active
	mu.Unlock()
	if rt == nil {
		panic("abi: Init was not called before use")
	}
	return rt
}

// AsanMalloc is the Go-callable form of asan_malloc (spec.md §4.3).
func AsanMalloc(size uint64) (uintptr, error) { return current().Malloc(size) }

// AsanFree is the Go-callable form of asan_free (spec.md §4.3).
func AsanFree(p uintptr) { current().Free(p) }

// CheckLoad1 implements check_load1.
func CheckLoad1(addr uintptr) bool { return current().CheckLoad1(addr) }

// CheckLoad2 implements check_load2.
func CheckLoad2(addr uintptr) bool { return current().CheckLoad2(addr) }

// CheckLoad4 implements check_load4.
func CheckLoad4(addr uintptr) bool { return current().CheckLoad4(addr) }

// CheckLoad8 implements check_load8.
func CheckLoad8(addr uintptr) bool { return current().CheckLoad8(addr) }

// CheckStore1 implements check_store1.
func CheckStore1(addr uintptr) bool { return current().CheckStore1(addr) }

// CheckStore2 implements check_store2.
func CheckStore2(addr uintptr) bool { return current().CheckStore2(addr) }

// CheckStore4 implements check_store4.
func CheckStore4(addr uintptr) bool { return current().CheckStore4(addr) }

// CheckStore8 implements check_store8.
func CheckStore8(addr uintptr) bool { return current().CheckStore8(addr) }

// CheckLoadN implements check_load_n.
func CheckLoadN(addr uintptr, size int) bool { return current().CheckLoadN(addr, size) }

// CheckStoreN implements check_store_n.
func CheckStoreN(addr uintptr, size int) bool { return current().CheckStoreN(addr, size) }

// ReportLoad1..8 and ReportStore1..8 are the noreturn fatal reporters of
// spec.md §6. In this runtime they are never called directly — the
// CheckLoad*/CheckStore* family already reports and terminates through the
// configured Reporter before returning false. The symbols exist so that
// instrumentation calling them directly still links, but each one
// terminates through NYI with a diagnostic naming the symbol; none of them
// emits the ASAN access-violation line.
func ReportLoad1(addr uintptr) { NYI("report_load1", addr) }
func ReportLoad2(addr uintptr) { NYI("report_load2", addr) }
func ReportLoad4(addr uintptr) { NYI("report_load4", addr) }
func ReportLoad8(addr uintptr) { NYI("report_load8", addr) }

func ReportStore1(addr uintptr) { NYI("report_store1", addr) }
func ReportStore2(addr uintptr) { NYI("report_store2", addr) }
func ReportStore4(addr uintptr) { NYI("report_store4", addr) }
func ReportStore8(addr uintptr) { NYI("report_store8", addr) }

// RegisterGlobals is the stub of spec.md §6: global-variable red-zoning is
// not implemented by this runtime (only heap allocations are tracked).
func RegisterGlobals(addr uintptr, n int) { NYI("register_globals", addr) }

// UnregisterGlobals is the matching stub for RegisterGlobals.
func UnregisterGlobals(addr uintptr, n int) { NYI("unregister_globals", addr) }

// StackMalloc1 through StackMalloc4 are the stack red-zoning stubs of
// spec.md §6, sized 1 through 4 in the original ABI's power-of-two frame
// classes; this runtime only tracks heap allocations.
func StackMalloc1(size uintptr) uintptr { NYI("stack_malloc_1", size); return 0 }
func StackMalloc2(size uintptr) uintptr { NYI("stack_malloc_2", size); return 0 }
func StackMalloc3(size uintptr) uintptr { NYI("stack_malloc_3", size); return 0 }
func StackMalloc4(size uintptr) uintptr { NYI("stack_malloc_4", size); return 0 }

// HandleNoReturn is the stub invoked before a noreturn function call so the
// instrumentation can unpoison the current stack frame's red zones; not
// implemented (no stack tracking).
func HandleNoReturn() { NYI("handle_no_return", 0) }

// OptionDetectStackUseAfterReturn reports whether stack use-after-return
// detection is enabled. Always false: this runtime does not instrument the
// stack.
func OptionDetectStackUseAfterReturn() int { return 0 }

// VersionMismatchCheck is the stub instrumented code calls to verify it was
// compiled against a compatible runtime ABI version. Always succeeds: there
// is only one ABI version here.
func VersionMismatchCheck(expected int) {}

// NYI is the not-yet-implemented stub handler shared by the stubbed
// callbacks that terminate (spec.md §6/§7: "Stubbed callbacks ... may
// terminate or no-op"); OptionDetectStackUseAfterReturn and
// VersionMismatchCheck return without calling it.
// It terminates the process with a distinguishable diagnostic through the
// active FatalReporter if one is configured, matching §7's requirement
// that an invoked stub "indicate an instrumentation level the runtime does
// not support" rather than silently succeeding.
func NYI(symbol string, arg uintptr) {
	mu.Lock()
	fr := fatalRp
	mu.Unlock()
	msg := fmt.Sprintf("ASAN: %s invoked but not implemented (arg=%#x)", symbol, arg)
	if fr == nil {
		panic(msg)
	}
	fr.Fatalf("%s", msg)
}
