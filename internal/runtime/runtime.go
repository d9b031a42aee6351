// Package runtime wires the arena, shadow map, allocator interposer, and
// access checker together into the single composition root spec.md §9
// calls for: "a clean reimplementation exposes [the shadow array and
// quarantine ring] behind a runtime object with explicit init and
// shutdown, even if only one instance is ever constructed."
package runtime

import (
	"fmt"

	"github.com/dl/goasan/internal/allocator"
	"github.com/dl/goasan/internal/arena"
	"github.com/dl/goasan/internal/checker"
	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/shadow"
)

// Runtime is the ASAN runtime: one arena, one shadow map, one allocator
// interposer, one checker, reporting through a single Reporter.
//
// Runtime takes no internal locks (spec.md §5: "The runtime does not take
// locks"). Concurrent callers must serialize their own access — see
// Guarded for an external-locking wrapper appropriate for a goroutine-pool
// caller such as cmd/goasan's fuzz command.
type Runtime struct {
	arena   *arena.Arena
	shadow  *shadow.Map
	alloc   *allocator.Interposer
	checker *checker.Checker
	debug   bool
}

// New constructs a Runtime from cfg, mmapping a fresh arena of cfg.AppSize
// bytes as the stand-in for APP_BASE/APP_SIZE. It returns an error for any
// of spec.md §7's configuration failures (via cfg.Validate) or a failure
// to map the arena (spec.md §7 kind 2 also covers allocator failures
// surfaced later, at Malloc time).
func New(cfg config.Config, reporter checker.Reporter) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := arena.New(cfg.AppSize)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	policy := shadow.Permissive
	if cfg.InitPolicy == config.Strict {
		policy = shadow.Strict
	}
	s, err := shadow.New(a.Base(), a.Size(), policy)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("runtime: %w", err)
	}

	in, err := allocator.New(a, s, cfg.RedZoneBorder, cfg.QuarantineCapacity)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("runtime: %w", err)
	}

	return &Runtime{
		arena:   a,
		shadow:  s,
		alloc:   in,
		checker: checker.New(s, reporter),
		debug:   cfg.Debug,
	}, nil
}

// Close unmaps the arena. The Runtime must not be used afterward.
func (r *Runtime) Close() error { return r.arena.Close() }

// Malloc implements asan_malloc (spec.md §4.3).
func (r *Runtime) Malloc(size uint64) (uintptr, error) {
	p, err := r.alloc.Malloc(size)
	if r.debug {
		if err != nil {
			fmt.Printf("goasan: malloc(%d) -> error: %v\n", size, err)
		} else {
			fmt.Printf("goasan: malloc(%d) -> %#x\n", size, p)
		}
	}
	return p, err
}

// Free implements asan_free (spec.md §4.3).
func (r *Runtime) Free(p uintptr) {
	if r.debug {
		fmt.Printf("goasan: free(%#x)\n", p)
	}
	r.alloc.Free(p)
}

// Available reports bytes free in the underlying allocator, for
// diagnostics.
func (r *Runtime) Available() uint64 { return r.alloc.Available() }

// Base returns the monitored region's base address (APP_BASE).
func (r *Runtime) Base() uintptr { return r.arena.Base() }

// Size returns the monitored region's length (APP_SIZE).
func (r *Runtime) Size() uintptr { return r.arena.Size() }

// Shadow exposes the underlying shadow map for diagnostics that need raw
// byte access (cmd/goasan dump). Mutating it outside the allocator/checker
// path defeats the runtime's invariants; callers should treat this as
// read-only.
func (r *Runtime) Shadow() *shadow.Map { return r.shadow }

func (r *Runtime) trace(format string, args ...interface{}) {
	if r.debug {
		fmt.Printf(format, args...)
	}
}

// CheckLoad1 implements check_load1 (spec.md §4.2/§6).
func (r *Runtime) CheckLoad1(addr uintptr) bool { return r.traced(r.checker.CheckLoad1(addr), "load", addr, 1) }

// CheckLoad2 implements check_load2.
func (r *Runtime) CheckLoad2(addr uintptr) bool { return r.traced(r.checker.CheckLoad2(addr), "load", addr, 2) }

// CheckLoad4 implements check_load4.
func (r *Runtime) CheckLoad4(addr uintptr) bool { return r.traced(r.checker.CheckLoad4(addr), "load", addr, 4) }

// CheckLoad8 implements check_load8.
func (r *Runtime) CheckLoad8(addr uintptr) bool { return r.traced(r.checker.CheckLoad8(addr), "load", addr, 8) }

// CheckStore1 implements check_store1.
func (r *Runtime) CheckStore1(addr uintptr) bool { return r.traced(r.checker.CheckStore1(addr), "store", addr, 1) }

// CheckStore2 implements check_store2.
func (r *Runtime) CheckStore2(addr uintptr) bool { return r.traced(r.checker.CheckStore2(addr), "store", addr, 2) }

// CheckStore4 implements check_store4.
func (r *Runtime) CheckStore4(addr uintptr) bool { return r.traced(r.checker.CheckStore4(addr), "store", addr, 4) }

// CheckStore8 implements check_store8.
func (r *Runtime) CheckStore8(addr uintptr) bool { return r.traced(r.checker.CheckStore8(addr), "store", addr, 8) }

// CheckLoadN implements check_load_n.
func (r *Runtime) CheckLoadN(addr uintptr, size int) bool {
	return r.traced(r.checker.CheckLoadN(addr, size), "load", addr, size)
}

// CheckStoreN implements check_store_n.
func (r *Runtime) CheckStoreN(addr uintptr, size int) bool {
	return r.traced(r.checker.CheckStoreN(addr, size), "store", addr, size)
}

func (r *Runtime) traced(ok bool, dir string, addr uintptr, width int) bool {
	r.trace("goasan: check %s addr=%#x width=%d valid=%v\n", dir, addr, width, ok)
	return ok
}
