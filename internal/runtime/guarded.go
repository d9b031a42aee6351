package runtime

import "sync"

// Guarded wraps a Runtime with a mutex, satisfying spec.md §5's requirement
// that "correctness on a multi-threaded host requires that mutators
// serialize their access to the shadow and quarantine — either by
// externally locking around the allocator wrappers or by restricting
// instrumented code to a single thread." Runtime itself takes no internal
// locks; Guarded is the opt-in externally-locking wrapper for callers that
// do run instrumented code from multiple goroutines, such as cmd/goasan's
// fuzz worker pool.
type Guarded struct {
	mu sync.Mutex
	rt *Runtime
}

// NewGuarded wraps rt for safe use from multiple goroutines.
func NewGuarded(rt *Runtime) *Guarded {
	return &Guarded{rt: rt}
}

// Malloc is the guarded form of Runtime.Malloc.
func (g *Guarded) Malloc(size uint64) (uintptr, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.Malloc(size)
}

// Free is the guarded form of Runtime.Free.
func (g *Guarded) Free(p uintptr) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rt.Free(p)
}

// CheckLoad1 is the guarded form of Runtime.CheckLoad1.
func (g *Guarded) CheckLoad1(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckLoad1(addr)
}

// CheckLoad2 is the guarded form of Runtime.CheckLoad2.
func (g *Guarded) CheckLoad2(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckLoad2(addr)
}

// CheckLoad4 is the guarded form of Runtime.CheckLoad4.
func (g *Guarded) CheckLoad4(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckLoad4(addr)
}

// CheckLoad8 is the guarded form of Runtime.CheckLoad8.
func (g *Guarded) CheckLoad8(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckLoad8(addr)
}

// CheckStore1 is the guarded form of Runtime.CheckStore1.
func (g *Guarded) CheckStore1(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckStore1(addr)
}

// CheckStore2 is the guarded form of Runtime.CheckStore2.
func (g *Guarded) CheckStore2(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckStore2(addr)
}

// CheckStore4 is the guarded form of Runtime.CheckStore4.
func (g *Guarded) CheckStore4(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckStore4(addr)
}

// CheckStore8 is the guarded form of Runtime.CheckStore8.
func (g *Guarded) CheckStore8(addr uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckStore8(addr)
}

// CheckLoadN is the guarded form of Runtime.CheckLoadN.
func (g *Guarded) CheckLoadN(addr uintptr, size int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckLoadN(addr, size)
}

// CheckStoreN is the guarded form of Runtime.CheckStoreN.
func (g *Guarded) CheckStoreN(addr uintptr, size int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.CheckStoreN(addr, size)
}

// Close is the guarded form of Runtime.Close.
func (g *Guarded) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.Close()
}
