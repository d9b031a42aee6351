// Package quarantine implements the fixed-capacity FIFO delay line that
// keeps freed blocks poisoned for a while before they are handed back to
// the underlying allocator, widening the window in which a use-after-free
// access is still detectable.
//
// The ring's cursor arithmetic is the same "fixed slots, one write cursor,
// modulo wraparound" idiom the teacher uses for its io_uring submission
// queue (internal/uring): a single index that advances and wraps, no
// dynamic growth, no search. Here the payload is allocation base addresses
// instead of submission queue entries, and eviction calls back into the
// underlying allocator instead of the kernel.
package quarantine

// Ring is a bounded FIFO of freed allocation base addresses. It is not safe
// for concurrent use.
type Ring struct {
	slots    []uintptr
	occupied []bool
	cursor   int
	onEvict  func(base uintptr)
}

// New creates a Ring with the given capacity. onEvict is called whenever a
// slot is overwritten (or, when capacity is 0, immediately for every Push)
// with the base address that is being returned to the underlying allocator.
//
// capacity 0 disables the ring: Push evicts its argument immediately,
// matching spec.md's "Q = 0 disables the ring; free returns memory
// immediately".
func New(capacity int, onEvict func(base uintptr)) *Ring {
	r := &Ring{onEvict: onEvict}
	if capacity > 0 {
		r.slots = make([]uintptr, capacity)
		r.occupied = make([]bool, capacity)
	}
	return r
}

// Capacity returns the ring's configured size.
func (r *Ring) Capacity() int { return len(r.slots) }

// Push enqueues base. If the ring is disabled (capacity 0), base is evicted
// immediately. Otherwise, if the slot at the write cursor already holds a
// pointer, that pointer is evicted first, then base is written and the
// cursor advances modulo the capacity.
func (r *Ring) Push(base uintptr) {
	if len(r.slots) == 0 {
		r.onEvict(base)
		return
	}

	if r.occupied[r.cursor] {
		r.onEvict(r.slots[r.cursor])
		r.occupied[r.cursor] = false
	}
	r.slots[r.cursor] = base
	r.occupied[r.cursor] = true
	r.cursor = (r.cursor + 1) % len(r.slots)
}

// Contains reports whether base is currently held in quarantine (used by
// tests and diagnostics; the runtime itself never needs to search the
// ring — it is strictly a delay line, per spec.md §4.4).
func (r *Ring) Contains(base uintptr) bool {
	for i, occ := range r.occupied {
		if occ && r.slots[i] == base {
			return true
		}
	}
	return false
}
