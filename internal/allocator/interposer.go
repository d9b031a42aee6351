package allocator

import (
	"encoding/binary"
	"fmt"

	"github.com/dl/goasan/internal/arena"
	"github.com/dl/goasan/internal/quarantine"
	"github.com/dl/goasan/internal/shadow"
)

// sizeFieldLen is sizeof(size_t) for the purposes of the embedded
// allocation-size field stored in the red zone; spec.md requires it be at
// least this wide and a multiple of 8, so 8 bytes (a uint64) satisfies both.
const sizeFieldLen = 8

// ErrOutOfMemory is returned by Malloc when the underlying free list has no
// block large enough to satisfy the request; the shadow is left untouched,
// matching spec.md §4.3/§7.
var ErrOutOfMemory = errOutOfMemory

// Interposer implements the asan_malloc/asan_free algorithm of spec.md §4.3:
// red zones around every allocation, the size embedded in the first red
// zone's trailing bytes, and (optionally) a quarantine delaying reuse of
// freed blocks.
type Interposer struct {
	arena   *arena.Arena
	shadow  *shadow.Map
	free    *FreeList
	ring    *quarantine.Ring
	redZone uint64
}

// New creates an Interposer over the given arena and shadow map. redZone is
// the configured RED_ZONE_BORDER (bytes of poisoned padding on each side of
// a user region); it must be a multiple of 8 and at least sizeFieldLen.
// quarantineCapacity is QUARANTINE_CAPACITY (0 disables the ring).
func New(a *arena.Arena, s *shadow.Map, redZone uint64, quarantineCapacity int) (*Interposer, error) {
	if redZone%8 != 0 || redZone < sizeFieldLen {
		return nil, fmt.Errorf("allocator: red zone %d must be a multiple of 8 and >= %d", redZone, sizeFieldLen)
	}

	in := &Interposer{
		arena:   a,
		shadow:  s,
		free:    NewFreeList(uint64(a.Size())),
		redZone: redZone,
	}
	in.ring = quarantine.New(quarantineCapacity, func(base uintptr) {
		in.free.Free(uint64(base - a.Base()))
	})
	return in, nil
}

func alignUp8(n uint64) uint64 { return (n + 7) &^ 7 }

// Malloc allocates size bytes and returns a pointer to an 8-aligned user
// region flanked by two poisoned red zones, per spec.md §4.3. It returns
// ErrOutOfMemory (and leaves the shadow untouched) if the underlying
// allocator cannot satisfy the request.
func (in *Interposer) Malloc(size uint64) (uintptr, error) {
	total := size + 2*in.redZone
	offset, ok := in.free.Alloc(total)
	if !ok {
		return 0, ErrOutOfMemory
	}

	base := in.arena.Base() + uintptr(offset)
	user := base + uintptr(in.redZone)

	// First red zone, fully poisoned.
	in.shadow.Poison(base, uintptr(in.redZone))

	// Store the requested (unrounded) size in the trailing sizeFieldLen
	// bytes of the first red zone. This goes straight through the arena's
	// backing slice rather than an instrumented store, so it never needs
	// to bypass an access check the way the C original's direct pointer
	// write implicitly does: no instrumented load/store ever targets this
	// location (spec.md §4.3).
	binary.LittleEndian.PutUint64(in.arena.Slice(user-sizeFieldLen, sizeFieldLen), size)

	rounded := alignUp8(size)
	in.shadow.Unpoison(user, uintptr(rounded))
	in.shadow.Poison(user+uintptr(rounded), uintptr(in.redZone))

	return user, nil
}

// Free poisons the entire user region and either returns the block to the
// underlying allocator immediately (quarantine disabled) or pushes it into
// the quarantine ring, per spec.md §4.3/§4.4.
//
// Passing a pointer Malloc did not return is undefined behavior, mirroring
// the standard free(); the caller carries that burden (spec.md §4.3).
func (in *Interposer) Free(user uintptr) {
	size := binary.LittleEndian.Uint64(in.arena.Slice(user-sizeFieldLen, sizeFieldLen))
	rounded := alignUp8(size)

	in.shadow.Poison(user, uintptr(rounded))

	base := user - uintptr(in.redZone)
	in.ring.Push(base)
}

// Available reports the number of bytes free in the underlying allocator,
// for diagnostics and tests.
func (in *Interposer) Available() uint64 { return in.free.Available() }
