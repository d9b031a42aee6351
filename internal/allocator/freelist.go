// Package allocator implements the "underlying allocator" spec.md treats as
// a black box (a simple first-fit free list over an arena), plus the
// red-zone interposer that wraps it to add ASAN-style bookkeeping.
//
// Style grounded in the teacher's byte-oriented, allocation-free-hot-path
// idiom (internal/input/mmap.go's fd/size bookkeeping); the free-list
// bookkeeping itself is kept in plain Go slices/maps rather than embedded
// in-band in the arena, unlike a size-classed production allocator (see
// cloudfly-readgo/runtime/malloc.go for that heavier design) — at this
// scale a single free list is sufficient and keeps metadata corruption
// impossible to trigger from application-side overflows, since the
// metadata never lives in the monitored region at all.
package allocator

import (
	"fmt"
	"sort"
)

const align = 8

func alignUp(n uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

type freeBlock struct {
	offset uint64
	size   uint64
}

// FreeList is a first-fit free-list allocator over a fixed-size byte range.
// It hands out and reclaims offsets, not addresses — callers add their own
// base address.
type FreeList struct {
	capacity uint64
	free     []freeBlock      // sorted by offset, non-adjacent after coalescing
	used     map[uint64]uint64 // offset -> size, for allocated blocks
}

// NewFreeList creates a free list managing `capacity` bytes, offsets
// [0, capacity).
func NewFreeList(capacity uint64) *FreeList {
	return &FreeList{
		capacity: capacity,
		free:     []freeBlock{{offset: 0, size: capacity}},
		used:     make(map[uint64]uint64),
	}
}

// Alloc reserves `size` bytes (rounded up to an 8-byte boundary) and returns
// the offset of the reservation. ok is false if no free block is large
// enough (out-of-memory).
func (f *FreeList) Alloc(size uint64) (offset uint64, ok bool) {
	size = alignUp(size)
	for i, b := range f.free {
		if b.size < size {
			continue
		}
		offset = b.offset
		remaining := b.size - size
		if remaining == 0 {
			f.free = append(f.free[:i], f.free[i+1:]...)
		} else {
			f.free[i] = freeBlock{offset: b.offset + size, size: remaining}
		}
		f.used[offset] = size
		return offset, true
	}
	return 0, false
}

// Free releases a block previously returned by Alloc. Freeing an offset
// that Alloc never returned (or that has already been freed) is a no-op,
// mirroring free()'s undefined-but-harmless-in-practice behavior on
// pointers it did not hand out — spec.md explicitly places the burden of
// never doing this on the caller.
func (f *FreeList) Free(offset uint64) {
	size, ok := f.used[offset]
	if !ok {
		return
	}
	delete(f.used, offset)
	f.insertFree(offset, size)
}

// Available reports the number of bytes currently free, for diagnostics.
func (f *FreeList) Available() uint64 {
	var total uint64
	for _, b := range f.free {
		total += b.size
	}
	return total
}

func (f *FreeList) insertFree(offset, size uint64) {
	i := sort.Search(len(f.free), func(i int) bool { return f.free[i].offset >= offset })

	merged := freeBlock{offset: offset, size: size}

	// Coalesce with the following block if adjacent.
	if i < len(f.free) && merged.offset+merged.size == f.free[i].offset {
		merged.size += f.free[i].size
		f.free = append(f.free[:i], f.free[i+1:]...)
	}
	// Coalesce with the preceding block if adjacent.
	if i > 0 && f.free[i-1].offset+f.free[i-1].size == merged.offset {
		f.free[i-1].size += merged.size
		return
	}

	f.free = append(f.free, freeBlock{})
	copy(f.free[i+1:], f.free[i:])
	f.free[i] = merged
}

// errOutOfMemory mirrors a null return from the underlying malloc.
var errOutOfMemory = fmt.Errorf("allocator: out of memory")
