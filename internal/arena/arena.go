// Package arena provides the monitored application memory region that the
// shadow map watches over. On a real embedded target this would be a
// statically linked DRAM section (APP_MEM_START/APP_MEM_SIZE); a hosted Go
// process instead anonymously mmaps a fixed-size range so the rest of the
// runtime gets real, stable addresses (uintptr) to do granule arithmetic on.
//
// This mirrors the teacher's input/mmap.go technique — open, fstat, mmap,
// hint the kernel — but maps anonymous memory instead of a file, since here
// the "file" is the monitored region itself rather than something being read.
package arena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Arena is a fixed-size, page-backed memory region addressable by uintptr.
type Arena struct {
	data []byte
	base uintptr
}

// New maps a new arena of the given size. size must be a multiple of 8 (the
// shadow granule) and greater than zero.
func New(size uintptr) (*Arena, error) {
	if size == 0 {
		return nil, fmt.Errorf("arena: size must be > 0")
	}
	if size%8 != 0 {
		return nil, fmt.Errorf("arena: size %d is not a multiple of 8", size)
	}

	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}

	// Hint the kernel this region will be touched randomly (malloc/free
	// traffic, not a sequential scan), the mirror of the teacher's
	// MADV_SEQUENTIAL hint for its own very different access pattern.
	_ = unix.Madvise(data, unix.MADV_RANDOM)

	return &Arena{
		data: data,
		base: uintptr(unsafe.Pointer(&data[0])),
	}, nil
}

// Base returns the address of the first byte of the arena. This is the
// runtime's APP_BASE.
func (a *Arena) Base() uintptr { return a.base }

// Size returns the arena's length in bytes. This is the runtime's APP_SIZE.
func (a *Arena) Size() uintptr { return uintptr(len(a.data)) }

// Bytes returns the arena's backing slice, for tests and diagnostics that
// need to read or write raw bytes directly.
func (a *Arena) Bytes() []byte { return a.data }

// Slice returns the n bytes of the arena starting at addr. addr must lie
// within [Base(), Base()+Size()] and addr+n must not exceed the arena's end.
func (a *Arena) Slice(addr uintptr, n uintptr) []byte {
	if addr < a.base || addr+n > a.base+uintptr(len(a.data)) {
		panic(fmt.Sprintf("arena: slice [%#x, %#x) out of bounds [%#x, %#x)", addr, addr+n, a.base, a.base+uintptr(len(a.data))))
	}
	off := addr - a.base
	return a.data[off : off+n]
}

// Close unmaps the arena. The Arena must not be used afterward.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}
	_ = unix.Madvise(a.data, unix.MADV_DONTNEED)
	err := unix.Munmap(a.data)
	a.data = nil
	return err
}
