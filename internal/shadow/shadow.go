// Package shadow implements the one-byte-per-granule shadow memory that
// backs the ASAN-style access checks: one shadow byte describes the poison
// state of an 8-byte granule of the monitored application range.
//
// The encoding is the prefix encoding recommended by the design notes: 0x00
// means all 8 bytes of the granule are valid, 0xFF means all 8 are poisoned,
// and the values 0xFE, 0xFC, 0xF8, 0xF0, 0xE0, 0xC0, 0x80 mean "the first N
// bytes (1..7) are valid, the rest of the granule is poisoned". This lets
// the access-check fast path accept on a plain sb == 0 comparison and keeps
// poison, unpoison, and check all agreeing on what a partial-granule shadow
// byte means.
package shadow

import "fmt"

// Policy selects the shadow state installed by Init.
type Policy int

const (
	// Permissive initializes the shadow to all-valid (0x00). Newly mapped
	// memory is assumed safe until the allocator interposer poisons it.
	Permissive Policy = iota
	// Strict initializes the shadow to all-poisoned (0xFF). The caller must
	// explicitly Unpoison any legitimate static region before using it.
	Strict
)

// expected[last] is the shadow byte value that is consistent with byte
// "last" (0..6) of a granule being valid and every following byte in the
// granule being poisoned. It is the prefix-encoding table from the design
// notes, indexed by the last byte touched within the granule. Entry 7
// (0xFF) is not used as a bound: Query treats position 7 separately.
var expected = [8]byte{
	0xFE, 0xFC, 0xF8, 0xF0, 0xE0, 0xC0, 0x80, 0xFF,
}

// Map is the shadow byte array for one monitored region.
//
// A Map is not safe for concurrent use; callers must serialize their own
// access to it (see the runtime package's Guarded wrapper).
type Map struct {
	bytes []byte
	base  uintptr
	size  uintptr
}

// New allocates a shadow map covering a monitored region of `size` bytes
// starting at `base`. size must be a multiple of 8.
func New(base, size uintptr, policy Policy) (*Map, error) {
	if size%8 != 0 {
		return nil, fmt.Errorf("shadow: app size %d is not a multiple of 8", size)
	}
	m := &Map{
		bytes: make([]byte, size/8),
		base:  base,
		size:  size,
	}
	m.Init(policy)
	return m, nil
}

// Init resets every shadow byte to the value dictated by policy.
func (m *Map) Init(policy Policy) {
	var fill byte
	if policy == Strict {
		fill = 0xFF
	}
	for i := range m.bytes {
		m.bytes[i] = fill
	}
}

// Contains reports whether addr falls inside the monitored region.
func (m *Map) Contains(addr uintptr) bool {
	return addr >= m.base && addr < m.base+m.size
}

// granuleIndex returns the shadow byte index for addr, which must satisfy
// Contains(addr).
func (m *Map) granuleIndex(addr uintptr) uintptr {
	return (addr - m.base) >> 3
}

// Poison marks `len` bytes starting at base as poisoned. base must be
// 8-aligned; len is rounded up to a whole number of granules. Bytes outside
// the monitored region are silently ignored.
func (m *Map) Poison(base uintptr, length uintptr) {
	m.fillGranules(base, length, 0xFF)
}

// Unpoison marks `len` bytes starting at base as valid, using the prefix
// encoding's partial-granule value for a trailing non-multiple-of-8 length.
func (m *Map) Unpoison(base uintptr, length uintptr) {
	if length == 0 {
		return
	}
	full := length &^ 7
	rem := length & 7
	m.fillGranules(base, full, 0x00)
	if rem > 0 {
		tail := base + full
		if m.Contains(tail) {
			m.bytes[m.granuleIndex(tail)] = expected[rem-1]
		}
	}
}

// fillGranules sets every granule in [base, base+length) to value, rounding
// length up to a whole number of granules (Poison relies on this). Unpoison
// passes only its whole-granule part and sets the trailing partial granule
// itself.
func (m *Map) fillGranules(base uintptr, length uintptr, value byte) {
	if length == 0 {
		return
	}
	n := length / 8
	if length%8 != 0 {
		n++ // round up: caller (Poison) accepts granule-level rounding
	}
	for i := uintptr(0); i < n; i++ {
		addr := base + i*8
		if !m.Contains(addr) {
			continue
		}
		m.bytes[m.granuleIndex(addr)] = value
	}
}

// Byte returns the raw shadow byte for the granule containing addr, and
// whether addr is inside the monitored region at all.
func (m *Map) Byte(addr uintptr) (value byte, monitored bool) {
	if !m.Contains(addr) {
		return 0, false
	}
	return m.bytes[m.granuleIndex(addr)], true
}

// Query returns true if every byte of [addr, addr+width) is valid to
// access. Accesses outside the monitored region are always valid (§4.1:
// this lets stack and peripheral accesses pass through unperturbed).
//
// width 0 is treated as width 1, matching the checker's zero-width tie-break.
//
// An access that spans several granules is valid only if every granule
// before the last one is fully valid (0x00); the last-byte granule is then
// decided by the prefix comparison below. If the access runs past the end
// of the monitored region, only the granule containing addr is checked.
func (m *Map) Query(addr uintptr, width int) bool {
	if width <= 0 {
		width = 1
	}
	if !m.Contains(addr) {
		return true
	}

	last := addr + uintptr(width-1)
	checkAddr := last
	if !m.Contains(checkAddr) {
		checkAddr = addr
	}

	for i := m.granuleIndex(addr); i < m.granuleIndex(checkAddr); i++ {
		if m.bytes[i] != 0x00 {
			return false
		}
	}

	sb, _ := m.Byte(checkAddr)
	if sb == 0x00 {
		return true
	}
	if sb == 0xFF {
		return false
	}

	// sb encodes "the first N bytes of this granule are valid" for some
	// N in 1..7 (N can't be 8: that's the 0x00 case already handled above).
	// Byte position pos (0-indexed within the granule) is valid iff pos < N.
	// Position 7 is therefore never valid once we reach this branch. For
	// pos 0..6, N rises monotonically with expected's index, so pos < N is
	// equivalent to the unsigned comparison sb <= expected[pos].
	pos := int(checkAddr & 7)
	if pos == 7 {
		return false
	}
	return sb <= expected[pos]
}
