package allocator

import (
	"testing"

	"github.com/dl/goasan/internal/arena"
	"github.com/dl/goasan/internal/shadow"
)

func newTestInterposer(t *testing.T, arenaSize uintptr, redZone uint64, quarantine int) (*Interposer, *arena.Arena, *shadow.Map) {
	t.Helper()
	a, err := arena.New(arenaSize)
	if err != nil {
		t.Fatalf("arena.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	s, err := shadow.New(a.Base(), a.Size(), shadow.Permissive)
	if err != nil {
		t.Fatalf("shadow.New: %v", err)
	}

	in, err := New(a, s, redZone, quarantine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return in, a, s
}

func TestMalloc_EveryRequestedByteIsValid(t *testing.T) {
	in, _, s := newTestInterposer(t, 4096, 16, 0)

	user, err := in.Malloc(13)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	for i := uintptr(0); i < 13; i++ {
		if !s.Query(user+i, 1) {
			t.Fatalf("byte at offset %d should be valid", i)
		}
	}
}

func TestMalloc_RedZonesArePoisoned(t *testing.T) {
	const redZone = 16
	in, _, s := newTestInterposer(t, 4096, redZone, 0)

	user, err := in.Malloc(5)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	for i := uintptr(1); i <= redZone; i++ {
		if s.Query(user-i, 1) {
			t.Fatalf("byte at offset -%d should be poisoned (left red zone)", i)
		}
	}

	// Rounded-up region is 8 bytes and Malloc unpoisons all of it, so the
	// right red zone starts at offset 8 and should be poisoned throughout.
	rounded := uintptr(8)
	for i := uintptr(0); i < redZone; i++ {
		addr := user + rounded + i
		if s.Query(addr, 1) {
			t.Fatalf("byte at offset %d should be poisoned (right red zone)", rounded+i)
		}
	}
}

func TestFree_PoisonsEntireUserRegion(t *testing.T) {
	in, _, s := newTestInterposer(t, 4096, 16, 0)

	user, err := in.Malloc(10)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	in.Free(user)

	rounded := uintptr(16) // alignUp8(10)
	for i := uintptr(0); i < rounded; i++ {
		if s.Query(user+i, 1) {
			t.Fatalf("byte at offset %d should be poisoned after free", i)
		}
	}
}

func TestFree_WithoutQuarantineReturnsBlockImmediately(t *testing.T) {
	in, _, _ := newTestInterposer(t, 256, 16, 0)

	avail := in.Available()
	user, err := in.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	in.Free(user)

	if got := in.Available(); got != avail {
		t.Fatalf("Available() = %d, want %d (block reclaimed)", got, avail)
	}
}

func TestFree_WithQuarantineDelaysReuse(t *testing.T) {
	in, _, _ := newTestInterposer(t, 256, 16, 2)

	avail := in.Available()
	user, err := in.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	in.Free(user)

	if got := in.Available(); got == avail {
		t.Fatalf("Available() = %d, want less than %d while quarantined", got, avail)
	}
}

func TestMalloc_OutOfMemory(t *testing.T) {
	in, _, _ := newTestInterposer(t, 64, 16, 0)

	if _, err := in.Malloc(1000); err != ErrOutOfMemory {
		t.Fatalf("Malloc(1000) err = %v, want ErrOutOfMemory", err)
	}
}

func TestMalloc_DistinctAllocationsDoNotOverlap(t *testing.T) {
	in, _, s := newTestInterposer(t, 4096, 16, 0)

	first, err := in.Malloc(8)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	second, err := in.Malloc(8)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	if first == second {
		t.Fatal("two live allocations returned the same address")
	}
	if !s.Query(first, 1) || !s.Query(second, 1) {
		t.Fatal("both live allocations should be valid")
	}
}
