// Package config holds the runtime's configuration surface (spec.md §6's
// options table) and the validation that must pass before a Runtime can be
// constructed (spec.md §7 kind 3, "configuration failure").
//
// Shape and Validate idiom grounded on the teacher's internal/cli.Config.
package config

import "fmt"

// Policy selects the shadow's initial state; re-exported here (rather than
// imported from internal/shadow) so callers configuring a Runtime do not
// need to import the shadow package directly.
type Policy int

const (
	// Permissive starts the shadow all-valid (0x00).
	Permissive Policy = iota
	// Strict starts the shadow all-poisoned (0xFF).
	Strict
)

// Config mirrors spec.md §6's configuration option table, except that it
// has no APP_BASE field (the arena's address is chosen by mmap) and no
// SHADOW_SECTION field (the shadow is an ordinary Go slice).
type Config struct {
	// AppSize is APP_SIZE: the length in bytes of the monitored region. On
	// a hosted Go build there is no fixed APP_BASE to place this at, so an
	// Arena of this size is mmap'd fresh by Runtime.New; it must be a
	// multiple of 8.
	AppSize uintptr

	// RedZoneBorder is RED_ZONE_BORDER: bytes of poisoned padding flanking
	// every allocation, on each side. Must be a multiple of 8 and at least
	// 8 (sizeof(size_t) on this platform).
	RedZoneBorder uint64

	// QuarantineCapacity is QUARANTINE_CAPACITY (Q). 0 disables the ring.
	QuarantineCapacity int

	// ReplaceMallocFree mirrors REPLACE_MALLOC_FREE: whether Malloc/Free
	// are wired at all, or the caller intends to use the underlying
	// allocator directly and bypass tracking. It is parsed and stored but
	// not read anywhere: Runtime.New builds the interposer either way, and
	// cmd/libgoasan exports asan_malloc/asan_free unconditionally.
	ReplaceMallocFree bool

	// InitPolicy is INIT_POLICY.
	InitPolicy Policy

	// Debug mirrors DEBUG: emit a verbose trace of every Malloc, Free and
	// check call. Individual poison/unpoison operations are not traced.
	Debug bool
}

// Default returns a Config with reasonable defaults: a 1 MiB monitored
// region, a 16-byte red zone, an 8-slot quarantine, malloc/free replacement
// enabled, permissive init policy, and debug tracing off.
func Default() Config {
	return Config{
		AppSize:            1 << 20,
		RedZoneBorder:      16,
		QuarantineCapacity: 8,
		ReplaceMallocFree:  true,
		InitPolicy:         Permissive,
		Debug:              false,
	}
}

// Validate implements spec.md §7's configuration-failure checks: APP_SIZE
// not a multiple of 8, RED_ZONE_BORDER not a multiple of 8 or too small to
// hold the size field, or a negative quarantine capacity.
func (c *Config) Validate() error {
	if c.AppSize == 0 {
		return fmt.Errorf("config: app size must be non-zero")
	}
	if c.AppSize%8 != 0 {
		return fmt.Errorf("config: app size %d is not a multiple of 8", c.AppSize)
	}
	if c.RedZoneBorder%8 != 0 {
		return fmt.Errorf("config: red zone border %d is not a multiple of 8", c.RedZoneBorder)
	}
	if c.RedZoneBorder < 8 {
		return fmt.Errorf("config: red zone border %d is smaller than sizeof(size_t)", c.RedZoneBorder)
	}
	if c.QuarantineCapacity < 0 {
		return fmt.Errorf("config: quarantine capacity %d must not be negative", c.QuarantineCapacity)
	}
	return nil
}
