// Package checker implements the access-check decision procedure of
// spec.md §4.2 on top of a shadow map: for each width/direction pair it
// answers valid-or-poisoned and hands poisoned accesses to a Reporter.
package checker

import "github.com/dl/goasan/internal/shadow"

// Direction distinguishes a load from a store for reporting purposes.
type Direction int

const (
	Load Direction = iota
	Store
)

func (d Direction) String() string {
	if d == Store {
		return "write"
	}
	return "read"
}

// Reporter is notified of a poisoned access. Implementations are expected
// to be fatal (spec.md §4.2/§7): Report does not return control to the
// checker in a production runtime, but the interface itself does not
// encode that — it is the implementation's job, matching report.FatalReporter.
type Reporter interface {
	Report(addr uintptr, width int, dir Direction)
}

// Checker implements check_load{1,2,4,8,N} and check_store{1,2,4,8,N}
// against a single shadow map.
type Checker struct {
	shadow   *shadow.Map
	reporter Reporter
}

// New creates a Checker over the given shadow map, reporting violations to r.
func New(s *shadow.Map, r Reporter) *Checker {
	return &Checker{shadow: s, reporter: r}
}

// check is the shared decision procedure behind every exported CheckLoad*/
// CheckStore* entry point (spec.md §4.2 steps 1-6). It returns true if the
// access was valid; on a poisoned access it invokes the reporter and
// returns false.
func (c *Checker) check(addr uintptr, width int, dir Direction) bool {
	if c.shadow.Query(addr, width) {
		return true
	}
	c.reporter.Report(addr, width, dir)
	return false
}

func (c *Checker) CheckLoad1(addr uintptr) bool { return c.check(addr, 1, Load) }
func (c *Checker) CheckLoad2(addr uintptr) bool { return c.check(addr, 2, Load) }
func (c *Checker) CheckLoad4(addr uintptr) bool { return c.check(addr, 4, Load) }
func (c *Checker) CheckLoad8(addr uintptr) bool { return c.check(addr, 8, Load) }

func (c *Checker) CheckStore1(addr uintptr) bool { return c.check(addr, 1, Store) }
func (c *Checker) CheckStore2(addr uintptr) bool { return c.check(addr, 2, Store) }
func (c *Checker) CheckStore4(addr uintptr) bool { return c.check(addr, 4, Store) }
func (c *Checker) CheckStore8(addr uintptr) bool { return c.check(addr, 8, Store) }

// CheckLoadN and CheckStoreN handle the variable-size pair of spec.md §4.2;
// size 0 is tie-broken to width 1 by shadow.Map.Query itself.
func (c *Checker) CheckLoadN(addr uintptr, size int) bool  { return c.check(addr, size, Load) }
func (c *Checker) CheckStoreN(addr uintptr, size int) bool { return c.check(addr, size, Store) }
