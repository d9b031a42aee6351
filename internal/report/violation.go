package report

import "github.com/dl/goasan/internal/checker"

// Violation describes a single detected access-check failure (spec.md §4.2
// "Reporting" / §7 kind 1).
type Violation struct {
	Addr  uintptr
	Width int
	Dir   checker.Direction
}
