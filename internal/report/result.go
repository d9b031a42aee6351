package report

// ScenarioResult aggregates the outcome of one selftest/fuzz scenario run,
// the ASAN-domain equivalent of the teacher's output.Result (one aggregate
// per unit of work, sequenced for ordered output under concurrency).
type ScenarioResult struct {
	Name       string
	SeqNum     int
	Violations []Violation
	Err        error
}

// Detected reports whether this scenario produced at least one violation.
func (r *ScenarioResult) Detected() bool {
	return len(r.Violations) > 0
}
