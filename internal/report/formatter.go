package report

// Formatter renders a ScenarioResult into bytes for output. buf is a
// reusable buffer — implementations append to it and return the result, the
// same convention the teacher's output.Formatter uses to let callers reuse
// the underlying array across results.
type Formatter interface {
	Format(buf []byte, result ScenarioResult) []byte
}
