package report

import (
	"os"

	"golang.org/x/sys/unix"
)

// Writer writes formatted output using writev for batching, grounded on the
// teacher's output.Writer.
type Writer struct {
	fd int
}

// NewWriter creates a Writer over the given file (os.Stdout in production).
func NewWriter(f *os.File) *Writer {
	return &Writer{fd: int(f.Fd())}
}

// Write writes data using writev for scatter-gather I/O.
func (w *Writer) Write(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	for len(data) > 0 {
		n, err := unix.Writev(w.fd, [][]byte{data})
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// SequencedWriter receives ScenarioResults from a channel (as produced by
// concurrent fuzz workers) and writes them in SeqNum order, so output stays
// deterministic regardless of which worker finishes first — grounded on the
// teacher's output.OrderedWriter.
type SequencedWriter struct {
	writer    *Writer
	formatter Formatter
}

// NewSequencedWriter creates a SequencedWriter.
func NewSequencedWriter(w *Writer, f Formatter) *SequencedWriter {
	return &SequencedWriter{writer: w, formatter: f}
}

// WriteSequenced consumes results from the channel, buffering any that
// arrive out of order, and flushes them to the underlying Writer in
// ascending SeqNum order. onViolation, if non-nil, is called once per
// result that detected at least one violation.
func (sw *SequencedWriter) WriteSequenced(results <-chan ScenarioResult, onViolation func(ScenarioResult)) {
	nextSeq := 1
	pending := make(map[int]ScenarioResult)

	for r := range results {
		if onViolation != nil && r.Detected() {
			onViolation(r)
		}

		if r.SeqNum == nextSeq {
			sw.flush(r)
			nextSeq++
			for {
				p, ok := pending[nextSeq]
				if !ok {
					break
				}
				sw.flush(p)
				delete(pending, nextSeq)
				nextSeq++
			}
		} else {
			pending[r.SeqNum] = r
		}
	}
}

func (sw *SequencedWriter) flush(r ScenarioResult) {
	var buf []byte
	buf = sw.formatter.Format(buf, r)
	sw.writer.Write(buf)
}
