package main

import (
	"fmt"
	"math/bits"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dl/goasan/internal/checker"
	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/report"
	gorun "github.com/dl/goasan/internal/runtime"
)

// newFuzzCmd runs a pool of goroutine workers hammering Malloc/Free/Check*
// through a runtime.Guarded, each performing a mix of in-bounds accesses
// (which must never report) and deliberate off-by-one overflows (which
// must always report), and prints one sequenced result line per cycle
// followed by a total.
//
// Worker-pool shape grounded on the teacher's internal/scheduler.Scheduler:
// a fixed goroutine count pulling work and pushing tagged results onto a
// channel, drained in sequence-number order by a single writer.
func newFuzzCmd(cfg *config.Config) *cobra.Command {
	var workers int
	var iterations int

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Hammer the runtime from a pool of goroutines and report every detected violation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = runtime.NumCPU() * 2
			}

			rec := &fuzzRecorder{}
			rt, err := gorun.New(*cfg, rec)
			if err != nil {
				return fmt.Errorf("fuzz: %w", err)
			}
			defer rt.Close()
			guarded := gorun.NewGuarded(rt)

			resultCh := make(chan report.ScenarioResult, workers*2)
			var seq atomic.Int64
			var wg sync.WaitGroup

			for w := 0; w < workers; w++ {
				wg.Add(1)
				workerID := uuid.New().String()[:8]
				go func(id string) {
					defer wg.Done()
					for i := 0; i < iterations; i++ {
						v := fuzzOnce(guarded, rec)
						resultCh <- report.ScenarioResult{
							Name:       fmt.Sprintf("worker-%s-%d", id, i),
							SeqNum:     int(seq.Add(1)),
							Violations: v,
						}
					}
				}(workerID)
			}

			go func() {
				wg.Wait()
				close(resultCh)
			}()

			formatter := report.Formatter(report.NewTextFormatter(report.IsTerminal(os.Stdout.Fd())))
			sw := report.NewSequencedWriter(report.NewWriter(os.Stdout), formatter)

			var detections atomic.Int64
			sw.WriteSequenced(resultCh, func(r report.ScenarioResult) {
				detections.Add(1)
			})

			fmt.Fprintf(os.Stdout, "fuzz: %d workers x %d iterations, %d violations detected\n", workers, iterations, detections.Load())
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "goroutine worker count (default NumCPU*2)")
	cmd.Flags().IntVar(&iterations, "iterations", 100, "malloc/free cycles per worker")
	return cmd
}

// fuzzRecorder is a checker.Reporter that records every violation under a
// mutex, so concurrent fuzz workers can safely share one process-wide
// Reporter the way a production deployment would (spec.md §5: the shadow
// and quarantine are process-wide singletons; only external locking makes
// that safe).
type fuzzRecorder struct {
	mu         sync.Mutex
	violations []report.Violation
}

func (r *fuzzRecorder) Report(addr uintptr, width int, dir checker.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, report.Violation{Addr: addr, Width: width, Dir: dir})
}

// fuzzOnce performs one malloc/access/free cycle, choosing between an
// always-in-bounds access and a deliberate one-byte overflow so both the
// "quiet" and "detecting" paths of the runtime get exercised under
// concurrency. It returns any violation the reporter recorded during this
// cycle specifically.
func fuzzOnce(g *gorun.Guarded, rec *fuzzRecorder) []report.Violation {
	const size = 16

	p, err := g.Malloc(size)
	if err != nil {
		return nil
	}
	defer g.Free(p)

	// A cheap "coin flip" derived from the pointer value so repeated runs
	// against the same arena don't all take the same branch; reuses
	// math/bits rather than pulling in math/rand just for this.
	overflow := bits.OnesCount64(uint64(p))%2 == 0

	rec.mu.Lock()
	before := len(rec.violations)
	rec.mu.Unlock()

	target := p + size - 1 // last valid byte, must stay quiet
	if overflow {
		target = p + size // deliberate right overflow
	}
	g.CheckStore1(target)

	// Other workers may have recorded violations since `before`; keep only
	// the ones at this cycle's own target address.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var mine []report.Violation
	for _, v := range rec.violations[before:] {
		if v.Addr == target {
			mine = append(mine, v)
		}
	}
	return mine
}
