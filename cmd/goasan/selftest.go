package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/report"
	"github.com/dl/goasan/internal/runtime"
)

// scenario is one of spec.md §8's concrete scenarios S1-S6.
type scenario struct {
	name string
	run  func(rt *runtime.Runtime) bool // returns true if the scenario's outcome matched its expectation (report or no report)
}

var scenarios = []scenario{
	{"S1-in-bounds", func(rt *runtime.Runtime) bool {
		p, err := rt.Malloc(16)
		if err != nil {
			return false
		}
		ok1 := rt.CheckStore1(p)
		ok2 := rt.CheckStore1(p + 15)
		rt.Free(p)
		return ok1 && ok2 // expected: no report, i.e. both checks pass
	}},
	{"S2-right-overflow", func(rt *runtime.Runtime) bool {
		p, err := rt.Malloc(16)
		if err != nil {
			return false
		}
		return !rt.CheckStore1(p + 16) // expected: reports
	}},
	{"S3-left-underflow", func(rt *runtime.Runtime) bool {
		p, err := rt.Malloc(16)
		if err != nil {
			return false
		}
		return !rt.CheckStore1(p - 1) // expected: reports
	}},
	{"S4-use-after-free", func(rt *runtime.Runtime) bool {
		p, err := rt.Malloc(8)
		if err != nil {
			return false
		}
		rt.Free(p)
		return !rt.CheckLoad1(p) // expected: reports
	}},
	{"S5-quarantine-delay", func(rt *runtime.Runtime) bool {
		p, err := rt.Malloc(8)
		if err != nil {
			return false
		}
		rt.Free(p)
		for i := 0; i < 2; i++ {
			q, err := rt.Malloc(8)
			if err != nil {
				return false
			}
			rt.Free(q)
		}
		return !rt.CheckLoad1(p) // expected: still reports
	}},
	{"S6-unmonitored-pass-through", func(rt *runtime.Runtime) bool {
		outside := rt.Base() + rt.Size() + 4096
		return rt.CheckLoad8(outside) // expected: no report
	}},
}

func newSelftestCmd(cfg *config.Config) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the runtime's built-in scenarios (S1-S6 from the design notes) and report pass/fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			var formatter report.Formatter = report.NewTextFormatter(report.IsTerminal(os.Stdout.Fd()))
			if jsonOut {
				formatter = report.NewJSONFormatter()
			}
			w := report.NewWriter(os.Stdout)

			failures := 0
			for i, sc := range scenarios {
				rec := &report.RecordingReporter{}
				rt, err := runtime.New(*cfg, rec)
				if err != nil {
					return fmt.Errorf("selftest: %w", err)
				}

				passed := sc.run(rt)
				rt.Close()

				result := report.ScenarioResult{
					Name:       sc.name,
					SeqNum:     i + 1,
					Violations: rec.Violations,
				}
				if !passed {
					failures++
					result.Err = fmt.Errorf("scenario did not match its expected outcome")
				}

				buf := formatter.Format(nil, result)
				w.Write(buf)
			}

			if failures > 0 {
				return fmt.Errorf("selftest: %d of %d scenarios failed", failures, len(scenarios))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit JSON Lines instead of text")
	return cmd
}
