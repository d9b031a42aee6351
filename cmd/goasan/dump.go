package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dl/goasan/internal/config"
	"github.com/dl/goasan/internal/report"
	"github.com/dl/goasan/internal/runtime"
	"github.com/dl/goasan/internal/simd"
)

var (
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	poisonedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	partialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// newDumpCmd mallocs a handful of allocations (with one freed, to put
// red-zone and use-after-free poison side by side) and renders the
// resulting shadow byte array as a one-character-per-granule heatmap.
//
// The scan itself is adapted from the teacher's internal/simd package:
// simd.Count/IndexByte/LastIndexByte, which the teacher wrote to scan file
// content for literal bytes, are repurposed here to scan the shadow array
// for granule states (0x00 valid, 0xFF poisoned, anything else partial).
func newDumpCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Allocate a small demo arena and render its shadow map as a heatmap",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(*cfg, &report.RecordingReporter{})
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			defer rt.Close()

			var live []uintptr
			for _, size := range []uint64{8, 24, 40} {
				p, err := rt.Malloc(size)
				if err != nil {
					return fmt.Errorf("dump: %w", err)
				}
				live = append(live, p)
			}
			rt.Free(live[1]) // leave one allocation freed, so its granules show poisoned-but-not-red-zone

			granules := int(rt.Size() / 8)
			shadowBytes := make([]byte, granules)
			for i := 0; i < granules; i++ {
				b, _ := rt.Shadow().Byte(rt.Base() + uintptr(i*8))
				shadowBytes[i] = b
			}

			valid := simd.Count(shadowBytes, 0x00)
			poisoned := simd.Count(shadowBytes, 0xFF)
			partial := granules - valid - poisoned
			firstPoisoned := simd.IndexByte(shadowBytes, 0xFF)
			lastPoisoned := simd.LastIndexByte(shadowBytes, 0xFF)

			fmt.Fprintf(os.Stdout, "granules: %d  valid: %d  poisoned: %d  partial: %d\n", granules, valid, poisoned, partial)
			if firstPoisoned >= 0 {
				fmt.Fprintf(os.Stdout, "first poisoned granule: %d  last: %d\n", firstPoisoned, lastPoisoned)
			}

			const perLine = 64
			for i := 0; i < granules; i++ {
				fmt.Fprint(os.Stdout, styledGranule(shadowBytes[i]))
				if (i+1)%perLine == 0 {
					fmt.Fprintln(os.Stdout)
				}
			}
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}
	return cmd
}

func styledGranule(b byte) string {
	switch b {
	case 0x00:
		return validStyle.Render(".")
	case 0xFF:
		return poisonedStyle.Render("#")
	default:
		return partialStyle.Render("+")
	}
}
