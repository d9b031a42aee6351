// Command goasan drives the runtime's self-test scenarios, a concurrent
// fuzz workload, and a shadow-memory heatmap dump, for exercising and
// demonstrating the goasan runtime outside of a cgo host program.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dl/goasan/internal/config"
)

// version is the runtime ABI/CLI version reported by `goasan version`.
// The version_mismatch_check stub does not compare against it; it accepts
// every version.
const version = "0.1.0"

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	config.ApplyArgs(&cfg, config.LoadConfigArgs())
	var appSize uint64
	var strictInit bool

	root := &cobra.Command{
		Use:   "goasan",
		Short: "A hosted Go implementation of the shadow-memory ASAN runtime",
	}

	appSize = uint64(cfg.AppSize)
	root.PersistentFlags().Uint64Var(&appSize, "app-size", appSize, "monitored region size in bytes (must be a multiple of 8)")
	root.PersistentFlags().Uint64Var(&cfg.RedZoneBorder, "red-zone", cfg.RedZoneBorder, "red zone width in bytes on each side of an allocation")
	root.PersistentFlags().IntVar(&cfg.QuarantineCapacity, "quarantine", cfg.QuarantineCapacity, "quarantine ring capacity (0 disables it)")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "emit a verbose trace of every malloc/free/check call")
	root.PersistentFlags().BoolVar(&strictInit, "strict-init", false, "start the shadow fully poisoned instead of fully valid")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg.AppSize = uintptr(appSize)
		if strictInit {
			cfg.InitPolicy = config.Strict
		}
	}

	root.AddCommand(
		newSelftestCmd(&cfg),
		newFuzzCmd(&cfg),
		newDumpCmd(&cfg),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
