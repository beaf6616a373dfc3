// Package main is the entry point for mipsperf, the cycle-accurate MIPS
// pipeline simulator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/gkorepanov/mipt-mips/cmd/mipsperf/run"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	var opts run.Options

	cmd := &cobra.Command{
		Use:   "mipsperf [binary] [numsteps]",
		Short: "mipsperf is a cycle-accurate simulator for a classic 5-stage MIPS pipeline",
		Long: `mipsperf simulates a MIPS-like in-order 5-stage pipeline
(Fetch/Decode/Execute/Memory/Writeback) against a reference functional
model, reporting per-run statistics (cycles, instructions, stalls,
flushes, mispredictions, IPC).`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && opts.Binary == "" {
				opts.Binary = args[0]
			}
			if len(args) > 1 && opts.NumSteps == 0 {
				n, err := run.ParseNumSteps(args[1])
				if err != nil {
					return err
				}
				opts.NumSteps = n
			}

			if opts.Binary == "" {
				return fmt.Errorf("mipsperf: a binary image is required (-b, or as the first positional argument)")
			}
			if opts.NumSteps == 0 {
				return fmt.Errorf("mipsperf: a nonzero instruction count is required (-n, or as the second positional argument)")
			}

			return run.Run(opts, os.Stdout, os.Stderr)
		},
	}

	defaults, err := run.LoadFlagDefaults(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mipsperf: loading defaults: %v\n", err)
		defaults = run.DefaultFlagDefaults()
	}

	cmd.Flags().StringVarP(&opts.Binary, "binary", "b", "", "path to the binary image to run")
	cmd.Flags().Uint64VarP(&opts.NumSteps, "numsteps", "n", 0, "number of instructions to retire before stopping")
	cmd.Flags().Uint64VarP(&opts.BTBSize, "btb-size", "s", defaults.BTBSize, "number of entries in the branch target buffer")
	cmd.Flags().Uint64VarP(&opts.BTBWays, "btb-ways", "w", defaults.BTBWays, "associativity of the branch target buffer")
	cmd.Flags().BoolVarP(&opts.Disassembly, "disassembly", "d", defaults.Disassembly, "print a per-cycle, per-stage disassembly trace")
	cmd.Flags().BoolVarP(&opts.FunctionalOnly, "functional-only", "f", false, "skip the timing model and only run the functional reference")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "write a per-cycle SQLite trace to this path (disabled when empty)")
	cmd.Flags().StringVar(&opts.DashboardAddr, "dashboard-addr", "", "serve a live introspection dashboard at this address (disabled when empty)")
	cmd.Flags().BoolVar(&opts.OpenDashboard, "open", false, "open the dashboard in a browser once it starts")

	return cmd
}
