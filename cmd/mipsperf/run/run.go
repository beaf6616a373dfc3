// Package run wires the loader, functional model, timing model, and
// diagnostics together into the behavior behind the mipsperf CLI's single
// command, kept apart from main.go so it stays testable without cobra.
package run

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/xid"

	"github.com/gkorepanov/mipt-mips/emu"
	"github.com/gkorepanov/mipt-mips/internal/diag"
	"github.com/gkorepanov/mipt-mips/loader"
	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/checker"
	"github.com/gkorepanov/mipt-mips/timing/pipeline"
	"github.com/gkorepanov/mipt-mips/timing/rf"
	"github.com/gkorepanov/mipt-mips/timing/sim"
)

// Options holds every mipsperf flag, independent of cobra so Run can be
// exercised directly from tests.
type Options struct {
	Binary   string
	NumSteps uint64

	BTBSize uint64
	BTBWays uint64

	Disassembly    bool
	FunctionalOnly bool

	TraceDB       string
	DashboardAddr string
	OpenDashboard bool
}

// ParseNumSteps parses the positional numsteps argument.
func ParseNumSteps(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("mipsperf: invalid numsteps %q: %w", s, err)
	}
	return n, nil
}

// DefaultFlagDefaults returns the built-in flag defaults, used when no .env
// file and no environment override is present.
func DefaultFlagDefaults() diag.Defaults {
	return diag.Defaults{BTBSize: 128, BTBWays: 4}
}

// LoadFlagDefaults reads envPath (if present) and the process environment
// for flag default overrides.
func LoadFlagDefaults(envPath string) (diag.Defaults, error) {
	return diag.LoadDefaults(envPath)
}

// Run executes one mipsperf invocation: it loads the binary, builds the
// functional and (unless FunctionalOnly) timing models, runs to
// completion, and prints the disassembly trace and final statistics
// banner to out. Fatal conditions (load failure, deadlock, checker
// mismatch) are returned as errors rather than exiting directly, so the
// caller decides the process exit code.
func Run(opts Options, out, errOut io.Writer) error {
	image, err := loader.Load(opts.Binary)
	if err != nil {
		return fmt.Errorf("mipsperf: %w", err)
	}

	logger := diag.New(opts.Disassembly, out, errOut)

	if opts.FunctionalOnly {
		return runFunctionalOnly(opts, image, out)
	}

	return runTimed(opts, image, logger, out)
}

func runFunctionalOnly(opts Options, image *loader.Image, out io.Writer) error {
	memory := emu.NewMemory(image.Bytes(), image.StartPC())

	opt := func(*emu.Emulator) {}
	if opts.Disassembly {
		opt = emu.WithTraceWriter(out)
	}
	model := emu.New(emu.WithMemory(memory), opt)

	if err := model.Run(opts.NumSteps); err != nil {
		return fmt.Errorf("mipsperf: functional run: %w", err)
	}

	fmt.Fprintf(out, "retired %d instructions (functional only)\n", model.InstructionCount())
	return printResourceBanner(opts, out)
}

func runTimed(opts Options, image *loader.Image, logger *diag.Logger, out io.Writer) error {
	pipelineMemory := emu.NewMemory(image.Bytes(), image.StartPC())
	referenceMemory := emu.NewMemory(image.Bytes(), image.StartPC())

	predictor, err := bpu.New(bpu.Config{SizeInEntries: opts.BTBSize, Ways: opts.BTBWays})
	if err != nil {
		return fmt.Errorf("mipsperf: %w", err)
	}

	regs := rf.New()
	referenceModel := emu.New(emu.WithMemory(referenceMemory))
	check := checker.New(referenceModel)

	p, err := pipeline.New(pipelineMemory, predictor, regs, check)
	if err != nil {
		return fmt.Errorf("mipsperf: %w", err)
	}

	var recorder *diag.TraceRecorder
	if opts.TraceDB != "" {
		recorder, err = diag.NewTraceRecorder(opts.TraceDB)
		if err != nil {
			return fmt.Errorf("mipsperf: %w", err)
		}
		defer recorder.Close()
	}

	s := sim.New(p, sim.WithTraceHook(traceHook(logger, recorder)))

	if opts.DashboardAddr != "" {
		dashboard := diag.NewDashboard(predictor, regs, s)
		addr, err := dashboard.ListenAndServe(opts.DashboardAddr)
		if err != nil {
			return fmt.Errorf("mipsperf: %w", err)
		}
		defer dashboard.Close()

		fmt.Fprintf(out, "dashboard listening on http://%s\n", addr)
		if opts.OpenDashboard {
			browser.OpenURL("http://" + addr) //nolint:errcheck
		}
	}

	stats, runErr := s.Run(opts.NumSteps)

	fmt.Fprintf(out, "cycles=%d instructions=%d stalls=%d flushes=%d mispredictions=%d ipc=%.3f\n",
		stats.Cycles, stats.Instructions, stats.Stalls, stats.Flushes, stats.Mispredictions, stats.IPC())

	if err := printResourceBanner(opts, out); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("mipsperf: %w", runErr)
	}
	return nil
}

func traceHook(logger *diag.Logger, recorder *diag.TraceRecorder) func(uint64, pipeline.CycleOutcome) {
	return func(cycle uint64, out pipeline.CycleOutcome) {
		stages := []struct {
			name string
			o    pipeline.Outcome
		}{
			{"Fetch", out.Fetch}, {"Decode", out.Decode}, {"Execute", out.Execute},
			{"Memory", out.Memory}, {"Writeback", out.Writeback},
		}

		for _, stage := range stages {
			logger.StageHeader(stage.name, cycle)
			logger.Outcome(stage.o.Trace, stage.o.Stalled, stage.o.Flushed)

			if recorder != nil {
				recorder.Record(cycle, stage.name, 0, stage.o.Trace, stage.o.Stalled, stage.o.Flushed) //nolint:errcheck
			}
		}
	}
}

func printResourceBanner(opts Options, out io.Writer) error {
	if !opts.Disassembly {
		return nil
	}

	resources, err := diag.CollectResources()
	if err != nil {
		return fmt.Errorf("mipsperf: %w", err)
	}

	fmt.Fprintf(out, "run %s finished at %s (%s)\n", xid.New().String(), time.Now().Format(time.RFC3339), resources)
	return nil
}
