// Package sim implements C5 (spec §4.5): the simulator driver holding the
// global cycle counter, the fixed IF→ID→EX→MEM→WB stage clocking order,
// the deadlock watchdog, and the final IPC computation.
package sim

import (
	"errors"
	"fmt"

	"github.com/gkorepanov/mipt-mips/timing/pipeline"
)

// ErrDeadlock is returned when no instruction has retired for
// deadlockThreshold consecutive cycles.
var ErrDeadlock = errors.New("sim: deadlock detected")

// deadlockThreshold is the number of writeback-less cycles that trips the
// watchdog, per spec §4.5's run loop.
const deadlockThreshold = 1000

// Statistics holds the simulator's end-of-run performance counters, the
// teacher's own Statistics/CPI idiom (timing/pipeline/pipeline.go in the
// source this module started from) adapted to this simulator's
// scoreboard-and-prediction microarchitecture.
type Statistics struct {
	Cycles         uint64
	Instructions   uint64
	Stalls         uint64
	Flushes        uint64
	Mispredictions uint64
}

// IPC returns instructions retired per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// Simulator drives a Pipeline for a fixed instruction budget.
type Simulator struct {
	pipeline *pipeline.Pipeline

	cycle              uint64
	executedInstrs     uint64
	lastWritebackCycle uint64

	stats Statistics

	traceHook func(cycle uint64, out pipeline.CycleOutcome)
}

// Option configures a Simulator at construction, the teacher's own
// functional-options idiom (emu.Option in this module's functional model).
type Option func(*Simulator)

// WithTraceHook installs a callback invoked with every cycle's outcome,
// used by the CLI's disassembly mode (SPEC_FULL.md §13) to render a
// per-stage trace without the driver itself depending on diag.
func WithTraceHook(hook func(cycle uint64, out pipeline.CycleOutcome)) Option {
	return func(s *Simulator) { s.traceHook = hook }
}

// New constructs a Simulator over an already-wired Pipeline.
func New(p *pipeline.Pipeline, opts ...Option) *Simulator {
	s := &Simulator{pipeline: p}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run clocks the pipeline until instrsToRun instructions have retired,
// per spec §4.5's run loop, and returns the resulting Statistics.
func (s *Simulator) Run(instrsToRun uint64) (Statistics, error) {
	for s.executedInstrs < instrsToRun {
		out, err := s.pipeline.Tick(s.cycle)
		if err != nil {
			return s.stats, fmt.Errorf("sim: cycle %d: %w", s.cycle, err)
		}

		s.accumulate(out)

		if s.traceHook != nil {
			s.traceHook(s.cycle, out)
		}

		s.cycle++
		s.stats.Cycles = s.cycle

		if s.cycle-s.lastWritebackCycle >= deadlockThreshold {
			return s.stats, fmt.Errorf("%w: no writeback in %d cycles (cycle %d)", ErrDeadlock, deadlockThreshold, s.cycle)
		}
	}

	return s.stats, nil
}

func (s *Simulator) accumulate(out pipeline.CycleOutcome) {
	for _, o := range []pipeline.Outcome{out.Fetch, out.Decode, out.Execute, out.Memory, out.Writeback} {
		if o.Stalled {
			s.stats.Stalls++
		}
		if o.Flushed {
			s.stats.Flushes++
		}
	}

	if out.Memory.Trace == "misprediction" {
		s.stats.Mispredictions++
	}

	if out.Writeback.Retired {
		s.executedInstrs++
		s.stats.Instructions = s.executedInstrs
		s.lastWritebackCycle = s.cycle
	}
}

// Cycle returns the current cycle count.
func (s *Simulator) Cycle() uint64 { return s.cycle }

// Statistics returns a snapshot of the run's counters so far.
func (s *Simulator) Statistics() Statistics { return s.stats }
