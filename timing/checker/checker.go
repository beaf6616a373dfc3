// Package checker implements C6: stepping a reference functional model in
// lock-step with the pipeline's Writeback stage and comparing textual
// traces byte-for-byte, per spec §4.6. A mismatch is always fatal — it
// means the timing model and the functional reference have diverged on
// architectural state, which should never happen for a retired (i.e.
// non-squashed) instruction.
//go:generate mockgen -source=checker.go -destination=mocks/mock_functionalmodel.go -package=mocks
package checker

import (
	"errors"
	"fmt"
)

// ErrMismatch is returned when the functional model's trace disagrees with
// the timing model's trace for the same retired instruction.
var ErrMismatch = errors.New("checker: functional model trace mismatch")

// FunctionalModel is the seam the checker steps through. emu.Emulator
// satisfies it; tests substitute go.uber.org/mock-generated fakes to drive
// the mismatch-is-fatal path without a real program image.
type FunctionalModel interface {
	Step() (string, error)
}

// Checker couples a FunctionalModel to the pipeline's Writeback stage.
type Checker struct {
	model FunctionalModel
}

// New constructs a Checker stepping model once per retired instruction.
func New(model FunctionalModel) *Checker {
	return &Checker{model: model}
}

// Check steps the functional model once and compares its trace against
// simTrace (the timing pipeline's own rendering of the same retired
// instruction). Mispredicted instructions never reach here — they are
// squashed at MEM before Writeback, so the functional model and the
// pipeline always agree on which instruction retires next.
func (c *Checker) Check(simTrace string) error {
	refTrace, err := c.model.Step()
	if err != nil {
		return fmt.Errorf("checker: functional model step failed: %w", err)
	}

	if refTrace != simTrace {
		return fmt.Errorf("%w:\n  functional: %s\n  timing:     %s", ErrMismatch, refTrace, simTrace)
	}

	return nil
}
