package sim_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gkorepanov/mipt-mips/emu"
	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/pipeline"
	"github.com/gkorepanov/mipt-mips/timing/rf"
	"github.com/gkorepanov/mipt-mips/timing/sim"
)

func newBPU() *bpu.BPU {
	b, err := bpu.New(bpu.Config{SizeInEntries: 4, Ways: 1})
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("Simulator", func() {
	It("runs to completion and reports an IPC in (0, 1]", func() {
		image := buildImage(64,
			addiu(1, 0, 1),
			addiu(2, 0, 2),
			addiu(3, 0, 3),
			addiu(4, 0, 4),
		)
		mem := emu.NewMemory(image, 0)
		p, err := pipeline.New(mem, newBPU(), rf.New(), nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		stats, err := s.Run(4)
		Expect(err).NotTo(HaveOccurred())

		Expect(stats.Instructions).To(Equal(uint64(4)))
		Expect(stats.Cycles).To(BeNumerically(">", 0))
		Expect(stats.IPC()).To(BeNumerically(">", 0))
		Expect(stats.IPC()).To(BeNumerically("<=", 1))
		Expect(s.Cycle()).To(Equal(stats.Cycles))
	})

	It("counts stalls alongside retired instructions", func() {
		image := buildImage(64,
			addiu(1, 0, 5),
			addiu(1, 0, 6), // decode-hazards against the instruction right above
			addiu(2, 0, 7),
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()
		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		stats, err := s.Run(3)
		Expect(err).NotTo(HaveOccurred())

		Expect(stats.Instructions).To(Equal(uint64(3)))
		Expect(stats.Stalls).To(BeNumerically(">", 0))
		Expect(regs.Read(1)).To(Equal(uint32(6)))
		Expect(regs.Read(2)).To(Equal(uint32(7)))
	})

	It("trips the deadlock watchdog when a register never becomes valid", func() {
		image := buildImage(64,
			addiu(2, 1, 0), // reads $1, which we invalidate below and never write
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()
		regs.Invalidate(1) // simulates a writer that will never retire

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		_, err = s.Run(1)

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, sim.ErrDeadlock)).To(BeTrue())
	})
})
