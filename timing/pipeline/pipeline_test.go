package pipeline_test

import (
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

var _ = Describe("Pipeline", func() {
	It("retires independent instructions in program order with no stalls", func() {
		// Padded well past the program: Fetch keeps running speculatively
		// ahead of Writeback, so the image must cover every address it
		// could reach before the run loop stops.
		image := buildImage(64,
			addiu(1, 0, 5),  // $1 = 5
			addiu(2, 0, 7),  // $2 = 7
			addiu(3, 0, 9),  // $3 = 9
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		stats, err := s.Run(3)
		Expect(err).NotTo(HaveOccurred())

		Expect(regs.Read(1)).To(Equal(uint32(5)))
		Expect(regs.Read(2)).To(Equal(uint32(7)))
		Expect(regs.Read(3)).To(Equal(uint32(9)))
		Expect(stats.Instructions).To(Equal(uint64(3)))
		Expect(stats.Stalls).To(BeZero())
		Expect(stats.IPC()).To(BeNumerically(">", 0))
		Expect(stats.IPC()).To(BeNumerically("<=", 1))
	})

	It("stalls decode on a RAW hazard and still produces the correct result", func() {
		image := buildImage(64,
			addiu(1, 0, 5),  // $1 = 5
			add(2, 1, 1),    // $2 = $1 + $1, depends on the instruction right before it
			addiu(3, 0, 1),  // $3 = 1, independent, comes after
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		stats, err := s.Run(3)
		Expect(err).NotTo(HaveOccurred())

		Expect(regs.Read(1)).To(Equal(uint32(5)))
		Expect(regs.Read(2)).To(Equal(uint32(10)))
		Expect(regs.Read(3)).To(Equal(uint32(1)))
		Expect(stats.Instructions).To(Equal(uint64(3)))
		Expect(stats.Stalls).To(BeNumerically(">", 0))
	})

	It("holds fetch position while decode is stalled and still retires in order", func() {
		image := buildImage(64,
			addiu(1, 0, 5),
			add(2, 1, 1),
			addiu(3, 0, 1),
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		var cycle uint64
		sawStall := false
		for i := 0; i < 40; i++ {
			out, err := p.Tick(cycle)
			Expect(err).NotTo(HaveOccurred())
			cycle++
			if out.Decode.Stalled {
				sawStall = true
			}
			if out.Writeback.Retired && regs.Read(3) == 1 {
				break
			}
		}
		Expect(sawStall).To(BeTrue())
		Expect(regs.Read(2)).To(Equal(uint32(10)))
		Expect(regs.Read(3)).To(Equal(uint32(1)))
	})

	It("squashes wrong-path fetches on a branch misprediction", func() {
		// An untrained BPU always predicts not-taken, so a branch that is
		// actually always taken (beq $0, $0, ...) mispredicts on its very
		// first execution. The two instructions fetched down the
		// not-taken path (both writing $1) must never retire, and the
		// mispredicted branch itself is squashed at Memory too.
		image := buildImage(32,
			beq(0, 0, 2),    // word 0: always taken, target = word 3
			addiu(1, 0, 111), // word 1: wrong path
			addiu(1, 0, 222), // word 2: wrong path
			addiu(4, 0, 4),   // word 3: the real target
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		stats, err := s.Run(1) // only the target instruction retires
		Expect(err).NotTo(HaveOccurred())

		Expect(regs.Read(1)).To(Equal(uint32(0)), "wrong-path writes to $1 must never commit")
		Expect(regs.Read(4)).To(Equal(uint32(4)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Flushes).To(BeNumerically(">", 0))
	})

	It("round-trips a stored value back through a load from the same address", func() {
		image := buildImage(64,
			addiu(1, 0, 99), // $1 = 99
			sw(1, 0, 32),    // mem[32] = $1
			lw(2, 0, 32),    // $2 = mem[32]
		)
		mem := emu.NewMemory(image, 0)
		regs := rf.New()

		p, err := pipeline.New(mem, newBPU(), regs, nil)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(p)
		_, err = s.Run(3)
		Expect(err).NotTo(HaveOccurred())

		Expect(regs.Read(2)).To(Equal(uint32(99)))
	})
})
