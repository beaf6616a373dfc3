package bpu_test

import (
	"github.com/gkorepanov/mipt-mips/timing/bpu"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newBimodal() *bpu.BPU {
	b, err := bpu.New(bpu.Config{SizeInEntries: 128, Ways: 16, PredictionBits: 2})
	Expect(err).NotTo(HaveOccurred())

	return b
}

var _ = Describe("BPU", func() {
	Describe("construction validation", func() {
		It("rejects a non-power-of-two set count", func() {
			_, err := bpu.New(bpu.Config{SizeInEntries: 100, Ways: 20})
			Expect(err).To(HaveOccurred())
		})

		It("rejects sizes not divisible by ways", func() {
			_, err := bpu.New(bpu.Config{SizeInEntries: 128, Ways: 14})
			Expect(err).To(HaveOccurred())
		})

		It("rejects size smaller than ways times block size", func() {
			_, err := bpu.New(bpu.Config{SizeInEntries: 10, Ways: 20})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("end-to-end scenarios", func() {
		It("predicts not-taken on an untrained PC (miss)", func() {
			b := newBimodal()

			for _, pc := range []uint64{12, 16, 20} {
				Expect(b.PredictTaken(pc)).To(BeFalse())
			}
		})

		It("trains to taken and saturates", func() {
			b := newBimodal()

			b.Update(true, 12, 28)
			b.Update(true, 12, 28)

			Expect(b.PredictTaken(12)).To(BeTrue())
			Expect(b.GetTarget(12)).To(BeEquivalentTo(28))

			for i := 0; i < 5; i++ {
				b.Update(true, 12, 28)
			}
			Expect(b.PredictTaken(12)).To(BeTrue())
		})

		It("un-trains from strongly-taken back to not-taken", func() {
			b := newBimodal()

			for i := 0; i < 4; i++ {
				b.Update(true, 12, 28)
			}
			Expect(b.PredictTaken(12)).To(BeTrue())

			b.Update(false, 12, 0)
			Expect(b.PredictTaken(12)).To(BeTrue(), "one un-teach from strong should still be taken")

			for i := 0; i < 3; i++ {
				b.Update(false, 12, 0)
			}
			Expect(b.PredictTaken(12)).To(BeFalse())
		})

		It("resists a single positive update from strong not-taken", func() {
			b := newBimodal()

			for i := 0; i < 4; i++ {
				b.Update(false, 12, 0)
			}

			b.Update(true, 12, 28)
			Expect(b.PredictTaken(12)).To(BeFalse())

			b.Update(true, 12, 28)
			Expect(b.PredictTaken(12)).To(BeTrue())
		})

		It("survives associativity stress from competing tags", func() {
			b := newBimodal()

			for i := uint64(0); i < 1000; i++ {
				b.Update(false, i, 0)
				if i%50 == 0 {
					b.Update(true, 16, 48)
				}
			}

			Expect(b.PredictTaken(16)).To(BeTrue())
			Expect(b.GetTarget(16)).To(BeEquivalentTo(48))
			Expect(b.PredictTaken(4)).To(BeFalse())
		})

		It("switches prediction on a fresh history pattern in two-level adaptive mode", func() {
			b, err := bpu.New(bpu.Config{SizeInEntries: 128, Ways: 16, PredictionBits: 2, PredictionLevel: 2})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 6; i++ {
				b.Update(true, 12, 28)
				b.Update(false, 12, 28)
			}

			tookAfterTrained := b.PredictTaken(12)

			b.Update(true, 12, 28)
			tookAfterFlip := b.PredictTaken(12)

			Expect(tookAfterFlip).NotTo(Equal(tookAfterTrained))
		})
	})

	Describe("target-change reset rule", func() {
		It("resets state only when the branch is taken and the target differs", func() {
			b := newBimodal()

			b.Update(true, 12, 28)
			b.Update(true, 12, 28)
			Expect(b.PredictTaken(12)).To(BeTrue())

			b.Update(true, 12, 999)
			Expect(b.PredictTaken(12)).To(BeFalse(), "target change on a taken branch must reset to default state")

			b.Update(true, 12, 999)
			Expect(b.PredictTaken(12)).To(BeTrue())
		})
	})
})
