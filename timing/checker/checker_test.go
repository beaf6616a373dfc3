package checker_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/gkorepanov/mipt-mips/timing/checker"
	"github.com/gkorepanov/mipt-mips/timing/checker/mocks"
)

var _ = Describe("Checker", func() {
	var (
		ctrl  *gomock.Controller
		model *mocks.MockFunctionalModel
		c     *checker.Checker
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		model = mocks.NewMockFunctionalModel(ctrl)
		c = checker.New(model)
	})

	It("passes when the functional trace matches the timing trace", func() {
		model.EXPECT().Step().Return("0xdeadbeef", nil)

		Expect(c.Check("0xdeadbeef")).To(Succeed())
	})

	It("fails with ErrMismatch when traces disagree", func() {
		model.EXPECT().Step().Return("0xdeadbeef", nil)

		err := c.Check("0xcafecafe")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, checker.ErrMismatch)).To(BeTrue())
	})

	It("propagates a functional model step error", func() {
		stepErr := errors.New("boom")
		model.EXPECT().Step().Return("", stepErr)

		err := c.Check("anything")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, stepErr)).To(BeTrue())
	})
})
