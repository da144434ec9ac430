package hazard_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32pipe/timing/hazard"
)

var _ = Describe("Unit", func() {
	var u *hazard.Unit

	BeforeEach(func() {
		u = hazard.NewUnit()
	})

	Describe("Forward", func() {
		It("reads the register file when the operand is unused", func() {
			res := u.Forward(hazard.ForwardInput{Rs1: 5, Rs1Use: false}, 0xAAAA, 0)
			Expect(res.Rs1Sel).To(Equal(hazard.SelReg))
			Expect(res.Rs1Value).To(Equal(uint32(0xAAAA)))
		})

		It("never forwards to x0", func() {
			res := u.Forward(hazard.ForwardInput{
				Rs1: 0, Rs1Use: true,
				ExRd: 0, ExValid: true, ExAvailable: true, ExValue: 99,
			}, 0, 0)
			Expect(res.Rs1Sel).To(Equal(hazard.SelReg))
		})

		It("prefers EX over MEM and WB", func() {
			res := u.Forward(hazard.ForwardInput{
				Rs1: 5, Rs1Use: true,
				ExRd: 5, ExValid: true, ExAvailable: true, ExValue: 111,
				MemRd: 5, MemValid: true, MemValue: 222,
				WbRd: 5, WbValid: true, WbValue: 333,
			}, 0, 0)
			Expect(res.Rs1Sel).To(Equal(hazard.SelEX))
			Expect(res.Rs1Value).To(Equal(uint32(111)))
		})

		It("falls through to MEM when EX's value isn't available this cycle", func() {
			res := u.Forward(hazard.ForwardInput{
				Rs1: 5, Rs1Use: true,
				ExRd: 5, ExValid: true, ExAvailable: false,
				MemRd: 5, MemValid: true, MemValue: 222,
			}, 0, 0)
			Expect(res.Rs1Sel).To(Equal(hazard.SelMEM))
			Expect(res.Rs1Value).To(Equal(uint32(222)))
		})

		It("falls through to WB when neither EX nor MEM produces the register", func() {
			res := u.Forward(hazard.ForwardInput{
				Rs2: 7, Rs2Use: true,
				WbRd: 7, WbValid: true, WbValue: 444,
			}, 0, 0)
			Expect(res.Rs2Sel).To(Equal(hazard.SelWB))
			Expect(res.Rs2Value).To(Equal(uint32(444)))
		})

		It("resolves rs1 and rs2 independently", func() {
			res := u.Forward(hazard.ForwardInput{
				Rs1: 5, Rs1Use: true,
				Rs2: 6, Rs2Use: true,
				ExRd: 5, ExValid: true, ExAvailable: true, ExValue: 1,
				MemRd: 6, MemValid: true, MemValue: 2,
			}, 0, 0)
			Expect(res.Rs1Sel).To(Equal(hazard.SelEX))
			Expect(res.Rs2Sel).To(Equal(hazard.SelMEM))
		})
	})

	Describe("Stall", func() {
		It("stalls on a load-use hazard", func() {
			stall := u.Stall(hazard.StallInput{
				ExIsLoad: true, ExRd: 5, ExValid: true,
				Rs1: 5, Rs1Use: true,
			})
			Expect(stall).To(BeTrue())
		})

		It("does not stall a load whose destination is x0", func() {
			stall := u.Stall(hazard.StallInput{
				ExIsLoad: true, ExRd: 0, ExValid: true,
				Rs1: 0, Rs1Use: true,
			})
			Expect(stall).To(BeFalse())
		})

		It("does not stall a load that the consumer doesn't read", func() {
			stall := u.Stall(hazard.StallInput{
				ExIsLoad: true, ExRd: 5, ExValid: true,
				Rs1: 6, Rs1Use: true,
			})
			Expect(stall).To(BeFalse())
		})

		It("stalls while the multiplier is busy", func() {
			Expect(u.Stall(hazard.StallInput{MulBusy: true})).To(BeTrue())
		})

		It("stalls while the divider is busy", func() {
			Expect(u.Stall(hazard.StallInput{DivBusy: true})).To(BeTrue())
		})

		It("stalls while the memory port is contended", func() {
			Expect(u.Stall(hazard.StallInput{MemPortBusy: true})).To(BeTrue())
		})

		It("does not stall when nothing is contended", func() {
			Expect(u.Stall(hazard.StallInput{})).To(BeFalse())
		})
	})
})
