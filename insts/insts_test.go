package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32pipe/insts"
)

var _ = Describe("Decoder", func() {
	var d *insts.Decoder

	BeforeEach(func() {
		d = insts.NewDecoder()
	})

	Describe("U-type", func() {
		It("decodes LUI", func() {
			// lui x1, 0x12345 -> rd=1, imm=0x12345000
			word := uint32(0x12345000) | (1 << 7) | 0x37
			inst := d.Decode(word)
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.AluOp).To(Equal(insts.AluADD))
			Expect(inst.Op1Src).To(Equal(insts.Op1Zero))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
			Expect(inst.WbEnable).To(BeTrue())
		})

		It("decodes AUIPC", func() {
			word := uint32(0x00001000) | (2 << 7) | 0x17
			inst := d.Decode(word)
			Expect(inst.Op1Src).To(Equal(insts.Op1PC))
			Expect(inst.Imm).To(Equal(int32(0x00001000)))
		})
	})

	Describe("jumps", func() {
		It("decodes JAL with a negative offset", func() {
			// jal x1, -4: imm=-4 => all immediate bits reflect sign
			// imm[20]=1 imm[10:1]=0x3FE imm[11]=1 imm[19:12]=0xFF
			word := uint32(1<<7) | 0x6F
			word |= 1 << 31               // imm[20]
			word |= 0xFF << 12            // imm[19:12]
			word |= 1 << 20               // imm[11]
			word |= uint32(0x3FE) << 21   // imm[10:1]
			inst := d.Decode(word)
			Expect(inst.BranchType).To(Equal(insts.BranchJAL))
			Expect(inst.Op2Src).To(Equal(insts.Op2Four))
			Expect(inst.WbEnable).To(BeTrue())
			Expect(inst.Imm).To(Equal(int32(-4)))
		})

		It("decodes JALR", func() {
			word := uint32(4<<15) | (1 << 7) | (0 << 12) | 0x67
			inst := d.Decode(word)
			Expect(inst.BranchType).To(Equal(insts.BranchJALR))
			Expect(inst.Rs1Use).To(BeTrue())
		})
	})

	Describe("branches", func() {
		It("decodes BEQ", func() {
			word := uint32(1<<15) | (2 << 20) | (0 << 12) | 0x63
			inst := d.Decode(word)
			Expect(inst.BranchType).To(Equal(insts.BranchBEQ))
			Expect(inst.Rs1Use).To(BeTrue())
			Expect(inst.Rs2Use).To(BeTrue())
		})

		It("decodes BLTU", func() {
			word := uint32(1<<15) | (2 << 20) | (0b110 << 12) | 0x63
			inst := d.Decode(word)
			Expect(inst.BranchType).To(Equal(insts.BranchBLTU))
		})
	})

	Describe("loads and stores", func() {
		It("decodes LW", func() {
			word := uint32(1<<15) | (4 << 20) | (0b010 << 12) | (5 << 7) | 0x03
			inst := d.Decode(word)
			Expect(inst.MemOp).To(Equal(insts.MemLoad))
			Expect(inst.MemWidth).To(Equal(insts.WidthWord))
			Expect(inst.MemUnsigned).To(BeFalse())
			Expect(inst.WbEnable).To(BeTrue())
		})

		It("decodes LBU", func() {
			word := uint32(1<<15) | (0b100 << 12) | 0x03
			inst := d.Decode(word)
			Expect(inst.MemWidth).To(Equal(insts.WidthByte))
			Expect(inst.MemUnsigned).To(BeTrue())
		})

		It("decodes SW", func() {
			word := uint32(1<<15) | (2 << 20) | (0b010 << 12) | 0x23
			inst := d.Decode(word)
			Expect(inst.MemOp).To(Equal(insts.MemStore))
			Expect(inst.MemWidth).To(Equal(insts.WidthWord))
			Expect(inst.Rs1Use).To(BeTrue())
			Expect(inst.Rs2Use).To(BeTrue())
			Expect(inst.WbEnable).To(BeFalse())
		})
	})

	Describe("immediate ALU ops", func() {
		It("decodes ADDI with a negative immediate", func() {
			// addi x1, x2, -1
			word := uint32(0xFFF<<20) | (2 << 15) | (0 << 12) | (1 << 7) | 0x13
			inst := d.Decode(word)
			Expect(inst.AluOp).To(Equal(insts.AluADD))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("distinguishes SRLI from SRAI via bit30", func() {
			srli := uint32(5<<20) | (1 << 15) | (0b101 << 12) | 0x13
			srai := srli | (1 << 30)
			Expect(d.Decode(srli).AluOp).To(Equal(insts.AluSRL))
			Expect(d.Decode(srai).AluOp).To(Equal(insts.AluSRA))
		})
	})

	Describe("register ALU ops and the M extension", func() {
		It("decodes ADD vs SUB via bit30", func() {
			add := uint32(2<<20) | (1 << 15) | (0b000 << 12) | 0x33
			sub := add | (1 << 30)
			Expect(d.Decode(add).AluOp).To(Equal(insts.AluADD))
			Expect(d.Decode(sub).AluOp).To(Equal(insts.AluSUB))
		})

		It("decodes MUL, MULH, MULHSU, MULHU", func() {
			base := uint32(2<<20) | (1 << 15) | (1 << 25) | 0x33
			mul := base | (0b000 << 12)
			mulh := base | (0b001 << 12)
			mulhsu := base | (0b010 << 12)
			mulhu := base | (0b011 << 12)

			Expect(d.Decode(mul).AluOp).To(Equal(insts.AluMUL))
			Expect(d.Decode(mul).AluOp.IsMul()).To(BeTrue())
			Expect(d.Decode(mulh).AluOp).To(Equal(insts.AluMULH))
			Expect(d.Decode(mulhsu).AluOp).To(Equal(insts.AluMULHSU))
			Expect(d.Decode(mulhu).AluOp).To(Equal(insts.AluMULHU))
		})

		It("decodes DIV, DIVU, REM, REMU", func() {
			base := uint32(2<<20) | (1 << 15) | (1 << 25) | 0x33
			div := base | (0b100 << 12)
			divu := base | (0b101 << 12)
			rem := base | (0b110 << 12)
			remu := base | (0b111 << 12)

			Expect(d.Decode(div).DivOp).To(Equal(insts.DivDIV))
			Expect(d.Decode(divu).DivOp).To(Equal(insts.DivDIVU))
			Expect(d.Decode(rem).DivOp).To(Equal(insts.DivREM))
			Expect(d.Decode(remu).DivOp).To(Equal(insts.DivREMU))
		})
	})

	Describe("halt tokens", func() {
		It("flags ECALL", func() {
			Expect(d.Decode(0x00000073).Halt).To(BeTrue())
		})

		It("flags EBREAK", func() {
			Expect(d.Decode(0x00100073).Halt).To(BeTrue())
		})

		It("flags the sb x0,-1(x0) sentinel while still decoding it as an ordinary store", func() {
			inst := d.Decode(0xFE000FA3)
			Expect(inst.Halt).To(BeTrue())
			Expect(inst.MemOp).To(Equal(insts.MemStore))
			Expect(inst.MemWidth).To(Equal(insts.WidthByte))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("does not flag an ordinary store with the same shape but a different offset", func() {
			inst := d.Decode(0xFE000FA3 &^ (1 << 8))
			Expect(inst.Halt).To(BeFalse())
		})
	})

	Describe("unmatched opcodes", func() {
		It("decodes to the same benign bundle as NopInstruction", func() {
			inst := d.Decode(0x0000007F)
			Expect(inst.AluOp).To(Equal(insts.AluADD))
			Expect(inst.WbEnable).To(BeFalse())
			Expect(inst.BranchType).To(Equal(insts.BranchNone))
			Expect(inst.MemOp).To(Equal(insts.MemNone))
		})
	})
})

var _ = Describe("NopInstruction", func() {
	It("matches addi x0, x0, 0 and performs no writeback", func() {
		nop := insts.NopInstruction()
		Expect(nop.Raw).To(Equal(uint32(0x00000013)))
		Expect(nop.WbEnable).To(BeFalse())
	})
})
