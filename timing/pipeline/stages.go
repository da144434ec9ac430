package pipeline

import (
	"github.com/sarchlab/rv32pipe/emu"
	"github.com/sarchlab/rv32pipe/insts"
)

// alu computes the result of a non-mul/div ALU operation, generalized
// from the teacher's doExecute ALU switch (timing/pipeline/stages.go)
// to RV32I/M's opcode set.
func alu(op insts.AluOp, a, b uint32) uint32 {
	switch op {
	case insts.AluADD:
		return a + b
	case insts.AluSUB:
		return a - b
	case insts.AluSLL:
		return a << (b & 0x1F)
	case insts.AluSLT:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.AluSLTU:
		if a < b {
			return 1
		}
		return 0
	case insts.AluXOR:
		return a ^ b
	case insts.AluSRL:
		return a >> (b & 0x1F)
	case insts.AluSRA:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.AluOR:
		return a | b
	case insts.AluAND:
		return a & b
	default:
		return 0
	}
}

// mulKindFor maps an AluOp to the Multiplier's dispatch kind.
func mulKindFor(op insts.AluOp) emu.MulKind {
	switch op {
	case insts.AluMULH:
		return emu.MulHSS
	case insts.AluMULHSU:
		return emu.MulHSU
	case insts.AluMULHU:
		return emu.MulHUU
	default:
		return emu.MulLow
	}
}

// operand1 resolves EX's first ALU input per the instruction's Op1Src,
// generalizing the teacher's per-instruction-class operand selection
// into the decode table's uniform mux (insts.Op1Src/Op2Src).
func operand1(src insts.Op1Src, rs1 uint32, pc uint32) uint32 {
	switch src {
	case insts.Op1PC:
		return pc
	case insts.Op1Zero:
		return 0
	default:
		return rs1
	}
}

func operand2(src insts.Op2Src, rs2 uint32, imm int32) uint32 {
	switch src {
	case insts.Op2Imm:
		return uint32(imm)
	case insts.Op2Four:
		return 4
	default:
		return rs2
	}
}

// branchOutcome is EX's branch resolver: the actual taken/target pair
// for a branch/jump instruction, compared against the IF-time
// prediction carried in the ID/EX latch. Grounded on the teacher's
// branch-resolution block in doExecute, generalized from ARM64
// condition codes to RV32I's six branch comparisons plus JAL/JALR.
func branchOutcome(bt insts.BranchType, pc uint32, rs1, rs2 uint32, imm int32) (target uint32, taken bool) {
	switch bt {
	case insts.BranchNone:
		return 0, false
	case insts.BranchJAL:
		return pc + uint32(imm), true
	case insts.BranchJALR:
		return (rs1 + uint32(imm)) &^ 1, true
	case insts.BranchBEQ:
		taken = rs1 == rs2
	case insts.BranchBNE:
		taken = rs1 != rs2
	case insts.BranchBLT:
		taken = int32(rs1) < int32(rs2)
	case insts.BranchBGE:
		taken = int32(rs1) >= int32(rs2)
	case insts.BranchBLTU:
		taken = rs1 < rs2
	case insts.BranchBGEU:
		taken = rs1 >= rs2
	}
	if taken {
		target = pc + uint32(imm)
	}
	return target, taken
}

// alignLoad extracts and sign/zero-extends a loaded value from the
// full 32-bit word the arbiter returned. byteOff is addr&0x3.
func alignLoad(word uint32, width insts.MemWidth, unsigned bool, byteOff uint32) uint32 {
	switch width {
	case insts.WidthByte:
		b := (word >> (byteOff * 8)) & 0xFF
		if unsigned {
			return b
		}
		return uint32(int32(int8(b)))
	case insts.WidthHalf:
		h := (word >> (byteOff * 8)) & 0xFFFF
		if unsigned {
			return h
		}
		return uint32(int32(int16(h)))
	default:
		return word
	}
}

// decodedOperand bundles the pieces of a just-decoded instruction the
// hazard unit and the ID/EX latch both need before the stall decision
// is made.
type decodedOperand struct {
	inst     insts.Instruction
	rs1Value uint32
	rs2Value uint32
}

func decodeAt(decoder *insts.Decoder, regs *emu.RegFile, word uint32) decodedOperand {
	inst := decoder.Decode(word)
	return decodedOperand{
		inst:     inst,
		rs1Value: regs.ReadReg(inst.Rs1),
		rs2Value: regs.ReadReg(inst.Rs2),
	}
}
