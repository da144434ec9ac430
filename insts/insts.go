// Package insts provides RV32IM instruction definitions and decoding.
//
// This package decodes RV32IM machine words into a control bundle that
// the pipeline's ID stage can latch directly: a one-hot-ish set of
// disjoint enum fields (ALU op, immediate format, memory op/width,
// branch type, divide op) rather than a tagged union per opcode. The
// decode table in decoder.go OR-reduces a single matching row into these
// fields; an unmatched word decodes to the same benign bundle as a NOP.
package insts

// AluOp selects the ALU's result mux. The base ten are the RV32I
// arithmetic/logic operations; the four MUL variants are dispatched to
// the multiplier instead of the combinational adder/shifter. NOP is the
// benign default for instructions whose result is unused (branches and
// system instructions). An unmatched opcode decodes to NopInstruction,
// whose ALU op is ADD.
type AluOp uint8

const (
	AluNOP AluOp = iota
	AluADD
	AluSUB
	AluSLL
	AluSLT
	AluSLTU
	AluXOR
	AluSRL
	AluSRA
	AluOR
	AluAND
	AluMUL
	AluMULH
	AluMULHSU
	AluMULHU
)

// IsMul reports whether op is one of the four multiply variants.
func (op AluOp) IsMul() bool {
	return op == AluMUL || op == AluMULH || op == AluMULHSU || op == AluMULHU
}

// DivOp selects a divider operation. Kept as a field distinct from AluOp
// since divide dispatches to its own multi-cycle unit rather than the ALU.
type DivOp uint8

const (
	DivNone DivOp = iota
	DivDIV
	DivDIVU
	DivREM
	DivREMU
)

// ImmFormat selects which of the five RV32I immediate encodings a row uses.
type ImmFormat uint8

const (
	ImmNone ImmFormat = iota
	ImmI
	ImmS
	ImmB
	ImmU
	ImmJ
)

// MemOp distinguishes load/store/no memory access.
type MemOp uint8

const (
	MemNone MemOp = iota
	MemLoad
	MemStore
)

// MemWidth selects the byte/half/word alignment path in MEM.
type MemWidth uint8

const (
	WidthNone MemWidth = iota
	WidthByte
	WidthHalf
	WidthWord
)

// BranchType selects the EX-stage branch resolver's condition and target
// computation.
type BranchType uint8

const (
	BranchNone BranchType = iota
	BranchBEQ
	BranchBNE
	BranchBLT
	BranchBGE
	BranchBLTU
	BranchBGEU
	BranchJAL
	BranchJALR
)

// Op1Src selects ALU input 1: the rs1 operand (after forwarding), PC, or
// the constant zero (used by LUI, whose result is the immediate alone).
type Op1Src uint8

const (
	Op1Reg Op1Src = iota
	Op1PC
	Op1Zero
)

// Op2Src selects ALU input 2: the rs2 operand (after forwarding), the
// decoded immediate, or the constant 4 (for JAL/JALR's PC+4 link value).
type Op2Src uint8

const (
	Op2Reg Op2Src = iota
	Op2Imm
	Op2Four
)

// Instruction is the decoded control bundle produced by Decode. It holds
// everything ID needs to populate the ID/EX latch: register indices,
// control signals, and the already-selected immediate.
type Instruction struct {
	Raw uint32

	Rd, Rs1, Rs2 uint8
	Rs1Use       bool
	Rs2Use       bool

	ImmFormat ImmFormat
	Imm       int32

	AluOp    AluOp
	DivOp    DivOp
	Op1Src   Op1Src
	Op2Src   Op2Src
	WbEnable bool

	MemOp       MemOp
	MemWidth    MemWidth
	MemUnsigned bool

	BranchType BranchType

	// Halt marks ECALL, EBREAK, and the "sb x0,-1(x0)" sentinel. It rides
	// alongside the instruction's ordinary decode (the sentinel is a
	// completely normal SB otherwise) all the way to WB.
	Halt bool

	// IsEcall distinguishes ECALL from EBREAK/the sentinel within the Halt
	// set. WB routes IsEcall instructions through the environment-call
	// convention instead of halting outright; EBREAK and the sentinel stay
	// pure halts.
	IsEcall bool
}

// NopInstruction is the canonical "addi x0,x0,0" control bundle, used to
// fill a flushed or stalled pipeline slot.
func NopInstruction() Instruction {
	return Instruction{
		Raw:      0x00000013,
		AluOp:    AluADD,
		Op1Src:   Op1Reg,
		Op2Src:   Op2Imm,
		WbEnable: false,
	}
}
