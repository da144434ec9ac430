package insts

// RV32I/M opcode field (word[6:0]) values used by the decode table below.
const (
	opLUI    = 0b0110111
	opAUIPC  = 0b0010111
	opJAL    = 0b1101111
	opJALR   = 0b1100111
	opBranch = 0b1100011
	opLoad   = 0b0000011
	opStore  = 0b0100011
	opImm    = 0b0010011
	opReg    = 0b0110011
	opSystem = 0b1110011
)

// The three instruction words that terminate a run. ECALL/EBREAK are
// matched by raw word; the sentinel is a completely ordinary SB encoding
// (sb x0, -1(x0)) that is additionally tagged Halt.
const (
	wordECALL    uint32 = 0x00000073
	wordEBREAK   uint32 = 0x00100073
	wordSentinel uint32 = 0xFE000FA3 // sb x0,-1(x0)
)

// decodeRow is one entry of the static instruction table: opcode plus
// funct3/bit30/bit25 discriminate overloaded opcodes (ADD vs SUB, SRL vs
// SRA, the six branch comparisons, and so on) down to one control bundle.
// A field value of -1 in fields with that sentinel means "don't care";
// every other row constraint must hold exactly for the row to match.
type decodeRow struct {
	opcode uint32
	funct3 int16 // -1 = don't care
	bit30  int8  // -1 = don't care, else 0 or 1
	bit25  int8  // -1 = don't care, else 0 or 1

	immFmt   ImmFormat
	aluOp    AluOp
	divOp    DivOp
	rs1Use   bool
	rs2Use   bool
	op1Src   Op1Src
	op2Src   Op2Src
	memOp    MemOp
	memWidth MemWidth
	memUns   bool
	wbEnable bool
	branch   BranchType
}

var decodeTable = []decodeRow{
	// LUI: rd = 0 + imm (U-type, already shifted into bits 31:12).
	{opcode: opLUI, funct3: -1, bit30: -1, bit25: -1,
		immFmt: ImmU, aluOp: AluADD, op1Src: Op1Zero, op2Src: Op2Imm, wbEnable: true},

	// AUIPC: rd = PC + imm.
	{opcode: opAUIPC, funct3: -1, bit30: -1, bit25: -1,
		immFmt: ImmU, aluOp: AluADD, op1Src: Op1PC, op2Src: Op2Imm, wbEnable: true},

	// JAL: rd = PC + 4; target computed independently by the branch resolver.
	{opcode: opJAL, funct3: -1, bit30: -1, bit25: -1,
		immFmt: ImmJ, aluOp: AluADD, op1Src: Op1PC, op2Src: Op2Four,
		wbEnable: true, branch: BranchJAL},

	// JALR: rd = PC + 4; target = (rs1 + imm) & ~1, computed by the resolver.
	{opcode: opJALR, funct3: 0b000, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1PC, op2Src: Op2Four,
		rs1Use: true, wbEnable: true, branch: BranchJALR},

	// Conditional branches: comparison is done directly on rs1/rs2 by the
	// resolver, not through the ALU mux.
	{opcode: opBranch, funct3: 0b000, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBEQ},
	{opcode: opBranch, funct3: 0b001, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBNE},
	{opcode: opBranch, funct3: 0b100, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBLT},
	{opcode: opBranch, funct3: 0b101, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBGE},
	{opcode: opBranch, funct3: 0b110, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBLTU},
	{opcode: opBranch, funct3: 0b111, bit30: -1, bit25: -1,
		immFmt: ImmB, aluOp: AluNOP, rs1Use: true, rs2Use: true, branch: BranchBGEU},

	// Loads: address = rs1 + imm.
	{opcode: opLoad, funct3: 0b000, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true,
		memOp: MemLoad, memWidth: WidthByte, wbEnable: true},
	{opcode: opLoad, funct3: 0b001, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true,
		memOp: MemLoad, memWidth: WidthHalf, wbEnable: true},
	{opcode: opLoad, funct3: 0b010, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true,
		memOp: MemLoad, memWidth: WidthWord, wbEnable: true},
	{opcode: opLoad, funct3: 0b100, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true,
		memOp: MemLoad, memWidth: WidthByte, memUns: true, wbEnable: true},
	{opcode: opLoad, funct3: 0b101, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true,
		memOp: MemLoad, memWidth: WidthHalf, memUns: true, wbEnable: true},

	// Stores: address = rs1 + imm, value = rs2.
	{opcode: opStore, funct3: 0b000, bit30: -1, bit25: -1,
		immFmt: ImmS, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, rs2Use: true,
		memOp: MemStore, memWidth: WidthByte},
	{opcode: opStore, funct3: 0b001, bit30: -1, bit25: -1,
		immFmt: ImmS, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, rs2Use: true,
		memOp: MemStore, memWidth: WidthHalf},
	{opcode: opStore, funct3: 0b010, bit30: -1, bit25: -1,
		immFmt: ImmS, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, rs2Use: true,
		memOp: MemStore, memWidth: WidthWord},

	// Immediate ALU ops.
	{opcode: opImm, funct3: 0b000, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b010, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluSLT, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b011, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluSLTU, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b100, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluXOR, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b110, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluOR, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b111, bit30: -1, bit25: -1,
		immFmt: ImmI, aluOp: AluAND, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b001, bit30: 0, bit25: -1,
		immFmt: ImmI, aluOp: AluSLL, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b101, bit30: 0, bit25: -1,
		immFmt: ImmI, aluOp: AluSRL, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},
	{opcode: opImm, funct3: 0b101, bit30: 1, bit25: -1,
		immFmt: ImmI, aluOp: AluSRA, op1Src: Op1Reg, op2Src: Op2Imm, rs1Use: true, wbEnable: true},

	// Register ALU ops (bit25==0, i.e. funct7 != 0000001).
	{opcode: opReg, funct3: 0b000, bit30: 0, bit25: 0,
		aluOp: AluADD, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b000, bit30: 1, bit25: 0,
		aluOp: AluSUB, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b001, bit30: 0, bit25: 0,
		aluOp: AluSLL, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b010, bit30: 0, bit25: 0,
		aluOp: AluSLT, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b011, bit30: 0, bit25: 0,
		aluOp: AluSLTU, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b100, bit30: 0, bit25: 0,
		aluOp: AluXOR, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b101, bit30: 0, bit25: 0,
		aluOp: AluSRL, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b101, bit30: 1, bit25: 0,
		aluOp: AluSRA, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b110, bit30: 0, bit25: 0,
		aluOp: AluOR, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b111, bit30: 0, bit25: 0,
		aluOp: AluAND, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},

	// RV32M extension (funct7 == 0000001, i.e. bit25==1, bit30==0).
	{opcode: opReg, funct3: 0b000, bit30: 0, bit25: 1,
		aluOp: AluMUL, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b001, bit30: 0, bit25: 1,
		aluOp: AluMULH, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b010, bit30: 0, bit25: 1,
		aluOp: AluMULHSU, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b011, bit30: 0, bit25: 1,
		aluOp: AluMULHU, op1Src: Op1Reg, op2Src: Op2Reg, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b100, bit30: 0, bit25: 1,
		divOp: DivDIV, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b101, bit30: 0, bit25: 1,
		divOp: DivDIVU, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b110, bit30: 0, bit25: 1,
		divOp: DivREM, rs1Use: true, rs2Use: true, wbEnable: true},
	{opcode: opReg, funct3: 0b111, bit30: 0, bit25: 1,
		divOp: DivREMU, rs1Use: true, rs2Use: true, wbEnable: true},

	// ECALL/EBREAK: no register effects of their own; Halt is stamped by
	// literal raw-word match in Decode below.
	{opcode: opSystem, funct3: 0b000, bit30: -1, bit25: -1, aluOp: AluNOP},
}

// Decoder decodes RV32IM machine words into Instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32IM instruction word. An opcode with no
// matching table row decodes as a benign NOP-equivalent bundle rather
// than faulting; the ISA this decoder targets is closed, so an
// unmatched opcode only ever happens on a malformed or foreign word.
func (d *Decoder) Decode(word uint32) Instruction {
	opcode := word & 0x7F
	funct3 := int16((word >> 12) & 0x7)
	bit30 := int8((word >> 30) & 0x1)
	bit25 := int8((word >> 25) & 0x1)

	row, ok := matchRow(opcode, funct3, bit30, bit25)
	if !ok {
		inst := NopInstruction()
		inst.Raw = word
		return inst
	}

	inst := Instruction{
		Raw:         word,
		Rd:          uint8((word >> 7) & 0x1F),
		Rs1:         uint8((word >> 15) & 0x1F),
		Rs2:         uint8((word >> 20) & 0x1F),
		Rs1Use:      row.rs1Use,
		Rs2Use:      row.rs2Use,
		ImmFormat:   row.immFmt,
		AluOp:       row.aluOp,
		DivOp:       row.divOp,
		Op1Src:      row.op1Src,
		Op2Src:      row.op2Src,
		// Suppressing writes to x0 is the register file's job, not the
		// decoder's; WbEnable reflects only whether the instruction class
		// writes a register at all.
		WbEnable:    row.wbEnable,
		MemOp:       row.memOp,
		MemWidth:    row.memWidth,
		MemUnsigned: row.memUns,
		BranchType:  row.branch,
	}
	inst.Imm = genImmediate(word, row.immFmt)

	if word == wordECALL || word == wordEBREAK || word == wordSentinel {
		inst.Halt = true
	}
	if word == wordECALL {
		inst.IsEcall = true
	}

	return inst
}

func matchRow(opcode uint32, funct3 int16, bit30, bit25 int8) (decodeRow, bool) {
	for _, row := range decodeTable {
		if row.opcode != opcode {
			continue
		}
		if row.funct3 != -1 && row.funct3 != funct3 {
			continue
		}
		if row.bit30 != -1 && row.bit30 != bit30 {
			continue
		}
		if row.bit25 != -1 && row.bit25 != bit25 {
			continue
		}
		return row, true
	}
	return decodeRow{}, false
}

// genImmediate produces the one immediate selected by format, per the
// RV32I I/S/B/U/J bit layouts.
func genImmediate(word uint32, format ImmFormat) int32 {
	switch format {
	case ImmI:
		return int32(word) >> 20
	case ImmS:
		imm := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
		return signExtend(imm, 12)
	case ImmB:
		imm := (((word >> 31) & 0x1) << 12) |
			(((word >> 7) & 0x1) << 11) |
			(((word >> 25) & 0x3F) << 5) |
			(((word >> 8) & 0xF) << 1)
		return signExtend(imm, 13)
	case ImmU:
		return int32(word & 0xFFFFF000)
	case ImmJ:
		imm := (((word >> 31) & 0x1) << 20) |
			(((word >> 12) & 0xFF) << 12) |
			(((word >> 20) & 0x1) << 11) |
			(((word >> 21) & 0x3FF) << 1)
		return signExtend(imm, 21)
	default:
		return 0
	}
}

// signExtend sign-extends the low `bits` bits of v.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
