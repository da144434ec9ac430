package pipeline

import "github.com/sarchlab/rv32pipe/insts"

// IFIDRegister is the IF/ID pipeline latch: the fetched word plus the
// branch prediction IF made for it, generalized from the teacher's
// IFIDRegister (timing/pipeline/registers.go) to also carry the
// predicted-next-PC and predicted-taken bit EX needs to compare against
// at resolution.
type IFIDRegister struct {
	Valid           bool
	PC              uint32
	InstructionWord uint32
	PredictedNextPC uint32
	PredictedTaken  bool
}

// Clear resets the latch to an invalid (bubble) state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister is the ID/EX pipeline latch: the decoded control bundle
// plus the raw (unforwarded) register reads ID took this cycle.
type IDEXRegister struct {
	Valid           bool
	PC              uint32
	PredictedNextPC uint32
	PredictedTaken  bool
	Inst            insts.Instruction
	Rs1Value        uint32
	Rs2Value        uint32
}

// Clear resets the latch to an invalid (bubble) state carrying the
// canonical NOP control bundle.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{Inst: insts.NopInstruction()}
}

// EXMEMRegister is the EX/MEM pipeline latch: rd index, ALU result (or
// address for a load/store), rs2 value for a store, mem control, and
// halt flag.
type EXMEMRegister struct {
	Valid    bool
	PC       uint32
	Rd       uint8
	WbEnable bool
	// Value is the ALU result for non-memory ops, or the computed
	// byte address for a load/store. A load's final data is not known
	// until MEM processes it, which is why the hazard unit's EX_BYP
	// source treats a load's Value as unavailable this cycle.
	Value       uint32
	MemOp       insts.MemOp
	MemWidth    insts.MemWidth
	MemUnsigned bool
	StoreValue  uint32
	Halt        bool
	IsEcall     bool
}

// Clear resets the latch to an invalid (bubble) state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister is the MEM/WB pipeline latch: rd index, writeback
// value, and halt flag.
type MEMWBRegister struct {
	Valid    bool
	PC       uint32
	Rd       uint8
	WbEnable bool
	Value    uint32
	Halt     bool
	IsEcall  bool
}

// Clear resets the latch to an invalid (bubble) state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
