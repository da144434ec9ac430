// Package hazard implements the pipeline's forwarding-selector and
// stall-generator logic. It is pure combinational logic: a Unit holds no
// state of its own and simply maps this cycle's producer/consumer
// snapshot onto a forwarding decision and a stall flag.
package hazard

// ForwardSel selects the source an EX operand is read from.
type ForwardSel uint8

const (
	// SelReg reads the register file (no hazard, or the operand is unused).
	SelReg ForwardSel = iota
	// SelEX forwards from the EX/MEM bypass register (the freshest producer).
	SelEX
	// SelMEM forwards from the MEM/WB bypass register.
	SelMEM
	// SelWB forwards from the retired-value bypass register.
	SelWB
)

// ForwardInput is one cycle's snapshot of the three downstream bypass
// registers plus the consuming instruction's operand indices: three
// single-slot latches holding the most recent EX-stage, MEM-stage, and
// WB-stage committed values.
type ForwardInput struct {
	Rs1, Rs2       uint8
	Rs1Use, Rs2Use bool

	ExRd    uint8
	ExValid bool // the EX/MEM bypass register holds a register write this cycle
	// ExAvailable is false when the EX/MEM producer's value isn't actually
	// known yet this cycle (a pending load, whose word arrives one stage
	// later in MEM). The caller computes this; the unit just consumes it.
	ExAvailable bool
	ExValue     uint32

	MemRd    uint8
	MemValid bool
	MemValue uint32

	WbRd    uint8
	WbValid bool
	WbValue uint32
}

// ForwardResult carries the selected source and resolved value for each
// operand, so a caller that only wants the value need not switch on the
// selector itself.
type ForwardResult struct {
	Rs1Sel   ForwardSel
	Rs1Value uint32
	Rs2Sel   ForwardSel
	Rs2Value uint32
}

// StallInput is one cycle's snapshot of the conditions that freeze IF/ID:
// Stall ORs four independent stall conditions together.
type StallInput struct {
	// ExIsLoad and ExRd describe the instruction currently in EX, for the
	// classic load-use hazard: its data isn't available until MEM, one
	// stage too late for EX forwarding to reach a dependent instruction
	// decoded this same cycle.
	ExIsLoad bool
	ExRd     uint8
	ExValid  bool

	Rs1, Rs2       uint8
	Rs1Use, Rs2Use bool

	// MulBusy and DivBusy come from emu.Multiplier.Busy()/emu.Divider.Busy(),
	// adjusted by the caller for the one-cycle draining quirk of the
	// multiplier's three-slot shift chain (see timing/pipeline).
	MulBusy bool
	DivBusy bool

	// MemPortBusy is emu.Arbiter.Busy(): a sub-word store's RMW second
	// cycle is in flight and has exclusive use of the memory port.
	MemPortBusy bool
}

// Unit is stateless; every decision is a pure function of this cycle's
// inputs.
type Unit struct{}

// NewUnit constructs a hazard Unit.
func NewUnit() *Unit {
	return &Unit{}
}

// Forward resolves both operands' sources, preferring the freshest
// producer: EX over MEM over WB over the plain register-file read.
func (u *Unit) Forward(in ForwardInput, rs1RegValue, rs2RegValue uint32) ForwardResult {
	rs1Sel, rs1Val := u.resolveOperand(in.Rs1, in.Rs1Use, in, rs1RegValue)
	rs2Sel, rs2Val := u.resolveOperand(in.Rs2, in.Rs2Use, in, rs2RegValue)
	return ForwardResult{
		Rs1Sel: rs1Sel, Rs1Value: rs1Val,
		Rs2Sel: rs2Sel, Rs2Value: rs2Val,
	}
}

func (u *Unit) resolveOperand(idx uint8, use bool, in ForwardInput, regValue uint32) (ForwardSel, uint32) {
	if !use || idx == 0 {
		return SelReg, regValue
	}
	if in.ExValid && in.ExAvailable && in.ExRd == idx {
		return SelEX, in.ExValue
	}
	if in.MemValid && in.MemRd == idx {
		return SelMEM, in.MemValue
	}
	if in.WbValid && in.WbRd == idx {
		return SelWB, in.WbValue
	}
	return SelReg, regValue
}

// Stall reports whether IF and ID must hold this cycle: the PCs and
// latches freeze, and a NOP is injected into the ID/EX latch in their
// place.
func (u *Unit) Stall(in StallInput) bool {
	loadUse := in.ExValid && in.ExIsLoad && in.ExRd != 0 &&
		((in.Rs1Use && in.Rs1 == in.ExRd) || (in.Rs2Use && in.Rs2 == in.ExRd))
	return loadUse || in.MulBusy || in.DivBusy || in.MemPortBusy
}
