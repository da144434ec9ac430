// Package pipeline implements the cycle-accurate 5-stage in-order RV32IM
// pipeline: IF/ID/EX/MEM/WB with single-slot inter-stage latches, a
// combined hazard/forwarding unit, a BTB+tournament branch predictor, and
// a unified memory arbiter.
//
// The structure — pipeline registers, a hazard unit, per-stage helper
// functions, and a single Tick driving the stages in reverse pipeline
// order (WB, MEM, EX, IF), with ID's decode and register read taken
// first, before WB writes the register file — is grounded on the teacher's timing/pipeline package
// (pipeline.go, registers.go, stages.go), generalized from ARM64 to
// RV32IM and extended with the multiply/divide units and the memory
// arbitration those units need.
package pipeline

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv32pipe/emu"
	"github.com/sarchlab/rv32pipe/insts"
	"github.com/sarchlab/rv32pipe/timing/config"
	"github.com/sarchlab/rv32pipe/timing/hazard"
	"github.com/sarchlab/rv32pipe/timing/predictor"
)

// Pipeline is a cycle-accurate 5-stage in-order RV32IM pipeline.
type Pipeline struct {
	regs     *emu.RegFile
	mem      *emu.Memory
	arbiter  *emu.Arbiter
	mul      *emu.Multiplier
	div      *emu.Divider
	decoder  *insts.Decoder
	hazard   *hazard.Unit
	predict  *predictor.Predictor
	env      *emu.Environment

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	nextIfid  IFIDRegister
	nextIdex  IDEXRegister
	nextExmem EXMEMRegister
	nextMemwb MEMWBRegister

	// wbBypass mirrors memwb one cycle behind: the WB-stage-committed
	// value, the oldest of the three single-slot bypass tiers (EX/MEM/WB).
	wbBypass MEMWBRegister

	cycleCount       uint64
	instructionCount uint64
	stallCount       uint64
	branchCount      uint64
	flushCount       uint64

	halted   bool
	exitCode int64

	trace bool
	log   io.Writer
}

// PipelineOption is a functional option for configuring a Pipeline,
// grounded on the teacher's PipelineOption (timing/pipeline/pipeline.go).
type PipelineOption func(*Pipeline)

// WithLogWriter directs trace/MMIO log lines to w instead of io.Discard.
func WithLogWriter(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.log = w }
}

// WithTrace enables per-cycle retirement logging.
func WithTrace(enabled bool) PipelineOption {
	return func(p *Pipeline) { p.trace = enabled }
}

// NewPipeline creates a Pipeline over regs/mem sized per cfg, wiring the
// branch predictor and an Environment for ECALL servicing.
func NewPipeline(regs *emu.RegFile, mem *emu.Memory, cfg *config.SimConfig, stdin io.Reader, stdout io.Writer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regs:    regs,
		mem:     mem,
		mul:     &emu.Multiplier{},
		div:     &emu.Divider{},
		decoder: insts.NewDecoder(),
		hazard:  hazard.NewUnit(),
		predict: predictor.New(predictor.Config{BTBSize: cfg.BTBSize, GHRWidth: cfg.GHRWidth}),
		env:     emu.NewEnvironment(regs, stdin, stdout),
		log:     io.Discard,
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = io.Discard
	}
	p.arbiter = emu.NewArbiter(mem, p.log)

	p.idex.Clear()
	p.nextIdex.Clear()

	return p
}

// Halted reports whether the pipeline has stopped (a halt instruction
// retired in WB).
func (p *Pipeline) Halted() bool { return p.halted }

// ExitCode returns the process exit code recorded when the pipeline
// halted.
func (p *Pipeline) ExitCode() int64 { return p.exitCode }

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 { return p.regs.PC }

// Stats reports pipeline performance counters, grounded on the teacher's
// Stats (timing/pipeline/pipeline.go), extended with branch-prediction
// accuracy.
type Stats struct {
	Cycles         uint64
	Instructions   uint64
	Stalls         uint64
	Branches       uint64
	Flushes        uint64
	CPI            float64
	PredictorStats predictor.Stats
}

// Stats returns a snapshot of the pipeline's performance counters.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Cycles:         p.cycleCount,
		Instructions:   p.instructionCount,
		Stalls:         p.stallCount,
		Branches:       p.branchCount,
		Flushes:        p.flushCount,
		PredictorStats: p.predict.Stats(),
	}
	if s.Instructions > 0 {
		s.CPI = float64(s.Cycles) / float64(s.Instructions)
	}
	return s
}

// RunResult reports how a Run terminated.
type RunResult struct {
	ExitCode uint32
	Timeout  bool
	Cycles   uint64
}

// Run ticks the pipeline until it halts or cycleCap cycles elapse.
func (p *Pipeline) Run(cycleCap uint64) RunResult {
	for !p.halted {
		if p.cycleCount >= cycleCap {
			return RunResult{Timeout: true, Cycles: p.cycleCount}
		}
		p.Tick()
	}
	return RunResult{ExitCode: uint32(p.exitCode), Cycles: p.cycleCount}
}

// Tick advances every stage by one cycle under synchronous
// commit-at-cycle-boundary semantics: every stage reads the CURRENT
// latches and computes a "next" value; all latches commit together at
// the end of Tick.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}
	p.cycleCount++

	memPortBusyPreTick := p.arbiter.Busy()

	// Decode reads the register file before doWriteback commits this
	// cycle's result, so a plain (unforwarded) ID read never observes a
	// same-cycle WB write; that value is reachable only through the
	// forwarding network, a cycle early, via WB_BYP.
	decoded := decodeAt(p.decoder, p.regs, p.ifid.InstructionWord)

	p.doWriteback()

	req := p.buildMemRequest()
	p.arbiter.Tick(req)

	p.doMemory()

	branchTaken, branchTarget := p.doExecute()

	mulBusyNotReady := p.mul.Busy() && !p.mul.Ready()
	divBusy := p.div.Busy()

	loadUseStall := p.hazard.Stall(hazard.StallInput{
		ExIsLoad: p.idex.Valid && p.idex.Inst.MemOp == insts.MemLoad,
		ExRd:     p.idex.Inst.Rd,
		ExValid:  p.idex.Valid,
		Rs1:      decoded.inst.Rs1, Rs1Use: decoded.inst.Rs1Use,
		Rs2: decoded.inst.Rs2, Rs2Use: decoded.inst.Rs2Use,
	})

	// memPortBusyIF covers two distinct reasons fetch loses arbitration:
	// a load or store occupying EX/MEM this cycle outranks fetch in the
	// arbiter's priority, and a sub-word store's RMW completing this
	// cycle consumes the port regardless of what's in EX/MEM now.
	memPortBusyIF := memPortBusyPreTick || (p.exmem.Valid && p.exmem.MemOp != insts.MemNone)

	idexHeld := mulBusyNotReady || divBusy
	frontendFrozen := idexHeld || loadUseStall

	switch {
	case idexHeld:
		p.nextIdex = p.idex
	case loadUseStall:
		p.nextIdex.Clear()
	case !p.ifid.Valid:
		p.nextIdex.Clear()
	default:
		p.nextIdex = IDEXRegister{
			Valid:           true,
			PC:              p.ifid.PC,
			PredictedNextPC: p.ifid.PredictedNextPC,
			PredictedTaken:  p.ifid.PredictedTaken,
			Inst:            decoded.inst,
			Rs1Value:        decoded.rs1Value,
			Rs2Value:        decoded.rs2Value,
		}
	}

	fetchCandidate, predictedNextPC := p.doFetch(req, memPortBusyIF)

	switch {
	case branchTaken:
		p.nextIfid.Clear()
	case frontendFrozen:
		p.nextIfid = p.ifid
	case memPortBusyIF:
		p.nextIfid.Clear()
	default:
		p.nextIfid = fetchCandidate
	}

	if branchTaken {
		p.nextIdex.Clear()
	}

	switch {
	case branchTaken:
		p.regs.PC = branchTarget
	case frontendFrozen, memPortBusyIF:
		// PC holds; the same address is retried next cycle.
	default:
		p.regs.PC = predictedNextPC
	}

	if frontendFrozen {
		p.stallCount++
	}
	if branchTaken {
		p.flushCount++
	}

	p.wbBypass = p.memwb
	p.memwb = p.nextMemwb
	p.exmem = p.nextExmem
	p.idex = p.nextIdex
	p.ifid = p.nextIfid
}

// buildMemRequest assembles this cycle's combined fetch/load/store
// request from the CURRENT exmem latch and PC, before arbiter.Tick
// resolves which of them wins the port.
func (p *Pipeline) buildMemRequest() emu.MemRequest {
	req := emu.MemRequest{
		FetchWordAddr: p.regs.PC >> 2,
		FetchWanted:   true,
	}

	if !p.exmem.Valid {
		return req
	}

	switch p.exmem.MemOp {
	case insts.MemLoad:
		req.LoadWanted = true
		req.LoadWordAddr = p.exmem.Value >> 2
	case insts.MemStore:
		req.StoreWanted = true
		req.StoreWordAddr = p.exmem.Value >> 2
		req.StoreValue = p.exmem.StoreValue
		req.StoreWidth = p.exmem.MemWidth
		req.StoreByteOff = p.exmem.Value & 0x3
	}
	return req
}

// doFetch computes this cycle's fetch candidate and predicted next PC
// from the arbiter's result and the branch predictor, without deciding
// whether it actually commits (Tick does that based on stall/flush
// state).
func (p *Pipeline) doFetch(req emu.MemRequest, memPortBusyIF bool) (candidate IFIDRegister, predictedNextPC uint32) {
	target, taken := p.predict.Predict(p.regs.PC)
	if taken {
		predictedNextPC = target
	} else {
		predictedNextPC = p.regs.PC + 4
	}

	if !p.arbiter.FetchValid {
		return IFIDRegister{}, predictedNextPC
	}

	return IFIDRegister{
		Valid:           true,
		PC:              p.regs.PC,
		InstructionWord: p.arbiter.FetchData,
		PredictedNextPC: predictedNextPC,
		PredictedTaken:  taken,
	}, predictedNextPC
}

// doExecute runs the EX stage against the current idex latch: operand
// forwarding, the ALU/multiplier/divider, and branch resolution.
// Returns whether EX detected a misprediction and, if so, the correct
// next PC.
func (p *Pipeline) doExecute() (branchTaken bool, branchTarget uint32) {
	if !p.idex.Valid {
		p.nextExmem.Clear()
		return false, 0
	}

	fwd := p.hazard.Forward(hazard.ForwardInput{
		Rs1: p.idex.Inst.Rs1, Rs1Use: p.idex.Inst.Rs1Use,
		Rs2: p.idex.Inst.Rs2, Rs2Use: p.idex.Inst.Rs2Use,
		ExRd: p.exmem.Rd, ExValid: p.exmem.Valid && p.exmem.WbEnable,
		ExAvailable: p.exmem.MemOp != insts.MemLoad,
		ExValue:     p.exmem.Value,
		MemRd:       p.memwb.Rd, MemValid: p.memwb.Valid && p.memwb.WbEnable, MemValue: p.memwb.Value,
		WbRd: p.wbBypass.Rd, WbValid: p.wbBypass.Valid && p.wbBypass.WbEnable, WbValue: p.wbBypass.Value,
	}, p.idex.Rs1Value, p.idex.Rs2Value)

	rs1 := fwd.Rs1Value
	rs2 := fwd.Rs2Value

	op1 := operand1(p.idex.Inst.Op1Src, rs1, p.idex.PC)
	op2 := operand2(p.idex.Inst.Op2Src, rs2, p.idex.Inst.Imm)

	if p.idex.Inst.BranchType != insts.BranchNone {
		actualTarget, actualTaken := branchOutcome(p.idex.Inst.BranchType, p.idex.PC, rs1, rs2, p.idex.Inst.Imm)
		actualNextPC := p.idex.PC + 4
		if actualTaken {
			actualNextPC = actualTarget
		}

		p.predict.Update(p.idex.PC, p.idex.PredictedTaken, actualTaken, actualTarget)
		p.branchCount++

		mispredicted := actualTaken != p.idex.PredictedTaken ||
			(actualTaken && actualTarget != p.idex.PredictedNextPC)

		p.nextExmem = EXMEMRegister{
			Valid: true, PC: p.idex.PC, Rd: p.idex.Inst.Rd, WbEnable: p.idex.Inst.WbEnable,
			Value: op1 + op2,
		}
		if mispredicted {
			return true, actualNextPC
		}
		return false, 0
	}

	if p.idex.Inst.AluOp.IsMul() {
		if p.mul.Ready() {
			// M3 still holds the previous multiply's already-forwarded
			// result; drain it so this multiply can be dispatched.
			p.mul.Tick()
		}
		if !p.mul.Busy() {
			p.mul.Dispatch(mulKindFor(p.idex.Inst.AluOp), rs1, rs2, p.idex.Inst.Rd)
		}
		p.mul.Tick()
		if !p.mul.Ready() {
			p.nextExmem.Clear()
			return false, 0
		}
		dest, value := p.mul.Result()
		p.nextExmem = EXMEMRegister{Valid: true, PC: p.idex.PC, Rd: dest, WbEnable: p.idex.Inst.WbEnable, Value: value}
		return false, 0
	}

	if p.idex.Inst.DivOp != insts.DivNone {
		if !p.div.Busy() {
			p.div.Dispatch(p.idex.Inst.DivOp, rs1, rs2, p.idex.Inst.Rd)
		}
		p.div.Tick()
		if !p.div.Ready() {
			p.nextExmem.Clear()
			return false, 0
		}
		dest, value := p.div.Result()
		p.nextExmem = EXMEMRegister{Valid: true, PC: p.idex.PC, Rd: dest, WbEnable: p.idex.Inst.WbEnable, Value: value}
		return false, 0
	}

	result := alu(p.idex.Inst.AluOp, op1, op2)
	p.nextExmem = EXMEMRegister{
		Valid: true, PC: p.idex.PC, Rd: p.idex.Inst.Rd, WbEnable: p.idex.Inst.WbEnable,
		Value:       result,
		MemOp:       p.idex.Inst.MemOp,
		MemWidth:    p.idex.Inst.MemWidth,
		MemUnsigned: p.idex.Inst.MemUnsigned,
		StoreValue:  rs2,
		Halt:        p.idex.Inst.Halt,
		IsEcall:     p.idex.Inst.IsEcall,
	}
	return false, 0
}

// doMemory runs the MEM stage against the current exmem latch, issuing
// the load/store the arbiter resolved this same cycle and aligning a
// load's result.
func (p *Pipeline) doMemory() {
	if !p.exmem.Valid {
		p.nextMemwb.Clear()
		return
	}

	value := p.exmem.Value
	if p.exmem.MemOp == insts.MemLoad {
		value = alignLoad(p.arbiter.LoadData, p.exmem.MemWidth, p.exmem.MemUnsigned, p.exmem.Value&0x3)
	}

	p.nextMemwb = MEMWBRegister{
		Valid: true, PC: p.exmem.PC, Rd: p.exmem.Rd, WbEnable: p.exmem.WbEnable,
		Value: value, Halt: p.exmem.Halt, IsEcall: p.exmem.IsEcall,
	}
}

// doWriteback runs the WB stage against the current memwb latch:
// register-file commit, retirement counting, and halt/ECALL handling.
func (p *Pipeline) doWriteback() {
	if !p.memwb.Valid {
		return
	}

	if p.memwb.WbEnable {
		p.regs.WriteReg(p.memwb.Rd, p.memwb.Value)
		if p.trace {
			fmt.Fprintf(p.log, "WB: x%d <= 0x%08X\n", p.memwb.Rd, p.memwb.Value)
		}
	}
	p.instructionCount++

	if !p.memwb.Halt {
		return
	}

	if p.memwb.IsEcall {
		result := p.env.Handle()
		if result.Exited {
			p.halted = true
			p.exitCode = int64(result.ExitCode)
			p.logFinalSnapshot()
		}
		return
	}

	p.halted = true
	p.exitCode = 0
	p.logFinalSnapshot()
}

// logFinalSnapshot writes the full register-file contents to the trace
// log when a run halts, for post-mortem inspection.
func (p *Pipeline) logFinalSnapshot() {
	if !p.trace {
		return
	}
	fmt.Fprintf(p.log, "HALT pc=0x%08X exit=%d cycles=%d instructions=%d\n",
		p.memwb.PC, p.exitCode, p.cycleCount, p.instructionCount)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(p.log, "  x%-2d=0x%08X x%-2d=0x%08X x%-2d=0x%08X x%-2d=0x%08X\n",
			i, p.regs.ReadReg(uint8(i)), i+1, p.regs.ReadReg(uint8(i+1)),
			i+2, p.regs.ReadReg(uint8(i+2)), i+3, p.regs.ReadReg(uint8(i+3)))
	}
}
