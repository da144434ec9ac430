package emu

import "github.com/sarchlab/rv32pipe/insts"

// divState is one state of the radix-16 divider FSM.
type divState uint8

const (
	divIdle divState = iota
	divPre
	divWorking
	divEnd
	divFastDiv1
	divError
)

// Divider models the radix-16 (4-bits-per-cycle) digit-recurrence
// divider. Only one divide may be in flight; the hazard unit stalls
// dispatch of a new one while Busy().
type Divider struct {
	state divState
	op    insts.DivOp
	dest  uint8

	signed           bool
	negQuotient      bool
	negRemainder     bool
	overflowCandidate bool

	rawDividend, rawDivisor uint32
	absDividend             uint32
	multiples               [16]uint64

	remainder  uint64 // partial remainder, grows to 36 bits across WORKING
	quotient   uint32
	stepsDone  int

	resultQuotient  uint32
	resultRemainder uint32
	ready           bool
}

// Busy reports whether the FSM is anywhere but IDLE. The cycle a divide
// completes, Tick already returns the FSM to IDLE, so that completion
// cycle itself does not count as busy.
func (d *Divider) Busy() bool {
	return d.state != divIdle
}

// Dispatch launches a new divide/remainder operation. Precondition: !Busy().
func (d *Divider) Dispatch(op insts.DivOp, dividend, divisor uint32, dest uint8) {
	d.op = op
	d.dest = dest
	d.signed = op == insts.DivDIV || op == insts.DivREM
	d.rawDividend = dividend
	d.rawDivisor = divisor

	switch {
	case divisor == 0:
		d.state = divError
		d.resultQuotient = 0xFFFFFFFF
		d.resultRemainder = dividend
	case divisor == 1:
		d.state = divFastDiv1
		d.resultQuotient = dividend
		d.resultRemainder = 0
	default:
		d.state = divPre
	}
}

// Ready reports whether a result became available on the Tick just
// called. It is true for exactly one cycle.
func (d *Divider) Ready() bool {
	return d.ready
}

// Result returns the destination register and the value selected by the
// dispatched op (quotient for DIV/DIVU, remainder for REM/REMU). Only
// meaningful when Ready() is true.
func (d *Divider) Result() (dest uint8, value uint32) {
	if d.op == insts.DivREM || d.op == insts.DivREMU {
		return d.dest, d.resultRemainder
	}
	return d.dest, d.resultQuotient
}

// Tick advances the FSM by one cycle.
func (d *Divider) Tick() {
	d.ready = false

	switch d.state {
	case divIdle:
		// nothing to do

	case divError, divFastDiv1:
		d.ready = true
		d.state = divIdle

	case divPre:
		d.runPre()
		d.state = divWorking

	case divWorking:
		d.runWorkingStep()
		if d.stepsDone == 8 {
			d.state = divEnd
		}

	case divEnd:
		d.runEnd()
		d.ready = true
		d.state = divIdle
	}
}

func (d *Divider) runPre() {
	dividendNeg := d.signed && int32(d.rawDividend) < 0
	divisorNeg := d.signed && int32(d.rawDivisor) < 0

	d.negQuotient = dividendNeg != divisorNeg
	d.negRemainder = dividendNeg
	d.overflowCandidate = d.signed && d.rawDividend == 0x8000_0000 && d.rawDivisor == 0xFFFF_FFFF

	d.absDividend = d.rawDividend
	if dividendNeg {
		d.absDividend = uint32(-int32(d.rawDividend))
	}
	absDivisor := d.rawDivisor
	if divisorNeg {
		absDivisor = uint32(-int32(d.rawDivisor))
	}

	d.multiples[1] = uint64(absDivisor)
	for i := 2; i <= 15; i++ {
		d.multiples[i] = d.multiples[i-1] + uint64(absDivisor)
	}

	d.remainder = 0
	d.quotient = 0
	d.stepsDone = 0
}

func (d *Divider) runWorkingStep() {
	i := d.stepsDone
	nibble := (d.absDividend >> uint(28-4*i)) & 0xF
	d.remainder = (d.remainder << 4) | uint64(nibble)

	q := quotientDigit(d.remainder, &d.multiples)
	d.remainder -= d.multiples[q]
	d.quotient = (d.quotient << 4) | uint32(q)

	d.stepsDone++
}

func (d *Divider) runEnd() {
	q := d.quotient
	r := uint32(d.remainder)

	if d.signed {
		if d.negQuotient {
			q = uint32(-int32(q))
		}
		if d.negRemainder {
			r = uint32(-int32(r))
		}
	}

	if d.overflowCandidate {
		q = 0x8000_0000
		r = 0
	}

	d.resultQuotient = q
	d.resultRemainder = r
}

// quotientDigit binary-searches the precomputed multiples (ascending,
// multiples[0] implicitly 0) for the largest q in [0,15] with
// multiples[q] <= r, the same comparator-tree lookup the radix-16 digit
// recurrence needs every working cycle.
func quotientDigit(r uint64, multiples *[16]uint64) int {
	lo, hi := 0, 15
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if multiples[mid] <= r {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
