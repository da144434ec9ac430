package emu

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv32pipe/insts"
)

// mmioBase is the lowest MMIO address; writes at or above it are logged
// for test-bench visibility in addition to being written.
const mmioBase uint32 = 0xFFFF_0000

// MemRequest bundles the three concurrent wishes IF/MEM can place on the
// memory port in a single cycle. At most one of FetchWanted, LoadWanted,
// or StoreWanted actually gets the port; Arbiter.Tick resolves that.
type MemRequest struct {
	FetchWordAddr uint32
	FetchWanted   bool

	LoadWordAddr uint32
	LoadWanted   bool

	StoreWordAddr uint32
	StoreValue    uint32
	StoreWidth    insts.MemWidth
	// StoreByteOff is the low two bits of the original byte address,
	// selecting where within the word a sub-word store lands.
	StoreByteOff uint32
	StoreWanted  bool
}

// Arbiter presents one logical fetch port and one logical load/store port
// to the pipeline over memory's single physical port, sequencing
// sub-word stores as a two-cycle read-modify-write.
type Arbiter struct {
	mem *Memory
	log io.Writer

	storeActive   bool
	storeWordAddr uint32
	storeValue    uint32
	storeWidth    insts.MemWidth
	storeByteOff  uint32

	FetchData    uint32
	FetchValid   bool
	FetchGranted bool

	LoadData  uint32
	LoadValid bool

	StoreDone bool
}

// NewArbiter creates an arbiter over mem. log receives MMIO write lines;
// pass io.Discard to suppress them.
func NewArbiter(mem *Memory, log io.Writer) *Arbiter {
	if log == nil {
		log = io.Discard
	}
	return &Arbiter{mem: mem, log: log}
}

// Busy reports whether a sub-word store's read-modify-write is still in
// flight; the hazard unit treats this as a memory-port-contention stall.
func (a *Arbiter) Busy() bool {
	return a.storeActive
}

// Tick resolves one cycle's arbitration and performs the winning memory
// access(es), in priority order: completion of an in-flight sub-word
// store, a load, the start of a new store, then instruction fetch.
func (a *Arbiter) Tick(req MemRequest) {
	a.FetchValid = false
	a.FetchGranted = false
	a.LoadValid = false
	a.StoreDone = false

	if a.storeActive {
		original := a.mem.Read32(a.storeWordAddr)
		merged := mergeStore(original, a.storeValue, a.storeWidth, a.storeByteOff)
		a.mem.Write32(a.storeWordAddr, merged)
		a.logMMIO(a.storeWordAddr, merged)
		a.storeActive = false
		a.StoreDone = true
		return
	}

	if req.LoadWanted {
		a.LoadData = a.mem.Read32(req.LoadWordAddr)
		a.LoadValid = true
		return
	}

	if req.StoreWanted {
		if req.StoreWidth == insts.WidthWord {
			a.mem.Write32(req.StoreWordAddr, req.StoreValue)
			a.logMMIO(req.StoreWordAddr, req.StoreValue)
			a.StoreDone = true
			return
		}
		// Sub-word: this cycle is RMW phase 1 (read the covering word is
		// deferred to the completion tick so the same read-then-write
		// sequencing holds regardless of caller); phase 2 finishes on the
		// next call to Tick.
		a.storeActive = true
		a.storeWordAddr = req.StoreWordAddr
		a.storeValue = req.StoreValue
		a.storeWidth = req.StoreWidth
		a.storeByteOff = req.StoreByteOff
		return
	}

	if req.FetchWanted {
		a.FetchData = a.mem.Read32(req.FetchWordAddr)
		a.FetchValid = true
		a.FetchGranted = true
	}
}

func (a *Arbiter) logMMIO(wordAddr, value uint32) {
	byteAddr := wordAddr * 4
	if byteAddr >= mmioBase {
		fmt.Fprintf(a.log, "MMIO WRITE 0x%08X <= 0x%08X\n", byteAddr, value)
	}
}

// mergeStore positions a byte or halfword store payload within the
// covering word at the offset given by the low two bits of the original
// byte address, leaving the other bytes of original untouched.
func mergeStore(original, value uint32, width insts.MemWidth, byteOff uint32) uint32 {
	switch width {
	case insts.WidthByte:
		shift := (byteOff & 0x3) * 8
		mask := uint32(0xFF) << shift
		return (original &^ mask) | ((value & 0xFF) << shift)
	case insts.WidthHalf:
		shift := (byteOff & 0x2) * 8
		mask := uint32(0xFFFF) << shift
		return (original &^ mask) | ((value & 0xFFFF) << shift)
	default:
		return value
	}
}
