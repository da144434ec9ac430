package predictor

// DefaultGHRWidth is the global history register's default bit width.
const DefaultGHRWidth = 6

// Tournament is a bimodal+gshare direction predictor arbitrated by a
// chooser, all three tables 2-bit saturating counters indexed off the
// PC and a global history register.
type Tournament struct {
	bimodal []uint8
	gshare  []uint8
	chooser []uint8

	indexMask uint32
	ghr       uint32
	ghrMask   uint32
}

// NewTournament creates a tournament predictor with size entries per
// table (must be a power of two) and an H-bit global history register.
func NewTournament(size int, ghrWidth int) *Tournament {
	if size <= 0 {
		size = DefaultBTBSize
	}
	if ghrWidth <= 0 {
		ghrWidth = DefaultGHRWidth
	}

	t := &Tournament{
		bimodal:   make([]uint8, size),
		gshare:    make([]uint8, size),
		chooser:   make([]uint8, size),
		indexMask: uint32(size - 1),
		ghrMask:   (uint32(1) << uint(ghrWidth)) - 1,
	}
	for i := range t.bimodal {
		t.bimodal[i] = 2
		t.gshare[i] = 2
		t.chooser[i] = 1
	}
	return t
}

func (t *Tournament) bimodalIndex(pc uint32) uint32 {
	return (pc >> 2) & t.indexMask
}

func (t *Tournament) gshareIndex(bimodalIdx uint32) uint32 {
	return bimodalIdx ^ (t.ghr & t.indexMask)
}

// Predict returns the tournament direction prediction for pc.
func (t *Tournament) Predict(pc uint32) bool {
	bIdx := t.bimodalIndex(pc)
	gIdx := t.gshareIndex(bIdx)

	voteBimodal := t.bimodal[bIdx] >= 2
	voteGshare := t.gshare[gIdx] >= 2
	useGshare := t.chooser[bIdx] >= 2

	if useGshare {
		return voteGshare
	}
	return voteBimodal
}

// Update folds the resolved outcome into the bimodal, gshare, and
// chooser tables, then shifts taken into the GHR. Call once per
// resolved (non-flushed) branch, whether taken or not.
func (t *Tournament) Update(pc uint32, taken bool) {
	bIdx := t.bimodalIndex(pc)
	gIdx := t.gshareIndex(bIdx)

	bCounter := t.bimodal[bIdx]
	gCounter := t.gshare[gIdx]
	bCorrect := (bCounter >= 2) == taken
	gCorrect := (gCounter >= 2) == taken

	t.bimodal[bIdx] = satUpdate(bCounter, taken)
	t.gshare[gIdx] = satUpdate(gCounter, taken)

	if bCorrect != gCorrect {
		c := t.chooser[bIdx]
		if gCorrect {
			t.chooser[bIdx] = satInc(c)
		} else {
			t.chooser[bIdx] = satDec(c)
		}
	}

	next := t.ghr << 1
	if taken {
		next |= 1
	}
	t.ghr = next & t.ghrMask
}

func satUpdate(c uint8, taken bool) uint8 {
	if taken {
		return satInc(c)
	}
	return satDec(c)
}

func satInc(c uint8) uint8 {
	if c < 3 {
		return c + 1
	}
	return c
}

func satDec(c uint8) uint8 {
	if c > 0 {
		return c - 1
	}
	return c
}
