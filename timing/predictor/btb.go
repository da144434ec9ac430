// Package predictor implements the branch target buffer and tournament
// direction predictor consulted by IF and updated by EX.
package predictor

// DefaultBTBSize is the BTB's default entry count: 64 direct-mapped
// entries.
const DefaultBTBSize = 64

type btbEntry struct {
	valid  bool
	tag    uint32 // full PC, not just the index bits
	target uint32
}

// BTB is a direct-mapped branch target buffer indexed by a slice of the
// PC, tagged with the full PC so that two PCs aliasing to the same index
// never produce a false hit — they contend as replacements instead.
type BTB struct {
	entries []btbEntry
}

// NewBTB creates a BTB with size entries. size must be a power of two.
func NewBTB(size int) *BTB {
	if size <= 0 {
		size = DefaultBTBSize
	}
	return &BTB{entries: make([]btbEntry, size)}
}

func (b *BTB) index(pc uint32) uint32 {
	return (pc >> 2) & uint32(len(b.entries)-1)
}

// Lookup returns the predicted target and whether the PC hit a valid
// entry with a matching tag.
func (b *BTB) Lookup(pc uint32) (target uint32, hit bool) {
	e := b.entries[b.index(pc)]
	if e.valid && e.tag == pc {
		return e.target, true
	}
	return 0, false
}

// Update records a taken branch's resolved target, direct-mapped and
// overwriting whatever previously occupied that index.
func (b *BTB) Update(pc, target uint32) {
	idx := b.index(pc)
	b.entries[idx] = btbEntry{valid: true, tag: pc, target: target}
}
