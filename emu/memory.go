package emu

import "fmt"

// Memory is a word-addressed SRAM of 2^DepthLog 32-bit words, shared by
// instructions and data. All addresses passed in are word addresses
// unless otherwise noted.
type Memory struct {
	words []uint32
}

// NewMemory creates a zeroed memory of 2^depthLog words.
func NewMemory(depthLog uint) *Memory {
	return &Memory{words: make([]uint32, uint32(1)<<depthLog)}
}

// Words reports the memory's capacity in 32-bit words.
func (m *Memory) Words() int {
	return len(m.words)
}

// Read32 reads the word at word address wordAddr. Out-of-range addresses
// read as zero, matching a freshly-loaded image's implicit zero-fill
// beyond the last word supplied.
func (m *Memory) Read32(wordAddr uint32) uint32 {
	if int(wordAddr) >= len(m.words) {
		return 0
	}
	return m.words[wordAddr]
}

// Write32 writes the word at word address wordAddr. Out-of-range writes
// are silently dropped; the arbiter is responsible for keeping addresses
// in range during ordinary operation.
func (m *Memory) Write32(wordAddr uint32, value uint32) {
	if int(wordAddr) >= len(m.words) {
		return
	}
	m.words[wordAddr] = value
}

// LoadImage loads a sequence of words starting at word address 0,
// returning an error if the image is larger than the memory's capacity.
// The caller is expected to abort the run on this error before any
// cycle executes.
func (m *Memory) LoadImage(words []uint32) error {
	if len(words) > len(m.words) {
		return fmt.Errorf("image has %d words, exceeds memory capacity of %d words", len(words), len(m.words))
	}
	copy(m.words, words)
	return nil
}
