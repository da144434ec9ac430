// Package loader reads the plain-text memory images the simulator core
// consumes, adapted from the teacher's loader/elf.go to the line-oriented
// hex-word format RV32IM images use in place of ELF.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ParseHexImage reads a hex-word-per-line memory image: each line is
// exactly eight lowercase hexadecimal digits (no "0x" prefix) holding one
// 32-bit word, indexed by word address starting at 0. Blank lines are
// rejected. Bytes beyond the last line are implicitly zero, handled by the
// caller (emu.Memory starts zeroed and LoadImage only touches the words
// supplied here).
func ParseHexImage(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if text == "" {
			return nil, fmt.Errorf("line %d: blank lines are not permitted in a hex image", lineNo)
		}
		if len(text) != 8 {
			return nil, fmt.Errorf("line %d: want 8 hex digits, got %d (%q)", lineNo, len(text), text)
		}
		word, err := parseHexWord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return words, nil
}

func parseHexWord(text string) (uint32, error) {
	var word uint32
	for _, c := range text {
		var nibble uint32
		switch {
		case c >= '0' && c <= '9':
			nibble = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			nibble = uint32(c-'a') + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q (expected lowercase 0-9a-f, no 0x prefix)", c)
		}
		word = word<<4 | nibble
	}
	return word, nil
}

// LoadFile parses the hex image at path.
func LoadFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex image %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	words, err := ParseHexImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// LoadUnified parses a single image file holding both instructions and
// data, already placed at their final word addresses by the toolchain
// that produced it; data memory shares storage with instruction memory
// in this unified model.
func LoadUnified(imagePath string) ([]uint32, error) {
	return LoadFile(imagePath)
}

// LoadSplit parses separate instruction and data images and merges them
// into one flat word-addressed image: imemPath occupies word addresses
// [0, len(imem)), dmemPath occupies
// [dataBaseWordAddr, dataBaseWordAddr+len(dmem)). dmemPath may be empty,
// in which case only the instruction image is returned. The two regions
// must not overlap: the unified memory has no notion of separate
// instruction/data ports, so an overlap would silently let one image
// clobber the other.
func LoadSplit(imemPath, dmemPath string, dataBaseWordAddr uint32) ([]uint32, error) {
	imem, err := LoadFile(imemPath)
	if err != nil {
		return nil, err
	}
	if dmemPath == "" {
		return imem, nil
	}

	dmem, err := LoadFile(dmemPath)
	if err != nil {
		return nil, err
	}
	if uint32(len(imem)) > dataBaseWordAddr {
		return nil, fmt.Errorf(
			"instruction image is %d words, which overlaps data base word address 0x%x",
			len(imem), dataBaseWordAddr)
	}

	total := int(dataBaseWordAddr) + len(dmem)
	words := make([]uint32, total)
	copy(words, imem)
	copy(words[dataBaseWordAddr:], dmem)
	return words, nil
}
