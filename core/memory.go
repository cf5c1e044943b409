package core

import "fmt"

// MemSize is the total number of words in the unified memory.
const MemSize = 2048

// InstructionMemEnd is the last word-address reserved for instructions
// (addresses 0..InstructionMemEnd).
const InstructionMemEnd = 1023

// DataMemStart is the first word-address of data memory.
const DataMemStart = 1024

// Memory is the single unified word-addressed memory backing both
// instruction and data storage. There is exactly one physical storage
// array and therefore one access port: the pipeline's IF and MEM stages
// arbitrate for it by time-division (see pipeline.Pipeline), not by
// modelling two ports here.
type Memory struct {
	words [MemSize]uint32
}

// NewMemory returns a zeroed unified memory.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadWord writes a raw instruction word at the given instruction-memory
// address. Used by the CLI and tests when loading an assembled program;
// it does not apply the data-memory range check since instruction
// addresses are expected to be at most InstructionMemEnd.
func (m *Memory) LoadWord(addr int, word uint32) {
	m.words[addr] = word
}

// FetchWord returns the raw word at addr without any range diagnostics;
// it is the IF stage's read path and addr is always a valid PC value
// (callers are responsible for PC range checks, which do need to be
// traced and so live in the pipeline package).
func (m *Memory) FetchWord(addr uint32) uint32 {
	return m.words[addr]
}

// ReadData reads a data word at addr. Valid addresses are
// [DataMemStart, MemSize). Reads outside that range return 0 and a
// non-nil diagnostic describing the violation; the caller decides
// whether/how to surface it.
func (m *Memory) ReadData(addr int32) (value uint32, diag error) {
	if addr < DataMemStart || addr >= MemSize {
		return 0, fmt.Errorf("memory read out of data range: address %d not in [%d, %d)", addr, DataMemStart, MemSize)
	}
	return m.words[addr], nil
}

// WriteData writes value to a data word at addr. Writes outside
// [DataMemStart, MemSize) are silently dropped (the value never reaches
// storage) and a non-nil diagnostic is returned describing the
// violation.
func (m *Memory) WriteData(addr int32, value uint32) (diag error) {
	if addr < DataMemStart || addr >= MemSize {
		return fmt.Errorf("memory write out of data range: address %d not in [%d, %d)", addr, DataMemStart, MemSize)
	}
	m.words[addr] = value
	return nil
}

// InstructionWords returns the instruction-memory region [0, InstructionMemEnd]
// for the final dump.
func (m *Memory) InstructionWords() []uint32 {
	return m.words[:InstructionMemEnd+1]
}

// DataWords returns the data-memory region [DataMemStart, MemSize) for
// the final dump.
func (m *Memory) DataWords() []uint32 {
	return m.words[DataMemStart:]
}
