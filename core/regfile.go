// Package core provides the architectural state of the MIPS-lite processor:
// the register file and unified word memory. The program counter and
// cycle counter are held by pipeline.Pipeline.
package core

// NumRegisters is the size of the general-purpose register file.
const NumRegisters = 32

// RegFile represents the processor's general-purpose register file.
// R[0] is hardwired to zero: writes are suppressed and reads always
// return 0, regardless of what was last written.
type RegFile struct {
	R [NumRegisters]int32
}

// Read returns the signed value held in register r. Reading R0 always
// yields 0.
func (rf *RegFile) Read(r uint8) int32 {
	if r == 0 {
		return 0
	}
	return rf.R[r]
}

// Write stores value into register r. Writes to R0 are suppressed; the
// caller-visible return indicates whether the write was suppressed, so
// callers can trace it.
func (rf *RegFile) Write(r uint8, value int32) (suppressed bool) {
	if r == 0 {
		rf.R[0] = 0
		return true
	}
	rf.R[r] = value
	return false
}

// Clamp re-asserts the R0-is-zero invariant. Called at the end of every
// write-back so that R0 can never observably drift, even if something
// upstream wrote to index 0 directly.
func (rf *RegFile) Clamp() {
	rf.R[0] = 0
}
