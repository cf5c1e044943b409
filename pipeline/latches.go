package pipeline

import "github.com/walidmouss/Von-Neumann-computer-architecture/isa"

// Latch is a single pipeline register (stage latch): the state carried
// from one stage to the next. All five stages (IF, ID, EX, MEM, WB)
// share this shape, since their payloads largely overlap; only the
// fields relevant to a given stage and instruction are meaningful at
// any point (see spec §3, "Stage latch").
type Latch struct {
	// Valid marks whether this latch carries a live instruction. A
	// latch with Valid false carries no semantic effect on later
	// stages regardless of the contents of its other fields.
	Valid bool

	// Raw is the 32-bit instruction word as fetched.
	Raw uint32

	// Inst is the decoded instruction. It is populated at the end of
	// ID's second cycle, for NOP padding as well; before that, stages
	// only need Raw and PC.
	Inst isa.Instruction

	// PC is the fetch-time program counter of this instruction
	// (instruction_pc_at_fetch in the original design).
	PC uint32

	// Cycles counts how many cycles this instruction has spent in the
	// stage currently holding it. IF/MEM/WB latches never exceed 1;
	// ID/EX latches never exceed 2.
	Cycles int

	// R1Val, R2Val, R3Val are the resolved source-operand values,
	// populated by ID's second cycle through the forwarding network.
	R1Val, R2Val, R3Val int32

	// ALUResult holds the ALU output (or effective address for
	// LW/SW), computed in EX's second cycle.
	ALUResult int32

	// MemReadVal holds the word read by a LW, populated in MEM.
	MemReadVal int32

	// BranchTaken and BranchTarget are set by EX's second cycle for a
	// taken BNE or an unconditional J.
	BranchTaken  bool
	BranchTarget uint32

	// Synthetic marks an instruction IF fabricated as drain padding
	// because PC ran past the loaded program, rather than one fetched
	// from the assembled program. It never counts toward the retired-
	// instruction statistic.
	Synthetic bool
}

// Clear empties the latch, leaving it Valid=false with zeroed payload.
func (l *Latch) Clear() {
	*l = Latch{}
}

// DestReg returns the destination register this latch's instruction
// writes (always encoded in the R1 field), and whether it writes one
// at all.
func (l *Latch) DestReg() (reg uint8, writes bool) {
	if !l.Valid || !l.Inst.Op.WritesRegister() {
		return 0, false
	}
	return l.Inst.R1, true
}
