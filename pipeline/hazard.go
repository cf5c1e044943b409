package pipeline

import "github.com/walidmouss/Von-Neumann-computer-architecture/isa"

// HazardUnit resolves operand sources through the forwarding network
// and detects load-use hazards. It holds no state of its own; it is a
// stateless value operating purely on the latches it's given.
type HazardUnit struct{}

// NewHazardUnit returns a ready-to-use hazard unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// ForwardSource names which latch (if any) supplied a forwarded value,
// for tracing.
type ForwardSource string

// Forwarding source labels, used verbatim in trace lines.
const (
	ForwardNone ForwardSource = ""
	ForwardEX   ForwardSource = "EX"
	ForwardMEM  ForwardSource = "MEM"
	ForwardWB   ForwardSource = "WB"
)

// ResolveOperand returns the value to use for source register regIdx,
// given the current EX/MEM/WB latches and the architectural register
// file. It implements spec §4.2's per-operand forwarding rule:
//
//  1. regIdx == 0 always reads as the constant 0.
//  2. Walk EX (only if in its 2nd cycle), then MEM, then WB, in that
//     priority order, taking the first producer whose destination is
//     regIdx and whose opcode writes a register.
//  3. Otherwise read the register file.
func (h *HazardUnit) ResolveOperand(regIdx uint8, ex, mem, wb *Latch, regRead func(uint8) int32) (value int32, from ForwardSource) {
	if regIdx == 0 {
		return 0, ForwardNone
	}

	if ex.Valid && ex.Cycles == 2 {
		if dest, writes := ex.DestReg(); writes && dest == regIdx {
			return ex.ALUResult, ForwardEX
		}
	}

	if mem.Valid {
		if dest, writes := mem.DestReg(); writes && dest == regIdx {
			if mem.Inst.Op == isa.LW {
				return mem.MemReadVal, ForwardMEM
			}
			return mem.ALUResult, ForwardMEM
		}
	}

	if wb.Valid {
		if dest, writes := wb.DestReg(); writes && dest == regIdx {
			if wb.Inst.Op == isa.LW {
				return wb.MemReadVal, ForwardWB
			}
			return wb.ALUResult, ForwardWB
		}
	}

	return regRead(regIdx), ForwardNone
}

// DetectLoadUseHazard reports whether the instruction about to finish
// its second ID cycle (identified here by its raw word, before it is
// decoded) must stall because EX holds a load whose destination it
// needs. Per the authoritative reference implementation, the check
// compares the load's destination against the raw instruction-word
// fields at the R1, R2, and (unless the consumer is SLL/SRL) R3 bit
// positions directly — not against the consumer's decoded semantic
// role for each field — since by construction those are exactly the
// slots any dependent instruction could read from.
func (h *HazardUnit) DetectLoadUseHazard(ex *Latch, consumerRaw uint32) bool {
	if !ex.Valid || ex.Inst.Op != isa.LW {
		return false
	}

	dest, writes := ex.DestReg()
	if !writes || dest == 0 {
		return false
	}

	consumerOp := isa.Op((consumerRaw >> 28) & 0xF)
	fieldR1 := uint8((consumerRaw >> 23) & 0x1F)
	fieldR2 := uint8((consumerRaw >> 18) & 0x1F)
	fieldR3 := uint8((consumerRaw >> 13) & 0x1F)

	if dest == fieldR1 || dest == fieldR2 {
		return true
	}
	if consumerOp != isa.SLL && consumerOp != isa.SRL && dest == fieldR3 {
		return true
	}
	return false
}
