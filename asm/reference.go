package asm

import (
	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
	"github.com/walidmouss/Von-Neumann-computer-architecture/isa"
)

// referenceSafetyMargin bounds how many instructions beyond the number
// of loaded instructions the reference interpreter will execute, as a
// backstop
// against a program whose reference run would never reach the
// instruction-memory end (the pipelined simulator has the same
// backstop, via its own safety-cap halt).
const referenceSafetyMargin = 1000

// Run executes words sequentially, one instruction fully completing
// before the next begins, over a fresh register file and the given
// memory. It exists only so tests can assert the forwarding-equivalence
// law from spec §8: for a hazard-free program, the pipelined simulator
// and this reference interpreter must agree on final architectural
// state.
func Run(words []uint32, mem *core.Memory) *core.RegFile {
	regs := &core.RegFile{}
	pc := uint32(0)
	steps := 0
	limit := len(words) + referenceSafetyMargin

	for pc < uint32(len(words)) && steps < limit {
		steps++
		inst := isa.Decode(words[pc])
		nextPC := pc + 1

		r2 := regs.Read(inst.R2)
		r3 := regs.Read(inst.R3)
		r1 := regs.Read(inst.R1)

		var result int32
		write := false

		switch inst.Op {
		case isa.ADD:
			result, write = r2+r3, true
		case isa.SUB:
			result, write = r2-r3, true
		case isa.MULI:
			result, write = r2*inst.Imm, true
		case isa.ADDI:
			result, write = r2+inst.Imm, true
		case isa.ANDI:
			result, write = r2&inst.Imm, true
		case isa.ORI:
			result, write = r2|inst.Imm, true
		case isa.SLL:
			result, write = r2<<inst.Shamt, true
		case isa.SRL:
			result, write = int32(uint32(r2)>>inst.Shamt), true
		case isa.LW:
			addr := r2 + inst.Imm
			value, _ := mem.ReadData(addr)
			result, write = int32(value), true
		case isa.SW:
			addr := r2 + inst.Imm
			_ = mem.WriteData(addr, uint32(r1))
		case isa.BNE:
			if r1 != r2 {
				nextPC = uint32(int32(pc) + 1 + inst.Imm)
			}
		case isa.J:
			nextPC = ((pc + 1) & 0xF0000000) | (inst.Addr & 0x0FFFFFFF)
		}

		if write {
			regs.Write(inst.R1, result)
			regs.Clamp()
		}
		pc = nextPC
	}

	return regs
}
