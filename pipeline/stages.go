package pipeline

import (
	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
	"github.com/walidmouss/Von-Neumann-computer-architecture/isa"
)

// fetch runs one cycle of the IF stage into p.ifL. It is only called
// when the controller has already established that IF is permitted to
// run this cycle (see Pipeline.Tick).
func (p *Pipeline) fetch(cycle int) {
	pc := p.pc

	if pc < uint32(p.instructionsLoaded) && pc <= core.InstructionMemEnd {
		word := p.mem.FetchWord(pc)
		p.ifL.Valid = true
		p.ifL.Raw = word
		p.ifL.PC = pc
		p.ifL.Cycles = 1

		p.trace.Event(cycle, "IF", "Inputs: PC=%d", pc)
		p.trace.Event(cycle, "IF", "Fetched instr %d (0x%08X, %s) from Mem[%d].", pc, word, isa.Op((word>>28)&0xF), pc)
		p.trace.Event(cycle, "IF", "Outputs: RawInstr=0x%08X, NextPC=%d", word, pc+1)
		p.pc++
		return
	}

	if pc > core.InstructionMemEnd {
		p.trace.EventAlways(cycle, "IF", "PC (%d) out of instruction memory. Fetching NOP.", pc)
	}

	word := uint32(isa.NOP) << 28
	p.ifL.Valid = true
	p.ifL.Raw = word
	p.ifL.PC = pc
	p.ifL.Cycles = 1
	p.ifL.Synthetic = true
	p.trace.Event(cycle, "IF", "Inputs: PC=%d", pc)
	p.trace.Event(cycle, "IF", "Fetched NOP (0x%08X) for PC=%d.", word, pc)
	p.trace.Event(cycle, "IF", "Outputs: RawInstr=0x%08X, NextPC=%d", word, pc)
}

// decode runs one cycle of the ID stage on p.idL, returning whether a
// load-use hazard was detected. On its first cycle it only extracts
// the opcode; on its second it fully decodes, resolves operands
// through the forwarding network, and checks for a load-use hazard.
func (p *Pipeline) decode(cycle int) (hazard bool) {
	if !p.idL.Valid {
		return false
	}

	p.idL.Cycles++

	if p.idL.Cycles == 1 {
		op := isa.Op((p.idL.Raw >> 28) & 0xF)
		p.trace.Event(cycle, "ID", "Inputs: RawInstr=0x%08X", p.idL.Raw)
		p.trace.Event(cycle, "ID", "Instr %d (0x%08X, %s) entered ID (1st cycle).", p.idL.PC, p.idL.Raw, op)
		p.trace.Event(cycle, "ID", "Outputs: Opcode=%s", op)
		return false
	}

	p.trace.Event(cycle, "ID", "Inputs: RawInstr=0x%08X", p.idL.Raw)

	if p.hazard.DetectLoadUseHazard(p.exL, p.idL.Raw) {
		dest, _ := p.exL.DestReg()
		p.trace.EventAlways(cycle, "ID", "Load-use hazard detected on R%d. Stalling pipeline.", dest)
		p.idL.Cycles--
		return true
	}

	inst := isa.Decode(p.idL.Raw)
	if inst.Kind == isa.KindUnknown {
		p.trace.EventAlways(cycle, "ID", "Instr %d - Unknown opcode 0x%X. Treating as NOP.", p.idL.PC, uint8(inst.Op))
		inst = isa.Instruction{Kind: isa.KindNop, Op: isa.NOP}
	}
	p.idL.Inst = inst

	resolve := func(reg uint8) int32 {
		value, from := p.hazard.ResolveOperand(reg, p.exL, p.memL, p.wbL, p.regs.Read)
		if from != ForwardNone {
			p.trace.Forwarding(cycle, reg, value, string(from))
		}
		return value
	}

	switch inst.Kind {
	case isa.KindR:
		p.idL.R2Val = resolve(inst.R2)
		if inst.Op != isa.SLL && inst.Op != isa.SRL {
			p.idL.R3Val = resolve(inst.R3)
		}

	case isa.KindI:
		if inst.Op.ReadsR1AsSource() {
			p.idL.R1Val = resolve(inst.R1)
		}
		p.idL.R2Val = resolve(inst.R2)

	case isa.KindJ, isa.KindNop:
		// No operands to resolve.
	}

	p.trace.Event(cycle, "ID", "Instr %d (%s) decoded (2nd cycle).", p.idL.PC, inst.Op)
	p.trace.Event(cycle, "ID", "Outputs: Kind=%v, R1=%d, R2=%d, R3=%d, R1v=%d, R2v=%d, R3v=%d, Imm=%d, Addr=%d, Shamt=%d",
		inst.Kind, inst.R1, inst.R2, inst.R3, p.idL.R1Val, p.idL.R2Val, p.idL.R3Val, inst.Imm, inst.Addr, inst.Shamt)

	return false
}

// execute runs one cycle of the EX stage on p.exL, returning whether a
// branch was taken and resolved this cycle and its target.
func (p *Pipeline) execute(cycle int) (branchTaken bool, branchTarget uint32) {
	if !p.exL.Valid {
		return false, 0
	}

	p.exL.Cycles++
	inst := p.exL.Inst

	if p.exL.Cycles == 1 {
		p.trace.Event(cycle, "EX", "Inputs: Kind=%v, R1v=%d, R2v=%d, R3v=%d, Imm=%d, Addr=%d, Shamt=%d",
			inst.Kind, p.exL.R1Val, p.exL.R2Val, p.exL.R3Val, inst.Imm, inst.Addr, inst.Shamt)
		p.trace.Event(cycle, "EX", "Instr %d (%s) entered EX (1st cycle).", p.exL.PC, inst.Op)
		p.trace.Event(cycle, "EX", "Outputs: None (1st cycle)")
		return false, 0
	}

	pcOfInst := p.exL.PC

	switch inst.Op {
	case isa.ADD:
		p.exL.ALUResult = p.exL.R2Val + p.exL.R3Val
	case isa.SUB:
		p.exL.ALUResult = p.exL.R2Val - p.exL.R3Val
	case isa.MULI:
		p.exL.ALUResult = p.exL.R2Val * inst.Imm
	case isa.ADDI:
		p.exL.ALUResult = p.exL.R2Val + inst.Imm
	case isa.ANDI:
		p.exL.ALUResult = p.exL.R2Val & inst.Imm
	case isa.ORI:
		p.exL.ALUResult = p.exL.R2Val | inst.Imm
	case isa.SLL:
		p.exL.ALUResult = p.exL.R2Val << inst.Shamt
	case isa.SRL:
		p.exL.ALUResult = int32(uint32(p.exL.R2Val) >> inst.Shamt)
	case isa.LW, isa.SW:
		p.exL.ALUResult = p.exL.R2Val + inst.Imm
	case isa.BNE:
		if p.exL.R1Val != p.exL.R2Val {
			p.exL.BranchTaken = true
			p.exL.BranchTarget = uint32(int32(pcOfInst) + 1 + inst.Imm)
			p.exL.ALUResult = 1
		} else {
			p.exL.ALUResult = 0
		}
	case isa.J:
		pcPlus1 := pcOfInst + 1
		p.exL.BranchTaken = true
		p.exL.BranchTarget = (pcPlus1 & 0xF0000000) | (inst.Addr & 0x0FFFFFFF)
	default:
		p.exL.ALUResult = 0
	}

	p.trace.Event(cycle, "EX", "Instr %d (%s) executed (2nd cycle).", p.exL.PC, inst.Op)
	p.trace.Event(cycle, "EX", "Outputs: ALU/Addr=%d, BranchTaken=%v", p.exL.ALUResult, p.exL.BranchTaken)

	return p.exL.BranchTaken, p.exL.BranchTarget
}

// access runs one cycle of the MEM stage on p.memL.
func (p *Pipeline) access(cycle int) {
	if !p.memL.Valid {
		return
	}
	p.memL.Cycles = 1
	inst := p.memL.Inst
	addr := p.memL.ALUResult

	p.trace.Event(cycle, "MEM", "Inputs: ALU/Addr=%d, R1v=%d", addr, p.memL.R1Val)

	switch inst.Op {
	case isa.LW:
		value, diag := p.mem.ReadData(addr)
		if diag != nil {
			p.trace.EventAlways(cycle, "MEM", "Instr %d (LW) - %v. Reading 0.", p.memL.PC, diag)
			p.memL.MemReadVal = 0
		} else {
			p.memL.MemReadVal = int32(value)
			p.trace.Event(cycle, "MEM", "Instr %d (LW) from Addr %d. Read val: %d", p.memL.PC, addr, p.memL.MemReadVal)
		}
		p.trace.Event(cycle, "MEM", "Outputs: MemReadVal=%d", p.memL.MemReadVal)

	case isa.SW:
		if diag := p.mem.WriteData(addr, uint32(p.memL.R1Val)); diag != nil {
			p.trace.EventAlways(cycle, "MEM", "Instr %d (SW) - %v. Write ignored.", p.memL.PC, diag)
		} else {
			p.trace.EventAlways(cycle, "MEM", "Instr %d (SW) to Addr %d. Wrote val: %d (from R%d)", p.memL.PC, addr, p.memL.R1Val, inst.R1)
		}
		p.trace.Event(cycle, "MEM", "Outputs: None")

	default:
		p.trace.Event(cycle, "MEM", "Outputs: None (no memory operation)")
	}
}

// writeback runs one cycle of the WB stage on p.wbL and returns
// whether it retired an instruction (for statistics).
func (p *Pipeline) writeback(cycle int) (retired bool) {
	if !p.wbL.Valid {
		return false
	}

	inst := p.wbL.Inst
	var value int32
	write := false

	switch inst.Op {
	case isa.ADD, isa.SUB, isa.MULI, isa.ADDI, isa.ANDI, isa.ORI, isa.SLL, isa.SRL:
		value = p.wbL.ALUResult
		write = true
	case isa.LW:
		value = p.wbL.MemReadVal
		write = true
	}

	p.trace.Event(cycle, "WB", "Inputs: ALUResult=%d, MemReadVal=%d", p.wbL.ALUResult, p.wbL.MemReadVal)

	if write {
		if suppressed := p.regs.Write(inst.R1, value); suppressed {
			p.trace.EventAlways(cycle, "WB", "Instr %d (%s) - Attempted write to R0 with value %d. Suppressed.", p.wbL.PC, inst.Op, value)
		} else {
			p.trace.EventAlways(cycle, "WB", "Instr %d (%s) wrote %d to R%d.", p.wbL.PC, inst.Op, value, inst.R1)
		}
		p.trace.Event(cycle, "WB", "Outputs: R%d=%d", inst.R1, value)
	} else {
		p.trace.Event(cycle, "WB", "Outputs: None (no write-back)")
	}

	p.regs.Clamp()
	return !p.wbL.Synthetic
}
