// Package pipeline implements the five-stage (IF/ID/EX/MEM/WB) cycle
// simulator: the stage state machines, the IF/MEM port arbitration, the
// forwarding network, load-use stalling, and control-hazard flushing.
package pipeline

import (
	"io"
	"os"

	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
	"github.com/walidmouss/Von-Neumann-computer-architecture/trace"
)

// defaultSafetyMargin is added to instructionsLoaded to compute the
// safety-cap cycle count (spec §4.6 step 10).
const defaultSafetyMargin = 30

// noProgramTimeout bounds the run when no program was loaded: the halt
// fires on the first cycle past it.
const noProgramTimeout = 10

// emptyPipelineDrainThreshold is the number of consecutive cycles with
// the pipeline fully empty and PC past the program that must be
// exceeded before a drain halt fires.
const emptyPipelineDrainThreshold = 2

// Pipeline drives the five-stage simulator over a register file and
// unified memory.
type Pipeline struct {
	regs *core.RegFile
	mem  *core.Memory

	ifL, idL, exL, memL, wbL *Latch
	hazard                   *HazardUnit
	trace                    *trace.Logger

	pc                 uint32
	cycle              int
	instructionsLoaded int

	pendingIFStall      bool
	emptyPipelineCycles int
	halted              bool
	haltReason          string

	maxCycles int // 0 means derive from instructionsLoaded

	stats Stats
}

// Stats accumulates simulation counters for the final report.
type Stats struct {
	Cycles       int
	Instructions int
	Stalls       int
	Branches     int
	Flushes      int
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithTraceWriter routes per-cycle trace output to w at the given
// verbosity level, instead of the default (stdout, Full).
func WithTraceWriter(w io.Writer, level trace.Level) Option {
	return func(p *Pipeline) {
		p.trace = trace.New(w, level)
	}
}

// WithMaxCycles overrides the derived safety-cap cycle count.
func WithMaxCycles(n int) Option {
	return func(p *Pipeline) {
		p.maxCycles = n
	}
}

// New creates a Pipeline over the given register file and memory, with
// the program counter at 0.
func New(regs *core.RegFile, mem *core.Memory, instructionsLoaded int, opts ...Option) *Pipeline {
	p := &Pipeline{
		regs:               regs,
		mem:                mem,
		ifL:                &Latch{},
		idL:                &Latch{},
		exL:                &Latch{},
		memL:               &Latch{},
		wbL:                &Latch{},
		hazard:             NewHazardUnit(),
		trace:              trace.New(os.Stdout, trace.Full),
		instructionsLoaded: instructionsLoaded,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 { return p.pc }

// Cycle returns the number of cycles executed so far.
func (p *Pipeline) Cycle() int { return p.cycle }

// Halted reports whether the pipeline has reached a halt condition.
func (p *Pipeline) Halted() bool { return p.halted }

// Stats returns a snapshot of the pipeline's run statistics.
func (p *Pipeline) Stats() Stats { return p.stats }

// Run ticks the pipeline until it halts.
func (p *Pipeline) Run() {
	for !p.halted {
		p.Tick()
	}
}

// safetyCapCycle returns the cycle at which the safety-cap halt fires.
func (p *Pipeline) safetyCapCycle() int {
	if p.maxCycles > 0 {
		return p.maxCycles
	}
	return p.instructionsLoaded + defaultSafetyMargin
}

// Tick advances the simulator by exactly one cycle, following the
// fixed intra-cycle order from spec §5: WB, MEM, EX, branch-flush, ID,
// hazard-check, IF, latch-advance, halt-check.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.cycle++
	p.stats.Cycles = p.cycle

	canIF := p.cycle%2 == 1
	canMEM := p.cycle%2 == 0

	if p.pendingIFStall {
		canIF = false
		p.pendingIFStall = false
		p.trace.EventAlways(p.cycle, "Control", "IF stalled due to MEM access by prior branch/jump.")
	}

	p.trace.CycleBanner(p.cycle, p.pc)
	p.emitStageBlock(canIF)

	if retired := p.writeback(p.cycle); retired {
		p.stats.Instructions++
	}

	if canMEM {
		p.access(p.cycle)
	}

	branchTaken, branchTarget := p.execute(p.cycle)

	suppressIF := false
	if branchTaken {
		p.stats.Branches++
		p.stats.Flushes++
		p.trace.EventAlways(p.cycle, "Control", "Branch/Jump taken in EX to PC 0x%X. Flushing ID & IF contents.", branchTarget)
		p.pc = branchTarget
		p.idL.Clear()
		p.ifL.Clear()
		suppressIF = true
		if p.cycle%2 != 0 {
			p.pendingIFStall = true
			p.trace.EventAlways(p.cycle, "Control", "Scheduling IF stall for next cycle (Cycle %d) due to branch.", p.cycle+1)
		}
	}

	hazard := p.decode(p.cycle)
	if hazard {
		p.stats.Stalls++
		canIF = false
		// The finished load in EX still moves on to MEM; advanceLatches
		// leaves EX as a bubble because ID does not advance this cycle.
		p.trace.EventAlways(p.cycle, "Control", "Pipeline stalled for load-use hazard.")
	} else if canIF && !suppressIF {
		p.fetch(p.cycle)
	} else if suppressIF {
		p.trace.EventAlways(p.cycle, "IF", "Suppressed due to branch taken in EX.")
	}

	p.advanceLatches(canIF, canMEM, suppressIF, hazard)
	p.checkHalt()
}

// advanceLatches performs the end-of-cycle latch copy, per spec §4.6
// step 9: WB/MEM/EX/ID each either take on their producer's contents
// (with the per-stage cycle counter reset) or go invalid, except that a
// 2-cycle stage (ID, EX) mid-way through its work is preserved rather
// than cleared, and so is a MEM latch still waiting for a cycle in
// which MEM may use the memory port.
func (p *Pipeline) advanceLatches(canIF, canMEM, suppressIF, hazard bool) {
	if p.memL.Valid && canMEM {
		*p.wbL = *p.memL
		p.wbL.Cycles = 0
	} else {
		p.wbL.Clear()
	}

	if p.exL.Valid && p.exL.Cycles == 2 {
		*p.memL = *p.exL
		p.memL.Cycles = 0
	} else if !(p.memL.Valid && !canMEM) {
		p.memL.Clear()
	}

	if p.idL.Valid && p.idL.Cycles == 2 && !hazard {
		*p.exL = *p.idL
		p.exL.Cycles = 0
	} else if !(p.exL.Valid && p.exL.Cycles == 1) {
		p.exL.Clear()
	}

	if p.ifL.Valid && canIF && !suppressIF && !hazard {
		*p.idL = *p.ifL
		p.idL.Cycles = 0
	} else if !(p.idL.Valid && p.idL.Cycles == 1) {
		p.idL.Clear()
	}
}

// checkHalt evaluates the drain, safety-cap and no-program halt
// conditions. For the drain halt a latch counts as empty when it is
// invalid or holds synthetic NOP padding fetched past the program end.
func (p *Pipeline) checkHalt() {
	empty := func(l *Latch) bool { return !l.Valid || l.Synthetic }
	pipelineEmpty := empty(p.ifL) && empty(p.idL) && empty(p.exL) && empty(p.memL) && empty(p.wbL)

	if p.instructionsLoaded > 0 && p.pc >= uint32(p.instructionsLoaded) && pipelineEmpty {
		p.emptyPipelineCycles++
		if p.emptyPipelineCycles > emptyPipelineDrainThreshold {
			p.halted = true
			p.haltReason = "drain"
			p.trace.EventAlways(p.cycle, "HALT", "PC (%d) >= instructions loaded (%d) and pipeline fully empty for %d cycles.", p.pc, p.instructionsLoaded, p.emptyPipelineCycles)
			return
		}
	} else {
		p.emptyPipelineCycles = 0
	}

	if p.instructionsLoaded > 0 && p.cycle > p.safetyCapCycle() {
		p.halted = true
		p.haltReason = "safety-cap"
		p.trace.EventAlways(p.cycle, "HALT", "Cycle limit safety break (%d cycles for %d instructions).", p.cycle, p.instructionsLoaded)
		return
	}

	if p.instructionsLoaded == 0 && p.cycle > noProgramTimeout {
		p.halted = true
		p.haltReason = "no-program"
		p.trace.EventAlways(p.cycle, "HALT", "No program loaded after %d cycles.", noProgramTimeout)
	}
}

// emitStageBlock prints the "Pipeline Stage Contents" snapshot at the
// start of the cycle, before any stage has executed.
func (p *Pipeline) emitStageBlock(canIF bool) {
	p.trace.StageBlockHeader(p.cycle)

	ifPreview := "(none)"
	if canIF {
		ifPreview = "pending fetch"
	}
	p.trace.StageLine(stageLineIF(p.pc, ifPreview))
	p.trace.StageLine(stageLine("ID", p.idL))
	p.trace.StageLine(stageLine("EX", p.exL))
	p.trace.StageLine(stageLine("MEM", p.memL))
	p.trace.StageLine(stageLine("WB", p.wbL))

	p.trace.StageBlockFooter()
}
