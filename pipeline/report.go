package pipeline

import "fmt"

// stageLine formats one "Pipeline Stage Contents" row for a non-IF
// stage latch.
func stageLine(name string, l *Latch) string {
	if !l.Valid {
		return fmt.Sprintf("%-3s: (empty)", name)
	}
	return fmt.Sprintf("%-3s: PC=%d Raw=0x%08X Op=%s Cycles=%d", name, l.PC, l.Raw, l.Inst.Op, l.Cycles)
}

// stageLineIF formats the IF row, which has no latch of its own at
// block-print time (it is about to be filled, or was just suppressed).
func stageLineIF(pc uint32, preview string) string {
	return fmt.Sprintf("%-3s: PC=%d (%s)", "IF", pc, preview)
}
