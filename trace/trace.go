// Package trace renders per-cycle pipeline diagnostics to a writer in
// the human-readable format the simulator's CLI prints to stdout. It
// exists so stage and controller code can report events without
// depending on os.Stdout directly: an injectable io.Writer lets callers
// redirect output (to a file, a buffer in tests, or stdout) without
// hardcoding the destination.
package trace

import (
	"fmt"
	"io"
)

// Level controls how much per-cycle detail Logger emits.
type Level uint8

// Trace verbosity levels, selected by the CLI's -trace flag.
const (
	// Full emits the cycle banner, the full stage-content block, and
	// every per-stage event line. This is the default and is what the
	// spec's end-to-end scenarios are written against.
	Full Level = iota
	// Summary emits cycle banners and control-flow/hazard/mutation
	// events only, skipping the stage-content block.
	Summary
	// None suppresses per-cycle trace entirely; only the final dump
	// is still printed by the caller.
	None
)

// Logger writes pipeline trace output to an underlying writer.
type Logger struct {
	w     io.Writer
	level Level
}

// New creates a Logger writing to w at the given verbosity level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level}
}

func (l *Logger) printf(format string, args ...any) {
	if l.level == None {
		return
	}
	fmt.Fprintf(l.w, format, args...)
}

// CycleBanner prints the start-of-cycle banner naming the pre-fetch PC.
func (l *Logger) CycleBanner(cycle int, pcBeforeFetch uint32) {
	l.printf("\n=============== Cycle %3d =============== (PC before fetch: %d)\n", cycle, pcBeforeFetch)
}

// StageLine prints one line of the "Pipeline Stage Contents" block for
// a single stage. It is a no-op at Summary/None verbosity.
func (l *Logger) StageLine(line string) {
	if l.level != Full {
		return
	}
	fmt.Fprintln(l.w, line)
}

// StageBlockHeader/Footer bracket the per-stage content lines.
func (l *Logger) StageBlockHeader(cycle int) {
	if l.level != Full {
		return
	}
	fmt.Fprintf(l.w, "--- Pipeline Stage Contents (Start of Cycle %d) ---\n", cycle)
}

// StageBlockFooter closes the stage-content block.
func (l *Logger) StageBlockFooter() {
	if l.level != Full {
		return
	}
	fmt.Fprintln(l.w, "-----------------------------------------------------------------------")
}

// Event prints a single "Cycle N: STAGE - message" diagnostic line.
// This is the workhorse used by every stage for inputs/outputs/action
// lines, and is emitted only at Full verbosity; control-flow, hazard,
// and mutation events go through EventAlways instead, which Summary
// keeps. Stage code decides which calls are routed through which.
func (l *Logger) Event(cycle int, stage string, format string, args ...any) {
	if l.level != Full {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "Cycle %d: %s - %s\n", cycle, stage, msg)
}

// EventAlways prints a diagnostic line regardless of verbosity level
// (short of None). Used for control hazards, stalls, flushes, and
// register/memory mutations, which summary mode is meant to retain.
func (l *Logger) EventAlways(cycle int, stage string, format string, args ...any) {
	if l.level == None {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "Cycle %d: %s - %s\n", cycle, stage, msg)
}

// Forwarding reports a forwarding-network hit.
func (l *Logger) Forwarding(cycle int, reg uint8, value int32, from string) {
	l.EventAlways(cycle, "ID", "Forwarding R%d value %d from %s", reg, value, from)
}
