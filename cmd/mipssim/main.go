// Package main provides the entry point for mipssim, a cycle-accurate
// five-stage MIPS-lite pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/walidmouss/Von-Neumann-computer-architecture/asm"
	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
	"github.com/walidmouss/Von-Neumann-computer-architecture/pipeline"
	"github.com/walidmouss/Von-Neumann-computer-architecture/trace"
)

var (
	verbose   = flag.Bool("v", false, "Verbose output (load summary and final stats)")
	traceFlag = flag.String("trace", "full", "Per-cycle trace verbosity: full, summary, or none")
	maxCycles = flag.Int("max-cycles", 0, "Override the safety-cap cycle count (0 derives it from program size)")
)

func main() {
	flag.Parse()

	programPath := ""
	if flag.NArg() > 0 {
		programPath = flag.Arg(0)
	}
	os.Exit(run(programPath))
}

// run assembles programPath (if given) and simulates it to halt. With no
// path, it simulates an empty program, which drains via the no-program
// timeout per spec.md §6 — this is a normal, zero-exit-code run, not an
// error.
func run(programPath string) int {
	level, err := parseTraceLevel(*traceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programPath, err)
		return 1
	}

	var words []uint32
	if programPath != "" {
		f, err := os.Open(programPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", programPath, err)
			return 1
		}
		defer f.Close()

		words, err = asm.Assemble(f)
		if err != nil {
			if perr, ok := err.(*asm.ParseError); ok {
				fmt.Fprintf(os.Stderr, "%s:%d: %s: %q\n", programPath, perr.Line, perr.Msg, perr.Text)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", programPath, err)
			}
			return 1
		}

		if len(words) > core.InstructionMemEnd+1 {
			fmt.Fprintf(os.Stderr, "%s: program has %d instructions, exceeds instruction memory (%d words)\n", programPath, len(words), core.InstructionMemEnd+1)
			return 1
		}
	}

	mem := core.NewMemory()
	for i, w := range words {
		mem.LoadWord(i, w)
	}
	regs := &core.RegFile{}

	if *verbose {
		if programPath != "" {
			fmt.Printf("Loaded: %s\n", programPath)
		} else {
			fmt.Printf("No program given; running empty.\n")
		}
		fmt.Printf("Instructions: %d\n", len(words))
	}

	opts := []pipeline.Option{pipeline.WithTraceWriter(os.Stdout, level)}
	if *maxCycles > 0 {
		opts = append(opts, pipeline.WithMaxCycles(*maxCycles))
	}

	p := pipeline.New(regs, mem, len(words), opts...)
	p.Run()

	printFinalDump(p, regs, mem)

	if *verbose {
		stats := p.Stats()
		fmt.Printf("\nStats:\n")
		fmt.Printf("  Instructions: %d\n", stats.Instructions)
		fmt.Printf("  Cycles:       %d\n", stats.Cycles)
		fmt.Printf("  Stalls:       %d\n", stats.Stalls)
		fmt.Printf("  Branches:     %d\n", stats.Branches)
		fmt.Printf("  Flushes:      %d\n", stats.Flushes)
	}

	return 0
}

func parseTraceLevel(s string) (trace.Level, error) {
	switch s {
	case "full":
		return trace.Full, nil
	case "summary":
		return trace.Summary, nil
	case "none":
		return trace.None, nil
	default:
		return trace.Full, fmt.Errorf("invalid -trace value %q (want full, summary, or none)", s)
	}
}

func printFinalDump(p *pipeline.Pipeline, regs *core.RegFile, mem *core.Memory) {
	fmt.Printf("\n=============== Final Dump ===============\n")
	fmt.Printf("Total cycles: %d\n", p.Cycle())
	fmt.Printf("Final PC: %d\n", p.PC())

	fmt.Printf("\nRegisters:\n")
	for r := 0; r < core.NumRegisters; r++ {
		v := regs.Read(uint8(r))
		fmt.Printf("R%-2d = %-12d (0x%08X)\n", r, v, uint32(v))
	}

	fmt.Printf("\nInstruction memory M[0..%d]:\n", core.InstructionMemEnd)
	for addr, word := range mem.InstructionWords() {
		fmt.Printf("M[%-4d] = 0x%08X\n", addr, word)
	}

	fmt.Printf("\nData memory M[%d..%d]:\n", core.DataMemStart, core.MemSize-1)
	for i, word := range mem.DataWords() {
		fmt.Printf("M[%-4d] = %d (0x%08X)\n", core.DataMemStart+i, int32(word), word)
	}
}
