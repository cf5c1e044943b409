// Package asm assembles the MIPS-lite text syntax into machine words,
// and provides a non-pipelined reference interpreter used by tests to
// check the pipelined simulator's forwarding network against ground
// truth.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/walidmouss/Von-Neumann-computer-architecture/isa"
)

// ParseError reports a single malformed assembly line: an unknown
// mnemonic, a malformed operand, an out-of-range register, a 13-bit
// shift overflow, or a malformed offset(Rs) load/store address. It
// carries the line number, source text and message but not the file
// name; the caller (the CLI)
// prepends the source file name to produce the "<file>:<line>:
// <message>" diagnostic spec §7 requires.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

var memOperand = regexp.MustCompile(`^(-?\d+)\((R\d+)\)$`)

// Assemble reads whitespace-separated MIPS-lite assembly from src, one
// instruction per line, and returns the encoded machine words in
// program order. Blank lines are ignored. The first malformed line
// aborts assembly and returns a *ParseError.
func Assemble(src io.Reader) ([]uint32, error) {
	var words []uint32
	scanner := bufio.NewScanner(src)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		inst, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: err.Error()}
		}
		words = append(words, isa.Encode(inst))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading assembly source: %w", err)
	}
	return words, nil
}

// parseLine assembles one non-blank, whitespace-trimmed source line.
func parseLine(line string) (isa.Instruction, error) {
	fields := strings.Fields(line)
	mnemonic := fields[0]
	args := fields[1:]

	switch mnemonic {
	case "ADD", "SUB":
		return parseRType(mnemonic, args)
	case "SLL", "SRL":
		return parseShift(mnemonic, args)
	case "MULI", "ADDI", "BNE", "ANDI", "ORI":
		return parseIType(mnemonic, args)
	case "LW", "SW":
		return parseMemType(mnemonic, args)
	case "J":
		return parseJType(args)
	case "NOP":
		if len(args) != 0 {
			return isa.Instruction{}, fmt.Errorf("NOP takes no operands")
		}
		return isa.Instruction{Kind: isa.KindNop, Op: isa.NOP}, nil
	default:
		return isa.Instruction{}, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

func parseRType(mnemonic string, args []string) (isa.Instruction, error) {
	if len(args) != 3 {
		return isa.Instruction{}, fmt.Errorf("%s requires 3 register operands", mnemonic)
	}
	r1, err := parseRegister(args[0])
	if err != nil {
		return isa.Instruction{}, err
	}
	r2, err := parseRegister(args[1])
	if err != nil {
		return isa.Instruction{}, err
	}
	r3, err := parseRegister(args[2])
	if err != nil {
		return isa.Instruction{}, err
	}
	return isa.Instruction{Kind: isa.KindR, Op: mnemonicOp(mnemonic), R1: r1, R2: r2, R3: r3}, nil
}

func parseShift(mnemonic string, args []string) (isa.Instruction, error) {
	if len(args) != 3 {
		return isa.Instruction{}, fmt.Errorf("%s requires Rd Rs shamt", mnemonic)
	}
	r1, err := parseRegister(args[0])
	if err != nil {
		return isa.Instruction{}, err
	}
	r2, err := parseRegister(args[1])
	if err != nil {
		return isa.Instruction{}, err
	}
	shamt, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return isa.Instruction{}, fmt.Errorf("invalid shift amount %q: %w", args[2], err)
	}
	if shamt > 0x1FFF {
		return isa.Instruction{}, fmt.Errorf("shift amount %d overflows 13 bits", shamt)
	}
	return isa.Instruction{Kind: isa.KindR, Op: mnemonicOp(mnemonic), R1: r1, R2: r2, Shamt: uint16(shamt)}, nil
}

func parseIType(mnemonic string, args []string) (isa.Instruction, error) {
	if len(args) != 3 {
		return isa.Instruction{}, fmt.Errorf("%s requires Rd Rs imm", mnemonic)
	}
	r1, err := parseRegister(args[0])
	if err != nil {
		return isa.Instruction{}, err
	}
	r2, err := parseRegister(args[1])
	if err != nil {
		return isa.Instruction{}, err
	}
	imm, err := parseImmediate(args[2])
	if err != nil {
		return isa.Instruction{}, err
	}
	return isa.Instruction{Kind: isa.KindI, Op: mnemonicOp(mnemonic), R1: r1, R2: r2, Imm: imm}, nil
}

func parseMemType(mnemonic string, args []string) (isa.Instruction, error) {
	if len(args) != 2 {
		return isa.Instruction{}, fmt.Errorf("%s requires Rd offset(Rs)", mnemonic)
	}
	r1, err := parseRegister(args[0])
	if err != nil {
		return isa.Instruction{}, err
	}
	m := memOperand.FindStringSubmatch(args[1])
	if m == nil {
		return isa.Instruction{}, fmt.Errorf("malformed offset(Rs) operand %q", args[1])
	}
	imm, err := parseImmediate(m[1])
	if err != nil {
		return isa.Instruction{}, err
	}
	r2, err := parseRegister(m[2])
	if err != nil {
		return isa.Instruction{}, err
	}
	return isa.Instruction{Kind: isa.KindI, Op: mnemonicOp(mnemonic), R1: r1, R2: r2, Imm: imm}, nil
}

func parseJType(args []string) (isa.Instruction, error) {
	if len(args) != 1 {
		return isa.Instruction{}, fmt.Errorf("J requires a single target address")
	}
	addr, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return isa.Instruction{}, fmt.Errorf("invalid jump target %q: %w", args[0], err)
	}
	if addr > 0x0FFFFFFF {
		return isa.Instruction{}, fmt.Errorf("jump target %d overflows 28 bits", addr)
	}
	return isa.Instruction{Kind: isa.KindJ, Op: isa.J, Addr: uint32(addr)}, nil
}

func parseRegister(tok string) (uint8, error) {
	if len(tok) < 2 || tok[0] != 'R' {
		return 0, fmt.Errorf("malformed register operand %q", tok)
	}
	n, err := strconv.ParseUint(tok[1:], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("malformed register operand %q: %w", tok, err)
	}
	if n > 31 {
		return 0, fmt.Errorf("register out of range %q (must be R0..R31)", tok)
	}
	return uint8(n), nil
}

func parseImmediate(tok string) (int32, error) {
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q: %w", tok, err)
	}
	if n < -(1<<17) || n > (1<<17)-1 {
		return 0, fmt.Errorf("immediate %d overflows 18 bits", n)
	}
	return int32(n), nil
}

func mnemonicOp(mnemonic string) isa.Op {
	switch mnemonic {
	case "ADD":
		return isa.ADD
	case "SUB":
		return isa.SUB
	case "MULI":
		return isa.MULI
	case "ADDI":
		return isa.ADDI
	case "BNE":
		return isa.BNE
	case "ANDI":
		return isa.ANDI
	case "ORI":
		return isa.ORI
	case "SLL":
		return isa.SLL
	case "SRL":
		return isa.SRL
	case "LW":
		return isa.LW
	case "SW":
		return isa.SW
	default:
		return isa.NOP
	}
}
