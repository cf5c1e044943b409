package pipeline_test

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/walidmouss/Von-Neumann-computer-architecture/asm"
	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
)

var _ = Describe("end-to-end scenarios", func() {
	It("forwards arithmetic results through EX/MEM/WB (scenario 1)", func() {
		_, regs, _, buf := runProgram(`
			ADDI R1 R0 5
			ADDI R2 R1 3
			ADD R3 R1 R2
		`)
		Expect(regs.Read(1)).To(Equal(int32(5)))
		Expect(regs.Read(2)).To(Equal(int32(8)))
		Expect(regs.Read(3)).To(Equal(int32(13)))
		Expect(strings.Count(buf.String(), "Forwarding R1")).To(BeNumerically(">=", 2))
	})

	It("stalls one cycle on a load-use hazard (scenario 2)", func() {
		_, regs, _, buf := runProgram(`
			ADDI R1 R0 42
			ADDI R5 R0 1024
			SW R1 0(R5)
			LW R2 0(R5)
			ADD R3 R2 R1
		`)
		Expect(regs.Read(1)).To(Equal(int32(42)))
		Expect(regs.Read(2)).To(Equal(int32(42)))
		Expect(regs.Read(3)).To(Equal(int32(84)))
		Expect(buf.String()).To(ContainSubstring("Load-use hazard detected on R2"))
	})

	It("does not flush on a not-taken branch (scenario 3a)", func() {
		_, regs, _, buf := runProgram(`
			ADDI R1 R0 1
			ADDI R2 R0 1
			BNE R1 R2 5
			ADDI R3 R0 99
			ADDI R4 R0 7
		`)
		Expect(regs.Read(3)).To(Equal(int32(99)))
		Expect(regs.Read(4)).To(Equal(int32(7)))
		Expect(buf.String()).NotTo(ContainSubstring("Branch/Jump taken"))
	})

	It("flushes IF/ID on a taken branch (scenario 3b)", func() {
		_, regs, _, buf := runProgram(`
			ADDI R1 R0 1
			ADDI R2 R0 2
			BNE R1 R2 5
			ADDI R3 R0 99
			ADDI R4 R0 7
		`)
		Expect(regs.Read(3)).To(Equal(int32(0)))
		Expect(regs.Read(4)).To(Equal(int32(0)))
		Expect(buf.String()).To(ContainSubstring("Branch/Jump taken"))
	})

	It("computes the jump target from PC+1 and the jump address (scenario 4)", func() {
		_, regs, _, buf := runProgram(`
			ADDI R1 R0 1
			ADDI R2 R0 2
			J 5
			ADDI R3 R0 11
			ADDI R4 R0 12
			ADDI R5 R0 13
		`)
		Expect(regs.Read(3)).To(Equal(int32(0)))
		Expect(regs.Read(4)).To(Equal(int32(0)))
		Expect(regs.Read(5)).To(Equal(int32(13)))
		Expect(buf.String()).To(ContainSubstring("Flushing ID & IF"))
	})

	It("suppresses writes to R0 (scenario 5)", func() {
		_, regs, _, buf := runProgram("ADDI R0 R0 99")
		Expect(regs.Read(0)).To(Equal(int32(0)))
		Expect(buf.String()).To(ContainSubstring("Suppressed"))
	})

	It("halts by draining within the safety cap (scenario 6)", func() {
		p, _, _, _ := runProgram("ADDI R1 R0 1\nADDI R2 R0 2\nADD R3 R1 R2")
		Expect(p.Halted()).To(BeTrue())
		Expect(p.Cycle()).To(BeNumerically("<=", 3+30))
		Expect(p.Stats().Instructions).To(Equal(3))
	})

	It("agrees with the non-pipelined reference interpreter when there is no load-use hazard", func() {
		src := `
			ADDI R1 R0 5
			ADDI R2 R1 3
			ADD R3 R1 R2
			ANDI R4 R3 6
			ORI R5 R4 1
		`
		words, err := asm.Assemble(strings.NewReader(src))
		Expect(err).NotTo(HaveOccurred())

		_, pipelinedRegs, _, _ := runProgram(src)

		refMem := core.NewMemory()
		refRegs := asm.Run(words, refMem)

		if diff := cmp.Diff(refRegs.R, pipelinedRegs.R); diff != "" {
			Fail("pipelined register file diverged from reference interpreter (-reference +pipelined):\n" + diff)
		}
	})
})
