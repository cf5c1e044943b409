package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/walidmouss/Von-Neumann-computer-architecture/isa"
	"github.com/walidmouss/Von-Neumann-computer-architecture/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var h *pipeline.HazardUnit

	BeforeEach(func() {
		h = pipeline.NewHazardUnit()
	})

	Describe("ResolveOperand", func() {
		It("always reads R0 as zero, ignoring any forwarder", func() {
			ex := &pipeline.Latch{Valid: true, Cycles: 2, Inst: isa.Instruction{Op: isa.ADD, R1: 0}, ALUResult: 77}
			value, from := h.ResolveOperand(0, ex, &pipeline.Latch{}, &pipeline.Latch{}, func(uint8) int32 { return 5 })
			Expect(value).To(Equal(int32(0)))
			Expect(from).To(Equal(pipeline.ForwardNone))
		})

		It("prefers EX over MEM and WB", func() {
			ex := &pipeline.Latch{Valid: true, Cycles: 2, Inst: isa.Instruction{Op: isa.ADD, R1: 2}, ALUResult: 10}
			mem := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.ADD, R1: 2}, ALUResult: 20}
			wb := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.ADD, R1: 2}, ALUResult: 30}
			value, from := h.ResolveOperand(2, ex, mem, wb, func(uint8) int32 { return 0 })
			Expect(value).To(Equal(int32(10)))
			Expect(from).To(Equal(pipeline.ForwardEX))
		})

		It("does not forward from EX on its first cycle", func() {
			ex := &pipeline.Latch{Valid: true, Cycles: 1, Inst: isa.Instruction{Op: isa.ADD, R1: 2}, ALUResult: 10}
			mem := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.ADD, R1: 2}, ALUResult: 20}
			value, from := h.ResolveOperand(2, ex, mem, &pipeline.Latch{}, func(uint8) int32 { return 0 })
			Expect(value).To(Equal(int32(20)))
			Expect(from).To(Equal(pipeline.ForwardMEM))
		})

		It("forwards the loaded value, not the effective address, for a LW in MEM", func() {
			mem := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.LW, R1: 3}, ALUResult: 999, MemReadVal: 42}
			value, from := h.ResolveOperand(3, &pipeline.Latch{}, mem, &pipeline.Latch{}, func(uint8) int32 { return 0 })
			Expect(value).To(Equal(int32(42)))
			Expect(from).To(Equal(pipeline.ForwardMEM))
		})

		It("excludes a non-writing producer (SW) from forwarding", func() {
			ex := &pipeline.Latch{Valid: true, Cycles: 2, Inst: isa.Instruction{Op: isa.SW, R1: 2}, ALUResult: 10}
			value, from := h.ResolveOperand(2, ex, &pipeline.Latch{}, &pipeline.Latch{}, func(uint8) int32 { return 7 })
			Expect(value).To(Equal(int32(7)))
			Expect(from).To(Equal(pipeline.ForwardNone))
		})

		It("falls back to the register file when nothing forwards", func() {
			value, from := h.ResolveOperand(5, &pipeline.Latch{}, &pipeline.Latch{}, &pipeline.Latch{}, func(uint8) int32 { return 123 })
			Expect(value).To(Equal(int32(123)))
			Expect(from).To(Equal(pipeline.ForwardNone))
		})
	})

	Describe("DetectLoadUseHazard", func() {
		It("reports no hazard when EX holds no load", func() {
			ex := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.ADD, R1: 2}}
			consumer := isa.Encode(isa.Instruction{Kind: isa.KindR, Op: isa.ADD, R1: 9, R2: 2, R3: 1})
			Expect(h.DetectLoadUseHazard(ex, consumer)).To(BeFalse())
		})

		It("detects a hazard when the consumer's R2 field matches the load's destination", func() {
			ex := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.LW, R1: 2}}
			consumer := isa.Encode(isa.Instruction{Kind: isa.KindR, Op: isa.ADD, R1: 9, R2: 2, R3: 1})
			Expect(h.DetectLoadUseHazard(ex, consumer)).To(BeTrue())
		})

		It("exempts the R3 field for SLL/SRL consumers", func() {
			ex := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.LW, R1: 3}}
			// Hand-built so the R3 bit field (17..13) is nonzero even
			// though SLL's encoder never writes it; this is the exact
			// field DetectLoadUseHazard must ignore for this opcode.
			consumer := uint32(isa.SLL)<<28 | uint32(9)<<23 | uint32(1)<<18 | uint32(3)<<13
			Expect(h.DetectLoadUseHazard(ex, consumer)).To(BeFalse())
		})

		It("never raises a hazard for destination R0", func() {
			ex := &pipeline.Latch{Valid: true, Inst: isa.Instruction{Op: isa.LW, R1: 0}}
			consumer := isa.Encode(isa.Instruction{Kind: isa.KindR, Op: isa.ADD, R1: 9, R2: 0, R3: 1})
			Expect(h.DetectLoadUseHazard(ex, consumer)).To(BeFalse())
		})
	})
})
