package pipeline_test

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/walidmouss/Von-Neumann-computer-architecture/asm"
	"github.com/walidmouss/Von-Neumann-computer-architecture/core"
	"github.com/walidmouss/Von-Neumann-computer-architecture/pipeline"
	"github.com/walidmouss/Von-Neumann-computer-architecture/trace"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "pipeline Suite")
}

// runProgram assembles src, loads it into a fresh memory, runs it to
// halt with a full trace captured in buf, and returns the pipeline and
// register file for assertions.
func runProgram(src string) (*pipeline.Pipeline, *core.RegFile, *core.Memory, *bytes.Buffer) {
	words, err := asm.Assemble(strings.NewReader(src))
	Expect(err).NotTo(HaveOccurred())

	mem := core.NewMemory()
	for i, w := range words {
		mem.LoadWord(i, w)
	}
	regs := &core.RegFile{}
	buf := &bytes.Buffer{}

	p := pipeline.New(regs, mem, len(words), pipeline.WithTraceWriter(buf, trace.Full))
	p.Run()
	return p, regs, mem, buf
}

var _ = Describe("Pipeline", func() {
	It("halts within the safety cap for a tiny program", func() {
		p, _, _, _ := runProgram("ADDI R1 R0 1")
		Expect(p.Halted()).To(BeTrue())
		Expect(p.Cycle()).To(BeNumerically("<=", 1+30))
	})

	It("drains within a few cycles past the last instruction", func() {
		p, _, _, _ := runProgram("ADDI R1 R0 1\nADDI R2 R0 2\nADD R3 R1 R2")
		Expect(p.Halted()).To(BeTrue())
		Expect(p.Cycle()).To(BeNumerically(">", 3))
		Expect(p.Stats().Instructions).To(Equal(3))
	})

	It("never lets R0 drift from zero", func() {
		_, regs, _, _ := runProgram("ADDI R0 R0 99\nADD R1 R0 R0")
		Expect(regs.Read(0)).To(Equal(int32(0)))
	})
})
