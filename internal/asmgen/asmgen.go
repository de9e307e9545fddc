// Package asmgen renders a Model's current state to NASM source text.
// The real lowering pipeline (choosing concrete registers, scheduling
// spills against the System V red zone, picking among the encodings a
// decision's choice set names) is the external collaborator spec.md §1
// calls out of scope; Assembler here is the Go-side interface the rest
// of asmtune depends on, together with a reference implementation
// suitable for tests and for running the full pipeline without a real
// lowering backend wired in.
package asmgen

import (
	"fmt"
	"strings"

	"asmtune/internal/asmlex"
	"asmtune/internal/model"
)

// FramePointer selects how RBP is used by the rendered function.
type FramePointer string

const (
	FrameOmit     FramePointer = "omit"
	FrameSave     FramePointer = "save"
	FrameConstant FramePointer = "constant"
)

// MemoryConstraints selects the read/write aliasing policy assumed
// between the function's pointer arguments.
type MemoryConstraints string

const (
	MemNone       MemoryConstraints = "none"
	MemAll        MemoryConstraints = "all"
	MemOut1Arg1   MemoryConstraints = "out1-arg1"
)

// Options mirrors the CLI's register-allocator knobs (spec.md §6):
// xmm/preferXmm spill policy, redzone usage, frame-pointer discipline,
// and memory-aliasing constraints.
type Options struct {
	Xmm               bool
	PreferXmm         bool
	Redzone           bool
	FramePointer      FramePointer
	MemoryConstraints MemoryConstraints
	Symbol            string
}

// DefaultOptions matches the CLI defaults in spec.md §6.
func DefaultOptions(symbol string) Options {
	return Options{
		Redzone:           true,
		FramePointer:      FrameOmit,
		MemoryConstraints: MemNone,
		Symbol:            symbol,
	}
}

// Assembler renders a Model's current state to assembly text and a
// stack-frame length, in bytes.
type Assembler interface {
	Render(m *model.Model, opts Options) (asm string, stackLen int, err error)
}

// knownKinds lists the node kinds the reference renderer can lower.
// A node whose Kind is not in this set renders as an `undefined`
// marker line, which internal/orchestrator's baseline sanity check
// (spec.md §4.7.d) looks for.
var knownKinds = map[string]string{
	"load":  "mov",
	"store": "mov",
	"mulx":  "mulx",
	"adcx":  "adcx",
	"adox":  "adox",
	"spill": "mov",
	"mov":   "mov",
	"add":   "add",
	"xor":   "xor",
}

// spillSlotBytes is the per-slot stack footprint the reference
// renderer reserves for a "spill" node whose decision targets stackN.
const spillSlotBytes = 8

// NasmAssembler is the reference Assembler implementation, grounded on
// the teacher's internal/codegen package (CodeGen.Generate iterating
// statements and emitting templated instruction lines via a
// strings.Builder, with an explicit header/footer).
type NasmAssembler struct{}

// Render implements Assembler.
func (NasmAssembler) Render(m *model.Model, opts Options) (string, int, error) {
	var out strings.Builder
	maxSlot := -1

	fmt.Fprintf(&out, "SECTION .text\nGLOBAL %s\n%s:\n", opts.Symbol, opts.Symbol)
	if opts.FramePointer == FrameSave {
		out.WriteString("    push rbp\n    mov rbp, rsp\n")
	}

	for _, n := range m.NodesInTopologicalOrder() {
		mnemonic, ok := knownKinds[n.Kind]
		if !ok {
			fmt.Fprintf(&out, "    ; undefined node kind %q (id=%s)\n", n.Kind, n.ID)
			continue
		}
		regClass := "rax"
		for _, d := range n.Decisions {
			if d.Name == "reg" {
				if d.Value() == "xmm" && (opts.Xmm || opts.PreferXmm) {
					regClass = "xmm0"
				}
				break
			}
		}
		if n.Kind == "spill" {
			slot := 0
			for _, d := range n.Decisions {
				if d.Name == "target" {
					if _, err := fmt.Sscanf(d.Value(), "stack%d", &slot); err != nil {
						slot = 0
					}
				}
			}
			if slot > maxSlot {
				maxSlot = slot
			}
			fmt.Fprintf(&out, "    %s [rsp-%d], %s ; %s %s\n", mnemonic, (slot+1)*spillSlotBytes, regClass, n.Kind, n.ID)
			continue
		}
		fmt.Fprintf(&out, "    %s %s, %s ; %s %s\n", mnemonic, regClass, regClass, n.Kind, n.ID)
	}

	if opts.FramePointer == FrameSave {
		out.WriteString("    mov rsp, rbp\n    pop rbp\n")
	}
	out.WriteString("    ret\n")

	stackLen := (maxSlot + 1) * spillSlotBytes
	if stackLen < 0 {
		stackLen = 0
	}
	if opts.Redzone && stackLen <= 128 {
		// Red zone absorbs small frames; nothing further to reserve.
	}
	return out.String(), stackLen, nil
}

// ContainsUndefinedMarker reports whether asm text contains a marker
// the reference renderer leaves behind for a node kind it could not
// lower. internal/orchestrator uses this for the baseline sanity check
// spec.md §4.7.d describes ("the baseline assembly contains no
// undefined markers").
func ContainsUndefinedMarker(asm string) bool {
	return asmlex.ContainsUndefinedMarker(asm)
}
