// Package prove invokes the external symbolic-equivalence prover
// spec.md §1 calls out of scope, the same way internal/measure and
// internal/bridge wrap their own out-of-scope native collaborators.
// Prover is the Go-side interface; SubprocessProver is the real
// implementation, and Fake stands in for tests.
package prove

import (
	"bytes"
	"os/exec"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"asmtune/internal/errs"
)

// Prover validates that a rendered assembly file is semantically
// equivalent to its specification, returning the wall-clock duration
// spec.md §6's "validated in Ns" comment line reports.
type Prover interface {
	Validate(asmPath string) (time.Duration, error)
}

// SubprocessProver shells out to an external prover binary, per
// spec.md §5's "external prover is invoked via a blocking subprocess".
// The real binary (a Coq/Fiat-crypto-style symbolic equivalence
// checker) is out of scope; callers needing deterministic behaviour in
// tests should use Fake instead.
type SubprocessProver struct {
	// Command defaults to "fiat-crypto-prove" when empty.
	Command string
	// Args are extra arguments inserted before asmPath.
	Args []string
}

const defaultProverCommand = "fiat-crypto-prove"

// Validate implements Prover. On a nonzero exit it quotes the full
// command line (for spec.md §7's "Print command" policy on
// ProofUnsuccessful) via go-shellquote, the same quoting library the
// teacher's go.mod donor repo uses for command logging.
func (p SubprocessProver) Validate(asmPath string) (time.Duration, error) {
	cmd := p.Command
	if cmd == "" {
		cmd = defaultProverCommand
	}
	args := make([]string, 0, len(p.Args)+1)
	args = append(args, p.Args...)
	args = append(args, asmPath)

	c := exec.Command(cmd, args...)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)
	if err != nil {
		full := append([]string{cmd}, args...)
		quoted := shellquote.Join(full...)
		return 0, errs.Wrap(errs.ProofUnsuccessful, "prove: "+quoted+": "+stderr.String(), err)
	}
	return elapsed, nil
}

// Fake is a scriptable Prover for tests.
type Fake struct {
	Elapsed time.Duration
	Err     error
	Calls   int
}

func (f *Fake) Validate(asmPath string) (time.Duration, error) {
	f.Calls++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Elapsed, nil
}
