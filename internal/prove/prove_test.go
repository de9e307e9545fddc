package prove

import (
	"errors"
	"testing"
	"time"
)

func TestFakeReturnsConfiguredElapsed(t *testing.T) {
	f := &Fake{Elapsed: 5 * time.Second}
	d, err := f.Validate("out.asm")
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if d != 5*time.Second {
		t.Fatalf("Validate() = %v, want 5s", d)
	}
	if f.Calls != 1 {
		t.Fatalf("Calls = %d, want 1", f.Calls)
	}
}

func TestFakePropagatesError(t *testing.T) {
	f := &Fake{Err: errors.New("boom")}
	if _, err := f.Validate("out.asm"); err == nil {
		t.Fatalf("Validate() should propagate the configured error")
	}
}

func TestSubprocessProverMissingBinaryIsProofUnsuccessful(t *testing.T) {
	p := SubprocessProver{Command: "asmtune-nonexistent-prover-binary"}
	if _, err := p.Validate("out.asm"); err == nil {
		t.Fatalf("Validate() with a missing binary should error")
	}
}
