package optimizer

import (
	"testing"

	"asmtune/internal/errs"
	"asmtune/internal/measure"
)

func TestRunRLSZeroEvalsIsBadConfig(t *testing.T) {
	sess := testSession(t, &measure.Fake{})
	_, err := RunRLS(sess, RLSConfig{Evals: 0})
	if err == nil {
		t.Fatalf("RunRLS() with zero evals should error")
	}
}

func TestRunRLSAcceptsEveryTie(t *testing.T) {
	// FixedMedian left at its zero value: every candidate and the check
	// column report the same (zero) batch sum, so every mutation ties
	// and RLS's accept-if-not-worse rule must keep it.
	fake := &measure.Fake{}
	sess := testSession(t, fake)
	status := &recordingStatusSink{}
	sess.Status = status
	sess.PrintEvery = 1

	_, err := RunRLS(sess, RLSConfig{Evals: 10})
	if err != nil {
		t.Fatalf("RunRLS() error: %v", err)
	}
	if status.calls == 0 {
		t.Fatalf("expected at least one status emission")
	}
	if len(sess.Convergence) != 10 {
		t.Fatalf("convergence log has %d entries, want 10", len(sess.Convergence))
	}
}

func TestRunRLSPropagatesMeasureIncorrect(t *testing.T) {
	fake := &measure.Fake{IncorrectOnCall: 1}
	sess := testSession(t, fake)
	_, err := RunRLS(sess, RLSConfig{Evals: 5})
	if err == nil {
		t.Fatalf("RunRLS() should fail when the measurer reports a mismatch")
	}
	if e, ok := err.(*errs.Error); !ok || e.Kind != errs.MeasureIncorrect {
		t.Fatalf("RunRLS() error = %v, want MeasureIncorrect", err)
	}
}
