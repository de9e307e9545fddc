package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asmtune/internal/config"
	"asmtune/internal/errs"
	"asmtune/internal/measure"
	"asmtune/internal/prove"
	"asmtune/internal/rng"
)

func baseConfig(t *testing.T, resultDir string) *config.Config {
	t.Helper()
	return &config.Config{
		Curve:              "curve25519",
		Method:             "square",
		Bridge:             config.BridgeFiat,
		Optimizer:          config.OptimizerRLS,
		Seed:               42,
		Evals:              5,
		Bets:               1,
		BetRatio:           1,
		Single:             true,
		Cyclegoal:          1000,
		Redzone:            true,
		FramePointer:       config.FramePointerOmit,
		MemoryConstraints:  config.MemoryConstraintsNone,
		Proof:              false,
		ResultDir:          resultDir,
		SACoolingSchedule:  "exp",
		SANeighborStrategy: "greedy",
		SANumNeighbors:     1,
	}
}

func openCapture(t *testing.T) (*os.File, func() string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdout.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, func() string {
		f.Sync()
		data, _ := os.ReadFile(path)
		return string(data)
	}
}

func TestRunProducesAsmCSVAndFinalRatioLine(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	out, capture := openCapture(t)

	result, err := Run(cfg, Deps{Measurer: &measure.Fake{FixedMedian: 100}, Stdout: out})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Ratio != 1 {
		t.Fatalf("Ratio = %v, want 1 (every candidate ties)", result.Ratio)
	}
	if _, err := os.Stat(result.AsmPath); err != nil {
		t.Fatalf("result asm file missing: %v", err)
	}
	if _, err := os.Stat(result.CSVPath); err != nil {
		t.Fatalf("mutation log csv missing: %v", err)
	}

	stdout := capture()
	if !strings.Contains(stdout, "Final ratio: 1.000000") {
		t.Fatalf("stdout missing Final ratio line: %q", stdout)
	}
	if !strings.Contains(stdout, "Wrote state to") {
		t.Fatalf("stdout missing state-dump line: %q", stdout)
	}
}

func TestRunPersistsFailureArtifactsOnMeasureIncorrect(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	cfg.Verbose = true
	out, _ := openCapture(t)

	_, err := Run(cfg, Deps{Measurer: &measure.Fake{FixedMedian: 100, IncorrectOnCall: 1}, Stdout: out})
	if err == nil {
		t.Fatalf("Run() should propagate the measurer's MeasureIncorrect error")
	}
	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.MeasureIncorrect {
		t.Fatalf("Run() error = %v, want *errs.Error{Kind: MeasureIncorrect}", err)
	}

	cacheDir := filepath.Join(os.TempDir(), "CryptOpt.cache", rng.New(cfg.Seed).ShortID())
	for _, name := range []string{"tested_incorrect_A.asm", "tested_incorrect_B.asm", "tested_incorrect.json"} {
		if _, err := os.Stat(filepath.Join(cacheDir, name)); err != nil {
			t.Fatalf("missing failure artefact %s: %v", name, err)
		}
	}
	os.RemoveAll(cacheDir)
}

func TestRunInvokesProverWhenProofEnabled(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	cfg.Proof = true
	out, _ := openCapture(t)

	fakeProver := &prove.Fake{}
	if _, err := Run(cfg, Deps{Measurer: &measure.Fake{FixedMedian: 100}, Prover: fakeProver, Stdout: out}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if fakeProver.Calls != 1 {
		t.Fatalf("prover Calls = %d, want 1", fakeProver.Calls)
	}
}

func TestRunExitsProofUnsuccessfulOnProverError(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	cfg.Proof = true
	out, _ := openCapture(t)

	fakeProver := &prove.Fake{Err: errs.New(errs.ProofUnsuccessful, "prove: nonzero exit")}
	_, err := Run(cfg, Deps{Measurer: &measure.Fake{FixedMedian: 100}, Prover: fakeProver, Stdout: out})
	if err == nil {
		t.Fatalf("Run() should propagate a prover failure")
	}
	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.ProofUnsuccessful {
		t.Fatalf("Run() error = %v, want ProofUnsuccessful", err)
	}
}

func TestRunStartFromBestJsonResumesPriorState(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	out, _ := openCapture(t)
	if _, err := Run(cfg, Deps{Measurer: &measure.Fake{FixedMedian: 100}, Stdout: out}); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	cfg2 := baseConfig(t, dir)
	cfg2.Seed = 43
	cfg2.StartFromBestJson = true
	out2, _ := openCapture(t)
	if _, err := Run(cfg2, Deps{Measurer: &measure.Fake{FixedMedian: 100}, Stdout: out2}); err != nil {
		t.Fatalf("second Run() with startFromBestJson error: %v", err)
	}
}
