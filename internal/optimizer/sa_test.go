package optimizer

import (
	"testing"

	"asmtune/internal/measure"
)

func baseSAConfig(evals int) SAConfig {
	return SAConfig{
		Evals:              evals,
		NumNeighbors:       3,
		InitialTemperature: 10,
		VisitParam:         2.5,
		AcceptParam:        1,
		StepSizeParam:      2,
		MaxMutStepSize:     4,
		CoolingSchedule:    ScheduleExp,
		NeighborStrategy:   StrategyGreedy,
	}
}

func TestRunSAZeroEvalsIsBadConfig(t *testing.T) {
	sess := testSession(t, &measure.Fake{})
	_, err := RunSA(sess, baseSAConfig(0))
	if err == nil {
		t.Fatalf("RunSA() with zero evals should error")
	}
}

func TestRunSAMissingStepSizeParamIsBadConfig(t *testing.T) {
	sess := testSession(t, &measure.Fake{})
	cfg := baseSAConfig(5)
	cfg.StepSizeParam = 0
	_, err := RunSA(sess, cfg)
	if err == nil {
		t.Fatalf("RunSA() with StepSizeParam <= 0 should error")
	}
}

func TestRunSARunsToCompletionOnTies(t *testing.T) {
	fake := &measure.Fake{}
	sess := testSession(t, fake)
	status := &recordingStatusSink{}
	sess.Status = status
	sess.PrintEvery = 1

	result, err := RunSA(sess, baseSAConfig(9))
	if err != nil {
		t.Fatalf("RunSA() error: %v", err)
	}
	if result.Assembly == "" {
		t.Fatalf("RunSA() returned an empty candidate")
	}
	if status.calls == 0 {
		t.Fatalf("expected at least one status emission")
	}
}

func TestRunSAGreedyAlwaysAcceptsAStrictImprovement(t *testing.T) {
	fake := &measure.Fake{MedianFor: map[int]float64{0: 100, 1: 1, 2: 50, 3: 80}}
	sess := testSession(t, fake)
	cfg := baseSAConfig(3)
	cfg.NumNeighbors = 3
	cfg.NeighborStrategy = StrategyGreedy

	result, err := RunSA(sess, cfg)
	if err != nil {
		t.Fatalf("RunSA() error: %v", err)
	}
	if result.Assembly == "" {
		t.Fatalf("RunSA() returned an empty candidate")
	}
	if sess.BestByCycles.Cycles >= 100 {
		t.Fatalf("best-by-cycles = %v, want an improvement over the starting 100", sess.BestByCycles.Cycles)
	}
}
