package bet

import (
	"testing"

	"asmtune/internal/asmgen"
	"asmtune/internal/measure"
	"asmtune/internal/model"
	"asmtune/internal/optimizer"
	"asmtune/internal/rng"
)

func testSession(t *testing.T, meas measure.Measurer) *optimizer.Session {
	t.Helper()
	nodes := []*model.Node{
		{ID: "n0", Kind: "load"},
		{ID: "n1", Kind: "load"},
		{ID: "n2", Kind: "mulx", Deps: []model.NodeID{"n0", "n1"}, Decisions: []model.Decision{
			{Name: "lane", Choices: []string{"a", "b"}, Current: 0, Hot: true},
		}},
		{ID: "n3", Kind: "store", Deps: []model.NodeID{"n2"}},
	}
	m, err := model.New(nodes, []model.NodeID{"n0", "n1", "n2", "n3"})
	if err != nil {
		t.Fatalf("model.New() error: %v", err)
	}
	sess := optimizer.NewSession(rng.New(7), m, asmgen.NasmAssembler{}, asmgen.DefaultOptions("fe_mul"), meas)
	sess.Cyclegoal = 1000
	return sess
}

func TestRunInvalidConfigIsBadConfig(t *testing.T) {
	sess := testSession(t, &measure.Fake{})
	runner := RLSRunner{}
	cases := []Config{
		{Bets: 0, BetRatio: 1, TotalEvals: 10},
		{Bets: 1, BetRatio: 0, TotalEvals: 10},
		{Bets: 1, BetRatio: 1, TotalEvals: 0},
	}
	for _, cfg := range cases {
		if _, err := Run(sess, runner, cfg); err == nil {
			t.Fatalf("Run(%+v) should error", cfg)
		}
	}
}

func TestRunSingleShortcutUsesMasterSeedDirectly(t *testing.T) {
	sessA := testSession(t, &measure.Fake{})
	sessB := testSession(t, &measure.Fake{})

	runner := RLSRunner{}
	cfg := Config{Bets: 1, BetRatio: 1, TotalEvals: 6}
	if !cfg.Single() {
		t.Fatalf("Config.Single() = false, want true for Bets=1/BetRatio=1")
	}

	resultA, err := Run(sessA, runner, cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	resultB, err := optimizer.RunRLS(sessB, optimizer.RLSConfig{Evals: 6})
	if err != nil {
		t.Fatalf("RunRLS() error: %v", err)
	}
	if resultA.Assembly != resultB.Assembly {
		t.Fatalf("single-shortcut bet run diverged from a direct RunRLS call with the same master seed")
	}
	if sessA.Rng.Seed() != sessB.Rng.Seed() {
		t.Fatalf("single-shortcut should not derive a child seed")
	}
}

func TestRunMultiBetPicksAWinnerAndContinues(t *testing.T) {
	sess := testSession(t, &measure.Fake{})
	runner := RLSRunner{}
	cfg := Config{Bets: 3, BetRatio: 0.5, TotalEvals: 12}

	result, err := Run(sess, runner, cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Assembly == "" {
		t.Fatalf("Run() returned an empty candidate")
	}
	if sess.Model == nil {
		t.Fatalf("Run() should leave sess.Model pointed at the winning child's model")
	}
	if len(sess.Convergence) == 0 {
		t.Fatalf("Run() should accumulate convergence entries from the winning child")
	}
}
