package optimizer

import (
	"testing"

	"asmtune/internal/analyse"
	"asmtune/internal/asmgen"
	"asmtune/internal/measure"
	"asmtune/internal/model"
	"asmtune/internal/rng"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	nodes := []*model.Node{
		{ID: "n0", Kind: "load"},
		{ID: "n1", Kind: "load"},
		{ID: "n2", Kind: "mulx", Deps: []model.NodeID{"n0", "n1"}, Decisions: []model.Decision{
			{Name: "lane", Choices: []string{"a", "b", "c"}, Current: 0, Hot: true},
		}},
		{ID: "n3", Kind: "adcx", Deps: []model.NodeID{"n2"}},
		{ID: "n4", Kind: "spill", Deps: []model.NodeID{"n3"}, Decisions: []model.Decision{
			{Name: "target", Choices: []string{"stack0", "stack1"}, Current: 0, Hot: true},
		}},
		{ID: "n5", Kind: "store", Deps: []model.NodeID{"n4"}},
	}
	order := []model.NodeID{"n0", "n1", "n2", "n3", "n4", "n5"}
	m, err := model.New(nodes, order)
	if err != nil {
		t.Fatalf("model.New() error: %v", err)
	}
	return m
}

func testSession(t *testing.T, meas measure.Measurer) *Session {
	t.Helper()
	sess := NewSession(rng.New(42), testModel(t), asmgen.NasmAssembler{}, asmgen.DefaultOptions("fe_mul"), meas)
	sess.Cyclegoal = 1000
	return sess
}

type recordingStatusSink struct {
	calls int
}

func (r *recordingStatusSink) EmitStatus(evaluation int, st *analyse.Stats, bestRatio, bestCycles BestRecord) {
	r.calls++
}
