// Package optimizer implements the two search strategies spec.md §4.4
// and §4.5 describe: random local search (RLS, accept-if-not-worse) and
// simulated annealing (SA, with configurable cooling, neighbour
// sampling, and acceptance). Both share a Session — the explicit
// Rng+Model+sinks bundle DESIGN.md's "global mutable state" note calls
// for in place of the teacher corpus's module-level singletons.
package optimizer

import (
	"asmtune/internal/analyse"
	"asmtune/internal/asmgen"
	"asmtune/internal/errs"
	"asmtune/internal/measure"
	"asmtune/internal/model"
	"asmtune/internal/rng"
)

// DefaultPrintEvery is how often (in Session.Epoch ticks) a status line
// is emitted, absent an explicit override.
const DefaultPrintEvery = 20

// DefaultNumBatches is the number of per-candidate batches a single
// Measurer call asks for, independent of batch size. Spec.md leaves
// this unspecified; a handful of batches is enough for a stable median
// without materially slowing the loop (Open Question, see DESIGN.md).
const DefaultNumBatches = 5

// DefaultInitialBatchSize seeds the self-tuning batch size before the
// first check measurement is available.
const DefaultInitialBatchSize = 100

// CandidateSlot is a fixed-index record holding one rendered
// candidate, per spec.md §3.
type CandidateSlot struct {
	Assembly         string
	StackLen         int
	LastMutation     model.MutationRecord
	Mutated          bool
	InstructionCount int
}

// BestRecord is one of the two best-ever views spec.md §3 names:
// best-by-ratio and best-by-cycle-count.
type BestRecord struct {
	Assembly string
	Ratio    float64
	Cycles   float64
	Epoch    int
}

// StatusSink receives a status line whenever Session.Epoch is a multiple
// of PrintEvery (every RLS iteration, every SA epoch).
// internal/statuslog implements this.
type StatusSink interface {
	EmitStatus(evaluation int, st *analyse.Stats, bestRatio, bestCycles BestRecord)
}

// MutationLogSink receives one row per evaluation. internal/mutationlog
// implements this.
type MutationLogSink interface {
	LogEvaluation(evaluation int, choice string, kept bool, permutationDetails, decisionDetails string)
}

// FailureSink receives diagnostic persistence requests on a measurement
// failure (spec.md §4.3's "offending assemblies and a JSON dump of the
// current Model"). internal/orchestrator implements this.
type FailureSink interface {
	PersistFailure(kind errs.Kind, slots []CandidateSlot, m *model.Model)
}

// Session bundles the dependencies the two optimizers share, replacing
// the teacher corpus's module-level singletons (Rng, Model, run-wide
// globals) with explicit fields — see DESIGN.md's "Global mutable
// state" note.
type Session struct {
	Rng       *rng.Rng
	Model     *model.Model
	Assembler asmgen.Assembler
	Options   asmgen.Options
	Measurer  measure.Measurer

	Status    StatusSink
	Mutations MutationLogSink
	Failures  FailureSink

	PrintEvery int
	Cyclegoal  int

	BestByRatio  BestRecord
	BestByCycles BestRecord
	Convergence  []string

	// Epoch counts optimizer iterations across every call made on this
	// Session: updateBest advances it once per RLS iteration (one
	// evaluation) and once per SA epoch (one per neighbour batch). It
	// numbers the mutation-log rows and gates status emission; SA's
	// cooling schedule uses its own evaluation count instead.
	Epoch int
}

// NewSession builds a Session with the documented defaults filled in.
func NewSession(r *rng.Rng, m *model.Model, asm asmgen.Assembler, opts asmgen.Options, meas measure.Measurer) *Session {
	return &Session{
		Rng:        r,
		Model:      m,
		Assembler:  asm,
		Options:    opts,
		Measurer:   meas,
		PrintEvery: DefaultPrintEvery,
	}
}

func (s *Session) render() (CandidateSlot, error) {
	asm, stackLen, err := s.Assembler.Render(s.Model, s.Options)
	if err != nil {
		return CandidateSlot{}, errs.Wrap(errs.MeasureGeneric, "optimizer: render failed", err)
	}
	return CandidateSlot{Assembly: asm, StackLen: stackLen, InstructionCount: measure.CountInstructions(asm)}, nil
}

// tryMutate chooses a mutation kind uniformly at random, falling back
// to a permutation mutation if a decision mutation finds no hot
// decision, per spec.md §4.4 step 1 / §4.5 step 2.
func (s *Session) tryMutate() (model.MutationRecord, bool, error) {
	if s.Rng.Bool() {
		rec, ok, err := s.Model.MutateDecision(s.Rng)
		if err != nil {
			return rec, false, err
		}
		if ok {
			return rec, true, nil
		}
	}
	rec, err := s.Model.MutatePermutation(s.Rng)
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// updateBest refreshes the two best-ever records if the candidate
// improves on either metric.
func (s *Session) updateBest(asm string, ratio, cycles float64) {
	s.Epoch++
	if s.BestByRatio.Assembly == "" || ratio > s.BestByRatio.Ratio {
		s.BestByRatio = BestRecord{Assembly: asm, Ratio: ratio, Cycles: cycles, Epoch: s.Epoch}
	}
	if s.BestByCycles.Assembly == "" || cycles < s.BestByCycles.Cycles {
		s.BestByCycles = BestRecord{Assembly: asm, Ratio: ratio, Cycles: cycles, Epoch: s.Epoch}
	}
}

func (s *Session) appendConvergence(ratio float64) {
	s.Convergence = append(s.Convergence, formatRatio(ratio))
}

func formatRatio(ratio float64) string {
	return floatToStr(ratio)
}

func floatToStr(v float64) string {
	return trimTrailingZeros(formatFixed(v, 6))
}
