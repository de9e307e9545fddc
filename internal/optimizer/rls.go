package optimizer

import (
	"asmtune/internal/analyse"
	"asmtune/internal/errs"
	"asmtune/internal/measure"
	"asmtune/internal/model"
)

// RLSConfig configures one RunRLS call.
type RLSConfig struct {
	Evals      int
	NumBatches int
}

// RunRLS implements spec.md §4.4: two double-buffered candidate slots,
// mutate-measure-accept per iteration, ties accepted (deliberately —
// this is what lets the search drift across equi-cost plateaus; do not
// tighten to a strict less-than, see DESIGN.md). Returns the
// last-accepted slot after cfg.Evals iterations.
func RunRLS(sess *Session, cfg RLSConfig) (CandidateSlot, error) {
	if cfg.Evals <= 0 {
		return CandidateSlot{}, errs.New(errs.BadConfig, "optimizer: RLS evals must be > 0")
	}
	numBatches := cfg.NumBatches
	if numBatches <= 0 {
		numBatches = DefaultNumBatches
	}

	slots := [2]CandidateSlot{}
	currentIdx := 0
	batchSize := DefaultInitialBatchSize

	first, err := sess.render()
	if err != nil {
		return CandidateSlot{}, err
	}
	slots[currentIdx] = first

	for i := 0; i < cfg.Evals; i++ {
		mutated := false
		var rec model.MutationRecord
		if i > 0 {
			mo, ok, err := sess.tryMutate()
			if err != nil {
				return CandidateSlot{}, err
			}
			mutated = ok
			rec = mo
		}

		otherIdx := 1 - currentIdx
		rendered, err := sess.render()
		if err != nil {
			return CandidateSlot{}, err
		}
		rendered.LastMutation = rec
		rendered.Mutated = mutated
		slots[otherIdx] = rendered

		candidates := []measure.Candidate{
			{Assembly: slots[currentIdx].Assembly, StackLen: slots[currentIdx].StackLen},
			{Assembly: slots[otherIdx].Assembly, StackLen: slots[otherIdx].StackLen},
		}
		st, err := analyse.Run(sess.Measurer, candidates, batchSize, numBatches, func(kind errs.Kind, cause error) {
			if sess.Failures != nil {
				sess.Failures.PersistFailure(kind, slots[:], sess.Model)
			}
		})
		if err != nil {
			return CandidateSlot{}, err
		}

		medianCurrent := st.RawMedian[currentIdx]
		medianOther := st.RawMedian[otherIdx]
		batchSize = analyse.ClampBatchSize(sess.Cyclegoal, batchSize, st.Check)

		accept := medianOther <= medianCurrent
		if accept {
			currentIdx = otherIdx
		} else if mutated {
			if err := sess.Model.RevertLastMutation(); err != nil {
				return CandidateSlot{}, err
			}
		}

		ratio := analyse.Ratio(st.Check, medianCurrent, medianOther)
		sess.updateBest(slots[currentIdx].Assembly, ratio, st.RawMedian[currentIdx])
		sess.appendConvergence(ratio)

		if sess.Mutations != nil {
			sess.Mutations.LogEvaluation(sess.Epoch, choiceLabel(mutated, rec), accept,
				permutationDetails(mutated, rec), decisionDetails(mutated, rec))
		}
		if sess.Status != nil && sess.Epoch%sess.PrintEvery == 0 {
			sess.Status.EmitStatus(sess.Epoch, st, sess.BestByRatio, sess.BestByCycles)
		}
	}

	return slots[currentIdx], nil
}
