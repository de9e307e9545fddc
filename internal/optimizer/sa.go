package optimizer

import (
	"math"
	"strconv"

	"asmtune/internal/analyse"
	"asmtune/internal/errs"
	"asmtune/internal/measure"
	"asmtune/internal/model"
)

// SAConfig configures one RunSA call. CoolingSchedule and
// NeighborStrategy select among the named schedules/strategies Cooling
// and SelectNeighbor implement; VisitParam is the cooling shape
// parameter ("q" in spec.md §4.5), AcceptParam the acceptance-ratio
// scale, StepSizeParam the divisor applied to temperature before it
// becomes the step-size Cauchy scale.
type SAConfig struct {
	Evals              int
	NumBatches         int
	NumNeighbors       int
	InitialTemperature float64
	VisitParam         float64
	AcceptParam        float64
	StepSizeParam      float64
	MaxMutStepSize     int
	CoolingSchedule    string
	NeighborStrategy   string
}

const snapshotCurrent = "current"

// RunSA implements spec.md §4.5's simulated annealing loop: each epoch
// draws NumNeighbors mutated variants of the current Model state by
// snapshot/restore, measures all of them plus the current state and a
// check column in one Measurer call, selects one neighbour per
// cfg.NeighborStrategy, and accepts it outright if it is strictly better,
// otherwise probabilistically via the Metropolis-style criterion scaled by
// AcceptParam and the cfg.CoolingSchedule temperature. One "evaluation"
// is one neighbour candidate, so the loop runs until the cumulative
// neighbour count reaches cfg.Evals even though each epoch issues a
// single Measurer call for the whole batch of neighbours.
func RunSA(sess *Session, cfg SAConfig) (CandidateSlot, error) {
	if cfg.Evals <= 0 {
		return CandidateSlot{}, errs.New(errs.BadConfig, "optimizer: SA evals must be > 0")
	}
	numNeighbors := cfg.NumNeighbors
	if numNeighbors <= 0 {
		numNeighbors = 1
	}
	numBatches := cfg.NumBatches
	if numBatches <= 0 {
		numBatches = DefaultNumBatches
	}
	if cfg.StepSizeParam <= 0 {
		return CandidateSlot{}, errs.New(errs.BadConfig, "optimizer: SA step size param must be > 0")
	}

	current, err := sess.render()
	if err != nil {
		return CandidateSlot{}, err
	}
	sess.Model.SaveSnapshot(snapshotCurrent)
	batchSize := DefaultInitialBatchSize

	evalsDone := 0
	for evalsDone < cfg.Evals {
		n := numNeighbors
		if remaining := cfg.Evals - evalsDone; n > remaining {
			n = remaining
		}

		temperature, err := Cooling(cfg.CoolingSchedule, float64(evalsDone), cfg.VisitParam, cfg.InitialTemperature, float64(cfg.Evals))
		if err != nil {
			return CandidateSlot{}, err
		}

		neighbors := make([]CandidateSlot, n)
		for i := 0; i < n; i++ {
			step, err := stepSize(sess, temperature, cfg.StepSizeParam, cfg.MaxMutStepSize)
			if err != nil {
				return CandidateSlot{}, err
			}
			mutated := false
			var rec model.MutationRecord
			for s := 0; s < step; s++ {
				mo, ok, err := sess.tryMutate()
				if err != nil {
					return CandidateSlot{}, err
				}
				if ok {
					mutated = true
					rec = mo
				}
			}
			slot, err := sess.render()
			if err != nil {
				return CandidateSlot{}, err
			}
			slot.Mutated = mutated
			slot.LastMutation = rec
			neighbors[i] = slot
			sess.Model.SaveSnapshot(neighborSnapshotID(i))
			if err := sess.Model.RestoreSnapshot(snapshotCurrent); err != nil {
				return CandidateSlot{}, err
			}
		}

		candidates := make([]measure.Candidate, n+1)
		candidates[0] = measure.Candidate{Assembly: current.Assembly, StackLen: current.StackLen}
		for i, slot := range neighbors {
			candidates[i+1] = measure.Candidate{Assembly: slot.Assembly, StackLen: slot.StackLen}
		}
		slots := append([]CandidateSlot{current}, neighbors...)
		st, err := analyse.Run(sess.Measurer, candidates, batchSize, numBatches, func(kind errs.Kind, cause error) {
			if sess.Failures != nil {
				sess.Failures.PersistFailure(kind, slots, sess.Model)
			}
		})
		if err != nil {
			return CandidateSlot{}, err
		}
		batchSize = analyse.ClampBatchSize(sess.Cyclegoal, batchSize, st.Check)

		energyCurrent := energy(st.RawMedian[0])
		neighborEnergies := make([]float64, n)
		for i := 0; i < n; i++ {
			neighborEnergies[i] = energy(st.RawMedian[i+1])
		}
		j, err := SelectNeighbor(sess.Rng, cfg.NeighborStrategy, neighborEnergies)
		if err != nil {
			return CandidateSlot{}, err
		}

		accept := neighborEnergies[j] < energyCurrent
		if !accept && cfg.AcceptParam > 0 && temperature > 0 {
			p := math.Min(1, math.Exp(-cfg.AcceptParam*(neighborEnergies[j]-energyCurrent)/temperature))
			accept = sess.Rng.UniformReal() < p
		}

		acceptedEnergy := energyCurrent
		if accept {
			current = neighbors[j]
			acceptedEnergy = neighborEnergies[j]
			if err := sess.Model.RestoreSnapshot(neighborSnapshotID(j)); err != nil {
				return CandidateSlot{}, err
			}
			sess.Model.SaveSnapshot(snapshotCurrent)
		}

		ratio := analyse.Ratio(st.Check, append([]float64{energyCurrent}, neighborEnergies...)...)
		sess.updateBest(current.Assembly, ratio, acceptedEnergy)
		sess.appendConvergence(ratio)

		if sess.Mutations != nil {
			for i := 0; i < n; i++ {
				kept := accept && i == j
				rec := neighbors[i].LastMutation
				sess.Mutations.LogEvaluation(sess.Epoch, choiceLabel(neighbors[i].Mutated, rec), kept,
					permutationDetails(neighbors[i].Mutated, rec), decisionDetails(neighbors[i].Mutated, rec))
			}
		}
		if sess.Status != nil && sess.Epoch%sess.PrintEvery == 0 {
			sess.Status.EmitStatus(sess.Epoch, st, sess.BestByRatio, sess.BestByCycles)
		}

		evalsDone += n
	}

	return current, nil
}

func neighborSnapshotID(i int) string {
	return "neighbor-" + strconv.Itoa(i)
}

// stepSize draws the number of mutations to apply before rendering one
// neighbour, per spec.md §4.5 step 2: round(Cauchy(1, temperature /
// stepSizeParam)), clamped to [1, maxMutStepSize] (or left unbounded
// above 1 when maxMutStepSize <= 0).
func stepSize(sess *Session, temperature, stepSizeParam float64, maxMutStepSize int) (int, error) {
	scale := temperature / stepSizeParam
	if scale <= 0 {
		return 1, nil
	}
	v, err := sess.Rng.Cauchy(1, scale)
	if err != nil {
		return 0, err
	}
	k := int(math.Round(v))
	if k < 1 {
		k = 1
	}
	if maxMutStepSize > 0 && k > maxMutStepSize {
		k = maxMutStepSize
	}
	return k, nil
}
