// Package measure defines the Measurer external interface — the native
// cycle-counting harness spec.md §1 calls out of scope — plus a
// reference, in-process implementation used for tests and for running
// the full pipeline without real hardware timing wired in.
package measure

import (
	"asmtune/internal/asmlex"
	"asmtune/internal/errs"
	"asmtune/internal/rng"
)

// Candidate is one assembly string submitted for measurement.
type Candidate struct {
	Assembly string
	StackLen int
}

// Result holds raw batch-sum samples for each submitted candidate plus
// a trailing re-measurement of the first candidate (the "check"
// column), as spec.md §4.3 describes. BatchSums[i] has length
// numBatches for i in [0, len(candidates)], where index len(candidates)
// is the check column.
type Result struct {
	BatchSums [][]float64
	BatchSize int
}

// Measurer executes a set of candidate assemblies in interleaved
// batches and returns raw cycle-count samples.
type Measurer interface {
	// Measure runs numBatches batches of batchSize repetitions for each
	// candidate, plus a trailing check column of numBatches batches
	// re-measuring candidates[0].
	Measure(candidates []Candidate, batchSize, numBatches int) (Result, error)
	// Close releases any native resources the Measurer owns.
	Close() error
}

// CountInstructions is a crude but deterministic instruction-count
// estimate used for the reference Measurer's cost model and for the
// candidate-slot bookkeeping spec.md §3 names ("instruction count").
func CountInstructions(asm string) int {
	return asmlex.CountInstructions(asm)
}

// ReferenceMeasurer is a deterministic stand-in for the native
// cycle-counting harness (spec.md §1's "out of scope" collaborator).
// Its cost model is the candidate's instruction count, jittered by a
// Cauchy-distributed noise term drawn from its own Rng so repeated
// measurements of the same assembly vary slightly, the way real
// hardware timing does, while staying perfectly reproducible given a
// seed.
type ReferenceMeasurer struct {
	r           *rng.Rng
	noiseScale  float64
	cyclesPerOp float64
}

// NewReferenceMeasurer builds a ReferenceMeasurer seeded from r.
func NewReferenceMeasurer(r *rng.Rng) *ReferenceMeasurer {
	return &ReferenceMeasurer{r: r, noiseScale: 0.5, cyclesPerOp: 3.0}
}

func (rm *ReferenceMeasurer) sampleOne(c Candidate, batchSize int) float64 {
	base := float64(CountInstructions(c.Assembly)) * rm.cyclesPerOp * float64(batchSize)
	noise, err := rm.r.Cauchy(0, rm.noiseScale*float64(batchSize))
	if err != nil {
		noise = 0
	}
	v := base + noise
	if v < float64(batchSize) {
		v = float64(batchSize)
	}
	return v
}

// Measure implements Measurer.
func (rm *ReferenceMeasurer) Measure(candidates []Candidate, batchSize, numBatches int) (Result, error) {
	if batchSize <= 0 || numBatches <= 0 {
		return Result{}, errs.New(errs.MeasureGeneric, "measure: batchSize and numBatches must be positive")
	}
	cols := len(candidates) + 1
	sums := make([][]float64, cols)
	for i := 0; i < len(candidates); i++ {
		sums[i] = make([]float64, numBatches)
		for b := 0; b < numBatches; b++ {
			sums[i][b] = rm.sampleOne(candidates[i], batchSize)
		}
	}
	checkCandidate := Candidate{}
	if len(candidates) > 0 {
		checkCandidate = candidates[0]
	}
	sums[len(candidates)] = make([]float64, numBatches)
	for b := 0; b < numBatches; b++ {
		sums[len(candidates)][b] = rm.sampleOne(checkCandidate, batchSize)
	}
	return Result{BatchSums: sums, BatchSize: batchSize}, nil
}

// Close implements Measurer. ReferenceMeasurer owns no native state.
func (rm *ReferenceMeasurer) Close() error { return nil }
