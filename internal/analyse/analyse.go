// Package analyse reduces raw Measurer samples to the statistics the
// optimizers and the terminal status line consume: per-candidate
// robust medians, a display-sized chunk compression, and the "check"
// baseline remeasurement used to self-tune the batch size.
package analyse

import (
	"sort"

	"asmtune/internal/errs"
	"asmtune/internal/measure"
)

// ChunkWidth is the default number of buckets a sample sequence is
// compressed into for the terminal status line.
const ChunkWidth = 40

// Stats is the reduction of one Measurer call.
type Stats struct {
	// RawMedian[i] is the median of candidate i's per-batch sums,
	// divided by batch size.
	RawMedian []float64
	// ScaledMedian[i] is the median of candidate i's per-batch sums
	// (not divided by batch size).
	ScaledMedian []float64
	// Check is the re-measurement of the first candidate, reduced the
	// same way as RawMedian.
	Check float64
	// CheckScaled is Check before dividing by batch size.
	CheckScaled float64
	// Chunks[i] is a ChunkWidth-bucket compression of candidate i's
	// batch sums (candidates only; the check column is not chunked).
	Chunks [][]float64
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func chunk(xs []float64, width int) []float64 {
	if len(xs) == 0 {
		return nil
	}
	if width <= 0 || width > len(xs) {
		width = len(xs)
	}
	out := make([]float64, width)
	per := float64(len(xs)) / float64(width)
	for b := 0; b < width; b++ {
		lo := int(float64(b) * per)
		hi := int(float64(b+1) * per)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(xs) {
			hi = len(xs)
		}
		sum := 0.0
		for _, v := range xs[lo:hi] {
			sum += v
		}
		out[b] = sum / float64(hi-lo)
	}
	return out
}

// Reduce computes Stats from a raw measure.Result. result.BatchSums has
// len(candidates)+1 columns, the last being the check column.
func Reduce(result measure.Result) (*Stats, error) {
	if result.BatchSize <= 0 {
		return nil, errs.New(errs.MeasureGeneric, "analyse: batch size must be positive")
	}
	if len(result.BatchSums) == 0 {
		return nil, errs.New(errs.MeasureGeneric, "analyse: no columns in result")
	}
	k := len(result.BatchSums) - 1
	st := &Stats{
		RawMedian:    make([]float64, k),
		ScaledMedian: make([]float64, k),
		Chunks:       make([][]float64, k),
	}
	for i := 0; i < k; i++ {
		col := result.BatchSums[i]
		if len(col) == 0 {
			return nil, errs.New(errs.MeasureGeneric, "analyse: empty batch column")
		}
		scaled := median(col)
		st.ScaledMedian[i] = scaled
		st.RawMedian[i] = scaled / float64(result.BatchSize)
		st.Chunks[i] = chunk(col, ChunkWidth)
	}
	checkCol := result.BatchSums[k]
	if len(checkCol) == 0 {
		return nil, errs.New(errs.MeasureGeneric, "analyse: empty check column")
	}
	st.CheckScaled = median(checkCol)
	st.Check = st.CheckScaled / float64(result.BatchSize)
	return st, nil
}

// Run calls m.Measure and reduces the result. Measurer-reported
// failures (MeasureIncorrect/MeasureInvalid) are propagated as-is;
// anything else wraps as MeasureGeneric. onFailure, if non-nil, is
// invoked before the error is returned so the caller can persist
// diagnostic artefacts (spec.md §4.3: "the offending assemblies and a
// JSON dump of the current Model are persisted before propagating").
func Run(m measure.Measurer, candidates []measure.Candidate, batchSize, numBatches int, onFailure func(kind errs.Kind, cause error)) (*Stats, error) {
	result, err := m.Measure(candidates, batchSize, numBatches)
	if err != nil {
		kind := errs.MeasureGeneric
		if e, ok := err.(*errs.Error); ok && (e.Kind == errs.MeasureIncorrect || e.Kind == errs.MeasureInvalid) {
			kind = e.Kind
		} else {
			err = errs.Wrap(errs.MeasureGeneric, "analyse: measurer failed", err)
		}
		if onFailure != nil {
			onFailure(kind, err)
		}
		return nil, err
	}
	st, err := Reduce(result)
	if err != nil {
		if onFailure != nil {
			onFailure(errs.MeasureGeneric, err)
		}
		return nil, err
	}
	return st, nil
}

// Ratio is medianCheck / min(values...), the dimensionless speedup
// indicator the glossary defines (>= 1 for an improvement over the
// check baseline).
func Ratio(check float64, values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	if min == 0 {
		return 0
	}
	return check / min
}

// ClampBatchSize implements spec.md §4.4 step 4:
// batchSize' = clamp(ceil(cyclegoal * batchSize / medianCheck), 5, 10000).
// It is monotone in cyclegoal/medianCheck and always returns a value in
// [5, 10000]. A non-positive medianCheck keeps batchSize, clamped.
func ClampBatchSize(cyclegoal, batchSize int, medianCheck float64) int {
	const lo, hi = 5, 10000
	next := batchSize
	if medianCheck > 0 {
		raw := float64(cyclegoal) * float64(batchSize) / medianCheck
		next = int(raw)
		if float64(next) < raw {
			next++
		}
	}
	if next < lo {
		return lo
	}
	if next > hi {
		return hi
	}
	return next
}
