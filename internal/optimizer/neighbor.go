package optimizer

import (
	"asmtune/internal/errs"
	"asmtune/internal/rng"
)

// Neighbour selection strategy names accepted by SelectNeighbor.
const (
	StrategyUniform  = "uniform"
	StrategyGreedy   = "greedy"
	StrategyWeighted = "weighted"
)

// SelectNeighbor picks one of len(energies) neighbours per spec.md
// §4.5 step 4. uniform draws an index with equal probability; greedy
// always takes the lowest-energy neighbour; weighted draws neighbour i
// with weight (1/(n-1))*(1 - e_i/sum(e)), so lower energies get larger
// weights (a zero energy sum falls back to uniform). A single neighbour
// is always index 0 regardless of strategy.
func SelectNeighbor(r *rng.Rng, strategy string, energies []float64) (int, error) {
	n := len(energies)
	if n == 0 {
		return 0, errs.New(errs.BadConfig, "optimizer: no neighbours to select from")
	}
	if n == 1 {
		return 0, nil
	}
	switch strategy {
	case StrategyUniform:
		return r.UniformIndex(n), nil
	case StrategyGreedy:
		best := 0
		for i := 1; i < n; i++ {
			if energies[i] < energies[best] {
				best = i
			}
		}
		return best, nil
	case StrategyWeighted:
		sum := 0.0
		for _, e := range energies {
			sum += e
		}
		if sum == 0 {
			return r.UniformIndex(n), nil
		}
		weights := make([]float64, n)
		for i, e := range energies {
			w := (1.0 / float64(n-1)) * (1 - e/sum)
			if w < 0 {
				w = 0
			}
			weights[i] = w
		}
		return r.PickWeighted(weights), nil
	default:
		return 0, errs.New(errs.BadConfig, "optimizer: unknown neighbour strategy "+strategy)
	}
}
