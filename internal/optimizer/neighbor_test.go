package optimizer

import (
	"testing"

	"asmtune/internal/rng"
)

func TestSelectNeighborSingleAlwaysZero(t *testing.T) {
	r := rng.New(1)
	got, err := SelectNeighbor(r, StrategyUniform, []float64{42})
	if err != nil {
		t.Fatalf("SelectNeighbor() error: %v", err)
	}
	if got != 0 {
		t.Fatalf("SelectNeighbor() with one neighbour = %d, want 0", got)
	}
}

func TestSelectNeighborGreedyPicksMinimum(t *testing.T) {
	r := rng.New(1)
	energies := []float64{5, 1, 9, 3}
	got, err := SelectNeighbor(r, StrategyGreedy, energies)
	if err != nil {
		t.Fatalf("SelectNeighbor() error: %v", err)
	}
	if got != 1 {
		t.Fatalf("SelectNeighbor(greedy) = %d, want 1 (index of minimum)", got)
	}
}

func TestSelectNeighborUnknownStrategyIsBadConfig(t *testing.T) {
	r := rng.New(1)
	if _, err := SelectNeighbor(r, "bogus", []float64{1, 2}); err == nil {
		t.Fatalf("SelectNeighbor() with unknown strategy should error")
	}
}

func TestSelectNeighborNoEnergiesIsBadConfig(t *testing.T) {
	r := rng.New(1)
	if _, err := SelectNeighbor(r, StrategyUniform, nil); err == nil {
		t.Fatalf("SelectNeighbor() with no energies should error")
	}
}

func TestSelectNeighborWeightedEqualEnergiesStaysInRange(t *testing.T) {
	r := rng.New(7)
	energies := []float64{4, 4, 4, 4}
	for i := 0; i < 20; i++ {
		got, err := SelectNeighbor(r, StrategyWeighted, energies)
		if err != nil {
			t.Fatalf("SelectNeighbor() error: %v", err)
		}
		if got < 0 || got >= len(energies) {
			t.Fatalf("SelectNeighbor(weighted) = %d, out of range", got)
		}
	}
}
