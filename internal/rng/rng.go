// Package rng is the single seeded randomness source asmtune uses for
// both mutation and acceptance decisions. Every method is deterministic
// given the seed: two Rng values built from the same seed produce
// identical sequences across every method, on any platform, which is
// what lets a run be replayed byte-for-byte from just its seed.
package rng

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"

	"asmtune/internal/errs"
)

// Rng wraps a counter-based PCG source. PCG is used instead of a
// third-party generator because it is the standard library's own
// documented, versioned, 64-bit counter-based PRNG (available since Go
// 1.22) and no repo in the reference pack ships a competing one — see
// DESIGN.md.
type Rng struct {
	seed uint64
	src  *rand.Rand
}

// New builds an Rng from a 64-bit master seed.
func New(seed uint64) *Rng {
	return &Rng{seed: seed, src: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Seed returns the master seed this Rng was constructed with.
func (r *Rng) Seed() uint64 { return r.seed }

// ShortID renders the master seed the way the run-result filenames do:
// a zero-padded 16-digit decimal string (seed<digits>.dat in the
// original bridge's convention).
func (r *Rng) ShortID() string {
	return fmt.Sprintf("%016d", r.seed)
}

// UniformIndex returns a uniformly distributed index in [0, n).
func (r *Rng) UniformIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.src.Uint64N(uint64(n)))
}

// UniformReal returns a uniformly distributed float64 in [0, 1).
func (r *Rng) UniformReal() float64 {
	return r.src.Float64()
}

// PickWeighted samples an index in [0, len(weights)) proportionally to
// the given (non-negative) weights, via an O(n) cumulative sum and a
// binary search over the draw.
func (r *Rng) PickWeighted(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		total += w
		cum[i] = total
	}
	if total <= 0 {
		return r.UniformIndex(len(weights))
	}
	target := r.UniformReal() * total
	lo, hi := 0, len(cum)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cum[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Derive produces an independent child Rng for bet index i, by hashing
// the master seed and i with blake2b and folding the digest into a new
// 64-bit seed. golang.org/x/crypto is grounded on vybium-vybium-starks-vm
// and tailscale-tailscale, both of which depend on it.
func (r *Rng) Derive(i uint64) *Rng {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.seed)
	binary.LittleEndian.PutUint64(buf[8:16], i)
	digest := blake2b.Sum256(buf[:])
	childSeed := binary.LittleEndian.Uint64(digest[:8])
	return New(childSeed)
}

// Cauchy samples from a Cauchy distribution with location loc and scale
// via the inverse CDF loc + scale*tan(pi*(u-0.5)). Fails with BadConfig
// if scale <= 0.
func (r *Rng) Cauchy(loc, scale float64) (float64, error) {
	if scale <= 0 {
		return 0, errs.New(errs.BadConfig, fmt.Sprintf("rng: cauchy scale must be > 0, got %v", scale))
	}
	u := r.UniformReal()
	return loc + scale*math.Tan(math.Pi*(u-0.5)), nil
}

// Bool returns a fair coin flip.
func (r *Rng) Bool() bool {
	return r.UniformIndex(2) == 1
}
