// Package fuzz implements randomized workload generation and replay for
// property-based stress tests of spec.md §8's invariants, grounded on the
// teacher's pkg/fuzz package: the same seeded-Sampler/Config/Runner shape,
// repurposed from randomized fault-parameter sampling to randomized
// space/partitioning/phase generation.
package fuzz

import "math/rand"

// Sampler holds a seeded RNG and produces randomized workloads.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded with the given value. The same seed
// always produces the same sequence of generated workloads.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// intRange returns a uniform random int in [lo, hi], inclusive.
func (s *Sampler) intRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *Sampler) choice(options []string) string {
	return options[s.rng.Intn(len(options))]
}
