package fuzz

import (
	"fmt"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/remap"
	"github.com/neodyma/laik/pkg/topology"
	"github.com/neodyma/laik/pkg/transition"
	"github.com/neodyma/laik/pkg/workload"
)

// RunnerConfig configures a fuzz run.
type RunnerConfig struct {
	Rounds int
	Seed   int64
	Gen    Config
}

// RoundResult records the outcome of one generated workload.
type RoundResult struct {
	Round    int
	Workload *workload.Workload
	Passed   bool
	Failure  string
}

// Runner drives RunnerConfig.Rounds randomly generated workloads through
// Build and the core's testable properties (spec.md §8), collecting every
// failure instead of stopping at the first.
type Runner struct {
	cfg RunnerConfig
}

// NewRunner builds a Runner from cfg.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes cfg.Rounds rounds and returns one RoundResult per round.
func (r *Runner) Run() []RoundResult {
	sampler := NewSampler(r.cfg.Seed)
	results := make([]RoundResult, 0, r.cfg.Rounds)

	for round := 0; round < r.cfg.Rounds; round++ {
		w := sampler.Generate(r.cfg.Gen)
		res := RoundResult{Round: round, Workload: w, Passed: true}

		if err := checkWorkload(w); err != nil {
			res.Passed = false
			res.Failure = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// checkWorkload builds w for every rank, accumulates every rank's
// transitions into one CommMatrix, and checks testable properties 3
// (transition symmetry: every send has a receive of the same size from the
// same rank) and 5 (permutation completeness of the remap result) from
// spec.md §8.
func checkWorkload(w *workload.Workload) error {
	n := w.Spec.Group.Size
	cm := commatrix.New(n)

	builtByRank := make([]*workload.Built, n)
	for rank := 0; rank < n; rank++ {
		built, err := workload.Build(w, rank)
		if err != nil {
			return fmt.Errorf("build failed for rank %d: %w", rank, err)
		}
		builtByRank[rank] = built
	}

	numPhases := len(w.Spec.Phases)
	for phase := 0; phase < numPhases; phase++ {
		for rank := 0; rank < n; rank++ {
			tr := builtByRank[rank].Transitions[phase]
			cm.AddTransition(tr, rank)

			for _, send := range tr.Send {
				if !hasMatchingRecv(builtByRank[send.To].Transitions[phase], rank, send) {
					return fmt.Errorf("phase %d: send %d->%d has no matching recv (property 3)", phase, rank, send.To)
				}
			}
		}
	}

	top := topology.FromMatrix(topology.NewMatrix(n))
	pi, ok := remap.Remap(cm, top)
	if !ok {
		return nil
	}
	seen := make([]bool, n)
	for _, p := range pi {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("remap returned a non-permutation (property 5): %v", pi)
		}
		seen[p] = true
	}
	return nil
}

func hasMatchingRecv(to *transition.Transition, from int, send transition.SendOp) bool {
	for _, recv := range to.Recv {
		if recv.From == from && recv.Range.Size() == send.Range.Size() {
			return true
		}
	}
	return false
}
