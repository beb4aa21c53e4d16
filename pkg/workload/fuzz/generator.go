package fuzz

import (
	"fmt"

	"github.com/neodyma/laik/pkg/workload"
)

// Config bounds the random workload generator's parameter ranges.
type Config struct {
	MinGroupSize, MaxGroupSize int
	MinExtent, MaxExtent       uint64
	MinPhases, MaxPhases       int
}

// DefaultConfig is small enough to run many rounds quickly while still
// exercising every flow and dimensionality and the all, master and stripe
// partitioners (copy is not generated).
func DefaultConfig() Config {
	return Config{
		MinGroupSize: 2, MaxGroupSize: 8,
		MinExtent: 8, MaxExtent: 256,
		MinPhases: 1, MaxPhases: 4,
	}
}

var partitionerTypes = []string{"all", "master", "stripe"}
var flows = []string{"CopyIn", "CopyOut", "CopyInOut", "Init", "Reduce"}
var reductionOps = []string{"Plus", "Times", "Min", "Max", "And", "Or"}

// Generate builds a random, self-consistent Workload: one space, one
// partitioning each for the all, master and stripe partitioners, and a
// random chain of phases between them.
func (s *Sampler) Generate(cfg Config) *workload.Workload {
	groupSize := s.intRange(cfg.MinGroupSize, cfg.MaxGroupSize)
	dims := s.intRange(1, 3)
	extent := [3]uint64{1, 1, 1}
	for d := 0; d < dims; d++ {
		extent[d] = uint64(s.intRange(int(cfg.MinExtent), int(cfg.MaxExtent)))
	}

	const spaceName = "main"
	w := &workload.Workload{
		APIVersion: "laik/v1",
		Kind:       "Workload",
		Metadata:   workload.Metadata{Name: "fuzz-generated"},
		Spec: workload.WorkloadSpec{
			Group:  workload.GroupSpec{Size: groupSize},
			Spaces: []workload.SpaceSpec{{Name: spaceName, Dims: dims, Extent: extent}},
		},
	}

	for _, pt := range partitionerTypes {
		spec := workload.PartitioningSpec{
			Name:        pt,
			Space:       spaceName,
			Partitioner: workload.PartitionerSpec{Type: pt},
		}
		if pt == "stripe" {
			spec.Partitioner.Dim = s.intRange(0, dims-1)
		}
		w.Spec.Partitionings = append(w.Spec.Partitionings, spec)
	}

	numPhases := s.intRange(cfg.MinPhases, cfg.MaxPhases)
	for i := 0; i < numPhases; i++ {
		flow := s.choice(flows)
		phase := workload.PhaseSpec{
			Name: fmt.Sprintf("phase%d", i),
			From: s.choice(partitionerTypes),
			To:   s.choice(partitionerTypes),
			Flow: flow,
		}
		if flow == "Reduce" {
			phase.ReductionOp = s.choice(reductionOps)
		}
		w.Spec.Phases = append(w.Spec.Phases, phase)
	}

	return w
}
