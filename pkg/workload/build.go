package workload

import (
	"fmt"

	"github.com/neodyma/laik/pkg/partition"
	"github.com/neodyma/laik/pkg/space"
	"github.com/neodyma/laik/pkg/transition"
)

// Built holds the live objects materialized from a Workload for one rank:
// the space registry, every named partitioning, and the Transition derived
// for each phase in order.
type Built struct {
	Spaces        *space.Registry
	Partitionings map[string]*partition.Partitioning
	Transitions   []*transition.Transition
}

// Build materializes w's spaces, partitionings, and phase transitions for
// rank me (spec §4.A–§4.D), in the order they are declared. Partitionings
// that name a base must appear after it in spec.partitionings.
func Build(w *Workload, me int) (*Built, error) {
	group := partition.Group{Size: w.Spec.Group.Size, Rank: me}

	reg := space.NewRegistry()
	spacesByName := make(map[string]*space.Space, len(w.Spec.Spaces))
	for _, sp := range w.Spec.Spaces {
		extent := space.Range{
			To: space.Index{I0: orOne(sp.Extent[0]), I1: orOne(sp.Extent[1]), I2: orOne(sp.Extent[2])},
		}
		spacesByName[sp.Name] = reg.New(sp.Dims, extent)
	}

	partitionings := make(map[string]*partition.Partitioning, len(w.Spec.Partitionings))
	for i, pt := range w.Spec.Partitionings {
		sp, ok := spacesByName[pt.Space]
		if !ok {
			return nil, fmt.Errorf("workload: partitioning %q references unknown space %q", pt.Name, pt.Space)
		}

		var base *partition.Partitioning
		if pt.Base != "" {
			base, ok = partitionings[pt.Base]
			if !ok {
				return nil, fmt.Errorf("workload: partitioning %q references base %q before it is defined", pt.Name, pt.Base)
			}
		}

		partitioner, err := buildPartitioner(pt.Partitioner, group.Size)
		if err != nil {
			return nil, fmt.Errorf("workload: partitioning %q: %w", pt.Name, err)
		}

		filters, err := buildFilters(pt.Filters, partitionings, me)
		if err != nil {
			return nil, fmt.Errorf("workload: partitioning %q: %w", pt.Name, err)
		}

		p := partition.New(i, pt.Name, group, sp, partitioner, base, filters...)
		p.Run()
		partitionings[pt.Name] = p
	}

	transitions := make([]*transition.Transition, 0, len(w.Spec.Phases))
	for i, ph := range w.Spec.Phases {
		from, ok := partitionings[ph.From]
		if !ok {
			return nil, fmt.Errorf("workload: phase %d references unknown partitioning %q as from", i, ph.From)
		}
		to, ok := partitionings[ph.To]
		if !ok {
			return nil, fmt.Errorf("workload: phase %d references unknown partitioning %q as to", i, ph.To)
		}
		flow, err := parseFlow(ph.Flow)
		if err != nil {
			return nil, fmt.Errorf("workload: phase %d: %w", i, err)
		}
		redOp, err := parseReductionOp(ph.ReductionOp)
		if err != nil {
			return nil, fmt.Errorf("workload: phase %d: %w", i, err)
		}

		tr, err := transition.Calculate(from, to, flow, redOp, me)
		if err != nil {
			return nil, fmt.Errorf("workload: phase %d (%s -> %s): %w", i, ph.From, ph.To, err)
		}
		transitions = append(transitions, tr)
	}

	return &Built{Spaces: reg, Partitionings: partitionings, Transitions: transitions}, nil
}

func orOne(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	return n
}

func buildPartitioner(spec PartitionerSpec, groupSize int) (partition.Partitioner, error) {
	switch spec.Type {
	case "all":
		return partition.All{Size: groupSize}, nil
	case "master":
		return partition.Master{}, nil
	case "stripe":
		return partition.Stripe{Size: groupSize, Dim: spec.Dim}, nil
	case "copy":
		return partition.Copy{DimMap: [3]int{-1, -1, -1}}, nil
	default:
		return nil, fmt.Errorf("unknown partitioner type %q", spec.Type)
	}
}

func buildFilters(specs []FilterSpec, partitionings map[string]*partition.Partitioning, me int) ([]partition.Filter, error) {
	filters := make([]partition.Filter, 0, len(specs))
	for _, f := range specs {
		switch f.Type {
		case "my":
			filters = append(filters, partition.MyFilter{Rank: me})
		case "intersect":
			other, ok := partitionings[f.Other]
			if !ok {
				return nil, fmt.Errorf("intersect filter references unknown partitioning %q", f.Other)
			}
			filters = append(filters, partition.IntersectFilter{Other: other, Rank: me})
		default:
			return nil, fmt.Errorf("unknown filter type %q", f.Type)
		}
	}
	return filters, nil
}

func parseFlow(s string) (transition.Flow, error) {
	switch s {
	case "CopyIn":
		return transition.CopyIn, nil
	case "CopyOut":
		return transition.CopyOut, nil
	case "CopyInOut":
		return transition.CopyInOut, nil
	case "Init":
		return transition.Init, nil
	case "Reduce":
		return transition.Reduce, nil
	default:
		return 0, fmt.Errorf("unknown flow %q", s)
	}
}

func parseReductionOp(s string) (transition.ReductionOp, error) {
	switch s {
	case "", "NoOp":
		return transition.NoOp, nil
	case "Plus":
		return transition.Plus, nil
	case "Times":
		return transition.Times, nil
	case "Min":
		return transition.Min, nil
	case "Max":
		return transition.Max, nil
	case "And":
		return transition.And, nil
	case "Or":
		return transition.Or, nil
	default:
		return 0, fmt.Errorf("unknown reduction_op %q", s)
	}
}
