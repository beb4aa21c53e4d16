package remap

import (
	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/topology"
)

// totalCost computes Σ_ij CM[order[i]][order[j]] * T[i][j] for a candidate
// permutation in which physical slot k holds process order[k], the same
// orientation Remap returns (spec §4.G). O(n²), acceptable for the few-thousand-rank scale the spec
// targets; larger scales are expected to coarsen before calling in.
func totalCost(cm *commatrix.CommMatrix, top *topology.Matrix, order []int) uint64 {
	n := len(order)
	var cost uint64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cost += cm.At(order[i], order[j]) * top.At(i, j)
		}
	}
	return cost
}
