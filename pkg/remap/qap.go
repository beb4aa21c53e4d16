// Package remap implements the QAP-based rank remapper: given a
// communication matrix and a topology, it computes a permutation that
// approximately minimizes total weighted communication cost (spec §3,
// §4.G).
package remap

import (
	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/topology"
)

// Remap computes a permutation π such that physical slot k holds the
// process π[k], approximately minimizing Σ_ij CM[π(i)][π(j)]·T[i][j].
//
// Remap returns (nil, false) when top is not matrix-backed — the remapper
// refuses graph topologies outright (spec §4.G "If input topology is a
// graph, return null"; spec §7 "NotApplicable — remapper called with
// non-matrix topology; recoverable"). Callers should fall back to the
// identity mapping on a false return.
func Remap(cm *commatrix.CommMatrix, top *topology.Topology) ([]int, bool) {
	mat := top.Matrix()
	if mat == nil {
		return nil, false
	}
	if cm.N() != mat.N() {
		panic("remap: CommMatrix and TopologyMatrix have different sizes")
	}

	initial := construct(cm, mat)
	return improve(cm, mat, initial), true
}
