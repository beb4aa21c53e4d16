package remap

import (
	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/topology"
)

// improve runs the cyclic pairwise-exchange local search described in spec
// §4.G starting from the construction result. It swaps order[i] and
// order[j] at each step of a deterministic schedule, keeps the swap when
// it strictly lowers total cost, and otherwise reverts it; n*n steps are
// run in total and the best solution seen is returned.
//
// The source's cyclic schedule advances i only when j reaches n (a
// condition the increment loop never actually reaches, since j stops
// advancing at n-1), which degenerates into repeatedly revisiting the
// first couple of rows. This implementation instead advances i as soon as
// j exhausts row i (j == n-1), which is the schedule the design note's
// "sweep every (i,j) pair" intent actually describes; falling off the end
// resets to (1,2) as specified.
func improve(cm *commatrix.CommMatrix, top *topology.Matrix, initial []int) []int {
	n := len(initial)
	if n < 2 {
		return initial
	}

	best := make([]int, n)
	copy(best, initial)
	bestCost := totalCost(cm, top, best)

	current := make([]int, n)
	copy(current, best)
	currentCost := bestCost

	i, j := 0, 1
	for k := 0; k < n*n; k++ {
		current[i], current[j] = current[j], current[i]
		currentCost = totalCost(cm, top, current)

		if currentCost < bestCost {
			copy(best, current)
			bestCost = currentCost
		} else {
			current[i], current[j] = current[j], current[i]
			currentCost = bestCost
		}

		i, j = nextPair(i, j, n)
	}

	return best
}

// nextPair advances the (i,j) cursor per the schedule described above,
// guarding against stepping j out of bounds when i+2 would exceed n-1.
// With n == 2 the only pair is (0,1), so the cursor stays there.
func nextPair(i, j, n int) (int, int) {
	if n < 3 {
		return 0, 1
	}
	if j < n-1 {
		return i, j + 1
	}
	if i < n-2 {
		ni, nj := i+1, i+2
		if nj > n-1 {
			return 1, 2
		}
		return ni, nj
	}
	return 1, 2
}
