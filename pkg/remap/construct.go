package remap

import (
	"cmp"
	"slices"
	"sort"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/topology"
)

// construct builds an initial assignment greedily: at each step, the
// highest-load unassigned process is paired with the lowest-aggregate-
// distance unassigned core (spec §4.G "Construction (greedy)").
//
// procs and cores are each kept as two sorted halves (assigned prefix,
// unassigned suffix) per the spec's description; membership tests use
// slices.BinarySearchFunc with the three-way comparator cmp.Compare, fixing the
// source's bsearch call that used a boolean-equality comparator
// (spec §4.F/§9).
func construct(cm *commatrix.CommMatrix, top *topology.Matrix) []int {
	n := cm.N()
	pi := make([]int, n) // pi[core] = assigned process

	procs := identity(n)
	cores := identity(n)
	assignedProcs, assignedCores := 0, 0

	// Seed: maximum total load across all ranks, minimum total distance
	// across all cores, under the identity assignment.
	p0 := bestByTotal(n, func(i int) uint64 { return totalLoad(cm, i) }, true)
	c0 := bestByTotal(n, func(i int) uint64 { return totalDist(top, i) }, false)
	pi[c0] = p0
	assign(procs, &assignedProcs, p0)
	assign(cores, &assignedCores, c0)

	for i := 1; i < n; i++ {
		unassignedProcs := procs[assignedProcs:]
		unassignedCores := cores[assignedCores:]

		p := bestAmong(unassignedProcs, func(cand int) uint64 {
			return load(cm, cand, procs[:assignedProcs])
		}, true)
		c := bestAmong(unassignedCores, func(cand int) uint64 {
			return dist(top, cand, cores[:assignedCores])
		}, false)

		pi[c] = p
		assign(procs, &assignedProcs, p)
		assign(cores, &assignedCores, c)
	}

	return pi
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// assign moves elm from the unassigned suffix of list into the assigned
// prefix (growing *sep by one), keeping both halves sorted ascending.
func assign(list []int, sep *int, elm int) {
	tail := list[*sep:]
	pos, found := slices.BinarySearchFunc(tail, elm, cmp.Compare[int])
	if !found {
		panic("remap: element not found in unassigned list")
	}
	// swap into the boundary slot, then re-sort both halves.
	tail[0], tail[pos] = tail[pos], tail[0]
	*sep++
	sort.Ints(list[:*sep])
	sort.Ints(list[*sep:])
}

// bestByTotal scores every index 0..n-1 with score and returns the index
// with the maximum (descending=true) or minimum (descending=false) score,
// lowest index winning ties.
func bestByTotal(n int, score func(int) uint64, descending bool) int {
	best := 0
	bestVal := score(0)
	for i := 1; i < n; i++ {
		v := score(i)
		if (descending && v > bestVal) || (!descending && v < bestVal) {
			best, bestVal = i, v
		}
	}
	return best
}

// bestAmong scores every candidate in cands and returns the one with the
// maximum (descending=true) or minimum (descending=false) score, lowest
// index winning ties.
func bestAmong(cands []int, score func(int) uint64, descending bool) int {
	best := cands[0]
	bestVal := score(cands[0])
	for _, c := range cands[1:] {
		v := score(c)
		if (descending && v > bestVal) || (!descending && v < bestVal) {
			best, bestVal = c, v
		}
	}
	return best
}

// totalLoad sums CM[p][k]+CM[k][p] over every other rank k (the seed
// step's "communication load across all ranks").
func totalLoad(cm *commatrix.CommMatrix, p int) uint64 {
	var sum uint64
	for k := 0; k < cm.N(); k++ {
		if k == p {
			continue
		}
		sum += cm.At(p, k) + cm.At(k, p)
	}
	return sum
}

// totalDist sums T[c][k] over every other core k (the seed step's
// "aggregate distance across all cores").
func totalDist(top *topology.Matrix, c int) uint64 {
	var sum uint64
	for k := 0; k < top.N(); k++ {
		if k == c {
			continue
		}
		sum += top.At(c, k)
	}
	return sum
}

// load sums CM[p][q]+CM[q][p] over every already-assigned process q != p.
func load(cm *commatrix.CommMatrix, p int, assigned []int) uint64 {
	var sum uint64
	for _, q := range assigned {
		if q == p {
			continue
		}
		sum += cm.At(p, q) + cm.At(q, p)
	}
	return sum
}

// dist sums T[c][d] over every already-assigned core d != c.
func dist(top *topology.Matrix, c int, assigned []int) uint64 {
	var sum uint64
	for _, d := range assigned {
		if d == c {
			continue
		}
		sum += top.At(c, d)
	}
	return sum
}
