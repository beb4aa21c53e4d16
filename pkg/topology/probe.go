package topology

// Locations is the narrow slice of the Instance interface the probe needs
// (spec §6: "location[i]: string — optional host identifier per rank").
type Locations interface {
	Len() int
	Location(i int) string
}

// ProbeHopWeights builds a cost matrix from per-rank location strings of
// the form iNNrNNcNNsNN (island/rack/chassis/slot), matching the reference
// probe: cost between two hosts is a step function of how many leading
// segments agree, indexed into a 5-element weight vector. Diagonal is 0,
// matrix is symmetric.
//
// A location string that doesn't conform to the iNNrNNcNNsNN shape (wrong
// length or wrong segment-marker chars) makes the probe fall back to a
// flat equal-cost matrix (every off-diagonal pair costs weights[4], the
// "most distant" tier) rather than silently under/over-counting the
// malformed entry.
func ProbeHopWeights(loc Locations, weights [5]uint64) *Matrix {
	n := loc.Len()
	m := NewMatrix(n)

	for i := 0; i < n; i++ {
		if !wellFormedLocation(loc.Location(i)) {
			return flatCost(n, weights[4])
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := hopCost(loc.Location(i), loc.Location(j), weights)
			m.Set(i, j, w)
		}
	}
	return m
}

// wellFormedLocation checks the iNNrNNcNNsNN shape: 12 characters, segment
// markers 'i','r','c','s' at positions 0,3,6,9.
func wellFormedLocation(loc string) bool {
	return len(loc) == 12 && loc[0] == 'i' && loc[3] == 'r' && loc[6] == 'c' && loc[9] == 's'
}

// hopCost returns the step-function cost between two well-formed
// locations: the segment at which they first diverge determines the
// weight tier (island divergence is the most expensive, full agreement is
// free).
func hopCost(a, b string, weights [5]uint64) uint64 {
	idx := commonPrefixLen(a, b)
	switch {
	case idx < 3:
		return weights[4] // island differs
	case idx < 6:
		return weights[3] // rack differs
	case idx < 9:
		return weights[2] // chassis differs
	case idx < 12:
		return weights[1] // slot differs
	default:
		return weights[0] // identical location
	}
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func flatCost(n int, w uint64) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, w)
		}
	}
	return m
}
