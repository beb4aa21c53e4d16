package session

import (
	"fmt"
	"sync"

	"github.com/neodyma/laik/pkg/commatrix"
)

// LocalBackend simulates the collective backend spec §6 describes for a
// group of ranks running as goroutines in one process rather than
// separate network-connected processes. Every rank's Sync call reduces
// into the same globally-merged view, the way a real backend's all-reduce
// would (spec §4.E "a globally reduced view of the matrix").
//
// Grounded on the teacher's in-memory fakes used to stand in for a live
// Docker/Kurtosis backend in tests (pkg/core/orchestrator doesn't need an
// equivalent since it always talks to a real Docker daemon; this has no
// direct teacher analogue and is built from spec §6 alone).
type LocalBackend struct {
	mu        sync.Mutex
	n         int
	matrices  map[int]*commatrix.CommMatrix
	reordered map[int][]int
}

// NewLocalBackend creates a LocalBackend for a group of n ranks.
func NewLocalBackend(n int) *LocalBackend {
	return &LocalBackend{
		n:         n,
		matrices:  make(map[int]*commatrix.CommMatrix),
		reordered: make(map[int][]int),
	}
}

// Register associates rank's own CommMatrix with the backend so future
// MatSync calls (from any rank) can merge its contributions in.
func (b *LocalBackend) Register(rank int, cm *commatrix.CommMatrix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matrices[rank] = cm
}

// MatSync merges every registered rank's matrix into one combined view and
// installs it into cm, simulating a collective all-reduce. Cells merge by
// maximum, not by sum: a rank that has already synced holds the merged
// view, so a sum would count the other ranks' traffic again, while the
// maximum gives every rank that syncs in the same round the same view.
func (b *LocalBackend) MatSync(cm *commatrix.CommMatrix) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	combined := commatrix.New(b.n)
	for _, rankCM := range b.matrices {
		for a := 0; a < b.n; a++ {
			for c := 0; c < b.n; c++ {
				if v, cur := rankCM.At(a, c), combined.At(a, c); v > cur {
					combined.Update(a, c, v-cur)
				}
			}
		}
	}
	return cm.ReplaceCells(combined)
}

// UpdateGroup records a reordering decision applied on some rank's behalf.
// LocalBackend treats every rank as equally "notified" since there is no
// real network boundary to cross.
func (b *LocalBackend) UpdateGroup(mapping []int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(mapping) != b.n {
		return fmt.Errorf("session: UpdateGroup: mapping length %d != group size %d", len(mapping), b.n)
	}
	b.reordered[len(b.reordered)] = mapping
	return nil
}

// LastMapping returns the most recently applied reordering, if any.
func (b *LocalBackend) LastMapping() ([]int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.reordered) == 0 {
		return nil, false
	}
	return b.reordered[len(b.reordered)-1], true
}
