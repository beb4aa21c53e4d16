// Package commatrix implements the running per-pair byte-count accumulator
// that feeds the QAP remapper (spec §3, §4.E).
package commatrix

import (
	"fmt"
	"math"

	"github.com/neodyma/laik/pkg/transition"
)

// Backend is the narrow collective hook the core needs to obtain a
// globally-reduced view of the matrix across every rank (spec §6
// "matsync(cm) -> ()").
type Backend interface {
	MatSync(cm *CommMatrix) error
}

// CommMatrix is an n x n accumulator of pairwise traffic volume in bytes.
// The zero value is not usable; construct with New.
type CommMatrix struct {
	n       int
	cells   []uint64 // row-major, len == n*n
	backend Backend
	inSync  bool
}

// New allocates a zeroed n x n matrix (spec §4.E "init(n)").
func New(n int) *CommMatrix {
	if n < 0 {
		panic(fmt.Sprintf("commatrix: negative size %d", n))
	}
	return &CommMatrix{n: n, cells: make([]uint64, n*n)}
}

// SetBackend installs the collective hook used by Sync.
func (cm *CommMatrix) SetBackend(b Backend) { cm.backend = b }

// N returns the matrix's side length.
func (cm *CommMatrix) N() int { return cm.n }

func (cm *CommMatrix) idx(a, b int) int { return a*cm.n + b }

func (cm *CommMatrix) checkBounds(a, b int) {
	if a < 0 || a >= cm.n || b < 0 || b >= cm.n {
		panic(fmt.Sprintf("commatrix: index (%d,%d) out of bounds for n=%d", a, b, cm.n))
	}
}

// At returns the current accumulated byte count from a to b.
func (cm *CommMatrix) At(a, b int) uint64 {
	cm.checkBounds(a, b)
	return cm.cells[cm.idx(a, b)]
}

// Update adds bytes to the directed cell (a,b), saturating at
// math.MaxUint64 rather than wrapping (spec §4.E invariants). Callers
// wanting symmetric accounting invoke Update twice, or call UpdateSym.
func (cm *CommMatrix) Update(a, b int, bytes uint64) {
	if cm.inSync {
		return
	}
	cm.checkBounds(a, b)
	i := cm.idx(a, b)
	cm.cells[i] = saturatingAdd(cm.cells[i], bytes)
}

// UpdateSym adds bytes to both (a,b) and (b,a). Kept as the default entry
// point for legacy callers that never distinguished a send direction (spec
// §9 open question: "update is directed in the newest variant and
// symmetric in the older one").
func (cm *CommMatrix) UpdateSym(a, b int, bytes uint64) {
	cm.Update(a, b, bytes)
	if a != b {
		cm.Update(b, a, bytes)
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// AddTransition folds a computed Transition into the matrix from the
// perspective of rank me. Sends contribute update(me, send.To,
// size(send.Range)). Reductions contribute a fan-in from every member of
// the input group to every member of the output group, weighted by
// size(range) — a pure sum with no division by group size, matching the
// deliberate extension described in spec §4.E/§9.
func (cm *CommMatrix) AddTransition(tr *transition.Transition, me int) {
	for _, s := range tr.Send {
		cm.Update(me, s.To, s.Range.Size())
	}
	for _, r := range tr.Red {
		bytes := r.Range.Size()
		inputs := tr.ResolveGroup(r.InputGroup, cm.n)
		outputs := tr.ResolveGroup(r.OutputGroup, cm.n)
		for _, in := range inputs {
			for _, out := range outputs {
				if in == out {
					continue
				}
				cm.Update(in, out, bytes)
			}
		}
	}
}

// Reset zeroes the whole n*n matrix in place. Spec §9 resolves an
// ambiguity in the source between zeroing n entries and n*n entries in
// favor of n*n, the semantically correct one.
func (cm *CommMatrix) Reset() {
	for i := range cm.cells {
		cm.cells[i] = 0
	}
}

// SwapNodes exchanges row/column a with row/column b in place. The
// remapper's cyclic-exchange step does not call it (it swaps entries of its
// candidate permutation instead); it is exercised by tests.
func (cm *CommMatrix) SwapNodes(a, b int) {
	cm.checkBounds(a, b)
	if a == b {
		return
	}
	for k := 0; k < cm.n; k++ {
		ia, ib := cm.idx(a, k), cm.idx(b, k)
		cm.cells[ia], cm.cells[ib] = cm.cells[ib], cm.cells[ia]
	}
	for k := 0; k < cm.n; k++ {
		ia, ib := cm.idx(k, a), cm.idx(k, b)
		cm.cells[ia], cm.cells[ib] = cm.cells[ib], cm.cells[ia]
	}
}

// Sync delegates to the backend's matsync hook to obtain a globally
// reduced view of the matrix across the group. While a sync is in flight
// the in_sync flag suppresses reentrant Update calls arriving from the
// backend's own control traffic (spec §4.E, §5 "Locking").
func (cm *CommMatrix) Sync() error {
	if cm.backend == nil {
		return ErrBackendUnavailable
	}
	cm.inSync = true
	defer func() { cm.inSync = false }()
	return cm.backend.MatSync(cm)
}

// InSync reports whether a Sync call is currently in flight.
func (cm *CommMatrix) InSync() bool { return cm.inSync }

// ReplaceCells overwrites cm's cells in place with src's, bypassing the
// inSync suppression that Update honors. The one legitimate caller is a
// Backend's MatSync implementation installing the globally-reduced view
// Sync exists to produce (spec §4.E, §6 "matsync(cm) -> ()").
func (cm *CommMatrix) ReplaceCells(src *CommMatrix) error {
	if src.n != cm.n {
		return fmt.Errorf("commatrix: ReplaceCells size mismatch: got n=%d, want n=%d", src.n, cm.n)
	}
	copy(cm.cells, src.cells)
	return nil
}

// ErrBackendUnavailable is returned by Sync when no backend has been
// installed (spec §7 "BackendUnavailable").
var ErrBackendUnavailable = fmt.Errorf("commatrix: sync requested but no backend installed")
