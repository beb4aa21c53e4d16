// Package topology implements the physical-distance cost matrix used by
// the QAP remapper (spec §3, §4.F).
package topology

import "fmt"

// Kind tags which concrete representation a Topology holds.
type Kind int

const (
	// KindMatrix is a dense pairwise cost matrix.
	KindMatrix Kind = iota
	// KindGraph is an opaque graph representation. The path is reserved:
	// no constructor in this package produces one, and the remapper
	// refuses it (spec §4.G "If input topology is a graph, return null").
	KindGraph
)

// Topology is the tagged union consumed by the remapper.
type Topology struct {
	kind   Kind
	matrix *Matrix
	graph  any
}

// Kind reports which representation this Topology holds.
func (t *Topology) Kind() Kind { return t.kind }

// Matrix returns the underlying cost matrix, or nil if this Topology wraps
// a graph instead.
func (t *Topology) Matrix() *Matrix {
	if t.kind != KindMatrix {
		return nil
	}
	return t.matrix
}

// FromMatrix wraps an already-built Matrix as a Topology.
func FromMatrix(m *Matrix) *Topology {
	return &Topology{kind: KindMatrix, matrix: m}
}

// Matrix is an n x n pairwise physical-distance cost table. Symmetric,
// zero diagonal.
type Matrix struct {
	n     int
	cells []uint64 // row-major, len == n*n
}

// NewMatrix allocates a zeroed n x n cost matrix.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		panic(fmt.Sprintf("topology: negative size %d", n))
	}
	return &Matrix{n: n, cells: make([]uint64, n*n)}
}

// N returns the matrix's side length.
func (m *Matrix) N() int { return m.n }

func (m *Matrix) idx(a, b int) int { return a*m.n + b }

func (m *Matrix) checkBounds(a, b int) {
	if a < 0 || a >= m.n || b < 0 || b >= m.n {
		panic(fmt.Sprintf("topology: index (%d,%d) out of bounds for n=%d", a, b, m.n))
	}
}

// At returns the cost between a and b.
func (m *Matrix) At(a, b int) uint64 {
	m.checkBounds(a, b)
	return m.cells[m.idx(a, b)]
}

// Set assigns the symmetric cost between a and b: Set(a,b,w) also sets (b,a).
func (m *Matrix) Set(a, b int, w uint64) {
	m.checkBounds(a, b)
	m.cells[m.idx(a, b)] = w
	m.cells[m.idx(b, a)] = w
}

// DefaultHopWeights is the reference probe's five-level cost vector,
// indexed [identical, slot, chassis, rack, island] by ascending distance
// (spec §4.F; grounded on the original probe's hop_weights table).
var DefaultHopWeights = [5]uint64{2, 10, 10, 10, 40}

// IdentityLike reports whether every off-diagonal cell is zero, the
// S5 "identity topology" test fixture shape.
func (m *Matrix) IdentityLike() bool {
	for a := 0; a < m.n; a++ {
		for b := 0; b < m.n; b++ {
			if a == b {
				continue
			}
			if m.At(a, b) != 0 {
				return false
			}
		}
	}
	return true
}
