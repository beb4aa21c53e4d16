package space

import "fmt"

// ID identifies a Space within a Registry.
type ID int

// Space is a named N-D rectangular index domain (spec §3). It is immutable
// after creation except through ChangeExtent, which is restricted to 1-D
// spaces (2/3-D resizing is reserved, per spec §4.B).
type Space struct {
	id     ID
	name   string
	dims   int
	extent Range

	// watchers are invalidation callbacks registered by dependent
	// partitionings; ChangeExtent invokes all of them. This replaces the C
	// source's intrusive pointer-based dependency tracking (spec §9
	// "Cyclic references") with a plain slice of closures owned here.
	watchers []func()
}

// ID returns the space's identity within its owning Registry.
func (s *Space) ID() ID { return s.id }

// Name returns the space's current name.
func (s *Space) Name() string { return s.name }

// Dims returns the space's dimensionality (1, 2, or 3).
func (s *Space) Dims() int { return s.dims }

// Extent returns the space's current bounding range.
func (s *Space) Extent() Range { return s.extent }

// Rename changes the space's display name. It never invalidates dependents.
func (s *Space) Rename(name string) { s.name = name }

// ChangeExtent replaces a 1-D space's extent in place and invalidates every
// dependent partitioning's bordersValid flag by invoking their registered
// watchers. It is an InvariantViolation (panic) to call this on a 2-D or
// 3-D space.
func (s *Space) ChangeExtent(extent Range) {
	if s.dims != 1 {
		panic(fmt.Sprintf("space: ChangeExtent is 1-D only, space %q has %d dims", s.name, s.dims))
	}
	s.extent = extent
	for _, w := range s.watchers {
		w()
	}
}

// Watch registers a callback invoked whenever ChangeExtent runs. Partitioning
// construction uses this to mark itself stale without Space importing the
// partition package.
func (s *Space) Watch(cb func()) {
	s.watchers = append(s.watchers, cb)
}

// Registry owns every Space created against it, in creation order, mirroring
// the C source's per-Instance intrusive list (spec §4.B) as a plain slice
// arena (spec §9 "Cyclic references" / "Global mutable state" re-architecture).
type Registry struct {
	spaces []*Space
}

// NewRegistry returns an empty space registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// New creates and registers a new Space of the given dimensionality and
// extent. dims must be 1, 2, or 3.
func (r *Registry) New(dims int, extent Range) *Space {
	if dims < 1 || dims > MaxDims {
		panic(fmt.Sprintf("space: dims must be 1..%d, got %d", MaxDims, dims))
	}
	s := &Space{
		id:     ID(len(r.spaces)),
		name:   fmt.Sprintf("space%d", len(r.spaces)),
		dims:   dims,
		extent: extent,
	}
	r.spaces = append(r.spaces, s)
	return s
}

// Get returns the space with the given ID, or nil if it is out of range.
func (r *Registry) Get(id ID) *Space {
	if int(id) < 0 || int(id) >= len(r.spaces) {
		return nil
	}
	return r.spaces[id]
}

// All returns every space in creation order. The returned slice is owned by
// the caller; mutating it does not affect the registry.
func (r *Registry) All() []*Space {
	out := make([]*Space, len(r.spaces))
	copy(out, r.spaces)
	return out
}

// Len returns the number of registered spaces.
func (r *Registry) Len() int { return len(r.spaces) }
