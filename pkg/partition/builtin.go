package partition

import "github.com/neodyma/laik/pkg/space"

// All partitions the space's full extent to every task.
type All struct {
	Size int
}

// Run implements Partitioner.
func (a All) Run(ctx *RunContext, base *Partitioning) {
	for t := 0; t < a.Size; t++ {
		ctx.AddRange(t, ctx.Space().Extent(), 0, nil)
	}
}

// Flags implements Partitioner.
func (a All) Flags() Flags { return Flags{} }

func (a All) String() string { return "All" }

// Master assigns the space's full extent to task 0 only.
type Master struct{}

// Run implements Partitioner.
func (m Master) Run(ctx *RunContext, base *Partitioning) {
	ctx.AddRange(0, ctx.Space().Extent(), 0, nil)
}

// Flags implements Partitioner.
func (m Master) Flags() Flags { return Flags{} }

func (m Master) String() string { return "Master" }

// Stripe divides the space's extent into Size contiguous chunks along Dim,
// one per task. When the extent does not divide evenly, the first
// (extent % Size) chunks are one element larger; a task whose chunk would
// be empty gets no range.
type Stripe struct {
	Size int
	Dim  int
}

// Run implements Partitioner.
func (s Stripe) Run(ctx *RunContext, base *Partitioning) {
	if s.Size <= 0 {
		return
	}
	ext := ctx.Space().Extent()
	from := ext.From.At(s.Dim)
	to := ext.To.At(s.Dim)
	if to <= from {
		return
	}
	total := to - from
	chunk := total / uint64(s.Size)
	rem := total % uint64(s.Size)

	cur := from
	for t := 0; t < s.Size; t++ {
		size := chunk
		if uint64(t) < rem {
			size++
		}
		next := cur + size
		if size == 0 {
			continue
		}
		r := ext
		r.From = r.From.WithAxis(s.Dim, cur)
		r.To = r.To.WithAxis(s.Dim, next)
		ctx.AddRange(t, r, 0, nil)
		cur = next
	}
}

// Flags implements Partitioner.
func (s Stripe) Flags() Flags { return Flags{} }

func (s Stripe) String() string { return "Stripe" }

// Copy reproduces a base partitioning's ranges, optionally permuting axes
// through DimMap (DimMap[d] names which axis of base becomes axis d here;
// -1 leaves axis d untouched at index d). {-1,-1,-1} is the identity; the
// zero value {0,0,0} reads every axis from base axis 0.
type Copy struct {
	DimMap [3]int
}

// Run implements Partitioner.
func (c Copy) Run(ctx *RunContext, base *Partitioning) {
	if base == nil {
		return
	}
	for _, tr := range base.Ranges() {
		r := tr.Range
		mapped := r
		for d := 0; d < space.MaxDims; d++ {
			src := d
			if c.DimMap[d] >= 0 {
				src = c.DimMap[d]
			}
			mapped.From = mapped.From.WithAxis(d, r.From.At(src))
			mapped.To = mapped.To.WithAxis(d, r.To.At(src))
		}
		ctx.AddRange(tr.Task, mapped, tr.Tag, tr.Data)
	}
}

// Flags implements Partitioner.
func (c Copy) Flags() Flags { return Flags{SeesBase: true} }

func (c Copy) String() string { return "Copy" }

// Custom wraps a user-supplied callback as a Partitioner, per spec §4.C's
// "custom variant taking a user callback".
type Custom struct {
	Name string
	Fn   func(ctx *RunContext, base *Partitioning)
	Flag Flags
}

// Run implements Partitioner.
func (c Custom) Run(ctx *RunContext, base *Partitioning) { c.Fn(ctx, base) }

// Flags implements Partitioner.
func (c Custom) Flags() Flags { return c.Flag }

func (c Custom) String() string {
	if c.Name == "" {
		return "Custom"
	}
	return c.Name
}
