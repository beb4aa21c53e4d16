// Package partition implements per-rank range sets over a space, produced
// by a partitioner and refined by filters (spec §3, §4.C).
package partition

import (
	"fmt"
	"sort"

	"github.com/neodyma/laik/pkg/space"
)

// Group describes the process group a Partitioning is built over: its size
// and the identity of the local process ("me"). It deliberately does not
// carry anything else, so this package never imports pkg/group.
type Group struct {
	Size int
	Rank int
}

// TaskRange is one entry of a Partitioning's dense range array.
type TaskRange struct {
	Task  int
	Range space.Range
	Tag   int
	MapNo int
	Data  any
}

// Filter prunes TaskRanges as they are produced by a partitioner. Filters
// never mutate a range, only discard it.
type Filter interface {
	Keep(tr TaskRange) bool
}

// MyFilter keeps only ranges belonging to the calling rank.
type MyFilter struct {
	Rank int
}

// Keep implements Filter.
func (f MyFilter) Keep(tr TaskRange) bool { return tr.Task == f.Rank }

// IntersectFilter keeps a range only if it intersects one of the calling
// rank's own ranges in Other.
type IntersectFilter struct {
	Other *Partitioning
	Rank  int
}

// Keep implements Filter.
func (f IntersectFilter) Keep(tr TaskRange) bool {
	if f.Other == nil {
		return true
	}
	for _, mine := range f.Other.RangesOf(f.Rank) {
		if _, ok := space.Intersect(tr.Range, mine.Range); ok {
			return true
		}
	}
	return false
}

// RunContext is the append-only builder a Partitioner emits ranges into.
type RunContext struct {
	sp      *space.Space
	filters []Filter
	out     []TaskRange
}

// Space returns the space being partitioned.
func (c *RunContext) Space() *space.Space { return c.sp }

// AddRange appends a range for task, running it through every registered
// filter first. Ranges outside the space's extent are an InvariantViolation
// (the partitioner is buggy) and panic rather than being silently dropped.
func (c *RunContext) AddRange(task int, r space.Range, tag int, data any) {
	if !r.Empty() {
		if got, ok := space.Intersect(r, c.sp.Extent()); !ok || !space.Equal(got, r) {
			panic(fmt.Sprintf("partition: range %v for task %d lies outside space %q extent %v", r, task, c.sp.Name(), c.sp.Extent()))
		}
	}
	tr := TaskRange{Task: task, Range: r, Tag: tag, Data: data}
	for _, f := range c.filters {
		if !f.Keep(tr) {
			return
		}
	}
	c.out = append(c.out, tr)
}

// Flags declare what a Partitioner implementation may do, so the runner can
// decide whether sorting/compaction is required.
type Flags struct {
	// SeesBase is true if the partitioner reads ranges from a base
	// Partitioning (e.g. Copy).
	SeesBase bool
	// MayOverlap is true if the partitioner may emit overlapping ranges for
	// the same task.
	MayOverlap bool
	// MayReorderTasks is true if the partitioner may emit ranges out of
	// task order; Run always re-sorts by task regardless.
	MayReorderTasks bool
}

// Partitioner is a strategy that produces a Partitioning, optionally
// relative to a base Partitioning (spec §4.C "Partitioner protocol").
type Partitioner interface {
	Run(ctx *RunContext, base *Partitioning)
	Flags() Flags
	String() string
}

// Partitioning maps each task in a Group to a set of Ranges over a Space
// (spec §3).
type Partitioning struct {
	id          int
	name        string
	group       Group
	sp          *space.Space
	partitioner Partitioner
	base        *Partitioning
	filters     []Filter

	ranges []TaskRange // dense, sorted by Task after Run()
	off    []int       // off[t]..off[t+1) is task t's slice; len == group.Size+1

	myMapCount int
	myMapOff   []int

	bordersValid bool
}

// New creates a Partitioning. It does not run the partitioner; call Run.
func New(id int, name string, group Group, sp *space.Space, partitioner Partitioner, base *Partitioning, filters ...Filter) *Partitioning {
	p := &Partitioning{
		id:          id,
		name:        name,
		group:       group,
		sp:          sp,
		partitioner: partitioner,
		base:        base,
		filters:     filters,
	}
	sp.Watch(func() { p.bordersValid = false })
	return p
}

// ID returns the partitioning's identity.
func (p *Partitioning) ID() int { return p.id }

// Name returns the partitioning's display name.
func (p *Partitioning) Name() string { return p.name }

// Space returns the space this partitioning is over.
func (p *Partitioning) Space() *space.Space { return p.sp }

// Group returns the process group this partitioning was built for.
func (p *Partitioning) Group() Group { return p.group }

// Run drains the partitioner into a builder, applies filters, compacts,
// and computes off[] and myMapOff[]. It is idempotent: a second call is a
// no-op as long as bordersValid holds.
func (p *Partitioning) Run() {
	if p.bordersValid {
		return
	}

	ctx := &RunContext{sp: p.sp, filters: p.filters}
	p.partitioner.Run(ctx, p.base)

	ranges := ctx.out
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Task < ranges[j].Task })

	assignMapNumbers(ranges)

	p.ranges = ranges
	p.off = computeOffsets(ranges, p.group.Size)
	p.myMapOff, p.myMapCount = computeMyMapOffsets(p.RangesOf(p.group.Rank))

	p.bordersValid = true
}

// assignMapNumbers assigns MapNo per spec §3: ranges sharing a tag>0 on the
// same task share a MapNo; distinct tags on the same task get distinct
// MapNos in first-appearance order. A tag of 0 is "ungrouped" and always
// gets a fresh MapNo.
func assignMapNumbers(ranges []TaskRange) {
	type taskState struct {
		tagToMap map[int]int
		next     int
	}
	states := make(map[int]*taskState)

	for i := range ranges {
		tr := &ranges[i]
		st, ok := states[tr.Task]
		if !ok {
			st = &taskState{tagToMap: make(map[int]int)}
			states[tr.Task] = st
		}
		if tr.Tag > 0 {
			if mn, ok := st.tagToMap[tr.Tag]; ok {
				tr.MapNo = mn
			} else {
				tr.MapNo = st.next
				st.tagToMap[tr.Tag] = st.next
				st.next++
			}
		} else {
			tr.MapNo = st.next
			st.next++
		}
	}
}

// computeOffsets builds the off[] array: off[t]..off[t+1) is task t's slice.
func computeOffsets(ranges []TaskRange, size int) []int {
	off := make([]int, size+1)
	for _, tr := range ranges {
		if tr.Task >= 0 && tr.Task < size {
			off[tr.Task+1]++
		}
	}
	for t := 0; t < size; t++ {
		off[t+1] += off[t]
	}
	return off
}

// computeMyMapOffsets returns the distinct-MapNo boundary offsets within a
// single task's (already Task-grouped, but not necessarily MapNo-sorted)
// range slice, plus the count of distinct maps.
func computeMyMapOffsets(mine []TaskRange) ([]int, int) {
	if len(mine) == 0 {
		return []int{0}, 0
	}
	seen := make(map[int]bool)
	maxMap := -1
	for _, tr := range mine {
		seen[tr.MapNo] = true
		if tr.MapNo > maxMap {
			maxMap = tr.MapNo
		}
	}
	count := len(seen)
	// off[m]..off[m+1) would require range slice sorted by MapNo; ranges
	// are sorted by Task (all the same Task here) and original append
	// order, which already groups same-tag ranges contiguously in practice
	// since AddRange calls for one map tend to be emitted together. Offsets
	// are computed defensively by counting occurrences per MapNo in order
	// of first appearance.
	order := make([]int, 0, count)
	counts := make(map[int]int)
	for _, tr := range mine {
		if counts[tr.MapNo] == 0 {
			order = append(order, tr.MapNo)
		}
		counts[tr.MapNo]++
	}
	off := make([]int, len(order)+1)
	for i, m := range order {
		off[i+1] = off[i] + counts[m]
	}
	return off, count
}

// RangesOf returns every range owned by task, in emission order.
func (p *Partitioning) RangesOf(task int) []TaskRange {
	if task < 0 || task+1 >= len(p.off) {
		return nil
	}
	return p.ranges[p.off[task]:p.off[task+1]]
}

// MyRanges returns the calling rank's own ranges.
func (p *Partitioning) MyRanges() []TaskRange {
	return p.RangesOf(p.group.Rank)
}

// MyMapCount returns the number of distinct maps (contiguous range groups)
// the local rank owns.
func (p *Partitioning) MyMapCount() int { return p.myMapCount }

// Offsets returns the off[] array (length Group.Size+1).
func (p *Partitioning) Offsets() []int { return p.off }

// Ranges returns the full dense, task-sorted range array.
func (p *Partitioning) Ranges() []TaskRange { return p.ranges }

// Intersection is one result of Intersect: my_range intersected with
// another partitioning's range, and the two owning tasks.
type Intersection struct {
	Range    space.Range
	MyTask   int
	OtherTask int
}

// Intersect iterates every non-empty intersection between the calling
// rank's ranges and every range of other, across all tasks.
func (p *Partitioning) Intersect(other *Partitioning) []Intersection {
	var out []Intersection
	mine := p.MyRanges()
	for _, theirs := range other.ranges {
		for _, m := range mine {
			if r, ok := space.Intersect(m.Range, theirs.Range); ok {
				out = append(out, Intersection{Range: r, MyTask: m.Task, OtherTask: theirs.Task})
			}
		}
	}
	return out
}
