// Package transition computes the sends, receives, reductions, local
// copies, and initializations required to move from one partitioning of a
// space to another (spec §3, §4.D).
package transition

import (
	"fmt"
	"sort"

	"github.com/neodyma/laik/pkg/partition"
	"github.com/neodyma/laik/pkg/space"
)

// Flow describes how data moves between the "from" and "to" partitionings.
type Flow int

const (
	// CopyIn reads nothing from "from"; "to" is produced fresh.
	CopyIn Flow = iota
	// CopyOut reads "from" and retires it; nothing is kept in "to" beyond
	// what overlaps.
	CopyOut
	// CopyInOut reads "from" and keeps writing into "to".
	CopyInOut
	// Init produces only init ops: "to" must be set to the reduction
	// neutral element, with no traffic.
	Init
	// Reduce combines "from" (read-permission) into "to" via a ReductionOp.
	Reduce
)

func (f Flow) String() string {
	switch f {
	case CopyIn:
		return "CopyIn"
	case CopyOut:
		return "CopyOut"
	case CopyInOut:
		return "CopyInOut"
	case Init:
		return "Init"
	case Reduce:
		return "Reduce"
	default:
		return fmt.Sprintf("Flow(%d)", int(f))
	}
}

// readable reports whether "from" is readable under this flow (spec §4.D
// step 2 "If from is readable (flows CopyOut/CopyInOut)").
func (f Flow) readable() bool {
	return f == CopyOut || f == CopyInOut || f == Reduce
}

// ReductionOp names a reduction operator applied by Red ops.
type ReductionOp int

const (
	NoOp ReductionOp = iota
	Plus
	Times
	Min
	Max
	And
	Or
)

func (op ReductionOp) String() string {
	switch op {
	case Plus:
		return "Plus"
	case Times:
		return "Times"
	case Min:
		return "Min"
	case Max:
		return "Max"
	case And:
		return "And"
	case Or:
		return "Or"
	default:
		return "NoOp"
	}
}

// LocalOp keeps a range the rank already owns, possibly moving it between
// maps.
type LocalOp struct {
	Range     space.Range
	FromMapNo int
	ToMapNo   int
	RangeNo   int
}

// InitOp initializes a range to the reduction neutral element.
type InitOp struct {
	Range   space.Range
	MapNo   int
	RangeNo int
}

// SendOp sends a range to another task.
type SendOp struct {
	Range   space.Range
	To      int
	SliceNo int
}

// RecvOp receives a range from another task.
type RecvOp struct {
	Range   space.Range
	From    int
	SliceNo int
}

// RedOp combines a range across an input group into an output group.
type RedOp struct {
	Range        space.Range
	InputGroup   int // index into Subgroups, or -1 for "all"
	OutputGroup  int // index into Subgroups, or -1 for "all"
	Op           ReductionOp
	RangeNo      int
}

// Transition is the pure value computed from two partitionings of the same
// space (spec §3 "Transition").
type Transition struct {
	Local    []LocalOp
	Init     []InitOp
	Send     []SendOp
	Recv     []RecvOp
	Red      []RedOp
	Subgroup [][]int // deduplicated, ascending-sorted task lists referenced by Red ops
}

// ResolveGroup returns the explicit task list a Red op's InputGroup or
// OutputGroup id refers to: id -1 expands to 0..size-1 ("all tasks"),
// otherwise it indexes Subgroup.
func (t *Transition) ResolveGroup(id, size int) []int {
	if id == -1 {
		all := make([]int, size)
		for i := range all {
			all[i] = i
		}
		return all
	}
	if id < 0 || id >= len(t.Subgroup) {
		return nil
	}
	return t.Subgroup[id]
}

// Error kinds the calculator can raise (spec §4.D "Failure").
var (
	ErrMismatchedSpace = fmt.Errorf("transition: from and to partitionings are over different spaces")
	ErrUnknownFlow     = fmt.Errorf("transition: unrecognized flow")
	ErrGroupMismatch   = fmt.Errorf("transition: from and to partitionings have different groups")
)

func validFlow(f Flow) bool {
	switch f {
	case CopyIn, CopyOut, CopyInOut, Init, Reduce:
		return true
	default:
		return false
	}
}

// Calculate derives the Transition for rank me moving from "from" to "to",
// per the six-step algorithm in spec §4.D.
func Calculate(from, to *partition.Partitioning, flow Flow, redOp ReductionOp, me int) (*Transition, error) {
	if !validFlow(flow) {
		return nil, ErrUnknownFlow
	}
	if from.Space() != to.Space() {
		return nil, ErrMismatchedSpace
	}
	if from.Group() != to.Group() {
		return nil, ErrGroupMismatch
	}

	tr := &Transition{}

	fromMine := from.RangesOf(me)
	toMine := to.RangesOf(me)

	// Step 1: local reuse + init for uncovered "to" ranges.
	toCoveredByLocal := make([]bool, len(toMine))
	if flow != Init && flow != Reduce {
		rangeNo := 0
		for ti, t := range toMine {
			for _, f := range fromMine {
				if r, ok := space.Intersect(f.Range, t.Range); ok {
					tr.Local = append(tr.Local, LocalOp{Range: r, FromMapNo: f.MapNo, ToMapNo: t.MapNo, RangeNo: rangeNo})
					rangeNo++
					toCoveredByLocal[ti] = true
				}
			}
		}
	}
	if flow == Init || flow == CopyIn || flow == CopyInOut {
		rangeNo := 0
		for ti, t := range toMine {
			if flow == Init || !toCoveredByLocal[ti] {
				tr.Init = append(tr.Init, InitOp{Range: t.Range, MapNo: t.MapNo, RangeNo: rangeNo})
				rangeNo++
			}
		}
	}

	group := from.Group()

	// Step 2: sends, if "from" is readable.
	if flow.readable() && flow != Reduce {
		for dest := 0; dest < group.Size; dest++ {
			if dest == me {
				continue
			}
			sliceNo := 0
			destRanges := to.RangesOf(dest)
			for _, f := range fromMine {
				for _, t := range destRanges {
					if r, ok := space.Intersect(f.Range, t.Range); ok {
						tr.Send = append(tr.Send, SendOp{Range: r, To: dest, SliceNo: sliceNo})
						sliceNo++
					}
				}
			}
		}
	}

	// Step 3: receives, symmetric to sends.
	if flow != Init && flow != Reduce {
		for src := 0; src < group.Size; src++ {
			if src == me {
				continue
			}
			sliceNo := 0
			fromSrc := from.RangesOf(src)
			if len(fromSrc) == 0 {
				continue
			}
			fromSrcReadable := flow == CopyOut || flow == CopyInOut
			if !fromSrcReadable {
				continue
			}
			for _, t := range toMine {
				for _, fsrc := range fromSrc {
					if r, ok := space.Intersect(t.Range, fsrc.Range); ok {
						tr.Recv = append(tr.Recv, RecvOp{Range: r, From: src, SliceNo: sliceNo})
						sliceNo++
					}
				}
			}
		}
	}

	// Step 4: reductions.
	if flow == Reduce {
		buildReductions(tr, from, to, redOp, group.Size)
	}

	// Step 5: stable ordering.
	sort.SliceStable(tr.Send, func(i, j int) bool {
		if tr.Send[i].To != tr.Send[j].To {
			return tr.Send[i].To < tr.Send[j].To
		}
		return tr.Send[i].SliceNo < tr.Send[j].SliceNo
	})
	sort.SliceStable(tr.Recv, func(i, j int) bool {
		if tr.Recv[i].From != tr.Recv[j].From {
			return tr.Recv[i].From < tr.Recv[j].From
		}
		return tr.Recv[i].SliceNo < tr.Recv[j].SliceNo
	})
	sort.SliceStable(tr.Local, func(i, j int) bool { return tr.Local[i].RangeNo < tr.Local[j].RangeNo })
	sort.SliceStable(tr.Init, func(i, j int) bool { return tr.Init[i].RangeNo < tr.Init[j].RangeNo })
	sort.SliceStable(tr.Red, func(i, j int) bool { return tr.Red[i].RangeNo < tr.Red[j].RangeNo })

	return tr, nil
}

// buildReductions implements spec §4.D step 4: for each range covered by
// "from", determine which tasks' "from" ranges cover it (the input group)
// and which tasks' "to" ranges cover it (the output group), emitting one
// RedOp per distinct range. "to == Master" collapses the output group to
// {master}.
func buildReductions(tr *Transition, from, to *partition.Partitioning, redOp ReductionOp, size int) {
	groupIndex := make(map[string]int)
	internGroup := func(tasks []int) int {
		sort.Ints(tasks)
		key := fmt.Sprint(tasks)
		if idx, ok := groupIndex[key]; ok {
			return idx
		}
		idx := len(tr.Subgroup)
		tr.Subgroup = append(tr.Subgroup, tasks)
		groupIndex[key] = idx
		return idx
	}

	// Distinct ranges contributed by "from", deduplicated by exact bounds.
	type rangeKey = space.Range
	seen := make(map[rangeKey]bool)
	var distinct []space.Range
	for _, f := range from.Ranges() {
		if f.Range.Empty() || seen[f.Range] {
			continue
		}
		seen[f.Range] = true
		distinct = append(distinct, f.Range)
	}
	sort.Slice(distinct, func(i, j int) bool {
		return rangeLess(distinct[i], distinct[j])
	})

	rangeNo := 0
	for _, r := range distinct {
		var inputTasks, outputTasks []int
		for t := 0; t < size; t++ {
			for _, fr := range from.RangesOf(t) {
				if space.Equal(fr.Range, r) || overlaps(fr.Range, r) {
					inputTasks = appendUnique(inputTasks, t)
					break
				}
			}
		}
		for t := 0; t < size; t++ {
			for _, tr2 := range to.RangesOf(t) {
				if overlaps(tr2.Range, r) {
					outputTasks = appendUnique(outputTasks, t)
					break
				}
			}
		}
		if len(inputTasks) == 0 || len(outputTasks) == 0 {
			continue
		}

		inputGroupID := internGroup(inputTasks)
		outputGroupID := internGroup(outputTasks)
		if len(inputTasks) == size {
			inputGroupID = -1
		}
		if len(outputTasks) == size {
			outputGroupID = -1
		}

		tr.Red = append(tr.Red, RedOp{
			Range:       r,
			InputGroup:  inputGroupID,
			OutputGroup: outputGroupID,
			Op:          redOp,
			RangeNo:     rangeNo,
		})
		rangeNo++
	}
}

func overlaps(a, b space.Range) bool {
	_, ok := space.Intersect(a, b)
	return ok
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func rangeLess(a, b space.Range) bool {
	if a.From != b.From {
		return indexLess(a.From, b.From)
	}
	return indexLess(a.To, b.To)
}

func indexLess(a, b space.Index) bool {
	if a.I0 != b.I0 {
		return a.I0 < b.I0
	}
	if a.I1 != b.I1 {
		return a.I1 < b.I1
	}
	return a.I2 < b.I2
}
