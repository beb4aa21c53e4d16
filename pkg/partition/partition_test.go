package partition

import (
	"testing"

	"github.com/neodyma/laik/pkg/space"
)

func extent1D(n uint64) space.Range {
	return space.Range{From: space.Index{}, To: space.Index{I0: n, I1: 1, I2: 1}}
}

func TestStripePartitionsDense(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))

	p := New(0, "stripe", Group{Size: 4, Rank: 0}, sp, Stripe{Size: 4, Dim: 0}, nil)
	p.Run()

	for t2 := 0; t2 < 4; t2++ {
		rs := p.RangesOf(t2)
		if len(rs) != 1 {
			t.Fatalf("task %d: got %d ranges, want 1", t2, len(rs))
		}
		want := space.Range{From: space.Index{I0: uint64(t2 * 25), I1: 0, I2: 0}, To: space.Index{I0: uint64((t2 + 1) * 25), I1: 1, I2: 1}}
		if !space.Equal(rs[0].Range, want) {
			t.Errorf("task %d: range = %v, want %v", t2, rs[0].Range, want)
		}
	}
}

func TestMasterOnlyTaskZero(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(2, space.Range{To: space.Index{I0: 10, I1: 10, I2: 1}})

	p := New(0, "master", Group{Size: 3, Rank: 0}, sp, Master{}, nil)
	p.Run()

	if len(p.RangesOf(0)) != 1 {
		t.Fatalf("expected task 0 to have the full extent")
	}
	if len(p.RangesOf(1)) != 0 || len(p.RangesOf(2)) != 0 {
		t.Fatalf("expected no ranges for tasks other than 0")
	}
}

func TestAllEveryTaskFullExtent(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(2, space.Range{To: space.Index{I0: 10, I1: 10, I2: 1}})

	p := New(0, "all", Group{Size: 3, Rank: 1}, sp, All{Size: 3}, nil)
	p.Run()

	for t2 := 0; t2 < 3; t2++ {
		rs := p.RangesOf(t2)
		if len(rs) != 1 || !space.Equal(rs[0].Range, sp.Extent()) {
			t.Errorf("task %d: want full extent, got %v", t2, rs)
		}
	}
}

func TestMyFilter(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))

	p := New(0, "mine", Group{Size: 4, Rank: 2}, sp, Stripe{Size: 4, Dim: 0}, nil, MyFilter{Rank: 2})
	p.Run()

	if len(p.Ranges()) != 1 {
		t.Fatalf("expected only rank 2's range to survive the my filter, got %d ranges", len(p.Ranges()))
	}
	if p.Ranges()[0].Task != 2 {
		t.Errorf("filtered range belongs to task %d, want 2", p.Ranges()[0].Task)
	}
}

func TestOffsetsMatchRangeCounts(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))
	p := New(0, "stripe", Group{Size: 4, Rank: 0}, sp, Stripe{Size: 4, Dim: 0}, nil)
	p.Run()

	off := p.Offsets()
	for t2 := 0; t2 < 4; t2++ {
		got := off[t2+1] - off[t2]
		want := len(p.RangesOf(t2))
		if got != want {
			t.Errorf("task %d: off delta = %d, want %d", t2, got, want)
		}
	}
}

func TestMapNoGroupsSharedTags(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))

	custom := Custom{Fn: func(ctx *RunContext, base *Partitioning) {
		ctx.AddRange(0, space.Range{From: space.Index{I0: 0}, To: space.Index{I0: 10, I1: 1, I2: 1}}, 1, nil)
		ctx.AddRange(0, space.Range{From: space.Index{I0: 10}, To: space.Index{I0: 20, I1: 1, I2: 1}}, 1, nil)
		ctx.AddRange(0, space.Range{From: space.Index{I0: 20}, To: space.Index{I0: 30, I1: 1, I2: 1}}, 2, nil)
		ctx.AddRange(0, space.Range{From: space.Index{I0: 30}, To: space.Index{I0: 40, I1: 1, I2: 1}}, 0, nil)
	}}

	p := New(0, "custom", Group{Size: 1, Rank: 0}, sp, custom, nil)
	p.Run()

	rs := p.RangesOf(0)
	if rs[0].MapNo != rs[1].MapNo {
		t.Errorf("ranges sharing tag 1 must share MapNo: %d vs %d", rs[0].MapNo, rs[1].MapNo)
	}
	if rs[0].MapNo == rs[2].MapNo {
		t.Errorf("distinct tags must get distinct MapNo")
	}
	if rs[3].MapNo == rs[0].MapNo || rs[3].MapNo == rs[2].MapNo {
		t.Errorf("tag-0 range must get its own fresh MapNo")
	}
	if p.MyMapCount() != 3 {
		t.Errorf("MyMapCount() = %d, want 3", p.MyMapCount())
	}
}

func TestRunIdempotentUntilBordersInvalidated(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))
	calls := 0
	custom := Custom{Fn: func(ctx *RunContext, base *Partitioning) {
		calls++
		ctx.AddRange(0, sp.Extent(), 0, nil)
	}}
	p := New(0, "idempotent", Group{Size: 1, Rank: 0}, sp, custom, nil)

	p.Run()
	p.Run()
	if calls != 1 {
		t.Errorf("Run() invoked the partitioner %d times, want 1 (idempotent)", calls)
	}

	sp.ChangeExtent(extent1D(200))
	p.Run()
	if calls != 2 {
		t.Errorf("Run() after ChangeExtent invoked the partitioner %d times, want 2", calls)
	}
}

func TestIntersectFilterKeepsOnlyOverlappingWithMyRanges(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))

	base := New(0, "base", Group{Size: 2, Rank: 0}, sp, Stripe{Size: 2, Dim: 0}, nil)
	base.Run()

	custom := Custom{Fn: func(ctx *RunContext, b *Partitioning) {
		ctx.AddRange(0, space.Range{From: space.Index{I0: 0}, To: space.Index{I0: 10, I1: 1, I2: 1}}, 0, nil)
		ctx.AddRange(1, space.Range{From: space.Index{I0: 60}, To: space.Index{I0: 70, I1: 1, I2: 1}}, 0, nil)
	}}
	p := New(1, "filtered", Group{Size: 2, Rank: 0}, sp, custom, nil, IntersectFilter{Other: base, Rank: 0})
	p.Run()

	if len(p.Ranges()) != 1 {
		t.Fatalf("expected only the range overlapping rank 0's base ranges to survive, got %d", len(p.Ranges()))
	}
	if p.Ranges()[0].Task != 0 {
		t.Errorf("surviving range belongs to task %d, want 0", p.Ranges()[0].Task)
	}
}

func TestIntersect(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))

	from := New(0, "from", Group{Size: 4, Rank: 1}, sp, Stripe{Size: 4, Dim: 0}, nil)
	from.Run()
	to := New(1, "to", Group{Size: 4, Rank: 1}, sp, All{Size: 4}, nil)
	to.Run()

	inter := from.Intersect(to)
	if len(inter) != 4 {
		t.Fatalf("expected rank 1's stripe to intersect all 4 tasks of All, got %d", len(inter))
	}
}
