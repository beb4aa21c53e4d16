package space

import "testing"

func idx(a, b, c uint64) Index { return Index{a, b, c} }

func TestRangeEmpty(t *testing.T) {
	cases := []struct {
		name string
		r    Range
		want bool
	}{
		{"non-empty", Range{idx(0, 0, 0), idx(10, 10, 1)}, false},
		{"empty axis0", Range{idx(5, 0, 0), idx(5, 10, 1)}, true},
		{"reversed axis", Range{idx(10, 0, 0), idx(0, 10, 1)}, true},
		{"zero range", Range{}, true},
	}
	for _, c := range cases {
		if got := c.r.Empty(); got != c.want {
			t.Errorf("%s: Empty() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRangeSize(t *testing.T) {
	r := Range{idx(0, 0, 0), idx(10, 10, 1)}
	if got := r.Size(); got != 100 {
		t.Errorf("Size() = %d, want 100", got)
	}
	if (Range{}).Size() != 0 {
		t.Errorf("empty range size should be 0")
	}
}

func TestRangeSizeOverflow(t *testing.T) {
	huge := Range{idx(0, 0, 0), idx(1<<63, 1<<63, 2)}
	n, overflowed := huge.SizeChecked()
	if !overflowed {
		t.Fatalf("expected overflow to be detected")
	}
	if n == 0 {
		t.Fatalf("overflow result should saturate, not be zero")
	}
}

func TestIntersect(t *testing.T) {
	a := Range{idx(0, 0, 0), idx(10, 10, 1)}
	b := Range{idx(5, 5, 0), idx(15, 15, 1)}
	got, ok := Intersect(a, b)
	if !ok {
		t.Fatalf("expected non-empty intersection")
	}
	want := Range{idx(5, 5, 0), idx(10, 10, 1)}
	if !Equal(got, want) {
		t.Errorf("Intersect = %v, want %v", got, want)
	}

	c := Range{idx(20, 20, 0), idx(30, 30, 1)}
	_, ok = Intersect(a, c)
	if ok {
		t.Errorf("expected empty intersection between disjoint ranges")
	}
}

func TestIntersectCommutative(t *testing.T) {
	a := Range{idx(0, 0, 0), idx(10, 10, 1)}
	b := Range{idx(5, 2, 0), idx(15, 8, 1)}
	r1, ok1 := Intersect(a, b)
	r2, ok2 := Intersect(b, a)
	if ok1 != ok2 || !Equal(r1, r2) {
		t.Errorf("Intersect not commutative: (%v,%v) vs (%v,%v)", r1, ok1, r2, ok2)
	}
}

func TestIntersectAssociative(t *testing.T) {
	a := Range{idx(0, 0, 0), idx(20, 20, 1)}
	b := Range{idx(5, 5, 0), idx(15, 15, 1)}
	c := Range{idx(8, 8, 0), idx(25, 25, 1)}

	ab, _ := Intersect(a, b)
	abc1, ok1 := Intersect(ab, c)

	bc, _ := Intersect(b, c)
	abc2, ok2 := Intersect(a, bc)

	if ok1 != ok2 || !Equal(abc1, abc2) {
		t.Errorf("Intersect not associative: %v vs %v", abc1, abc2)
	}
}

func TestIntersectEmptyAbsorbing(t *testing.T) {
	a := Range{idx(0, 0, 0), idx(10, 10, 1)}
	empty := Range{}
	_, ok := Intersect(a, empty)
	if ok {
		t.Errorf("intersecting with empty range must stay empty")
	}
}

func TestContains(t *testing.T) {
	r := Range{idx(0, 0, 0), idx(10, 10, 1)}
	if !Contains(r, idx(5, 5, 0)) {
		t.Errorf("expected (5,5,0) to be contained")
	}
	if Contains(r, idx(10, 5, 0)) {
		t.Errorf("upper bound is exclusive, (10,5,0) must not be contained")
	}
}

func TestSpaceChangeExtentInvalidates(t *testing.T) {
	reg := NewRegistry()
	sp := reg.New(1, Range{idx(0, 0, 0), idx(100, 1, 1)})

	invalidated := false
	sp.Watch(func() { invalidated = true })

	sp.ChangeExtent(Range{idx(0, 0, 0), idx(200, 1, 1)})
	if !invalidated {
		t.Errorf("ChangeExtent did not invoke registered watcher")
	}
	if sp.Extent().To.I0 != 200 {
		t.Errorf("extent not updated")
	}
}

func TestSpaceChangeExtentPanicsOnMultiDim(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for 2-D ChangeExtent")
		}
	}()
	reg := NewRegistry()
	sp := reg.New(2, Range{idx(0, 0, 0), idx(10, 10, 1)})
	sp.ChangeExtent(Range{idx(0, 0, 0), idx(20, 20, 1)})
}

func TestRegistryCreationOrder(t *testing.T) {
	reg := NewRegistry()
	a := reg.New(1, Range{})
	b := reg.New(2, Range{})
	all := reg.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Errorf("registry did not preserve creation order")
	}
}
