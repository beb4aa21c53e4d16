package commatrix

import (
	"math"
	"testing"

	"github.com/neodyma/laik/pkg/partition"
	"github.com/neodyma/laik/pkg/space"
	"github.com/neodyma/laik/pkg/transition"
)

func extent1D(n uint64) space.Range {
	return space.Range{To: space.Index{I0: n, I1: 1, I2: 1}}
}

func TestUpdateDirected(t *testing.T) {
	cm := New(3)
	cm.Update(0, 1, 10)
	if cm.At(0, 1) != 10 {
		t.Errorf("cm[0][1] = %d, want 10", cm.At(0, 1))
	}
	if cm.At(1, 0) != 0 {
		t.Errorf("cm[1][0] = %d, want 0 (directed update must not touch the mirror cell)", cm.At(1, 0))
	}
}

// Testable property 7: update_sym(a,b,x) then update_sym(a,b,y) yields
// cm[a][b] = cm[b][a] = x+y.
func TestUpdateSymLaw(t *testing.T) {
	cm := New(3)
	cm.UpdateSym(0, 2, 5)
	cm.UpdateSym(0, 2, 7)
	if cm.At(0, 2) != 12 || cm.At(2, 0) != 12 {
		t.Errorf("cm[0][2]=%d cm[2][0]=%d, want both 12", cm.At(0, 2), cm.At(2, 0))
	}
}

func TestUpdateSaturates(t *testing.T) {
	cm := New(2)
	cm.Update(0, 1, math.MaxUint64-1)
	cm.Update(0, 1, 10)
	if cm.At(0, 1) != math.MaxUint64 {
		t.Errorf("cm[0][1] = %d, want saturated at MaxUint64", cm.At(0, 1))
	}
}

func TestResetZeroesWholeMatrix(t *testing.T) {
	cm := New(3)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			cm.Update(a, b, 1)
		}
	}
	cm.Reset()
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			if cm.At(a, b) != 0 {
				t.Errorf("cm[%d][%d] = %d after Reset, want 0", a, b, cm.At(a, b))
			}
		}
	}
}

func TestSwapNodes(t *testing.T) {
	cm := New(3)
	cm.Update(0, 1, 5)
	cm.Update(1, 2, 9)
	cm.SwapNodes(0, 1)
	if cm.At(1, 0) != 5 {
		t.Errorf("after swap(0,1), cm[1][0] = %d, want 5", cm.At(1, 0))
	}
	if cm.At(0, 2) != 9 {
		t.Errorf("after swap(0,1), cm[0][2] = %d, want 9", cm.At(0, 2))
	}
}

// S4 - CM accumulation under scenario S1: after driving all four ranks'
// S1 transitions through AddTransition, for any i != j, cm[i][j] == 25.
func TestS4AccumulationUnderStripeRoundTrip(t *testing.T) {
	reg := space.NewRegistry()
	sp := reg.New(1, extent1D(100))
	cm := New(4)

	for rank := 0; rank < 4; rank++ {
		group := partition.Group{Size: 4, Rank: rank}
		from := partition.New(0, "stripe", group, sp, partition.Stripe{Size: 4, Dim: 0}, nil)
		from.Run()
		to := partition.New(1, "all", group, sp, partition.All{Size: 4}, nil)
		to.Run()

		tr, err := transition.Calculate(from, to, transition.CopyOut, transition.NoOp, rank)
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
		cm.AddTransition(tr, rank)
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				continue
			}
			if cm.At(i, j) != 25 {
				t.Errorf("cm[%d][%d] = %d, want 25", i, j, cm.At(i, j))
			}
		}
	}
}

type recordingBackend struct {
	called bool
	err    error
}

func (b *recordingBackend) MatSync(cm *CommMatrix) error {
	b.called = true
	return b.err
}

func TestSyncDelegatesToBackendAndClearsInSync(t *testing.T) {
	cm := New(2)
	backend := &recordingBackend{}
	cm.SetBackend(backend)

	if err := cm.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !backend.called {
		t.Fatalf("expected backend.MatSync to be invoked")
	}
	if cm.InSync() {
		t.Errorf("InSync should be false once Sync has returned")
	}
}

func TestSyncWithoutBackend(t *testing.T) {
	cm := New(2)
	if err := cm.Sync(); err != ErrBackendUnavailable {
		t.Errorf("got %v, want ErrBackendUnavailable", err)
	}
}

func TestUpdateDroppedWhileInSync(t *testing.T) {
	cm := New(2)
	cm.inSync = true
	cm.Update(0, 1, 100)
	if cm.At(0, 1) != 0 {
		t.Errorf("update during sync should be dropped, got %d", cm.At(0, 1))
	}
}
