package reorder

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/topology"
)

type fakeEnv map[string]string

func (f fakeEnv) Lookup(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// S7 - Env map parse: LAIK_REORDERING="0.3,3.0" with n=4 yields
// map = [4,0,0,1] under the +1 sentinel.
func TestS7ParseLiteral(t *testing.T) {
	got, err := ParseLiteral("0.3,3.0", 4)
	if err != nil {
		t.Fatalf("ParseLiteral failed: %v", err)
	}
	want := []int{4, 0, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLiteral = %v, want %v", got, want)
	}
}

func TestParseLiteralOutOfRangeKeyIgnored(t *testing.T) {
	got, err := ParseLiteral("0.1,9.2", 4)
	if err != nil {
		t.Fatalf("ParseLiteral failed: %v", err)
	}
	if got[0] != 2 {
		t.Errorf("got[0] = %d, want 2", got[0])
	}
}

func TestParseLiteralMalformedReturnsError(t *testing.T) {
	if _, err := ParseLiteral("not-a-pair", 4); err == nil {
		t.Errorf("expected an error for a malformed literal string")
	}
}

// Testable property 8: installing the same literal map twice is
// observationally indistinguishable from installing it once.
func TestEnvMapIdempotence(t *testing.T) {
	backend := &fakeBackend{}
	m1, err := ParseLiteral("0.3,3.0", 4)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := Apply(backend, m1)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Apply(backend, m1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("reapplying the same map gave different results: %v vs %v", r1, r2)
	}
}

type fakeBackend struct {
	lastMapping []int
	calls       int
}

func (b *fakeBackend) UpdateGroup(mapping []int) error {
	b.lastMapping = mapping
	b.calls++
	return nil
}

func TestApplyUnmappedStaysAtOriginalRank(t *testing.T) {
	backend := &fakeBackend{}
	mapping := []int{4, 0, 0, 1} // rank 0->3, rank 1,2 unmapped, rank 3->0
	resolved, err := Apply(backend, mapping)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 1, 2, 0}
	if !reflect.DeepEqual(resolved, want) {
		t.Errorf("Apply = %v, want %v", resolved, want)
	}
	if backend.calls != 1 {
		t.Errorf("backend.UpdateGroup called %d times, want 1", backend.calls)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reorder.bin")
	mapping := []int{4, 0, 0, 1}

	if err := WriteFile(path, mapping); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !reflect.DeepEqual(got, mapping) {
		t.Errorf("round trip = %v, want %v", got, mapping)
	}
}

func TestResolvePrecedenceLiveBeatsReordering(t *testing.T) {
	env := fakeEnv{EnvReorderLive: "1", EnvReordering: "0.3"}
	cm := commatrix.New(2)
	top := topology.FromMatrix(topology.NewMatrix(2))

	got := Resolve(env, 2, cm, top)
	if got == nil {
		t.Fatal("expected a live-computed mapping, got nil")
	}
}

func TestResolvePrecedenceReorderingBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reorder.bin")
	if err := WriteFile(path, []int{9, 9}); err != nil {
		t.Fatal(err)
	}
	env := fakeEnv{EnvReordering: "0.1", EnvReorderFile: path}

	got := Resolve(env, 2, nil, nil)
	want := []int{2, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v (REORDERING should win over FILE)", got, want)
	}
}

func TestResolveFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reorder.bin")
	mapping := []int{2, 0}
	if err := WriteFile(path, mapping); err != nil {
		t.Fatal(err)
	}
	env := fakeEnv{EnvReorderFile: path}

	got := Resolve(env, 2, nil, nil)
	if !reflect.DeepEqual(got, mapping) {
		t.Errorf("Resolve = %v, want %v", got, mapping)
	}
}

func TestResolveNoEnvYieldsIdentity(t *testing.T) {
	env := fakeEnv{}
	if got := Resolve(env, 2, nil, nil); got != nil {
		t.Errorf("Resolve with no env set = %v, want nil (identity)", got)
	}
}

func TestWriteBackIfRankZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reorder.bin")
	env := fakeEnv{EnvReordering: "0.1", EnvReorderFile: path}
	mapping, err := ParseLiteral("0.1", 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteBackIfRankZero(env, 0, mapping); err != nil {
		t.Fatalf("WriteBackIfRankZero failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("expected rank 0 to have written the file: %v", err)
	}
	if !reflect.DeepEqual(got, mapping) {
		t.Errorf("written file = %v, want %v", got, mapping)
	}
}

func TestWriteBackSkippedForNonZeroRank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reorder.bin")
	env := fakeEnv{EnvReordering: "0.1", EnvReorderFile: path}
	mapping, err := ParseLiteral("0.1", 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteBackIfRankZero(env, 1, mapping); err != nil {
		t.Fatalf("WriteBackIfRankZero failed: %v", err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Errorf("expected no file to have been written by a non-zero rank")
	}
}
