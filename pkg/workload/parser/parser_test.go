package parser

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
apiVersion: laik/v1
kind: Workload
metadata:
  name: stripe-to-all
spec:
  group:
    size: ${GROUP_SIZE}
  spaces:
    - name: main
      dims: 1
      extent: [100, 1, 1]
  partitionings:
    - name: stripe
      space: main
      partitioner:
        type: stripe
        dim: 0
    - name: all
      space: main
      partitioner:
        type: all
  phases:
    - name: spread
      from: stripe
      to: all
      flow: CopyOut
`

func TestParseSubstitutesVariables(t *testing.T) {
	p := New(map[string]string{"GROUP_SIZE": "4"})
	w, err := p.Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if w.Spec.Group.Size != 4 {
		t.Errorf("Group.Size = %d, want 4", w.Spec.Group.Size)
	}
	if w.Metadata.Name != "stripe-to-all" {
		t.Errorf("Metadata.Name = %q, want stripe-to-all", w.Metadata.Name)
	}
}

func TestParseFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.yaml")
	if err := writeFile(path, []byte(`
apiVersion: laik/v1
kind: Workload
metadata:
  name: ok
spec:
  group: {size: 2}
  spaces: [{name: s, dims: 1, extent: [10,1,1]}]
  partitionings: [{name: p, space: s, partitioner: {type: all}}]
  phases: [{name: ph, from: p, to: p, flow: Init}]
`)); err != nil {
		t.Fatal(err)
	}

	p := New(nil)
	w, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if w.Spec.Group.Size != 2 {
		t.Errorf("Group.Size = %d, want 2", w.Spec.Group.Size)
	}
}

func TestParseMissingRequiredFieldFails(t *testing.T) {
	_, err := New(nil).Parse([]byte(`
apiVersion: laik/v1
kind: Workload
metadata:
  name: missing-phases
spec:
  group: {size: 2}
  spaces: [{name: s, dims: 1, extent: [10,1,1]}]
  partitionings: [{name: p, space: s, partitioner: {type: all}}]
`))
	if err == nil {
		t.Error("expected an error for a workload with no phases")
	}
}

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides([]string{"group.size=8", "bad-format"})
	if err == nil {
		t.Fatal("expected an error for a malformed override")
	}
	overrides, err = ParseOverrides([]string{"group.size=8"})
	if err != nil {
		t.Fatalf("ParseOverrides failed: %v", err)
	}
	if overrides["group.size"] != "8" {
		t.Errorf("overrides[group.size] = %q, want 8", overrides["group.size"])
	}
}

func TestApplyOverridesGroupSize(t *testing.T) {
	w, err := New(nil).Parse([]byte(sampleYAML2))
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyOverrides(w, map[string]string{"group.size": "16"}); err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}
	if w.Spec.Group.Size != 16 {
		t.Errorf("Group.Size = %d, want 16", w.Spec.Group.Size)
	}
}

func TestApplyOverridesSpaceExtent(t *testing.T) {
	w, err := New(nil).Parse([]byte(sampleYAML2))
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyOverrides(w, map[string]string{"spaces[main].extent[0]": "200"}); err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}
	if w.Spec.Spaces[0].Extent[0] != 200 {
		t.Errorf("Extent[0] = %d, want 200", w.Spec.Spaces[0].Extent[0])
	}
}

func TestApplyOverridesUnsupportedKeyFails(t *testing.T) {
	w, err := New(nil).Parse([]byte(sampleYAML2))
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyOverrides(w, map[string]string{"not.a.real.key": "x"}); err == nil {
		t.Error("expected an error for an unsupported override key")
	}
}

const sampleYAML2 = `
apiVersion: laik/v1
kind: Workload
metadata:
  name: overridable
spec:
  group: {size: 4}
  spaces: [{name: main, dims: 1, extent: [100,1,1]}]
  partitionings: [{name: p, space: main, partitioner: {type: all}}]
  phases: [{name: ph, from: p, to: p, flow: Init}]
`

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
