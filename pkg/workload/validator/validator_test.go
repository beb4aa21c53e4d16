package validator

import (
	"testing"

	"github.com/neodyma/laik/pkg/workload"
)

func validWorkload() *workload.Workload {
	return &workload.Workload{
		APIVersion: "laik/v1",
		Kind:       "Workload",
		Metadata:   workload.Metadata{Name: "valid-workload"},
		Spec: workload.WorkloadSpec{
			Group: workload.GroupSpec{Size: 4},
			Spaces: []workload.SpaceSpec{
				{Name: "main", Dims: 1, Extent: [3]uint64{100, 1, 1}},
			},
			Partitionings: []workload.PartitioningSpec{
				{Name: "stripe", Space: "main", Partitioner: workload.PartitionerSpec{Type: "stripe", Dim: 0}},
				{Name: "all", Space: "main", Partitioner: workload.PartitionerSpec{Type: "all"}},
			},
			Phases: []workload.PhaseSpec{
				{Name: "spread", From: "stripe", To: "all", Flow: "CopyOut"},
			},
		},
	}
}

func TestValidateAcceptsWellFormedWorkload(t *testing.T) {
	v := New()
	if err := v.Validate(validWorkload()); err != nil {
		t.Fatalf("Validate failed on a well-formed workload: %v\n%s", err, v.Report())
	}
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors)
	}
}

func TestValidateRejectsBadMetadataName(t *testing.T) {
	w := validWorkload()
	w.Metadata.Name = "Not Valid!"
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected a metadata.name format error")
	}
}

func TestValidateRejectsUnknownSpaceReference(t *testing.T) {
	w := validWorkload()
	w.Spec.Partitionings[0].Space = "nonexistent"
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected an error for a partitioning referencing an unknown space")
	}
}

func TestValidateRejectsUnknownPartitioningReference(t *testing.T) {
	w := validWorkload()
	w.Spec.Phases[0].From = "nonexistent"
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected an error for a phase referencing an unknown partitioning")
	}
}

func TestValidateRejectsDuplicateSpaceName(t *testing.T) {
	w := validWorkload()
	w.Spec.Spaces = append(w.Spec.Spaces, w.Spec.Spaces[0])
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected an error for a duplicated space name")
	}
}

func TestValidateRequiresReductionOpForReduceFlow(t *testing.T) {
	w := validWorkload()
	w.Spec.Phases[0].Flow = "Reduce"
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected an error for a Reduce flow with no reduction_op")
	}
}

func TestValidateWarnsOnSelfTransition(t *testing.T) {
	w := validWorkload()
	w.Spec.Phases[0].To = w.Spec.Phases[0].From
	v := New()
	if err := v.Validate(w); err != nil {
		t.Fatalf("self-transition should be a warning, not an error: %v", err)
	}
	if !v.HasWarnings() {
		t.Error("expected a warning for a phase transitioning a partitioning to itself")
	}
}

func TestValidateRejectsStripeDimOutOfRange(t *testing.T) {
	w := validWorkload()
	w.Spec.Partitionings[0].Partitioner.Dim = 5
	v := New()
	if err := v.Validate(w); err == nil {
		t.Error("expected an error for a stripe dim out of range for a 1-D space")
	}
}
