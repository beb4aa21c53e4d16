// Package validator cross-checks a parsed workload's internal references
// (spaces, partitionings, phases), grounded on the teacher's
// pkg/scenario/validator: same Errors/Warnings accumulator and
// per-section validate-method shape, repurposed from fault-scenario
// cross-checks to space/partitioning/phase reference checks.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neodyma/laik/pkg/workload"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// Validator accumulates validation errors and warnings for a workload.
type Validator struct {
	Errors   []string
	Warnings []string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks w's internal references and returns an error summarizing
// the accumulated Errors, if any. Warnings never fail validation.
func (v *Validator) Validate(w *workload.Workload) error {
	v.Errors = nil
	v.Warnings = nil

	v.validateMetadata(w)
	v.validateGroup(w)
	spaceNames := v.validateSpaces(w)
	partitioningNames := v.validatePartitionings(w, spaceNames)
	v.validatePhases(w, partitioningNames)

	if len(v.Errors) > 0 {
		return fmt.Errorf("workload validation failed with %d errors", len(v.Errors))
	}
	return nil
}

// HasWarnings reports whether the last Validate call produced warnings.
func (v *Validator) HasWarnings() bool { return len(v.Warnings) > 0 }

// HasErrors reports whether the last Validate call produced errors.
func (v *Validator) HasErrors() bool { return len(v.Errors) > 0 }

// Report formats the accumulated errors and warnings for display.
func (v *Validator) Report() string {
	var sb strings.Builder
	if len(v.Errors) > 0 {
		sb.WriteString("ERRORS:\n")
		for _, e := range v.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}
	if len(v.Warnings) > 0 {
		sb.WriteString("\nWARNINGS:\n")
		for _, w := range v.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}
	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		sb.WriteString("Validation passed with no issues.\n")
	}
	return sb.String()
}

func (v *Validator) validateMetadata(w *workload.Workload) {
	if w.Metadata.Name == "" {
		v.Errors = append(v.Errors, "metadata.name is required")
		return
	}
	if !namePattern.MatchString(w.Metadata.Name) {
		v.Errors = append(v.Errors, "metadata.name must be lowercase alphanumeric with hyphens")
	}
}

func (v *Validator) validateGroup(w *workload.Workload) {
	if w.Spec.Group.Size <= 0 {
		v.Errors = append(v.Errors, "spec.group.size must be positive")
	}
	if w.Spec.Group.Size > 4096 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("spec.group.size is very large (%d)", w.Spec.Group.Size))
	}
}

func (v *Validator) validateSpaces(w *workload.Workload) map[string]workload.SpaceSpec {
	names := make(map[string]workload.SpaceSpec, len(w.Spec.Spaces))
	for i, sp := range w.Spec.Spaces {
		if sp.Name == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.spaces[%d].name is required", i))
			continue
		}
		if _, dup := names[sp.Name]; dup {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.spaces[%d].name %q is duplicated", i, sp.Name))
			continue
		}
		if sp.Dims < 1 || sp.Dims > 3 {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.spaces[%d].dims must be 1..3, got %d", i, sp.Dims))
			continue
		}
		for axis := 0; axis < sp.Dims; axis++ {
			if sp.Extent[axis] == 0 {
				v.Errors = append(v.Errors, fmt.Sprintf("spec.spaces[%d].extent[%d] must be > 0", i, axis))
			}
		}
		names[sp.Name] = sp
	}
	return names
}

func (v *Validator) validatePartitionings(w *workload.Workload, spaces map[string]workload.SpaceSpec) map[string]workload.PartitioningSpec {
	validTypes := map[string]bool{"all": true, "master": true, "stripe": true, "copy": true}
	names := make(map[string]workload.PartitioningSpec, len(w.Spec.Partitionings))

	for i, pt := range w.Spec.Partitionings {
		if pt.Name == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.partitionings[%d].name is required", i))
			continue
		}
		if _, dup := names[pt.Name]; dup {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.partitionings[%d].name %q is duplicated", i, pt.Name))
			continue
		}
		if _, ok := spaces[pt.Space]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.partitionings[%d].space %q is not defined in spec.spaces", i, pt.Space))
		}
		if !validTypes[pt.Partitioner.Type] {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.partitionings[%d].partitioner.type %q is invalid (want all|master|stripe|copy)", i, pt.Partitioner.Type))
		}
		if pt.Partitioner.Type == "stripe" {
			sp, ok := spaces[pt.Space]
			if ok && (pt.Partitioner.Dim < 0 || pt.Partitioner.Dim >= sp.Dims) {
				v.Errors = append(v.Errors, fmt.Sprintf("spec.partitionings[%d].partitioner.dim %d is out of range for space %q", i, pt.Partitioner.Dim, pt.Space))
			}
		}
		if pt.Base != "" {
			if _, ok := names[pt.Base]; !ok {
				v.Warnings = append(v.Warnings, fmt.Sprintf("spec.partitionings[%d].base %q is not yet defined (must precede it in the list)", i, pt.Base))
			}
		}
		names[pt.Name] = pt
	}
	return names
}

var validFlows = map[string]bool{
	"CopyIn": true, "CopyOut": true, "CopyInOut": true, "Init": true, "Reduce": true,
}

func (v *Validator) validatePhases(w *workload.Workload, partitionings map[string]workload.PartitioningSpec) {
	for i, ph := range w.Spec.Phases {
		if _, ok := partitionings[ph.From]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.phases[%d].from %q is not defined in spec.partitionings", i, ph.From))
		}
		if _, ok := partitionings[ph.To]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.phases[%d].to %q is not defined in spec.partitionings", i, ph.To))
		}
		if !validFlows[ph.Flow] {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.phases[%d].flow %q is invalid", i, ph.Flow))
			continue
		}
		if ph.Flow == "Reduce" && ph.ReductionOp == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.phases[%d].reduction_op is required for flow Reduce", i))
		}
		if ph.Flow != "Reduce" && ph.ReductionOp != "" {
			v.Warnings = append(v.Warnings, fmt.Sprintf("spec.phases[%d].reduction_op is ignored for flow %s", i, ph.Flow))
		}
		if ph.From == ph.To {
			v.Warnings = append(v.Warnings, fmt.Sprintf("spec.phases[%d] transitions a partitioning to itself; this is legal but likely a no-op", i))
		}
	}
}
