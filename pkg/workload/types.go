// Package workload implements a declarative YAML description of spaces,
// partitionings, and transitions that can be replayed through the core
// without a live backend (SPEC_FULL.md §11), used by the `laik run` and
// `laik fuzz` CLI subcommands and by tests.
package workload

// Workload is the top-level document parsed from a replay YAML file.
type Workload struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   Metadata     `yaml:"metadata"`
	Spec       WorkloadSpec `yaml:"spec"`
}

// Metadata carries display information only; it never affects replay.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Version     string   `yaml:"version,omitempty"`
}

// WorkloadSpec describes the group, the spaces and partitionings built over
// it, and the sequence of phase transitions to replay.
type WorkloadSpec struct {
	Group         GroupSpec          `yaml:"group"`
	Spaces        []SpaceSpec        `yaml:"spaces"`
	Partitionings []PartitioningSpec `yaml:"partitionings"`
	Phases        []PhaseSpec        `yaml:"phases"`
}

// GroupSpec describes the process group the workload replays against.
type GroupSpec struct {
	Size int `yaml:"size"`
}

// SpaceSpec describes one named index space.
type SpaceSpec struct {
	Name string `yaml:"name"`
	Dims int    `yaml:"dims"`
	// Extent holds one bound per dimension; unused axes default to 1.
	Extent [3]uint64 `yaml:"extent"`
}

// PartitionerSpec names a built-in partitioner and its parameters.
// Type is one of "all", "master", "stripe", "copy".
type PartitionerSpec struct {
	Type string `yaml:"type"`
	Dim  int    `yaml:"dim,omitempty"`
}

// FilterSpec names a filter applied while running a partitioner.
// Type is one of "my", "intersect".
type FilterSpec struct {
	Type  string `yaml:"type"`
	Rank  int    `yaml:"rank,omitempty"`
	Other string `yaml:"other,omitempty"`
}

// PartitioningSpec describes one named partitioning of a space.
type PartitioningSpec struct {
	Name        string          `yaml:"name"`
	Space       string          `yaml:"space"`
	Partitioner PartitionerSpec `yaml:"partitioner"`
	Base        string          `yaml:"base,omitempty"`
	Filters     []FilterSpec    `yaml:"filters,omitempty"`
}

// PhaseSpec describes one transition to replay: from one partitioning to
// another, under a given flow and (for Reduce flows) reduction operator.
type PhaseSpec struct {
	Name        string `yaml:"name"`
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Flow        string `yaml:"flow"`
	ReductionOp string `yaml:"reduction_op,omitempty"`
}
