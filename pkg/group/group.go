// Package group implements the process-wide Instance and its world Group:
// the arena that owns every Space, Partitioning, the Topology, and the
// CommMatrix for a run, plus the phase counter that gates the reordering
// controller's "first phase" lookup (spec §3 "Lifecycles", §4.H, §5).
package group

import (
	"fmt"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/partition"
	"github.com/neodyma/laik/pkg/reorder"
	"github.com/neodyma/laik/pkg/space"
	"github.com/neodyma/laik/pkg/topology"
)

// Backend is the full set of hooks the core needs from its host process
// (spec §6). It composes the narrow interfaces pkg/commatrix and
// pkg/reorder already declare rather than redeclaring their methods.
type Backend interface {
	commatrix.Backend
	reorder.Backend
}

// PartitioningID indexes a Partitioning within an Instance's arena.
type PartitioningID int

// Config configures a new Instance (spec §6 "Instance interface").
type Config struct {
	Locations    int
	MyLocationID int
	// Location, if set, returns the host-identifier string for rank i,
	// consumed by the topology probe (spec §4.F).
	Location func(i int) string
	Env      reorder.Env
}

// Instance is the process-wide owner of every handle derived during a run:
// spaces, partitionings, the topology, and the world Group. Freeing it
// invalidates every handle it owns (spec §5 "Shared resources").
//
// This replaces the C source's module-level globals and intrusive pointer
// list (spec §9 "Global mutable state" / "Cyclic references") with plain
// arena fields here.
type Instance struct {
	cfg    Config
	env    reorder.Env
	spaces *space.Registry

	partitionings []*partition.Partitioning

	top *topology.Topology

	world *Group

	teardown *Teardown
	watchdog *Watchdog

	phase          int
	reorderApplied bool
}

// New creates an Instance with a fresh space registry and world Group of
// the configured size, wired to backend for sync/updateGroup notifications.
func New(cfg Config, backend Backend) *Instance {
	env := cfg.Env
	if env == nil {
		env = reorder.OSEnv{}
	}
	cm := commatrix.New(cfg.Locations)
	cm.SetBackend(backend)

	inst := &Instance{
		cfg:      cfg,
		env:      env,
		spaces:   space.NewRegistry(),
		teardown: NewTeardown(),
		watchdog: NewWatchdog(),
	}
	inst.world = &Group{
		size:    cfg.Locations,
		myID:    cfg.MyLocationID,
		cm:      cm,
		backend: backend,
	}
	inst.teardown.Defer("instance-arenas", func() error {
		inst.spaces = nil
		inst.partitionings = nil
		inst.top = nil
		return nil
	})
	inst.teardown.Defer("world-group-cm", func() error {
		inst.world.cm = nil
		return nil
	})
	return inst
}

// Spaces returns the instance's space registry.
func (inst *Instance) Spaces() *space.Registry { return inst.spaces }

// World returns the instance's world Group.
func (inst *Instance) World() *Group { return inst.world }

// SetTopology installs the instance's topology, computed once per instance
// (spec §3 "Lifecycles").
func (inst *Instance) SetTopology(top *topology.Topology) { inst.top = top }

// Topology returns the instance's topology, or nil if never set.
func (inst *Instance) Topology() *topology.Topology { return inst.top }

// RegisterPartitioning adds p to the instance's arena and returns its
// handle. Partitionings are owned by the Instance and freed at teardown
// (spec §3 "Lifecycles").
func (inst *Instance) RegisterPartitioning(p *partition.Partitioning) PartitioningID {
	id := PartitioningID(len(inst.partitionings))
	inst.partitionings = append(inst.partitionings, p)
	return id
}

// Partitioning returns the partitioning registered under id, or nil if id
// is out of range.
func (inst *Instance) Partitioning(id PartitioningID) *partition.Partitioning {
	if int(id) < 0 || int(id) >= len(inst.partitionings) {
		return nil
	}
	return inst.partitionings[id]
}

// EnterPhase advances the instance's phase counter. On the transition into
// phase 1 (the "first phase"), it resolves and applies the reordering
// controller exactly once (spec §4.H "invokes G on first phase"); later
// calls are no-ops with respect to reordering.
func (inst *Instance) EnterPhase() error {
	inst.phase++
	if inst.phase != 1 || inst.reorderApplied {
		return nil
	}
	inst.reorderApplied = true

	mapping := reorder.Resolve(inst.env, inst.world.size, inst.world.cm, inst.top)
	if mapping == nil {
		return nil
	}
	resolved, err := reorder.Apply(inst.world.backend, mapping)
	if err != nil {
		return fmt.Errorf("group: first-phase reordering failed: %w", err)
	}
	inst.world.myID = resolved[inst.world.myID]
	return reorder.WriteBackIfRankZero(inst.env, inst.cfg.MyLocationID, mapping)
}

// Phase returns the instance's current phase counter.
func (inst *Instance) Phase() int { return inst.phase }

// Sync runs the world Group's CM sync under the instance's watchdog: it
// either completes or the process exits via panic (spec §5 "An in-flight
// sync cannot be cancelled; it must complete or the whole process exits
// via panic").
func (inst *Instance) Sync() error {
	return inst.watchdog.Guard(inst.world.cm.Sync)
}

// Watchdog returns the instance's sync watchdog, so callers can register
// additional abort callbacks (e.g. logging, report flushing) before a
// watchdog-triggered panic unwinds the process.
func (inst *Instance) Watchdog() *Watchdog { return inst.watchdog }

// Free runs the instance's teardown coordinator, invalidating every handle
// the instance owns (spec §5 "freeing the Instance invalidates every
// derived handle").
func (inst *Instance) Free() error {
	return inst.teardown.Run()
}

// Group is the world process group: its size, this process's current rank,
// and the CommMatrix it owns (spec §3 "The CommMatrix is owned by the
// Group; one per live group.").
type Group struct {
	size    int
	myID    int
	cm      *commatrix.CommMatrix
	backend Backend
}

// Size returns the group's process count.
func (g *Group) Size() int { return g.size }

// MyID returns this process's current rank within the group. It changes
// when a reordering is applied.
func (g *Group) MyID() int { return g.myID }

// CommMatrix returns the group's communication matrix.
func (g *Group) CommMatrix() *commatrix.CommMatrix { return g.cm }
