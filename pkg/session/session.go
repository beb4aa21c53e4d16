// Package session implements the end-to-end phase state machine that
// drives one rank's Instance through a parsed workload: parse, build,
// transition, accumulate, sync, probe, remap, apply, report (spec.md §3,
// §4.D-H), grounded on the teacher's pkg/core/orchestrator/orchestrator.go.
package session

import (
	"fmt"
	"time"

	"github.com/neodyma/laik/pkg/group"
	"github.com/neodyma/laik/pkg/reorder"
	"github.com/neodyma/laik/pkg/topology"
	"github.com/neodyma/laik/pkg/transition"
	"github.com/neodyma/laik/pkg/workload"
	"github.com/neodyma/laik/pkg/workload/parser"
	"github.com/neodyma/laik/pkg/workload/validator"
)

// Phase is one step of a session's run.
type Phase int

const (
	PhaseParse Phase = iota
	PhaseBuild
	PhaseTransition
	PhaseAccumulate
	PhaseSync
	PhaseProbe
	PhaseRemap
	PhaseApply
	PhaseReport
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseParse:
		return "PARSE"
	case PhaseBuild:
		return "BUILD"
	case PhaseTransition:
		return "TRANSITION"
	case PhaseAccumulate:
		return "ACCUMULATE"
	case PhaseSync:
		return "SYNC"
	case PhaseProbe:
		return "PROBE"
	case PhaseRemap:
		return "REMAP"
	case PhaseApply:
		return "APPLY"
	case PhaseReport:
		return "REPORT"
	case PhaseCompleted:
		return "COMPLETED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Session.
type Config struct {
	// Rank is this process's rank within the workload's group.
	Rank int
	// Location, if set, returns the host-identifier string for rank i
	// (spec §4.F); consumed by the topology probe before the first phase.
	// A nil Location skips probing and leaves the instance's topology nil.
	Location func(i int) string
	// Weights are the topology probe's 5-tier hop-cost vector (spec §4.F).
	Weights [5]uint64
	// Env overrides reordering environment lookups; nil uses the real
	// process environment.
	Env reorder.Env
}

// Result is the outcome of one Session.Execute call.
type Result struct {
	WorkloadName string
	Rank         int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Phase        Phase
	Success      bool
	Message      string
	Errors       []error
	PhaseCount   int
	BytesSent    uint64
}

// Session drives a single rank's Instance through a parsed workload.
type Session struct {
	cfg     Config
	backend group.Backend

	parser    *parser.Parser
	validator *validator.Validator

	inst            *group.Instance
	built           *workload.Built
	partitioningIDs map[string]group.PartitioningID

	currentPhase Phase
	workloadName string
}

// New creates a Session bound to backend, which supplies both the
// CommMatrix sync hook and the reordering UpdateGroup hook (spec §6).
func New(cfg Config, backend group.Backend) *Session {
	return &Session{
		cfg:       cfg,
		backend:   backend,
		parser:    parser.New(nil),
		validator: validator.New(),
	}
}

// Execute parses workloadPath, builds it for the session's rank, and
// drives every phase through completion or failure in one call. Callers
// that need to coordinate several ranks' Instances before any of them
// syncs (e.g. registering every rank's CommMatrix with a shared
// LocalBackend) should call Prepare and Run separately instead.
func (s *Session) Execute(workloadPath string) (*Result, error) {
	result := &Result{StartTime: time.Now(), Rank: s.cfg.Rank}
	if err := s.Prepare(workloadPath); err != nil {
		return s.fail(result, s.currentPhase, err)
	}
	return s.Run(result)
}

// Prepare runs the Parse and Build phases: it parses and validates
// workloadPath, builds it for the session's rank, and constructs the
// rank's Instance (wired to the session's backend) and its partitioning
// arena and topology, but runs no phase transitions yet.
func (s *Session) Prepare(workloadPath string) error {
	s.currentPhase = PhaseParse
	w, err := s.executeParse(workloadPath)
	if err != nil {
		return err
	}
	s.workloadName = w.Metadata.Name

	s.currentPhase = PhaseBuild
	return s.executeBuild(w)
}

// Run drives every prepared phase's transition through completion or
// failure. Prepare must have succeeded first. result, if non-nil, is
// filled in and returned instead of a freshly allocated one, so callers
// composing Execute can thread the same Result through both calls.
func (s *Session) Run(result *Result) (*Result, error) {
	if result == nil {
		result = &Result{StartTime: time.Now()}
	}
	result.Rank = s.cfg.Rank
	result.WorkloadName = s.workloadName

	for phaseIdx := 0; phaseIdx < s.NumPhases(); phaseIdx++ {
		if err := s.RunPhase(phaseIdx, result); err != nil {
			return s.fail(result, s.currentPhase, err)
		}
	}

	return s.Finish(result), nil
}

// NumPhases returns the number of transition phases the prepared workload
// has for this rank. Prepare must have succeeded first.
func (s *Session) NumPhases() int { return len(s.built.Transitions) }

// PhaseBytesSent returns the bytes this rank sends in phaseIdx's transition.
func (s *Session) PhaseBytesSent(phaseIdx int) uint64 {
	return sentBytes(s.built.Transitions[phaseIdx])
}

// RunPhase accumulates and syncs a single phase, for callers that need to
// drive several ranks' sessions in lockstep (e.g. a multi-rank simulation
// registering every rank's CommMatrix with a shared LocalBackend before any
// rank syncs a given phase). Phases must be run in order, 0..NumPhases()-1.
func (s *Session) RunPhase(phaseIdx int, result *Result) error {
	result.Rank = s.cfg.Rank
	result.WorkloadName = s.workloadName

	s.currentPhase = PhaseAccumulate
	if err := s.executePhase(phaseIdx); err != nil {
		return err
	}
	result.BytesSent += sentBytes(s.built.Transitions[phaseIdx])
	result.PhaseCount++
	return nil
}

// Finish marks result as completed after every phase has run successfully.
func (s *Session) Finish(result *Result) *Result {
	result.Phase = PhaseReport
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = true
	result.Message = "session completed successfully"
	result.Phase = PhaseCompleted
	return result
}

func (s *Session) executeParse(path string) (*workload.Workload, error) {
	w, err := s.parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := s.validator.Validate(w); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return w, nil
}

func (s *Session) executeBuild(w *workload.Workload) error {
	built, err := workload.Build(w, s.cfg.Rank)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	s.built = built

	s.inst = group.New(group.Config{
		Locations:    w.Spec.Group.Size,
		MyLocationID: s.cfg.Rank,
		Location:     s.cfg.Location,
		Env:          s.cfg.Env,
	}, s.backend)

	s.partitioningIDs = make(map[string]group.PartitioningID, len(built.Partitionings))
	for name, p := range built.Partitionings {
		s.partitioningIDs[name] = s.inst.RegisterPartitioning(p)
	}

	if s.cfg.Location != nil {
		locs := locationAdapter{n: w.Spec.Group.Size, location: s.cfg.Location}
		s.inst.SetTopology(topology.FromMatrix(topology.ProbeHopWeights(locs, s.cfg.Weights)))
	}
	return nil
}

// executePhase accumulates phaseIdx's transition, syncs the matrix, and
// advances the instance's phase counter (which gates the first-phase
// reordering lookup internally).
func (s *Session) executePhase(phaseIdx int) error {
	s.Accumulate(phaseIdx)
	return s.SyncAndAdvance(phaseIdx)
}

// Accumulate adds phaseIdx's transition into this rank's CommMatrix without
// syncing, so a multi-rank driver can accumulate every rank's contribution
// for a phase before any of them syncs (spec §4.E).
func (s *Session) Accumulate(phaseIdx int) {
	tr := s.built.Transitions[phaseIdx]
	s.inst.World().CommMatrix().AddTransition(tr, s.cfg.Rank)
}

// SyncAndAdvance syncs the CommMatrix and advances the instance's phase
// counter, which gates the first-phase reordering lookup internally.
func (s *Session) SyncAndAdvance(phaseIdx int) error {
	if err := s.inst.Sync(); err != nil {
		return fmt.Errorf("phase %d: sync: %w", phaseIdx, err)
	}
	if err := s.inst.EnterPhase(); err != nil {
		return fmt.Errorf("phase %d: enter phase: %w", phaseIdx, err)
	}
	return nil
}

// Instance returns the session's group Instance, valid after Execute has
// parsed and built the workload (nil before that or on a parse failure).
func (s *Session) Instance() *group.Instance { return s.inst }

// Partitioning returns the arena handle for the named partitioning
// declared in the workload, valid after Execute has built it.
func (s *Session) Partitioning(name string) (group.PartitioningID, bool) {
	id, ok := s.partitioningIDs[name]
	return id, ok
}

func (s *Session) fail(result *Result, phase Phase, err error) (*Result, error) {
	result.Phase = PhaseFailed
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = false
	result.Message = fmt.Sprintf("%s: %s", phase, err)
	result.Errors = append(result.Errors, err)
	return result, err
}

func sentBytes(tr *transition.Transition) uint64 {
	var total uint64
	for _, send := range tr.Send {
		total += send.Range.Size()
	}
	return total
}

type locationAdapter struct {
	n        int
	location func(i int) string
}

func (l locationAdapter) Len() int            { return l.n }
func (l locationAdapter) Location(i int) string { return l.location(i) }
