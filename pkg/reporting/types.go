package reporting

import (
	"time"

	"github.com/neodyma/laik/pkg/session"
)

// RunReport represents one rank's outcome from a Session run (spec.md §3
// "Result"), suitable for JSON persistence and for rendering as text/HTML.
type RunReport struct {
	// Run metadata
	RunID        string    `json:"run_id"`
	WorkloadName string    `json:"workload_name"`
	Rank         int       `json:"rank"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`

	// Run result
	Status  RunStatus `json:"status"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`

	// Phase accounting
	PhaseCount int    `json:"phase_count"`
	BytesSent  uint64 `json:"bytes_sent"`

	// Reordering decision applied at the end of phase 0, if any
	Reordering *ReorderingReport `json:"reordering,omitempty"`

	// Errors encountered
	Errors []string `json:"errors,omitempty"`
}

// RunStatus represents the status of a session run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusStopped   RunStatus = "stopped"
)

// ReorderingReport records the outcome of the first-phase reordering
// lookup (spec §4.H): the mapping applied and where it came from.
type ReorderingReport struct {
	Applied bool   `json:"applied"`
	Source  string `json:"source,omitempty"` // "env" or "qap"
	Mapping []int  `json:"mapping,omitempty"`
}

// CommMatrixSnapshot is a dense dump of a CommMatrix, decoupled from the
// live matrix so a report can be persisted and re-rendered after the run
// that produced it has ended.
type CommMatrixSnapshot struct {
	N     int      `json:"n"`
	Cells []uint64 `json:"cells"` // row-major, len == n*n
}

// TopologyMatrixSnapshot is the cost-matrix analogue of CommMatrixSnapshot.
type TopologyMatrixSnapshot struct {
	N     int      `json:"n"`
	Cells []uint64 `json:"cells"`
}

// ConvertSessionResult converts a session.Result into a RunReport, the way
// the teacher's reporting package converted a detector.CriterionResult.
// runID is an external correlation id (e.g. the CLI's "run-<unix-seconds>"); the
// reordering outcome, if any, comes from the caller since Result doesn't
// carry it.
func ConvertSessionResult(runID string, result *session.Result, reordering *ReorderingReport) *RunReport {
	status := StatusRunning
	switch result.Phase {
	case session.PhaseCompleted:
		status = StatusCompleted
	case session.PhaseFailed:
		status = StatusFailed
	}

	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e.Error())
	}

	return &RunReport{
		RunID:        runID,
		WorkloadName: result.WorkloadName,
		Rank:         result.Rank,
		StartTime:    result.StartTime,
		EndTime:      result.EndTime,
		Duration:     result.Duration.String(),
		Status:       status,
		Success:      result.Success,
		Message:      result.Message,
		PhaseCount:   result.PhaseCount,
		BytesSent:    result.BytesSent,
		Reordering:   reordering,
		Errors:       errs,
	}
}

// LiveSessionState represents the current state of a running session,
// reported incrementally as the phase loop advances (spec §3 "Lifecycles").
type LiveSessionState struct {
	RunID        string        `json:"run_id"`
	WorkloadName string        `json:"workload_name"`
	Rank         int           `json:"rank"`
	Phase        string        `json:"phase"`
	StartTime    time.Time     `json:"start_time"`
	Elapsed      time.Duration `json:"elapsed"`

	PhasesCompleted int    `json:"phases_completed"`
	BytesSentSoFar  uint64 `json:"bytes_sent_so_far"`
}
