package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports session run progress.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current session state.
func (pr *ProgressReporter) ReportState(state LiveSessionState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportPhaseTransition reports a phase state-machine transition.
func (pr *ProgressReporter) ReportPhaseTransition(from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "phase_transition",
			"from_phase": from,
			"to_phase":   to,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔄 Phase Transition: %s → %s\n", from, to)
	default:
		fmt.Printf("[PHASE] %s → %s\n", from, to)
	}
}

// ReportReordering reports a first-phase reordering decision.
func (pr *ProgressReporter) ReportReordering(r ReorderingReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "reordering",
			"reordering": r,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔀 Reordering applied (source: %s): %v\n", r.Source, r.Mapping)
	default:
		fmt.Printf("[REORDER] applied=%v source=%s mapping=%v\n", r.Applied, r.Source, r.Mapping)
	}
}

// ReportRunCompleted reports run completion.
func (pr *ProgressReporter) ReportRunCompleted(report *RunReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "run_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printRunSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format.
func (pr *ProgressReporter) reportText(state LiveSessionState) {
	elapsed := time.Since(state.StartTime).Round(time.Second)
	fmt.Printf("[%s] rank=%d %s | Elapsed: %s | phases=%d bytes=%d\n",
		time.Now().Format("15:04:05"),
		state.Rank,
		state.Phase,
		elapsed,
		state.PhasesCompleted,
		state.BytesSentSoFar,
	)
}

// reportJSON outputs progress in JSON format.
func (pr *ProgressReporter) reportJSON(state LiveSessionState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format.
func (pr *ProgressReporter) reportTUI(state LiveSessionState) {
	pr.clearScreen()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   LAIK Run: %s\n", state.WorkloadName)
	fmt.Printf("   Run ID: %s | Rank: %d\n", state.RunID, state.Rank)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("📊 Phase: %s\n", state.Phase)
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Printf("📦 Phases completed: %d, bytes sent: %d\n", state.PhasesCompleted, state.BytesSentSoFar)
	fmt.Println()

	fmt.Println(strings.Repeat("─", 80))
}

// printRunSummary prints a run summary in TUI format.
func (pr *ProgressReporter) printRunSummary(report *RunReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   RUN SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	statusIcon := "✅"
	statusText := "COMPLETED"
	if !report.Success {
		statusIcon = "❌"
		statusText = "FAILED"
	}
	if report.Status == StatusStopped {
		statusIcon = "🛑"
		statusText = "STOPPED"
	}

	fmt.Printf("%s Run %s\n", statusIcon, statusText)
	fmt.Printf("   Workload: %s\n", report.WorkloadName)
	fmt.Printf("   Rank: %d\n", report.Rank)
	fmt.Printf("   Run ID: %s\n", report.RunID)
	fmt.Printf("   Duration: %s\n", report.Duration)
	fmt.Printf("   Phases: %d, Bytes sent: %d\n", report.PhaseCount, report.BytesSent)
	fmt.Println()

	if report.Reordering != nil && report.Reordering.Applied {
		fmt.Printf("🔀 Reordering (%s): %v\n", report.Reordering.Source, report.Reordering.Mapping)
		fmt.Println()
	}

	if len(report.Errors) > 0 {
		fmt.Printf("⚠️  Errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("   • %s\n", e)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 80))
}

// printTextSummary prints a run summary in plain text format.
func (pr *ProgressReporter) printTextSummary(report *RunReport) {
	status := "COMPLETED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	fmt.Printf("\n[RUN SUMMARY] %s\n", status)
	fmt.Printf("  Workload: %s\n", report.WorkloadName)
	fmt.Printf("  Rank: %d\n", report.Rank)
	fmt.Printf("  Run ID: %s\n", report.RunID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Phases: %d\n", report.PhaseCount)
	fmt.Printf("  Bytes sent: %d\n", report.BytesSent)

	if report.Reordering != nil && report.Reordering.Applied {
		fmt.Printf("  Reordering: source=%s mapping=%v\n", report.Reordering.Source, report.Reordering.Mapping)
	}
	fmt.Println()
}

// clearScreen clears the terminal screen.
func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line.
func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
