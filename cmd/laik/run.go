package main

import (
	"fmt"
	"os"

	"github.com/neodyma/laik/pkg/config"
	"github.com/neodyma/laik/pkg/reporting"
	"github.com/neodyma/laik/pkg/session"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a workload through the phase state machine",
	Long: `Loads a workload YAML file and drives it through every phase: parse,
build, transition, accumulate, sync, probe, remap, apply, report.

With --ranks N > 1, simulates N ranks in one process against a shared
in-memory backend instead of requiring a real distributed launch.`,
	RunE: runWorkload,
}

func init() {
	runCmd.Flags().String("workload", "", "path to workload YAML file")
	runCmd.Flags().Int("ranks", 1, "number of ranks to simulate locally")
	runCmd.Flags().String("format", "text", "progress output format (text, json, tui)")
	runCmd.Flags().Bool("dry-run", false, "validate the workload without executing")
}

func runWorkload(cmd *cobra.Command, args []string) error {
	workloadPath, _ := cmd.Flags().GetString("workload")
	if workloadPath == "" {
		return fmt.Errorf("--workload flag is required")
	}
	ranks, _ := cmd.Flags().GetInt("ranks")
	if ranks < 1 {
		return fmt.Errorf("--ranks must be >= 1, got %d", ranks)
	}
	outputFormat, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})

	logger.Info("laik starting", "version", version, "ranks", ranks)

	if dryRun {
		for rank := 0; rank < ranks; rank++ {
			s := session.New(session.Config{Rank: rank, Weights: cfg.Topology.Weights}, session.NewLocalBackend(ranks))
			if err := s.Prepare(workloadPath); err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
		}
		fmt.Println("workload is valid (dry-run mode)")
		return nil
	}

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	progress := reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), logger)

	runID := generateRunID()
	runLogger := logger.WithRun(runID)
	results, err := runRanks(workloadPath, ranks, cfg)

	failed := false
	for _, result := range results {
		report := reporting.ConvertSessionResult(runID, result, nil)
		if !result.Success {
			failed = true
		}
		if _, saveErr := storage.SaveReport(report); saveErr != nil {
			runLogger.WithRank(result.Rank).Warn("failed to save report", "error", saveErr)
		}
		progress.ReportRunCompleted(report)
	}

	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if failed {
		return fmt.Errorf("one or more ranks did not complete successfully")
	}

	runLogger.Info("laik run completed successfully")
	return nil
}

// runRanks prepares and drives ranks sessions in lockstep against a shared
// LocalBackend. For every phase, every rank accumulates its contribution
// before any rank syncs, matching how real collective ranks all reach the
// barrier together rather than one at a time (spec §4.E's "globally
// reduced view" requires every contributor present at sync time).
func runRanks(workloadPath string, ranks int, cfg *config.Config) ([]*session.Result, error) {
	backend := session.NewLocalBackend(ranks)
	sessions := make([]*session.Session, ranks)
	results := make([]*session.Result, ranks)

	for rank := 0; rank < ranks; rank++ {
		s := session.New(session.Config{Rank: rank, Weights: cfg.Topology.Weights}, backend)
		if err := s.Prepare(workloadPath); err != nil {
			return nil, fmt.Errorf("rank %d: prepare: %w", rank, err)
		}
		backend.Register(rank, s.Instance().World().CommMatrix())
		sessions[rank] = s
		results[rank] = &session.Result{}
	}

	numPhases := sessions[0].NumPhases()
	for phaseIdx := 0; phaseIdx < numPhases; phaseIdx++ {
		for _, s := range sessions {
			s.Accumulate(phaseIdx)
		}
		for rank, s := range sessions {
			if err := s.SyncAndAdvance(phaseIdx); err != nil {
				return nil, fmt.Errorf("rank %d: phase %d: %w", rank, phaseIdx, err)
			}
			results[rank].BytesSent += s.PhaseBytesSent(phaseIdx)
			results[rank].PhaseCount++
		}
	}

	for rank, s := range sessions {
		s.Finish(results[rank])
	}
	return results, nil
}
