package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "laik",
	Short: "Topology-aware rank remapping runtime",
	Long: `laik drives workloads of index-space partitionings through the phase
state machine that accumulates a communication matrix, probes host
topology, and applies a QAP-based rank remapping to cut cross-host
traffic.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./laik.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(topologyCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(fuzzCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go
// - topologyCmd in topology.go
// - reorderCmd in reorder.go
// - fuzzCmd in fuzz.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
