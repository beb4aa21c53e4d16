package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/neodyma/laik/pkg/reporting"
	"github.com/neodyma/laik/pkg/topology"
	"github.com/neodyma/laik/pkg/topology/discovery/docker"
	"github.com/neodyma/laik/pkg/topology/discovery/kurtosis"
	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Args:  cobra.NoArgs,
	Short: "Probe and print the hop-cost matrix for a group's ranks",
	Long: `Resolves every rank's physical location (island/rack/chassis/slot) from
a discovery backend, or from --location flags for manual testing, and
prints the resulting hop-cost matrix (spec §4.F).`,
	RunE: runTopology,
}

func init() {
	topologyCmd.Flags().String("backend", "", "discovery backend (docker, kurtosis); defaults to discovery.backend in config")
	topologyCmd.Flags().String("group", "", "docker group label value (docker backend)")
	topologyCmd.Flags().String("enclave", "", "Kurtosis enclave name (kurtosis backend, overrides config)")
	topologyCmd.Flags().StringArray("location", nil, "rank=location pair for manual probing, e.g. 0=i00r00c00s00 (repeatable)")
}

func runTopology(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	backendName, _ := cmd.Flags().GetString("backend")
	if backendName == "" {
		backendName = cfg.Discovery.Backend
	}
	group, _ := cmd.Flags().GetString("group")
	enclave, _ := cmd.Flags().GetString("enclave")
	if enclave == "" {
		enclave = cfg.Discovery.EnclaveName
	}
	manualLocations, _ := cmd.Flags().GetStringArray("location")

	ctx := context.Background()
	locs, err := resolveLocations(ctx, backendName, group, enclave, manualLocations)
	if err != nil {
		return err
	}

	m := topology.ProbeHopWeights(locs, cfg.Topology.Weights)
	snapshot := reporting.TopologyMatrixSnapshot{N: m.N(), Cells: matrixCells(m)}
	fmt.Print(reporting.FormatTopologyMatrix(snapshot))
	return nil
}

// rankLocations implements topology.Locations over a plain map, for the
// manual --location flag and as the common return type of every backend.
type rankLocations struct {
	n      int
	byRank map[int]string
}

func (l rankLocations) Len() int            { return l.n }
func (l rankLocations) Location(i int) string { return l.byRank[i] }

func resolveLocations(ctx context.Context, backendName, group, enclave string, manual []string) (topology.Locations, error) {
	if len(manual) > 0 {
		return parseManualLocations(manual)
	}

	switch backendName {
	case "docker":
		if group == "" {
			return nil, fmt.Errorf("--group is required for the docker backend")
		}
		client, err := docker.New()
		if err != nil {
			return nil, fmt.Errorf("docker: %w", err)
		}
		defer client.Close()
		return client.DiscoverLocations(ctx, group)
	case "kurtosis":
		if enclave == "" {
			return nil, fmt.Errorf("--enclave is required for the kurtosis backend")
		}
		disco, err := kurtosis.New()
		if err != nil {
			return nil, fmt.Errorf("kurtosis: %w", err)
		}
		return disco.DiscoverLocations(ctx, enclave)
	case "":
		return nil, fmt.Errorf("no discovery backend configured; pass --backend, set discovery.backend, or use --location for manual probing")
	default:
		return nil, fmt.Errorf("unknown discovery backend %q", backendName)
	}
}

func parseManualLocations(pairs []string) (topology.Locations, error) {
	byRank := make(map[int]string, len(pairs))
	n := 0
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed --location %q, want rank=location", pair)
		}
		rank, err := strconv.Atoi(kv[0])
		if err != nil {
			return nil, fmt.Errorf("malformed --location rank %q: %w", kv[0], err)
		}
		byRank[rank] = kv[1]
		if rank+1 > n {
			n = rank + 1
		}
	}
	return rankLocations{n: n, byRank: byRank}, nil
}

func matrixCells(m *topology.Matrix) []uint64 {
	n := m.N()
	cells := make([]uint64, n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			cells[a*n+b] = m.At(a, b)
		}
	}
	return cells
}
