// Package kurtosis discovers rank placement for sessions running inside a
// Kurtosis enclave, adapted from the teacher's service discovery client
// into a read-only rank-to-location resolver for the topology probe.
package kurtosis

import (
	"context"
	"fmt"
	"sort"

	"github.com/kurtosis-tech/kurtosis/api/golang/engine/lib/kurtosis_context"
)

// RankAnnotation and LocationAnnotation name the Kurtosis service
// annotations carrying a service's logical rank and iNNrNNcNNsNN-shaped
// physical location.
const (
	RankAnnotation     = "laik.rank"
	LocationAnnotation = "laik.location"
)

// Discovery resolves rank locations from a Kurtosis enclave's service set.
type Discovery struct {
	kurtosisCtx *kurtosis_context.KurtosisContext
}

// New creates a Discovery against the local Kurtosis engine.
func New() (*Discovery, error) {
	ctx, err := kurtosis_context.NewKurtosisContextFromLocalEngine()
	if err != nil {
		return nil, fmt.Errorf("kurtosis: failed to create context: %w", err)
	}
	return &Discovery{kurtosisCtx: ctx}, nil
}

// Locations implements topology.Locations over ranks discovered in an
// enclave.
type Locations struct {
	byRank map[int]string
	n      int
}

// Len implements topology.Locations.
func (l *Locations) Len() int { return l.n }

// Location implements topology.Locations.
func (l *Locations) Location(i int) string { return l.byRank[i] }

// DiscoverLocations reads every service in enclaveName and builds a
// Locations view from services carrying both RankAnnotation and
// LocationAnnotation labels.
func (d *Discovery) DiscoverLocations(ctx context.Context, enclaveName string) (*Locations, error) {
	enclaveCtx, err := d.kurtosisCtx.GetEnclaveContext(ctx, enclaveName)
	if err != nil {
		return nil, fmt.Errorf("kurtosis: failed to get enclave context: %w", err)
	}

	services, err := enclaveCtx.GetServices()
	if err != nil {
		return nil, fmt.Errorf("kurtosis: failed to get services: %w", err)
	}

	byRank := make(map[int]string)
	for _, serviceCtx := range services {
		labels := serviceCtx.GetLabels()
		rankStr, ok := labels[RankAnnotation]
		if !ok {
			continue
		}
		loc, ok := labels[LocationAnnotation]
		if !ok {
			continue
		}
		var rank int
		if _, err := fmt.Sscanf(rankStr, "%d", &rank); err != nil {
			continue
		}
		byRank[rank] = loc
	}

	n := 0
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
		if r+1 > n {
			n = r + 1
		}
	}
	sort.Ints(ranks)

	return &Locations{byRank: byRank, n: n}, nil
}
