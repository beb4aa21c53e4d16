// Package docker discovers rank placement by inspecting running
// containers, adapted from the teacher's service-discovery client into a
// read-only rank-to-location resolver for the topology probe.
package docker

import (
	"context"
	"fmt"
	"sort"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// Client wraps a Docker API client for inspection-only rank discovery. It
// never creates, starts, or removes containers — topology discovery only
// reads placement metadata, so the teacher's container-lifecycle methods
// (which pulled in opencontainers/image-spec) have no home here.
type Client struct {
	cli *client.Client
}

// New creates a new Docker client using the ambient docker environment.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: failed to create client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Close closes the underlying Docker client connection.
func (c *Client) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}

// RankLocationLabel is the label key containers are expected to carry
// identifying their placement, as an iNNrNNcNNsNN-shaped string.
const RankLocationLabel = "laik.location"

// RankLabel is the label key naming a container's logical rank.
const RankLabel = "laik.rank"

// Locations inspects every container carrying the RankLabel label and
// returns their location strings indexed by rank, implementing
// topology.Locations.
type Locations struct {
	byRank map[int]string
	n      int
}

// Len implements topology.Locations.
func (l *Locations) Len() int { return l.n }

// Location implements topology.Locations.
func (l *Locations) Location(i int) string { return l.byRank[i] }

// DiscoverLocations lists containers labeled with RankLabel and
// RankLocationLabel, and builds a Locations view covering every rank seen.
func (c *Client) DiscoverLocations(ctx context.Context, group string) (*Locations, error) {
	f := filters.NewArgs()
	f.Add("label", fmt.Sprintf("laik.group=%s", group))

	containers, err := c.cli.ContainerList(ctx, types.ContainerListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("docker: failed to list containers: %w", err)
	}

	byRank := make(map[int]string)
	for _, ctr := range containers {
		rankStr, ok := ctr.Labels[RankLabel]
		if !ok {
			continue
		}
		loc, ok := ctr.Labels[RankLocationLabel]
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
