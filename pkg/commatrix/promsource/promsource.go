// Package promsource warm-starts a CommMatrix from historical pairwise
// traffic exported to Prometheus by a previous run, instead of beginning a
// session with an all-zero matrix.
package promsource

import (
	"context"
	"fmt"
	"time"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/monitoring/prometheus"
)

// Config controls how historical traffic is located and weighted.
type Config struct {
	Client  *prometheus.Client
	Metric  string // e.g. "laik_pairwise_bytes_total"
	Window  time.Duration
	Labels  map[string]string // extra label selectors appended to the query
}

// Source queries Prometheus for a rank-pair traffic metric and folds the
// most recent sample per pair into a CommMatrix, grounded on the teacher's
// instant/range query client.
type Source struct {
	cfg Config
}

// New constructs a Source over the given configuration.
func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

// Warm adds the latest observed byte count for every (from,to) rank pair
// the query reports onto cm's (from,to) cell, so on a freshly allocated
// matrix the cell equals that count; unreported pairs keep their prior
// value.
func (s *Source) Warm(ctx context.Context, cm *commatrix.CommMatrix) error {
	if s.cfg.Client == nil {
		return fmt.Errorf("promsource: no prometheus client configured")
	}
	query := s.buildQuery()

	results, err := s.cfg.Client.QueryLatest(ctx, query)
	if err != nil {
		return fmt.Errorf("promsource: query failed: %w", err)
	}

	for _, r := range results {
		from, to, ok := pairFromLabels(r.Labels)
		if !ok {
			continue
		}
		if from < 0 || from >= cm.N() || to < 0 || to >= cm.N() {
			continue
		}
		if r.Value < 0 {
			continue
		}
		cm.Update(from, to, uint64(r.Value))
	}
	return nil
}

func (s *Source) buildQuery() string {
	q := s.cfg.Metric
	if len(s.cfg.Labels) == 0 {
		return q
	}
	sel := "{"
	first := true
	for k, v := range s.cfg.Labels {
		if !first {
			sel += ","
		}
		sel += fmt.Sprintf("%s=%q", k, v)
		first = false
	}
	sel += "}"
	return q + sel
}

func pairFromLabels(labels map[string]string) (from, to int, ok bool) {
	fs, okFrom := labels["from_rank"]
	ts, okTo := labels["to_rank"]
	if !okFrom || !okTo {
		return 0, 0, false
	}
	f, err1 := parseInt(fs)
	t, err2 := parseInt(ts)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return f, t, true
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
