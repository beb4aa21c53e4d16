// Package imbalance detects load-imbalanced traffic patterns in a
// CommMatrix, flagging the rank whose outgoing row total exceeds a
// configured threshold relative to the group's mean row total.
package imbalance

import (
	"fmt"

	"github.com/neodyma/laik/pkg/commatrix"
)

// Criterion names what ratio a row's outgoing traffic is measured
// against before it is flagged.
type Criterion struct {
	Name      string
	Threshold float64 // row total must not exceed Threshold * mean row total
}

// Result is the evaluation outcome of one Criterion against a matrix.
type Result struct {
	Criterion   Criterion
	Passed      bool
	MeanTotal   float64
	WorstRank   int
	WorstTotal  uint64
	Message     string
}

// Detector evaluates imbalance criteria against a CommMatrix, mirroring
// the teacher's threshold-evaluating failure detector but operating on
// matrix rows instead of Prometheus queries.
type Detector struct {
	results map[string]*Result
}

// New constructs an empty Detector.
func New() *Detector {
	return &Detector{results: make(map[string]*Result)}
}

// Evaluate checks a single criterion against cm's current state.
func (d *Detector) Evaluate(cm *commatrix.CommMatrix, c Criterion) (*Result, error) {
	n := cm.N()
	if n == 0 {
		return nil, fmt.Errorf("imbalance: empty matrix")
	}

	totals := make([]uint64, n)
	var sum uint64
	for a := 0; a < n; a++ {
		var rowTotal uint64
		for b := 0; b < n; b++ {
			if a == b {
				continue
			}
			rowTotal += cm.At(a, b)
		}
		totals[a] = rowTotal
		sum += rowTotal
	}
	mean := float64(sum) / float64(n)

	worstRank, worstTotal := 0, uint64(0)
	for a, t := range totals {
		if t > worstTotal {
			worstRank, worstTotal = a, t
		}
	}

	result := &Result{Criterion: c, MeanTotal: mean, WorstRank: worstRank, WorstTotal: worstTotal}
	if mean == 0 {
		result.Passed = true
		result.Message = "no traffic recorded"
	} else if float64(worstTotal) <= c.Threshold*mean {
		result.Passed = true
		result.Message = fmt.Sprintf("rank %d total %d within %.2fx mean %.2f", worstRank, worstTotal, c.Threshold, mean)
	} else {
		result.Passed = false
		result.Message = fmt.Sprintf("rank %d total %d exceeds %.2fx mean %.2f", worstRank, worstTotal, c.Threshold, mean)
	}

	d.results[c.Name] = result
	return result, nil
}

// Results returns every criterion result evaluated so far.
func (d *Detector) Results() map[string]*Result {
	out := make(map[string]*Result, len(d.results))
	for k, v := range d.results {
		cp := *v
		out[k] = &cp
	}
	return out
}
