// Package reorder implements the reordering controller: it resolves a
// rank remapping from environment variables or a live QAP run, applies it
// to a group, and notifies the backend (spec §3, §4.H, §6).
package reorder

import (
	"fmt"
	"os"

	"github.com/neodyma/laik/pkg/commatrix"
	"github.com/neodyma/laik/pkg/remap"
	"github.com/neodyma/laik/pkg/topology"
)

// Environment variable names consumed by the controller (spec §6).
const (
	EnvReordering  = "LAIK_REORDERING"
	EnvReorderFile = "LAIK_REORDER_FILE"
	EnvReorderLive = "LAIK_REORDER_LIVE"
)

// offset is the sentinel shift used by the literal map and binary file
// encodings: stored value 0 means "unmapped", otherwise physical+offset.
const offset = 1

// Backend is the narrow hook notified once a remapping has been applied
// (spec §6 "updateGroup(group) -> ()").
type Backend interface {
	UpdateGroup(mapping []int) error
}

// Env abstracts environment-variable lookup so callers can inject a fake
// environment in tests without mutating process-global state.
type Env interface {
	Lookup(key string) (string, bool)
}

// OSEnv reads from the real process environment.
type OSEnv struct{}

// Lookup implements Env.
func (OSEnv) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// Resolve determines the reordering map to apply for a group of size n,
// honoring the documented precedence LIVE > REORDERING > FILE (spec §4.H).
// A nil result means no reordering applies (identity).
//
// Resolve never returns an error for a malformed FILE or REORDERING value:
// per spec §7 "BadConfig ... ignored at runtime lookups that have a safe
// default (identity map)", parse failures are logged-equivalent no-ops
// that fall through to identity.
func Resolve(env Env, n int, cm *commatrix.CommMatrix, top *topology.Topology) []int {
	if _, ok := env.Lookup(EnvReorderLive); ok {
		pi, ok := remap.Remap(cm, top)
		if !ok {
			return nil
		}
		return invertToLogicalMap(pi)
	}

	literalStr, hasLiteral := env.Lookup(EnvReordering)
	filePath, hasFile := env.Lookup(EnvReorderFile)

	var mapping []int
	if hasLiteral {
		m, err := ParseLiteral(literalStr, n)
		if err != nil {
			return nil
		}
		mapping = m
	} else if hasFile {
		m, err := ReadFile(filePath)
		if err != nil {
			return nil
		}
		mapping = m
	} else {
		return nil
	}

	if hasLiteral && hasFile {
		// Write-back happens at the call site for rank 0 (WriteBackIfRankZero).
	}

	return mapping
}

// invertToLogicalMap converts a slot->process permutation (as produced by
// remap.Remap) into the sentinel-encoded logical->physical map Apply
// expects: result[process] = slot+offset.
func invertToLogicalMap(pi []int) []int {
	out := make([]int, len(pi))
	for slot, proc := range pi {
		out[proc] = slot + offset
	}
	return out
}

// ParseLiteral parses a LAIK_REORDERING-style string "k1.v1,k2.v2,..." into
// a sentinel-encoded map of length n: entries not named in s stay 0
// (unmapped); named entries become v+offset (spec §4.H, §6).
func ParseLiteral(s string, n int) ([]int, error) {
	out := make([]int, n)
	if s == "" {
		return out, nil
	}

	pairs := splitNonEmpty(s, ',')
	for _, p := range pairs {
		kv := splitNonEmpty(p, '.')
		if len(kv) != 2 {
			return nil, fmt.Errorf("reorder: malformed pair %q in %q", p, s)
		}
		var k, v int
		if _, err := fmt.Sscanf(kv[0], "%d", &k); err != nil {
			return nil, fmt.Errorf("reorder: bad key %q: %w", kv[0], err)
		}
		if _, err := fmt.Sscanf(kv[1], "%d", &v); err != nil {
			return nil, fmt.Errorf("reorder: bad value %q: %w", kv[1], err)
		}
		if k < 0 || k >= n {
			continue
		}
		out[k] = v + offset
	}
	return out, nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Apply installs mapping onto a world group of size n, notifying the
// backend and returning the rank each original rank now occupies. Rank r
// keeps its original id when mapping[r] is the unmapped sentinel (0);
// otherwise its new id is mapping[r]-offset (spec §4.H "On application of
// a non-null map, clone the world group, set each process's myid to the
// mapped value... Unmapped entries remain at the original rank").
func Apply(backend Backend, mapping []int) ([]int, error) {
	n := len(mapping)
	resolved := make([]int, n)
	for r := 0; r < n; r++ {
		if mapping[r] == 0 {
			resolved[r] = r
			continue
		}
		resolved[r] = mapping[r] - offset
	}

	if backend != nil {
		if err := backend.UpdateGroup(resolved); err != nil {
			return nil, fmt.Errorf("reorder: backend rejected updated group: %w", err)
		}
	}
	return resolved, nil
}

// WriteBackIfRankZero persists mapping to path when both LAIK_REORDERING
// and LAIK_REORDER_FILE were set and the caller is rank 0 (spec §4.H
// "When both literal and file are set and the caller is rank 0, write the
// literal map to the file").
func WriteBackIfRankZero(env Env, rank int, mapping []int) error {
	if rank != 0 {
		return nil
	}
	_, hasLiteral := env.Lookup(EnvReordering)
	filePath, hasFile := env.Lookup(EnvReorderFile)
	if !hasLiteral || !hasFile {
		return nil
	}
	return WriteFile(filePath, mapping)
}
