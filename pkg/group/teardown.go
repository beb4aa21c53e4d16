package group

import (
	"fmt"
	"time"
)

// Teardown runs a LIFO sequence of named cleanup actions and keeps an audit
// log of what ran and whether it succeeded. Grounded on the teacher's
// pkg/core/cleanup/coordinator.go: same audited-sequence shape, repurposed
// from sidecar/namespace cleanup to invalidating Instance-owned handles
// (the arenas and the CM) at Instance.Free.
type Teardown struct {
	actions []teardownAction
	log     []AuditEntry
}

type teardownAction struct {
	name string
	fn   func() error
}

// AuditEntry records one teardown action's outcome.
type AuditEntry struct {
	Timestamp time.Time
	Name      string
	Success   bool
	Error     error
}

// NewTeardown returns an empty teardown coordinator.
func NewTeardown() *Teardown {
	return &Teardown{}
}

// Defer registers a cleanup action under name. Actions run in reverse
// registration order (LIFO), mirroring the dependency order in which
// handles are normally acquired: whatever was set up last is torn down
// first.
func (t *Teardown) Defer(name string, fn func() error) {
	t.actions = append(t.actions, teardownAction{name: name, fn: fn})
}

// Run executes every registered action in LIFO order, recording each
// outcome in the audit log. It continues past individual failures and,
// if any action failed, returns an error wrapping the first failure.
func (t *Teardown) Run() error {
	var firstErr error
	for i := len(t.actions) - 1; i >= 0; i-- {
		a := t.actions[i]
		err := a.fn()
		t.log = append(t.log, AuditEntry{
			Timestamp: timeNow(),
			Name:      a.name,
			Success:   err == nil,
			Error:     err,
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("group: teardown action %q failed: %w", a.name, err)
		}
	}
	t.actions = nil
	if firstErr != nil {
		return firstErr
	}
	return nil
}

// AuditLog returns every recorded teardown outcome in execution order.
func (t *Teardown) AuditLog() []AuditEntry {
	out := make([]AuditEntry, len(t.log))
	copy(out, t.log)
	return out
}

// timeNow is a seam so tests can assert ordering without depending on wall
// clock resolution.
var timeNow = time.Now
