package group

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Watchdog enforces spec §5's "An in-flight sync cannot be cancelled; it
// must complete or the whole process exits via panic": it wraps a CM sync
// call and converts any sync failure, or an external abort request
// (SIGINT/SIGTERM arriving while the sync is in flight), into a panic
// rather than a graceful error return.
//
// Grounded on the teacher's pkg/emergency/controller.go: same
// register-callback/signal-channel shape as its graceful emergency stop,
// repurposed here from a signalled stop into a panic-on-abort guard — sync
// has no cancelled-but-recovered outcome at this layer.
type Watchdog struct {
	mu        sync.Mutex
	callbacks []func()
}

// NewWatchdog returns a Watchdog with no abort callbacks registered.
func NewWatchdog() *Watchdog {
	return &Watchdog{}
}

// OnAbort registers a callback run immediately before Guard panics, so
// callers can flush logs or reports before the process exits.
func (w *Watchdog) OnAbort(cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Guard runs fn (normally a CommMatrix.Sync call) to completion. A signal
// arriving while fn is in flight, or fn itself returning a non-nil error,
// triggers every registered abort callback and then panics: per spec §7,
// BackendUnavailable and other sync failures are fatal, not recoverable.
func (w *Watchdog) Guard(fn func() error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case sig := <-sigCh:
		w.abort(fmt.Sprintf("sync aborted by signal: %v", sig))
		return nil
	case err := <-done:
		if err != nil {
			w.abort(fmt.Sprintf("sync failed: %v", err))
		}
		return nil
	}
}

func (w *Watchdog) abort(reason string) {
	w.mu.Lock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	panic(fmt.Sprintf("group: watchdog: %s", reason))
}
