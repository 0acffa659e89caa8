package engine

import (
	"context"
	"sync"
)

// Puller fetches the full server state. Implementations must be safe to
// call from multiple goroutines; overlapping pulls are allowed.
type Puller interface {
	Pull(ctx context.Context) ([]byte, error)
}

// PullerFunc adapts a function to the Puller interface.
type PullerFunc func(ctx context.Context) ([]byte, error)

// Pull calls f.
func (f PullerFunc) Pull(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Launcher starts a pull. The default runs each pull in its own goroutine.
type Launcher func(pull func())

func goLauncher(pull func()) {
	go pull()
}

// DeferredLauncher holds launched pulls until a test releases them, so
// completion order can be controlled.
//
// Thread-safety: DeferredLauncher is safe for concurrent use.
type DeferredLauncher struct {
	mu      sync.Mutex
	pending []func()
}

// Launch queues a pull. Pass it to WithLauncher.
func (l *DeferredLauncher) Launch(pull func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, pull)
}

// Pending returns how many pulls have been launched but not run.
func (l *DeferredLauncher) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Run runs the i-th pending pull (0 is the oldest) and removes it.
// Returns false if there is no such pull.
func (l *DeferredLauncher) Run(i int) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.pending) {
		l.mu.Unlock()
		return false
	}
	pull := l.pending[i]
	l.pending = append(l.pending[:i], l.pending[i+1:]...)
	l.mu.Unlock()

	pull()
	return true
}

// RunAll runs every pending pull oldest first, including pulls launched
// while running.
func (l *DeferredLauncher) RunAll() int {
	n := 0
	for l.Run(0) {
		n++
	}
	return n
}
