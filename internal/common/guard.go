package common

import "sync/atomic"

// RunGuard prevents overlapping runs of a batch job within one process. The
// matching engine itself stays stateless; whichever component triggers a
// batch rematch owns a guard.
type RunGuard struct {
	running atomic.Bool
}

// TryStart claims the guard. It returns false if a run is already in flight.
func (g *RunGuard) TryStart() bool {
	return g.running.CompareAndSwap(false, true)
}

// Done releases the guard.
func (g *RunGuard) Done() {
	g.running.Store(false)
}

// Running reports whether a run is currently in flight.
func (g *RunGuard) Running() bool {
	return g.running.Load()
}
