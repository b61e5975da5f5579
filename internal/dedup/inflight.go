package dedup

import "sync/atomic"

// InFlight marks a delivery attempt in progress for one scope.
//
// Usage:
//
//	if !f.TryAcquire() {
//		return
//	}
//	defer f.Release()
//
// A hung request keeps the flag set; there is no timeout.
type InFlight struct {
	busy atomic.Bool
}

// TryAcquire sets the flag and returns true if it was clear.
func (f *InFlight) TryAcquire() bool {
	return f.busy.CompareAndSwap(false, true)
}

// Release clears the flag.
func (f *InFlight) Release() {
	f.busy.Store(false)
}

// Busy reports whether a delivery is in progress.
func (f *InFlight) Busy() bool {
	return f.busy.Load()
}
