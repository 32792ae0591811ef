package pool

import "sync/atomic"

// Handle identifies a dedicated set of per-node connections owned by a single
// logical session (a WATCH/transaction sequence, a blocking read, a
// subscription). It carries no reference to pool state and is cheap to copy,
// hash, and compare — equivalent handles always came from the same
// AcquireDedicated call.
type Handle uint64

// handleCounter mints process-unique handles. A plain atomic counter keeps
// this small value type free of pointer indirection.
var handleCounter uint64

// nextHandle returns the next handle in the process-wide sequence. Handles
// are never reused within a process lifetime.
func nextHandle() Handle {
	return Handle(atomic.AddUint64(&handleCounter, 1))
}
