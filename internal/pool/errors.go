package pool

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pool's four error kinds. Each maps one-to-one to a
// single distinguishable condition — callers should use errors.Is against
// these, never string matching.
var (
	// ErrInvalidHandle is returned when a handle was never minted by
	// AcquireDedicated, or was already released.
	ErrInvalidHandle = errors.New("pool: invalid handle")

	// ErrUnknownNode is returned when a node id has no registered client
	// factory — the router is out of sync with the registry.
	ErrUnknownNode = errors.New("pool: unknown node")

	// ErrConnectionOpenFailed is returned when the node's factory errored
	// while opening a fresh connection.
	ErrConnectionOpenFailed = errors.New("pool: connection open failed")

	// ErrInvalidCursor is returned by the scan cursor registry for an
	// absent or already-removed token. Kept here too since callers import
	// the pool package for the shared error-kind vocabulary.
	ErrInvalidCursor = errors.New("pool: invalid cursor")
)

// Error wraps one of the sentinels above with the handle/node context that
// produced it.
type Error struct {
	Op     string
	Handle Handle
	Node   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Node != "" && e.Handle != 0:
		return fmt.Sprintf("pool: %s(handle=%d, node=%q): %v", e.Op, e.Handle, e.Node, e.Err)
	case e.Node != "":
		return fmt.Sprintf("pool: %s(node=%q): %v", e.Op, e.Node, e.Err)
	default:
		return fmt.Sprintf("pool: %s(handle=%d): %v", e.Op, e.Handle, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
