// Package scancursor implements the process-wide cluster-scan cursor
// registry: an opaque-token-indexed map from in-flight scan state to the
// caller that is mid-iteration over it. It exists because a cluster SCAN's
// cursor must cross the foreign-language binding boundary by value-like
// token rather than by native reference, and the registry is the thing on
// this side of that boundary holding the real cursor alive.
package scancursor

import (
	"context"
	"sync"

	"dedicatedpool/internal/logger"
	"dedicatedpool/internal/tracer"
)

// Registry is a single process-wide mapping from opaque token to in-flight
// cluster-scan cursor, guarded by one mutex. Construct with NewRegistry; the
// zero value is not usable, since its map, tracer, and logger are nil.
type Registry struct {
	mu      sync.Mutex
	cursors map[string]any

	tracer tracer.Tracer
	log    *logger.PoolLogger
}

// NewRegistry constructs an empty Registry. A nil tracer defaults to a
// no-op; a nil logger defaults to a fresh PoolLogger.
func NewRegistry(t tracer.Tracer, log *logger.PoolLogger) *Registry {
	if t == nil {
		t = tracer.NewNoOpTracer()
	}
	if log == nil {
		log = logger.NewPoolLogger()
	}
	return &Registry{
		cursors: make(map[string]any),
		tracer:  t,
		log:     log,
	}
}

// Insert stores cursor under a freshly minted 21-character URL-safe token
// and returns the token. Collision with a live token is treated as
// probabilistically impossible, so Insert never checks for one — it simply
// overwrites, which can only ever happen against a token that was never
// handed out.
func (r *Registry) Insert(ctx context.Context, cursor any) string {
	span := r.tracer.StartSpan(ctx, "scancursor.insert")
	defer span.End()

	token := newToken()

	r.mu.Lock()
	r.cursors[token] = cursor
	r.mu.Unlock()

	span.SetField("scancursor.token", token)
	r.log.ScanCursorInserted(token)
	return token
}

// Get returns the cursor stored under token, or ErrInvalidCursor if no such
// token is live. The pool package's ErrInvalidCursor sentinel is reused here
// rather than minting a second one, so callers can errors.Is against a
// single vocabulary regardless of which component raised it.
func (r *Registry) Get(ctx context.Context, token string) (any, error) {
	span := r.tracer.StartSpan(ctx, "scancursor.get")
	defer span.End()

	r.mu.Lock()
	cursor, ok := r.cursors[token]
	r.mu.Unlock()

	if !ok {
		tracer.RecordError(span, ErrInvalidCursor, token)
		return nil, &CursorError{Token: token, Err: ErrInvalidCursor}
	}
	return cursor, nil
}

// Remove deletes the entry for token if present. Removing an absent or
// already-removed token is silent, matching the pool's idempotent-lifecycle
// convention for release-style operations.
func (r *Registry) Remove(ctx context.Context, token string) {
	span := r.tracer.StartSpan(ctx, "scancursor.remove")
	defer span.End()

	r.mu.Lock()
	_, existed := r.cursors[token]
	delete(r.cursors, token)
	r.mu.Unlock()

	if existed {
		r.log.ScanCursorRemoved(token)
	}
}

// InsertBlocking is the synchronous form of Insert.
func (r *Registry) InsertBlocking(cursor any) string {
	return r.Insert(context.Background(), cursor)
}

// GetBlocking is the synchronous form of Get.
func (r *Registry) GetBlocking(token string) (any, error) {
	return r.Get(context.Background(), token)
}

// RemoveBlocking is the synchronous form of Remove.
func (r *Registry) RemoveBlocking(token string) {
	r.Remove(context.Background(), token)
}
