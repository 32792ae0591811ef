// Package scriptcache implements the process-wide, content-addressed,
// reference-counted store of server-side script bodies. Scripts are keyed by
// the lowercase hex SHA-1 digest of their body — chosen for protocol
// compatibility with the server's own script-identification scheme, not for
// any security property.
package scriptcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"dedicatedpool/internal/logger"
	"dedicatedpool/internal/tracer"
)

// entry pairs an immutable script body with its reference count. The body
// is never mutated after insertion, so readers of Get's returned slice
// never race a writer of the same entry — only the refcount itself is
// guarded by Cache.mu.
type entry struct {
	body     []byte
	refCount int
}

// Cache is a single process-wide content-addressed script store, guarded by
// one mutex. Construct with NewCache; the zero value is not usable, since
// its map, tracer, and logger are nil.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	tracer tracer.Tracer
	log    *logger.PoolLogger
}

// NewCache constructs an empty Cache. A nil tracer defaults to a no-op; a
// nil logger defaults to a fresh PoolLogger.
func NewCache(t tracer.Tracer, log *logger.PoolLogger) *Cache {
	if t == nil {
		t = tracer.NewNoOpTracer()
	}
	if log == nil {
		log = logger.NewPoolLogger()
	}
	return &Cache{
		entries: make(map[string]*entry),
		tracer:  t,
		log:     log,
	}
}

// Digest returns the lowercase hex SHA-1 digest of body, the same key Add
// installs the body under. Exposed so callers can compute a digest without
// adding the script, e.g. to probe Get before deciding to Add.
func Digest(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}

// Add computes body's SHA-1 digest, increments its reference count if an
// entry already exists, or inserts a fresh entry at ref count 1 otherwise,
// and returns the digest. The stored body is never the caller's slice
// verbatim — it is copied once on first insertion — so later mutation of
// the caller's buffer can never corrupt a shared entry.
func (c *Cache) Add(ctx context.Context, body []byte) string {
	span := c.tracer.StartSpan(ctx, "scriptcache.add")
	defer span.End()

	digest := Digest(body)

	c.mu.Lock()
	e, ok := c.entries[digest]
	if ok {
		e.refCount++
	} else {
		stored := make([]byte, len(body))
		copy(stored, body)
		e = &entry{body: stored, refCount: 1}
		c.entries[digest] = e
	}
	refCount := e.refCount
	c.mu.Unlock()

	span.SetField("scriptcache.digest", digest)
	c.log.ScriptCached(digest, refCount)
	return digest
}

// Get returns the body stored under digest, or (nil, false) if absent.
// The returned slice is shared and must not be mutated by the caller.
func (c *Cache) Get(ctx context.Context, digest string) ([]byte, bool) {
	span := c.tracer.StartSpan(ctx, "scriptcache.get")
	defer span.End()

	c.mu.Lock()
	e, ok := c.entries[digest]
	c.mu.Unlock()

	if !ok {
		return nil, false
	}
	return e.body, true
}

// Remove decrements digest's reference count and deletes the entry once it
// reaches zero. Removing an absent digest, or one already at zero refcount,
// is silent rather than treated as a bug signal.
func (c *Cache) Remove(ctx context.Context, digest string) {
	span := c.tracer.StartSpan(ctx, "scriptcache.remove")
	defer span.End()

	c.mu.Lock()
	e, ok := c.entries[digest]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.refCount--
	evicted := e.refCount <= 0
	if evicted {
		delete(c.entries, digest)
	}
	c.mu.Unlock()

	span.SetField("scriptcache.digest", digest)
	if evicted {
		c.log.ScriptEvicted(digest)
	}
}

// AddBlocking is the synchronous form of Add.
func (c *Cache) AddBlocking(body []byte) string {
	return c.Add(context.Background(), body)
}

// GetBlocking is the synchronous form of Get.
func (c *Cache) GetBlocking(digest string) ([]byte, bool) {
	return c.Get(context.Background(), digest)
}

// RemoveBlocking is the synchronous form of Remove.
func (c *Cache) RemoveBlocking(digest string) {
	c.Remove(context.Background(), digest)
}

