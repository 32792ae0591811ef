// Package pool implements a dedicated connection pool for a clustered
// key-value client: per-node free lists of idle connections, a table of
// dedicated per-handle connection sets for callers that need pinned,
// ordered access to a node (WATCH/transaction sequences, blocking reads,
// subscriptions), and reactive hooks for failover and topology change.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"dedicatedpool/internal/logger"
	"dedicatedpool/internal/tracer"
)

// slowOpenWarnThreshold bounds a diagnostic watchdog span around each
// factory.Open call, not the call itself — the pool imposes no timeouts on
// callers (see Config), it only ends the open span with an error for tracing
// if the open takes longer than this. errSlowConnectionOpen never reaches a
// caller; it only labels the open span so a slow-but-successful open is
// distinguishable from a fast one in traces.
const slowOpenWarnThreshold = 5 * time.Second

var errSlowConnectionOpen = errors.New("pool: factory open exceeded diagnostic threshold")

// Pool is the top-level coordinator: it owns the node-client registry, the
// per-node free pools, and the dedicated-set table. The zero value is not
// usable; construct with New.
type Pool struct {
	mu sync.RWMutex

	// factories holds one connection opener per registered node.
	factories map[string]Factory

	// nodes holds the free list and in-use count for each registered node.
	nodes map[string]*nodePool

	// dedicated maps a handle to the set of managed connections it has
	// acquired, keyed by node. A handle only appears here between
	// AcquireDedicated and ReleaseDedicated.
	dedicated map[Handle]map[string]*managedConnection

	tracer tracer.PoolTracer
	log    *logger.PoolLogger
	stats  Stats
}

// New constructs an empty Pool. Nodes must be registered with RegisterNode
// before any handle can acquire a connection against them.
func New(cfg Config) *Pool {
	t := cfg.Tracer
	if t == nil {
		t = tracer.NewPoolTracer(tracer.NewNoOpTracer())
	}
	l := cfg.Logger
	if l == nil {
		l = logger.NewPoolLogger()
	}
	return &Pool{
		factories: make(map[string]Factory),
		nodes:     make(map[string]*nodePool),
		dedicated: make(map[Handle]map[string]*managedConnection),
		tracer:    t,
		log:       l,
	}
}

// RegisterNode installs or replaces the factory used to open connections
// against node. Calling it again for a node already registered only swaps
// the factory for future opens — existing free-list and dedicated entries
// for that node are left untouched.
func (p *Pool) RegisterNode(node string, factory Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.factories[node] = factory
	if _, ok := p.nodes[node]; !ok {
		p.nodes[node] = newNodePool()
	}
	p.log.NodeRegistered(node)
}

// AcquireDedicated mints a new handle for a caller that needs a pinned,
// ordered connection set. The handle owns no connections until
// GetConnection is called against it.
func (p *Pool) AcquireDedicated() Handle {
	h := nextHandle()

	p.mu.Lock()
	p.dedicated[h] = make(map[string]*managedConnection)
	p.mu.Unlock()

	return h
}

// GetConnection returns a clone of the connection the handle holds open
// against node, opening one if needed. This is the core algorithm of the
// component: an existing healthy dedicated entry is reused as-is; failing
// that, a healthy connection is popped off the node's free list, discarding
// any unhealthy entries found along the way; failing that, the node's
// factory opens a fresh one. The resulting connection is installed into the
// handle's dedicated set before its clone is returned, so the handle keeps
// using the same underlying connection on every subsequent call.
//
// If ctx is cancelled before the connection is installed into the
// dedicated-set table, the result is discarded — a freshly opened connection
// is released back to node's free list rather than handed to the caller or
// left orphaned in the handle's set. A connection already installed before
// cancellation is unaffected; the caller must still release it normally.
func (p *Pool) GetConnection(ctx context.Context, handle Handle, node string) (Connection, error) {
	span := p.tracer.TraceGet(ctx, node)
	defer span.End()

	// A context that can never fire (context.Background(), as every
	// *Blocking wrapper passes) doesn't need the goroutine/select dance
	// below — go straight to the locked path and skip the overhead.
	if ctx.Done() == nil {
		mc, err := p.getConnectionLocked(ctx, handle, node)
		if err != nil {
			span.EndWithError(err)
			return nil, err
		}
		return mc.conn.Clone(), nil
	}

	type result struct {
		mc  *managedConnection
		err error
	}
	done := make(chan result, 1)

	go func() {
		mc, err := p.getConnectionLocked(ctx, handle, node)
		done <- result{mc, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			span.EndWithError(r.err)
			return nil, r.err
		}
		return r.mc.conn.Clone(), nil
	case <-ctx.Done():
		span.EndWithError(ctx.Err())
		// getConnectionLocked checks ctx.Err() only once, right before
		// installing — it can still win that race and install a connection
		// after we've already decided to report ctx.Err() to the caller.
		// The caller will never know to release (handle, node), so reclaim
		// it ourselves once the goroutine finishes instead of leaking it.
		go func() {
			if r := <-done; r.err == nil && r.mc != nil {
				p.reclaimOrphaned(handle, node, r.mc)
			}
		}()
		return nil, ctx.Err()
	}
}

// reclaimOrphaned undoes an install that raced a cancellation GetConnection
// already reported to its caller: it removes (handle, node) from the
// dedicated set and returns the connection to node's free list, same as a
// normal release. mc must be the exact connection the orphaned call
// installed — set[node] is checked against it by identity before anything is
// touched, since a later, unrelated GetConnection call may have since
// installed its own (legitimate) connection under the same (handle, node)
// key, and that one must not be evicted out from under its caller.
func (p *Pool) reclaimOrphaned(handle Handle, node string, mc *managedConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.dedicated[handle]
	if !ok {
		return
	}
	if set[node] != mc {
		return
	}
	delete(set, node)
	if np, ok := p.nodes[node]; ok {
		np.release(mc)
	}
}

func (p *Pool) getConnectionLocked(ctx context.Context, handle Handle, node string) (*managedConnection, error) {
	p.mu.Lock()

	if _, ok := p.dedicated[handle]; !ok {
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
		return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrInvalidHandle}
	}

	if mc, ok := p.dedicated[handle][node]; ok && mc.healthy() {
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.ConnectionsReused, 1)
		p.log.ConnectionReused(node, uint64(handle))
		return mc, nil
	}

	np, ok := p.nodes[node]
	if !ok {
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
		return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrUnknownNode}
	}

	mc := np.popHealthy()
	opened := false
	var openElapsed time.Duration
	if mc != nil {
		atomic.AddInt64(&p.stats.ConnectionsReused, 1)
		p.log.ConnectionReused(node, uint64(handle))
	} else {
		factory, ok := p.factories[node]
		if !ok {
			p.mu.Unlock()
			atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
			return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrUnknownNode}
		}
		// Open happens with the lock released: a slow or unreachable node
		// must not stall every other handle's GetConnection, on this node
		// or any other. State touched above (dedicated set membership, the
		// node's registration) is re-validated below once the lock is
		// reacquired, since any of it may have changed while we were open.
		p.mu.Unlock()

		openSpan, _, cancelOpen := tracer.TraceWithTimeout(ctx, p.tracer, "pool.connection_open", slowOpenWarnThreshold)
		openStart := time.Now()
		conn, err := factory.Open()
		elapsed := time.Since(openStart)
		// Cancel before inspecting elapsed so the watchdog goroutine sees
		// context.Canceled rather than racing to set StatusTimeout on a span
		// we're about to end ourselves; for a genuinely slow open we set the
		// status explicitly below instead of trusting that race.
		cancelOpen()
		switch {
		case err != nil:
			openSpan.EndWithError(err)
		case elapsed > slowOpenWarnThreshold:
			openSpan.SetField("slow_open", elapsed.String())
			openSpan.EndWithError(errSlowConnectionOpen)
		default:
			openSpan.End()
		}
		if err != nil {
			atomic.AddInt64(&p.stats.ConnectionOpenFailures, 1)
			atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
			p.log.ConnectionOpenFailed(node, uint64(handle), err)
			return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrConnectionOpenFailed}
		}
		mc = newManagedConnection(conn, node)
		opened = true
		openElapsed = elapsed

		p.mu.Lock()
	}

	// Re-validate: ReleaseDedicated, HandleFailover, or HandleTopologyChange
	// may have run while the lock was released for the open above.
	set, ok := p.dedicated[handle]
	if !ok {
		p.returnUnusedLocked(node, mc)
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
		return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrInvalidHandle}
	}

	if existing, ok := set[node]; ok && existing.healthy() {
		// Another concurrent call for the same (handle, node) pair already
		// installed a healthy connection while we were unlocked opening
		// ours. Use theirs, return ours to circulation instead of
		// clobbering the installed entry.
		p.returnUnusedLocked(node, mc)
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.ConnectionsReused, 1)
		p.log.ConnectionReused(node, uint64(handle))
		return existing, nil
	}

	if ctx.Err() != nil {
		// The caller gave up while we were popping/opening, before inUse
		// was ever incremented for mc below.
		p.returnUnusedLocked(node, mc)
		p.mu.Unlock()
		return nil, ctx.Err()
	}

	np, ok = p.nodes[node]
	if !ok {
		// A topology change removed node entirely while the lock was
		// released for the open above. mc has nowhere to go; report the
		// node as gone rather than installing a dedicated entry for a node
		// the pool no longer tracks.
		p.mu.Unlock()
		atomic.AddInt64(&p.stats.GetRequestsFailed, 1)
		return nil, &Error{Op: "GetConnection", Handle: handle, Node: node, Err: ErrUnknownNode}
	}

	if opened {
		atomic.AddInt64(&p.stats.ConnectionsOpened, 1)
		p.log.ConnectionOpened(node, uint64(handle), openElapsed)
	}

	// inUse is informational only; replacing an already-installed unhealthy
	// entry bumps it again without a matching decrement for the predecessor,
	// so it can over-count in-place replacements. Not a leak: the free list
	// remains the source of truth for what is actually available.
	np.inUse++
	set[node] = mc
	p.mu.Unlock()
	return mc, nil
}

// returnUnusedLocked gives an unused managed connection back to node's
// current free list — callers must already hold p.mu. Neither a connection
// just popped off a free list nor one just opened has had any nodePool's
// inUse incremented for it yet, so push suffices in both cases; release()
// (which also decrements inUse) would be wrong here. If node was removed
// from the topology while the lock was released, the connection has
// nowhere to go and is simply dropped; its resources are reclaimed when its
// last reference goes away.
func (p *Pool) returnUnusedLocked(node string, mc *managedConnection) {
	if np, ok := p.nodes[node]; ok {
		np.push(mc)
	}
}

// ReleaseDedicated returns every connection a handle holds back to its
// node's free list (healthy ones only) and forgets the handle. Calling it
// with an unknown handle is a no-op.
func (p *Pool) ReleaseDedicated(ctx context.Context, handle Handle) {
	span := p.tracer.TraceRelease(ctx, "")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.dedicated[handle]
	if !ok {
		return
	}
	delete(p.dedicated, handle)

	for node, mc := range set {
		if np, ok := p.nodes[node]; ok {
			np.release(mc)
		}
	}
	p.log.DedicatedReleased(uint64(handle), len(set))
}

// MarkConnectionUnhealthy flips the one-way health flag on the connection a
// handle holds open against node, if any. The next GetConnection call for
// that (handle, node) pair will discard it and acquire a replacement.
func (p *Pool) MarkConnectionUnhealthy(ctx context.Context, handle Handle, node string) {
	span := p.tracer.TraceHealthCheck(ctx)
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	if set, ok := p.dedicated[handle]; ok {
		if mc, ok := set[node]; ok {
			mc.markUnhealthy()
			atomic.AddInt64(&p.stats.ConnectionsMarkedUnhealthy, 1)
			p.log.ConnectionMarkedUnhealthy(node, uint64(handle))
		}
	}
}

// HandleFailover reacts to a cluster failover: every handle's connection
// against oldNode is marked unhealthy (so the next GetConnection against
// newNode opens a fresh one there instead), and oldNode's free list is
// dropped outright rather than drained one entry at a time. oldNode's
// client registration is left in place — only its free list is discarded
// — so a handle that still addresses oldNode directly (the router may not
// have remapped every in-flight command yet) gets a fresh connection via
// the factory rather than ErrUnknownNode; a node actually leaving the
// cluster is reported through HandleTopologyChange, not HandleFailover.
func (p *Pool) HandleFailover(ctx context.Context, oldNode, newNode string) {
	span := p.tracer.TraceCleanup(ctx)
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	var total, healthy int
	for _, set := range p.dedicated {
		if mc, ok := set[oldNode]; ok {
			total++
			if mc.healthy() {
				healthy++
			}
			mc.markUnhealthy()
		}
	}

	if np, ok := p.nodes[oldNode]; ok {
		for _, mc := range np.free {
			total++
			if mc.healthy() {
				healthy++
			}
		}
		// Drop only the free list, not the whole nodePool: oldNode's inUse
		// count reflects connections still checked out to handles, which a
		// wholesale p.nodes[oldNode] = newNodePool() would silently reset to
		// zero even though those connections haven't been released yet. The
		// free-list entries are discarded outright rather than marked
		// unhealthy first, since dropFreeList makes them unreachable anyway.
		np.dropFreeList()
	} else {
		p.nodes[oldNode] = newNodePool()
	}
	if _, ok := p.nodes[newNode]; !ok {
		p.nodes[newNode] = newNodePool()
	}

	// total/healthy cover only the connections this failover touched
	// (oldNode's dedicated entries and free list), not the whole pool.
	tracer.RecordPoolHealth(span, total, healthy, total-healthy)

	atomic.AddInt64(&p.stats.FailoversHandled, 1)
	p.log.FailoverHandled(oldNode, newNode)
}

// HandleTopologyChange reconciles the pool with a new set of active nodes.
// Dedicated entries for nodes no longer active are marked unhealthy and
// dropped from their handle's set; free lists and factories for inactive
// nodes are removed entirely. Nodes present in activeNodes that the pool
// has never seen are left unregistered — RegisterNode must still be called
// for them before any handle can acquire a connection there.
func (p *Pool) HandleTopologyChange(ctx context.Context, activeNodes []string) {
	span := p.tracer.TraceCleanup(ctx)
	defer span.End()

	active := make(map[string]struct{}, len(activeNodes))
	for _, n := range activeNodes {
		active[n] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var total, healthy int
	for _, set := range p.dedicated {
		for node, mc := range set {
			if _, ok := active[node]; !ok {
				total++
				if mc.healthy() {
					healthy++
				}
				mc.markUnhealthy()
				delete(set, node)
			}
		}
	}

	var removed []string
	for node, np := range p.nodes {
		if _, ok := active[node]; !ok {
			removed = append(removed, node)
			for _, mc := range np.free {
				total++
				if mc.healthy() {
					healthy++
				}
			}
			delete(p.nodes, node)
			delete(p.factories, node)
		}
	}

	// total/healthy cover only the connections tied to nodes removed in
	// this reconciliation, not the whole pool.
	tracer.RecordPoolHealth(span, total, healthy, total-healthy)

	atomic.AddInt64(&p.stats.TopologyChangesHandled, 1)
	p.log.TopologyChanged(len(activeNodes), removed)
}
