package pool

import "sync/atomic"

// Stats holds cumulative, process-lifetime counters for a Pool. Every field
// is updated with sync/atomic and safe to read concurrently with Snapshot.
type Stats struct {
	ConnectionsOpened          int64 `json:"connections_opened"`
	ConnectionsReused          int64 `json:"connections_reused"`
	ConnectionOpenFailures     int64 `json:"connection_open_failures"`
	ConnectionsMarkedUnhealthy int64 `json:"connections_marked_unhealthy"`
	GetRequestsFailed          int64 `json:"get_requests_failed"`
	FailoversHandled           int64 `json:"failovers_handled"`
	TopologyChangesHandled     int64 `json:"topology_changes_handled"`
}

// Snapshot returns a point-in-time copy of the cumulative counters.
func (s *Stats) Snapshot() Stats {
	return Stats{
		ConnectionsOpened:          atomic.LoadInt64(&s.ConnectionsOpened),
		ConnectionsReused:          atomic.LoadInt64(&s.ConnectionsReused),
		ConnectionOpenFailures:     atomic.LoadInt64(&s.ConnectionOpenFailures),
		ConnectionsMarkedUnhealthy: atomic.LoadInt64(&s.ConnectionsMarkedUnhealthy),
		GetRequestsFailed:          atomic.LoadInt64(&s.GetRequestsFailed),
		FailoversHandled:           atomic.LoadInt64(&s.FailoversHandled),
		TopologyChangesHandled:     atomic.LoadInt64(&s.TopologyChangesHandled),
	}
}

// NodeStats is a live snapshot of a single node's free list depth and
// in-use count, returned by Pool.NodeStats.
type NodeStats struct {
	Node  string `json:"node"`
	Free  int    `json:"free"`
	InUse int    `json:"in_use"`
}

// Stats returns a copy of the pool's cumulative operation counters.
func (p *Pool) Stats() Stats {
	return p.stats.Snapshot()
}

// NodeStats returns a live snapshot of every registered node's free-list
// depth and in-use count, computed directly from pool state rather than
// tracked separately, since the free list itself is the source of truth.
func (p *Pool) NodeStats() []NodeStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]NodeStats, 0, len(p.nodes))
	for node, np := range p.nodes {
		out = append(out, NodeStats{Node: node, Free: len(np.free), InUse: np.inUse})
	}
	return out
}
