package logger

import (
	"time"
)

// PoolLogger provides pool-specific logging utilities with structured context.
type PoolLogger struct {
	*Logger
}

// NewPoolLogger creates a logger specialized for connection pool operations.
func NewPoolLogger() *PoolLogger {
	base := New()
	base.SetPrefix("POOL")
	return &PoolLogger{Logger: base}
}

// NodeRegistered logs a node being registered or re-registered with the pool.
func (p *PoolLogger) NodeRegistered(node string) {
	p.WithFields(map[string]any{
		"node": node,
	}).Info("Node registered")
}

// ConnectionOpened logs a fresh connection being opened against a node.
func (p *PoolLogger) ConnectionOpened(node string, handle uint64, duration time.Duration) {
	p.WithFields(map[string]any{
		"node":     node,
		"handle":   handle,
		"duration": duration.String(),
	}).Debug("Connection opened")
}

// ConnectionOpenFailed logs a factory failure while opening a connection.
func (p *PoolLogger) ConnectionOpenFailed(node string, handle uint64, err error) {
	p.WithFields(map[string]any{
		"node":   node,
		"handle": handle,
	}).WithError(err).Error("Connection open failed")
}

// ConnectionReused logs an existing healthy dedicated connection being reused.
func (p *PoolLogger) ConnectionReused(node string, handle uint64) {
	p.WithFields(map[string]any{
		"node":   node,
		"handle": handle,
	}).Debug("Dedicated connection reused")
}

// ConnectionMarkedUnhealthy logs a connection being flagged unhealthy.
func (p *PoolLogger) ConnectionMarkedUnhealthy(node string, handle uint64) {
	p.WithFields(map[string]any{
		"node":   node,
		"handle": handle,
	}).Warn("Connection marked unhealthy")
}

// DedicatedReleased logs a handle releasing its full dedicated set.
func (p *PoolLogger) DedicatedReleased(handle uint64, nodeCount int) {
	p.WithFields(map[string]any{
		"handle":     handle,
		"node_count": nodeCount,
	}).Debug("Dedicated set released")
}

// FailoverHandled logs a reaction to a cluster failover event.
func (p *PoolLogger) FailoverHandled(oldNode string, newNode string) {
	p.WithFields(map[string]any{
		"old_node": oldNode,
		"new_node": newNode,
	}).Info("Failover handled")
}

// TopologyChanged logs a reconciliation against a new set of active nodes.
func (p *PoolLogger) TopologyChanged(activeCount int, removedNodes []string) {
	fields := map[string]any{
		"active_count": activeCount,
	}
	if len(removedNodes) > 0 {
		fields["removed_nodes"] = removedNodes
	}
	p.WithFields(fields).Info("Topology change reconciled")
}

// ScanCursorInserted logs a new scan cursor being registered.
func (p *PoolLogger) ScanCursorInserted(token string) {
	p.WithFields(map[string]any{
		"cursor": token,
	}).Debug("Scan cursor registered")
}

// ScanCursorRemoved logs a scan cursor being dropped.
func (p *PoolLogger) ScanCursorRemoved(token string) {
	p.WithFields(map[string]any{
		"cursor": token,
	}).Debug("Scan cursor removed")
}

// ScriptCached logs a script entering or incrementing in the cache.
func (p *PoolLogger) ScriptCached(hash string, refCount int) {
	p.WithFields(map[string]any{
		"hash":      hash,
		"ref_count": refCount,
	}).Debug("Script cache entry updated")
}

// ScriptEvicted logs a script being dropped from the cache at zero refcount.
func (p *PoolLogger) ScriptEvicted(hash string) {
	p.WithFields(map[string]any{
		"hash": hash,
	}).Debug("Script evicted from cache")
}

// Package-level pool convenience functions for callers that don't hold a
// *PoolLogger.

// LogPoolGet logs a GetConnection call using the default logger.
func LogPoolGet(node string, handle uint64, status string, duration time.Duration) {
	fields := map[string]any{
		"node":   node,
		"handle": handle,
		"status": status,
	}
	if duration > 0 {
		fields["duration"] = duration.String()
	}

	level := InfoLevel
	if status == "failed" {
		level = ErrorLevel
	}

	WithFields(fields).log(level, "Pool get %s", status)
}

// LogPoolError logs a pool error with operation context using the default logger.
func LogPoolError(op string, node string, handle uint64, err error) {
	WithFields(map[string]any{
		"op":     op,
		"node":   node,
		"handle": handle,
	}).WithError(err).Error("Pool operation %s failed", op)
}
