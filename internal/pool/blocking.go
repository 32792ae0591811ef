package pool

import "context"

// Blocking wrappers for hosts that cannot suspend: each drives its async
// counterpart to completion against context.Background(). Calling one of
// these from a goroutine that itself must stay responsive to cancellation is
// a misuse — use the ctx-accepting form directly in that case.

// GetConnectionBlocking is the synchronous form of GetConnection.
func (p *Pool) GetConnectionBlocking(handle Handle, node string) (Connection, error) {
	return p.GetConnection(context.Background(), handle, node)
}

// ReleaseDedicatedBlocking is the synchronous form of ReleaseDedicated.
func (p *Pool) ReleaseDedicatedBlocking(handle Handle) {
	p.ReleaseDedicated(context.Background(), handle)
}

// MarkConnectionUnhealthyBlocking is the synchronous form of
// MarkConnectionUnhealthy.
func (p *Pool) MarkConnectionUnhealthyBlocking(handle Handle, node string) {
	p.MarkConnectionUnhealthy(context.Background(), handle, node)
}

// HandleFailoverBlocking is the synchronous form of HandleFailover.
func (p *Pool) HandleFailoverBlocking(oldNode, newNode string) {
	p.HandleFailover(context.Background(), oldNode, newNode)
}

// HandleTopologyChangeBlocking is the synchronous form of
// HandleTopologyChange.
func (p *Pool) HandleTopologyChangeBlocking(activeNodes []string) {
	p.HandleTopologyChange(context.Background(), activeNodes)
}
