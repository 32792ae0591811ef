package main

import (
	"fmt"
	"sync/atomic"

	"dedicatedpool/internal/pool"
)

// fakeConnection stands in for the opaque, cheaply cloneable socket handle a
// real transport/multiplexer would supply — this demo drives the pool
// itself, not a real transport.
type fakeConnection struct {
	node string
	id   int64
}

func (c *fakeConnection) Clone() pool.Connection {
	return &fakeConnection{node: c.node, id: c.id}
}

func (c *fakeConnection) String() string {
	return fmt.Sprintf("conn#%d(%s)", c.id, c.node)
}

// fakeFactory opens a new fakeConnection with a strictly increasing id per
// node, so the demo narration can show a fresh id after a failover or
// health-driven replacement.
type fakeFactory struct {
	node  string
	calls int64
}

func newFakeFactory(node string) *fakeFactory {
	return &fakeFactory{node: node}
}

func (f *fakeFactory) Open() (pool.Connection, error) {
	n := atomic.AddInt64(&f.calls, 1)
	return &fakeConnection{node: f.node, id: n}, nil
}
