package pool

import (
	"dedicatedpool/internal/logger"
	"dedicatedpool/internal/tracer"
)

// Config carries the dependency-injection knobs New accepts. The pool
// imposes no timeouts, no max size, and no eviction policy beyond
// unconditional LIFO reuse, so there are no further tunables to carry. A
// zero-value Config is valid — New falls back to a no-op tracer and a fresh
// PoolLogger.
type Config struct {
	// Tracer receives spans for every pool operation. Defaults to a
	// no-op tracer when nil.
	Tracer tracer.PoolTracer

	// Logger receives structured log entries for every pool operation.
	// Defaults to a fresh PoolLogger writing at the package default level
	// when nil.
	Logger *logger.PoolLogger
}
