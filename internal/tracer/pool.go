package tracer

import (
	"context"
	"fmt"
	"time"
)

// PoolTracerImpl provides connection pool tracing
type PoolTracerImpl struct {
	Tracer
}

// NewPoolTracer creates a new pool tracer
func NewPoolTracer(base Tracer) PoolTracer {
	return &PoolTracerImpl{
		Tracer: base.WithField("component", "pool"),
	}
}

// TraceGet traces a GetConnection call against a node
func (t *PoolTracerImpl) TraceGet(ctx context.Context, key string) Span {
	span := t.StartSpan(ctx, "pool.get")
	span.SetFields(Fields{
		"pool.node":      key,
		"pool.operation": "get",
	})

	span.Event("connection_requested",
		String("node", key),
	)

	return span
}

// TraceRelease traces a ReleaseDedicated call
func (t *PoolTracerImpl) TraceRelease(ctx context.Context, key string) Span {
	span := t.StartSpan(ctx, "pool.release")
	span.SetFields(Fields{
		"pool.node":      key,
		"pool.operation": "release",
	})

	span.Event("connection_released",
		String("node", key),
	)

	return span
}

// TraceHealthCheck traces a mark-unhealthy call
func (t *PoolTracerImpl) TraceHealthCheck(ctx context.Context) Span {
	span := t.StartSpan(ctx, "pool.health_check")
	span.SetField("pool.operation", "health_check")

	span.Event("health_check_initiated")

	return span
}

// TraceCleanup traces a failover or topology-change reconciliation pass
func (t *PoolTracerImpl) TraceCleanup(ctx context.Context) Span {
	span := t.StartSpan(ctx, "pool.cleanup")
	span.SetField("pool.operation", "cleanup")

	span.Event("cleanup_started")

	return span
}

// RecordPoolHealth records free-list health counts on a span
func RecordPoolHealth(span Span, totalConns, healthyConns, unhealthyConns int) {
	fields := Fields{
		"pool.total_connections":     totalConns,
		"pool.healthy_connections":   healthyConns,
		"pool.unhealthy_connections": unhealthyConns,
	}
	if totalConns > 0 {
		fields["pool.health_percentage"] = float64(healthyConns) / float64(totalConns) * 100
	}
	span.SetFields(fields)

	span.Event("pool_health_recorded",
		Int("total", totalConns),
		Int("healthy", healthyConns),
		Int("unhealthy", unhealthyConns),
	)
}

// RecordError records an error with context on a span
func RecordError(span Span, err error, context string) {
	span.SetFields(Fields{
		"error.message": err.Error(),
		"error.context": context,
		"error.type":    fmt.Sprintf("%T", err),
	})

	span.SetStatus(StatusError)
	span.Event("error_occurred",
		Error(err),
		String("context", context),
	)
}

// TraceWithTimeout creates a span with a watchdog: if timeout elapses before
// the returned cancel func is called, the span's status is set to
// StatusTimeout and an operation_timeout event is recorded. End and
// EndWithError overwrite the status, so once the caller ends the span only
// the event remains.
func TraceWithTimeout(ctx context.Context, t Tracer, operation string, timeout time.Duration) (Span, context.Context, context.CancelFunc) {
	span := t.StartSpan(ctx, operation)
	span.SetField("timeout", timeout.String())

	spanCtx, cancel := context.WithTimeout(span.Context(), timeout)

	go func() {
		<-spanCtx.Done()
		if spanCtx.Err() == context.DeadlineExceeded {
			span.SetStatus(StatusTimeout)
			span.Event("operation_timeout",
				Duration("timeout", timeout),
			)
		}
	}()

	return span, spanCtx, cancel
}
