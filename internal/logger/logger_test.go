package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	l := New()
	if l.GetLevel() != InfoLevel {
		t.Errorf("expected default level InfoLevel, got %v", l.GetLevel())
	}
}

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetLevel(DebugLevel)
	l.Info("hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected output to contain message, got %q", out)
	}
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("expected output to contain level, got %q", out)
	}
}

func TestSetPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetPrefix("POOL")
	l.Info("node registered")

	if !strings.Contains(buf.String(), "[POOL]") {
		t.Errorf("expected output to contain prefix, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetLevel(WarnLevel)

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got %q", buf.String())
	}

	l.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("expected warn message to be logged, got %q", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.WithField("node", "node-1").Info("connection opened")

	out := buf.String()
	if !strings.Contains(out, "node=node-1") {
		t.Errorf("expected output to contain field, got %q", out)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetLevel(DebugLevel)
	l.WithFields(map[string]interface{}{
		"node":   "node-1",
		"handle": uint64(7),
	}).Debug("connection opened")

	out := buf.String()
	if !strings.Contains(out, "node=node-1") || !strings.Contains(out, "handle=7") {
		t.Errorf("expected output to contain both fields, got %q", out)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.WithField("node", "node-1").WithError(errors.New("dial failed")).Error("connection open failed")

	out := buf.String()
	if !strings.Contains(out, "error=dial failed") {
		t.Errorf("expected output to contain wrapped error, got %q", out)
	}
}

func TestEnableColor(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.EnableColor(true)
	l.Info("colored")

	if !strings.Contains(buf.String(), ColorReset) {
		t.Errorf("expected ANSI reset sequence in colored output, got %q", buf.String())
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger.output
	SetOutput(&buf)
	defer SetOutput(prev)

	timer := StartTimer("node-register")
	time.Sleep(time.Millisecond)
	timer.Stop()

	out := buf.String()
	if !strings.Contains(out, "operation=node-register") {
		t.Errorf("expected timer output to name the operation, got %q", out)
	}
}

func TestPoolLogger(t *testing.T) {
	var buf bytes.Buffer
	pl := NewPoolLogger()
	pl.SetOutput(&buf)
	pl.SetLevel(DebugLevel)

	pl.NodeRegistered("node-1")
	pl.ConnectionOpened("node-1", 1, 5*time.Millisecond)
	pl.ConnectionReused("node-1", 1)
	pl.ConnectionMarkedUnhealthy("node-1", 1)
	pl.DedicatedReleased(1, 2)
	pl.FailoverHandled("node-1", "node-2")
	pl.TopologyChanged(3, []string{"node-4"})
	pl.ScanCursorInserted("cursor-token")
	pl.ScriptCached("abc123", 2)
	pl.ScriptEvicted("abc123")

	out := buf.String()
	for _, want := range []string{
		"Node registered", "Connection opened", "Dedicated connection reused",
		"Connection marked unhealthy", "Dedicated set released", "Failover handled",
		"Topology change reconciled", "Scan cursor registered", "Script cache entry updated",
		"Script evicted from cache",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestPoolLoggerConnectionOpenFailed(t *testing.T) {
	var buf bytes.Buffer
	pl := NewPoolLogger()
	pl.SetOutput(&buf)

	pl.ConnectionOpenFailed("node-1", 3, errors.New("dial refused"))

	out := buf.String()
	if !strings.Contains(out, "Connection open failed") || !strings.Contains(out, "error=dial refused") {
		t.Errorf("expected failure log with error field, got %q", out)
	}
}

func TestLogPoolGetAndError(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger.output
	prevLevel := defaultLogger.GetLevel()
	SetOutput(&buf)
	SetLevel(DebugLevel)
	defer func() {
		SetOutput(prev)
		SetLevel(prevLevel)
	}()

	LogPoolGet("node-1", 1, "reused", 0)
	if !strings.Contains(buf.String(), "Pool get reused") {
		t.Errorf("expected pool get log, got %q", buf.String())
	}

	buf.Reset()
	LogPoolError("get_connection", "node-1", 1, errors.New("factory failed"))
	if !strings.Contains(buf.String(), "Pool operation get_connection failed") {
		t.Errorf("expected pool error log, got %q", buf.String())
	}
}
