package engine

import (
	"context"
	"log"
	"time"
)

// EpochMonitor tracks a single Engine.Solve invocation's lifecycle: wall
// clock elapsed, cooperative cancellation via a caller-supplied
// context.Context, and an optional timeout layered independently of it.
// Directly grounded on the teacher's context_utils.go ContextMonitor /
// OperationTracker pair, narrowed from a general multi-operation tracker
// down to the single long-running "solve" operation this engine performs.
type EpochMonitor struct {
	ctx       context.Context
	cancel    context.CancelFunc
	start     time.Time
	logger    *log.Logger
	completed bool
}

// NewEpochMonitor wraps the caller's context with the configured timeout
// (if any) and records the start time. If logger is nil, lifecycle events
// are not logged.
func NewEpochMonitor(parent context.Context, cfg *Config, logger *log.Logger) *EpochMonitor {
	ctx := parent
	var cancel context.CancelFunc
	if cfg.TimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(parent, time.Duration(cfg.TimeoutSeconds*float64(time.Second)))
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	m := &EpochMonitor{ctx: ctx, cancel: cancel, start: time.Now(), logger: logger}
	m.logf("solve started")
	return m
}

func (m *EpochMonitor) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// Elapsed returns the wall-clock duration since the monitor was created.
func (m *EpochMonitor) Elapsed() time.Duration {
	return time.Since(m.start)
}

// Expired reports whether the caller's context was cancelled or the
// configured timeout elapsed. The search driver checks this once per
// search-loop iteration, mirroring the teacher's search.go checking
// ctx.Done() at the top of its loop.
func (m *EpochMonitor) Expired() (timedOut bool, quit bool) {
	select {
	case <-m.ctx.Done():
		if m.ctx.Err() == context.DeadlineExceeded {
			return true, false
		}
		return false, true
	default:
		return false, false
	}
}

// Complete marks the operation finished and releases the underlying
// context resources, logging the total elapsed time.
func (m *EpochMonitor) Complete() {
	if m.completed {
		return
	}
	m.completed = true
	m.logf("solve completed after %s", m.Elapsed())
	m.cancel()
}

// Done returns the underlying context's Done channel, for call sites that
// want to select on it directly rather than polling Expired().
func (m *EpochMonitor) Done() <-chan struct{} {
	return m.ctx.Done()
}
