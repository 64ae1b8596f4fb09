package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds run-scoped logging context for one client invocation.
type LogContext struct {
	RunID     string    // process-local correlation id, never sent on the wire
	Stage     string    // current protocol stage (register, login, keyExchange, upload, reconcile)
	ClientID  string    // hex-encoded client identifier, empty before REGISTER/LOGIN completes
	Host      string    // server address this run is connected to
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a run targeting the given host.
func NewLogContext(runID, host string) *LogContext {
	return &LogContext{
		RunID:     runID,
		Host:      host,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		RunID:     lc.RunID,
		Stage:     lc.Stage,
		ClientID:  lc.ClientID,
		Host:      lc.Host,
		StartTime: lc.StartTime,
	}
}

// WithStage returns a copy with the stage set
func (lc *LogContext) WithStage(stage string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Stage = stage
	}
	return clone
}

// WithClientID returns a copy with the client id set
func (lc *LogContext) WithClientID(clientID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ClientID = clientID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
