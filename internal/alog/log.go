// Package alog provides the structured, context-carrying logging
// convention used across this module's packages: a package-local
// disabled-by-default logger wired up with UseLogger, and leveled
// call-sites that accept alternating key/value pairs.
package alog

import (
	"context"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// Logger is the structured logging surface every package in this module
// depends on. Callers pass a context through so deployments can thread
// request- or actor-scoped fields (actor id, correlation id) into every
// line without each call-site having to pass them explicitly.
type Logger interface {
	TraceS(ctx context.Context, msg string, kv ...any)
	DebugS(ctx context.Context, msg string, kv ...any)
	InfoS(ctx context.Context, msg string, kv ...any)
	WarnS(ctx context.Context, msg string, err error, kv ...any)
	ErrorS(ctx context.Context, msg string, err error, kv ...any)
}

// Disabled is the default logger installed in every package before
// UseLogger is called; all calls are no-ops.
var Disabled Logger = disabledLogger{}

type disabledLogger struct{}

func (disabledLogger) TraceS(context.Context, string, ...any)        {}
func (disabledLogger) DebugS(context.Context, string, ...any)        {}
func (disabledLogger) InfoS(context.Context, string, ...any)         {}
func (disabledLogger) WarnS(context.Context, string, error, ...any)  {}
func (disabledLogger) ErrorS(context.Context, string, error, ...any) {}

// btclogAdapter adapts a btclog/v2 handler-backed logger to this
// package's Logger interface, matching the call convention observed
// throughout the actor package this module is grounded on.
type btclogAdapter struct {
	backend btclogv2.Logger
}

// NewLogger builds a Logger backed by the given btclog/v2 handlers. A
// caller typically builds one HandlerSet (console, file, ...) and passes
// it here once at startup, then calls UseLogger on each package.
func NewLogger(handlers ...btclogv2.Handler) Logger {
	return &btclogAdapter{
		backend: btclogv2.NewSLogger(btclogv2.NewHandlerSet(handlers...)),
	}
}

func (l *btclogAdapter) TraceS(ctx context.Context, msg string, kv ...any) {
	l.backend.TraceS(ctx, msg, kv...)
}

func (l *btclogAdapter) DebugS(ctx context.Context, msg string, kv ...any) {
	l.backend.DebugS(ctx, msg, kv...)
}

func (l *btclogAdapter) InfoS(ctx context.Context, msg string, kv ...any) {
	l.backend.InfoS(ctx, msg, kv...)
}

func (l *btclogAdapter) WarnS(ctx context.Context, msg string, err error, kv ...any) {
	l.backend.WarnS(ctx, msg, err, kv...)
}

func (l *btclogAdapter) ErrorS(ctx context.Context, msg string, err error, kv ...any) {
	l.backend.ErrorS(ctx, msg, err, kv...)
}

// Level re-exports btclog's level type so callers configuring a backend
// don't need to import btclog directly just to pick a level.
type Level = btclog.Level

const (
	LevelTrace = btclog.LevelTrace
	LevelDebug = btclog.LevelDebug
	LevelInfo  = btclog.LevelInfo
	LevelWarn  = btclog.LevelWarn
	LevelError = btclog.LevelError
	LevelOff   = btclog.LevelOff
)
