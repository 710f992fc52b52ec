// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Legacy verbosity levels, as accepted by the --verbosity flag.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Logger writes key/value pairs records.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// With returns a new Logger that has this logger's context plus the given context.
	With(ctx ...any) Logger
	Enabled(level slog.Level) bool
}

// WithContext returns a logger which prepends ctx to every record.
// The returned logger always writes through the current root, so package level
// loggers follow a later SetDefault.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// SetDefault replaces the root logger with one writing to h.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

// FromLegacyLevel converts a 0-9 verbosity into a slog level.
func FromLegacyLevel(lvl int) slog.Level {
	return ethlog.FromLegacyLevel(lvl)
}

// NewTerminalHandler returns a human readable handler filtering by level.
func NewTerminalHandler(wr io.Writer, level slog.Leveler, useColor bool) slog.Handler {
	return &levelHandler{level: level, inner: ethlog.NewTerminalHandlerWithLevel(wr, ethlog.LevelTrace, useColor)}
}

// JSONHandler returns a handler writing one JSON object per record.
func JSONHandler(wr io.Writer, level slog.Leveler) slog.Handler {
	return &levelHandler{level: level, inner: ethlog.JSONHandlerWithLevel(wr, ethlog.LevelTrace)}
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// levelHandler filters records below level. The level is read on every
// record, so a *slog.LevelVar changes verbosity at runtime.
type levelHandler struct {
	level slog.Leveler
	inner slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, inner: h.inner.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, inner: h.inner.WithGroup(name)}
}

type contextLogger struct {
	ctx []any
}

func (l *contextLogger) join(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	joined := make([]any, 0, len(l.ctx)+len(ctx))
	joined = append(joined, l.ctx...)
	return append(joined, ctx...)
}

func (l *contextLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.join(ctx)...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.join(ctx)...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.join(ctx)...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.join(ctx)...) }
func (l *contextLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.join(ctx)...) }

// Crit logs at the highest level, it does not exit the process.
func (l *contextLogger) Crit(msg string, ctx ...any) {
	ethlog.Root().Write(ethlog.LevelCrit, msg, l.join(ctx)...)
}

func (l *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{ctx: l.join(ctx)}
}

func (l *contextLogger) Enabled(level slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), level)
}

// Debug logs at debug level through the root logger.
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }

// Info logs at info level through the root logger.
func Info(msg string, ctx ...any) { ethlog.Root().Info(msg, ctx...) }

// Warn logs at warn level through the root logger.
func Warn(msg string, ctx ...any) { ethlog.Root().Warn(msg, ctx...) }

// Error logs at error level through the root logger.
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
