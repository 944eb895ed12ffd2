package zap

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	logpkg "github.com/LerianStudio/ledger-replay/ledger/log"
)

// Logger implements log.Logger on top of a zap logger.
// A nil *Logger, or one built without a core, discards everything.
type Logger struct {
	logger      *zap.Logger
	atomicLevel zap.AtomicLevel
}

var _ logpkg.Logger = (*Logger)(nil)

// NewFromCore wraps an existing zap core. Tests and embedding programs use it to
// route ledger logs into their own sinks.
func NewFromCore(core zapcore.Core) *Logger {
	return &Logger{logger: zap.New(core)}
}

func (l *Logger) base() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}

	return l.logger
}

func (l *Logger) child(z *zap.Logger) *Logger {
	child := &Logger{logger: z}
	if l != nil {
		child.atomicLevel = l.atomicLevel
	}

	return child
}

// Log implements log.Logger. Fields are only converted when the level is enabled.
// When ctx carries a valid span, trace_id and span_id are appended.
func (l *Logger) Log(ctx context.Context, level logpkg.Level, msg string, fields ...logpkg.Field) {
	entry := l.base().Check(zapLevel(level), logpkg.SanitizeString(msg))
	if entry == nil {
		return
	}

	zapFields := toZapFields(fields)

	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}

	entry.Write(zapFields...)
}

// With returns a child logger that always carries fields.
//
//nolint:ireturn
func (l *Logger) With(fields ...logpkg.Field) logpkg.Logger {
	return l.child(l.base().With(toZapFields(fields)...))
}

// WithGroup returns a child logger whose later fields nest under name.
//
//nolint:ireturn
func (l *Logger) WithGroup(name string) logpkg.Logger {
	return l.child(l.base().With(zap.Namespace(name)))
}

// Enabled reports whether level would be written.
func (l *Logger) Enabled(level logpkg.Level) bool {
	return l.base().Core().Enabled(zapLevel(level))
}

// Sync flushes buffered entries. It gives up when ctx is done first.
func (l *Logger) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- l.base().Sync() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Level returns the handle that changes this logger's level at runtime.
// Loggers built with NewFromCore return the zero handle.
func (l *Logger) Level() zap.AtomicLevel {
	if l == nil {
		return zap.AtomicLevel{}
	}

	return l.atomicLevel
}

var zapLevels = map[logpkg.Level]zapcore.Level{
	logpkg.LevelError: zapcore.ErrorLevel,
	logpkg.LevelWarn:  zapcore.WarnLevel,
	logpkg.LevelInfo:  zapcore.InfoLevel,
	logpkg.LevelDebug: zapcore.DebugLevel,
}

func zapLevel(level logpkg.Level) zapcore.Level {
	if zl, ok := zapLevels[level]; ok {
		return zl
	}

	return zapcore.InfoLevel
}

func toZapFields(fields []logpkg.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)

	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, logpkg.SanitizeString(v)))
		case uint64:
			out = append(out, zap.Uint64(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}

	return out
}
