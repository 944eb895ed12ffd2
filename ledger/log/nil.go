package log

import "context"

// NopLogger discards everything. engine.New, csvio.NewReader and the metrics
// factory fall back to it when the caller supplies no logger, so library code
// never has to nil-check its logger.
type NopLogger struct{}

// NewNop returns the shared discard logger.
func NewNop() Logger {
	return nop
}

var nop = &NopLogger{}

func (*NopLogger) Log(context.Context, Level, string, ...Field) {}

// With and WithGroup keep returning the discard logger; fields have nowhere to go.
//
//nolint:ireturn
func (l *NopLogger) With(...Field) Logger { return l }

//nolint:ireturn
func (l *NopLogger) WithGroup(string) Logger { return l }

// Enabled reports false for every level, so callers skip building debug fields.
func (*NopLogger) Enabled(Level) bool { return false }

func (*NopLogger) Sync(context.Context) error { return nil }
